package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_ordering/internal/handlers"
	"github.com/Skotchmaster/food_ordering/internal/handlers/auth"
	"github.com/Skotchmaster/food_ordering/internal/handlers/cart"
	"github.com/Skotchmaster/food_ordering/internal/handlers/catalog"
	"github.com/Skotchmaster/food_ordering/internal/handlers/order"
	"github.com/Skotchmaster/food_ordering/internal/handlers/profile"
	"github.com/Skotchmaster/food_ordering/internal/models"
	"github.com/Skotchmaster/food_ordering/internal/service/token"
)

type Deps struct {
	DB             *gorm.DB
	AuthHandler    *auth.AuthHandler
	CatalogHandler *catalog.CatalogHandler
	CartHandler    *cart.CartHandler
	OrderHandler   *order.OrderHandler
	ProfileHandler *profile.ProfileHandler
	SearchHandler  *handlers.SearchHandler
	TokenService   *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/signup", d.AuthHandler.SignUp)
	e.POST("/signin", d.AuthHandler.SignIn)
	e.POST("/logout", d.AuthHandler.LogOut)

	e.GET("/restaurants", d.CatalogHandler.ListRestaurants)
	e.GET("/restaurants/:id/menu", d.CatalogHandler.GetMenu)
	e.GET("/restaurants/:id/reviews", d.CatalogHandler.ListReviews)
	e.GET("/search", d.SearchHandler.Search)

	// The badge works for everyone: authenticated customers get their real
	// sum, anonymous visitors get zero.
	e.GET("/cart/count", d.CartHandler.CartCount, d.TokenService.OptionalAuth)

	// Browser-facing flows: authentication failures send the caller to the
	// sign-in page instead of a bare 401.
	web := e.Group("", d.TokenService.AutoRefreshMiddlewareWeb)

	web.GET("/cart", d.CartHandler.GetCart)
	web.POST("/add_to_cart/:food_id", d.CartHandler.AddToCart)
	web.POST("/remove_from_cart/:food_id", d.CartHandler.RemoveFromCart)
	web.POST("/delete_from_cart/:food_id", d.CartHandler.DeleteFromCart)
	web.POST("/delete_cart_items", d.CartHandler.DeleteCartItems)

	web.POST("/place_order", d.OrderHandler.PlaceOrder)
	web.GET("/order_confirmation/:order_id", d.OrderHandler.OrderConfirmation)
	web.POST("/confirm_order/:order_id", d.OrderHandler.ConfirmOrder)
	web.GET("/orders", d.OrderHandler.ListOrders)

	web.GET("/profile", d.ProfileHandler.GetProfile)
	web.PATCH("/profile", d.ProfileHandler.UpdateProfile)
	web.GET("/profile/addresses", d.ProfileHandler.ListAddresses)
	web.POST("/profile/addresses", d.ProfileHandler.CreateAddress)
	web.PATCH("/profile/addresses/:id", d.ProfileHandler.UpdateAddress)
	web.DELETE("/profile/addresses/:id", d.ProfileHandler.DeleteAddress)
	web.GET("/profile/payment_methods", d.ProfileHandler.ListPaymentMethods)
	web.POST("/profile/payment_methods", d.ProfileHandler.CreatePaymentMethod)
	web.DELETE("/profile/payment_methods/:id", d.ProfileHandler.DeletePaymentMethod)
	web.GET("/profile/preferences", d.ProfileHandler.GetPreferences)
	web.PUT("/profile/preferences", d.ProfileHandler.PutPreferences)

	web.POST("/restaurants/:id/reviews", d.CatalogHandler.CreateReview)

	owner := e.Group("/owner", d.TokenService.AutoRefreshMiddleware, token.RequireRole(models.RoleOwner))
	owner.POST("/restaurants", d.CatalogHandler.CreateRestaurant)
	owner.PATCH("/restaurants/:id", d.CatalogHandler.UpdateRestaurant)
	owner.POST("/restaurants/:id/food", d.CatalogHandler.CreateFood)
	owner.PATCH("/food/:id", d.CatalogHandler.PatchFood)
	owner.DELETE("/food/:id", d.CatalogHandler.DeleteFood)

	admin := e.Group("/admin", d.TokenService.AutoRefreshMiddleware, token.RequireRole(models.RoleAdmin))
	admin.PATCH("/restaurants/:id/approve", d.CatalogHandler.ApproveRestaurant)
	admin.PATCH("/restaurants/:id/feature", d.CatalogHandler.FeatureRestaurant)
}
