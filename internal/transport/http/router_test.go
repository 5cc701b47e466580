package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_ordering/internal/config"
	"github.com/Skotchmaster/food_ordering/internal/handlers"
	"github.com/Skotchmaster/food_ordering/internal/handlers/auth"
	"github.com/Skotchmaster/food_ordering/internal/handlers/cart"
	"github.com/Skotchmaster/food_ordering/internal/handlers/catalog"
	"github.com/Skotchmaster/food_ordering/internal/handlers/order"
	"github.com/Skotchmaster/food_ordering/internal/handlers/profile"
	"github.com/Skotchmaster/food_ordering/internal/models"
	"github.com/Skotchmaster/food_ordering/internal/mykafka"
	"github.com/Skotchmaster/food_ordering/internal/service/token"
)

func newTestServer(t *testing.T) (*echo.Echo, *gorm.DB, *token.TokenService) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	jwtSecret := []byte("test_jwt_secret")
	refreshSecret := []byte("test_refresh_secret")
	prod := &mykafka.Producer{}
	ts := &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}

	e := echo.New()
	Register(e, &Deps{
		DB:             db,
		AuthHandler:    &auth.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod},
		CatalogHandler: &catalog.CatalogHandler{DB: db, Producer: prod},
		CartHandler:    &cart.CartHandler{DB: db, Producer: prod},
		OrderHandler:   &order.OrderHandler{DB: db, Producer: prod},
		ProfileHandler: &profile.ProfileHandler{DB: db},
		SearchHandler:  handlers.NewSearchHandler(nil, "food_items"),
		TokenService:   ts,
	})

	return e, db, ts
}

func cartCount(t *testing.T, e *echo.Echo, cookies ...*http.Cookie) int64 {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/cart/count", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp["count"]
}

// The badge route carries auth through the real middleware chain: a signed-in
// customer sees the sum of their cart quantities, not the anonymous zero.
func TestCartCountRouteAuthenticated(t *testing.T) {
	e, db, ts := newTestServer(t)

	require.NoError(t, db.Create(&models.CartEntry{CustomerID: 1, FoodID: 1, Quantity: 2}).Error)
	require.NoError(t, db.Create(&models.CartEntry{CustomerID: 1, FoodID: 2, Quantity: 3}).Error)
	require.NoError(t, db.Create(&models.CartEntry{CustomerID: 2, FoodID: 1, Quantity: 9}).Error)

	access, err := token.SignAccessToken(1, models.RoleCustomer, ts.JWTSecret)
	require.NoError(t, err)

	count := cartCount(t, e, &http.Cookie{Name: "accessToken", Value: access})
	require.Equal(t, int64(5), count)
}

func TestCartCountRouteAnonymous(t *testing.T) {
	e, db, _ := newTestServer(t)

	require.NoError(t, db.Create(&models.CartEntry{CustomerID: 1, FoodID: 1, Quantity: 2}).Error)

	require.Equal(t, int64(0), cartCount(t, e))
}

func TestCartCountRouteRefreshCookieOnly(t *testing.T) {
	e, db, ts := newTestServer(t)

	require.NoError(t, db.Create(&models.CartEntry{CustomerID: 4, FoodID: 1, Quantity: 7}).Error)

	raw, jti, err := token.SignRefreshToken(4, models.RoleCustomer, ts.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, token.SaveRefreshToken(db, raw, jti, models.RoleCustomer, 4))

	count := cartCount(t, e, &http.Cookie{Name: "refreshToken", Value: raw})
	require.Equal(t, int64(7), count)
}

func TestCartCountRouteGarbageCookieFallsBackToAnonymous(t *testing.T) {
	e, db, _ := newTestServer(t)

	require.NoError(t, db.Create(&models.CartEntry{CustomerID: 1, FoodID: 1, Quantity: 2}).Error)

	count := cartCount(t, e, &http.Cookie{Name: "accessToken", Value: "not-a-jwt"})
	require.Equal(t, int64(0), count)
}
