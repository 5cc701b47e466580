package profile

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_ordering/internal/logging"
	"github.com/Skotchmaster/food_ordering/internal/models"
)

type ProfileHandler struct {
	DB *gorm.DB
}

func getID(c echo.Context) (uint, bool) {
	id, ok := c.Get("customerID").(uint)
	return id, ok && id != 0
}

// GetProfile returns the customer record plus recent order history.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile_view")

	customerID, ok := getID(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/signin")
	}

	var customer models.Customer
	if err := h.DB.WithContext(ctx).First(&customer, customerID).Error; err != nil {
		l.Error("profile_view_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var orders []models.Order
	if err := h.DB.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(20).
		Find(&orders).Error; err != nil {
		l.Error("profile_view_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"customer": customer,
		"orders":   orders,
	})
}

type updateProfileRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email"    form:"email"`
	Phone    string `json:"phone"    form:"phone"`
}

func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile_update")

	customerID, ok := getID(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/signin")
	}

	var customer models.Customer
	if err := h.DB.WithContext(ctx).First(&customer, customerID).Error; err != nil {
		l.Error("profile_update_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("profile_update_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Username != "" {
		customer.Username = req.Username
	}
	if req.Email != "" {
		customer.Email = req.Email
	}
	if req.Phone != "" {
		customer.Phone = req.Phone
	}

	if err := h.DB.WithContext(ctx).Save(&customer).Error; err != nil {
		l.Error("profile_update_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("profile_update_success", "customerID", customerID)
	return c.JSON(http.StatusOK, customer)
}
