package profile

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_ordering/internal/logging"
	"github.com/Skotchmaster/food_ordering/internal/models"
)

type preferencesRequest struct {
	NotificationsEnabled *bool  `json:"notifications_enabled" form:"notifications_enabled"`
	Language             string `json:"language"              form:"language"`
	Theme                string `json:"theme"                 form:"theme"`
}

func (h *ProfileHandler) GetPreferences(c echo.Context) error {
	ctx := c.Request().Context()

	customerID, ok := getID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var prefs models.Preferences
	err := h.DB.WithContext(ctx).Where("customer_id = ?", customerID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prefs = models.Preferences{
			CustomerID:           customerID,
			NotificationsEnabled: true,
			Language:             "English",
			Theme:                "Light",
		}
		return c.JSON(http.StatusOK, prefs)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, prefs)
}

// PutPreferences upserts the single preferences row per customer.
func (h *ProfileHandler) PutPreferences(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "preferences_put")

	customerID, ok := getID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req preferencesRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("preferences_put_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var prefs models.Preferences
	err := h.DB.WithContext(ctx).Where("customer_id = ?", customerID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prefs = models.Preferences{
			CustomerID:           customerID,
			NotificationsEnabled: true,
			Language:             "English",
			Theme:                "Light",
		}
	} else if err != nil {
		l.Error("preferences_put_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if req.NotificationsEnabled != nil {
		prefs.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.Language != "" {
		prefs.Language = req.Language
	}
	if req.Theme != "" {
		prefs.Theme = req.Theme
	}

	if err := h.DB.WithContext(ctx).Save(&prefs).Error; err != nil {
		l.Error("preferences_put_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, prefs)
}
