package profile

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_ordering/internal/logging"
	"github.com/Skotchmaster/food_ordering/internal/models"
)

type addressRequest struct {
	Address   string `json:"address"    form:"address"`
	City      string `json:"city"       form:"city"`
	State     string `json:"state"      form:"state"`
	Zip       string `json:"zip"        form:"zip"`
	IsDefault bool   `json:"is_default" form:"is_default"`
}

func (h *ProfileHandler) ListAddresses(c echo.Context) error {
	ctx := c.Request().Context()

	customerID, ok := getID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var addresses []models.DeliveryAddress
	if err := h.DB.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Find(&addresses).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, addresses)
}

func (h *ProfileHandler) CreateAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address_create")

	customerID, ok := getID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req addressRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("address_create_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Address == "" || req.City == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "address and city required")
	}

	address := models.DeliveryAddress{
		CustomerID: customerID,
		Address:    req.Address,
		City:       req.City,
		State:      req.State,
		Zip:        req.Zip,
		IsDefault:  req.IsDefault,
	}

	txErr := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := tx.Model(&models.DeliveryAddress{}).
				Where("customer_id = ?", customerID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&address).Error
	})
	if txErr != nil {
		l.Error("address_create_error", "status", 500, "error", txErr)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("address_create_success", "addressID", address.ID)
	return c.JSON(http.StatusCreated, address)
}

func (h *ProfileHandler) UpdateAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address_update")

	customerID, ok := getID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	addressID, err := strconv.Atoi(c.Param("id"))
	if err != nil || addressID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid address id")
	}

	var address models.DeliveryAddress
	if err := h.DB.WithContext(ctx).
		Where("id = ? AND customer_id = ?", addressID, customerID).
		First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "address not found")
		}
		l.Error("address_update_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var req addressRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("address_update_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	address.Address = req.Address
	address.City = req.City
	address.State = req.State
	address.Zip = req.Zip
	address.IsDefault = req.IsDefault

	if err := h.DB.WithContext(ctx).Save(&address).Error; err != nil {
		l.Error("address_update_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, address)
}

// DeleteAddress removes an address from the book. Orders keep their own
// snapshot of the address text, so history is unaffected.
func (h *ProfileHandler) DeleteAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address_delete")

	customerID, ok := getID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	addressID, err := strconv.Atoi(c.Param("id"))
	if err != nil || addressID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid address id")
	}

	if err := h.DB.WithContext(ctx).
		Where("id = ? AND customer_id = ?", addressID, customerID).
		Delete(&models.DeliveryAddress{}).Error; err != nil {
		l.Error("address_delete_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.NoContent(http.StatusNoContent)
}
