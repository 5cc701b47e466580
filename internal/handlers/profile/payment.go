package profile

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_ordering/internal/logging"
	"github.com/Skotchmaster/food_ordering/internal/models"
)

type paymentMethodRequest struct {
	CardNumber string `json:"card_number" form:"card_number"`
	CardHolder string `json:"card_holder" form:"card_holder"`
	ExpiryDate string `json:"expiry_date" form:"expiry_date"`
	IsDefault  bool   `json:"is_default"  form:"is_default"`
}

func (h *ProfileHandler) ListPaymentMethods(c echo.Context) error {
	ctx := c.Request().Context()

	customerID, ok := getID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var methods []models.PaymentMethod
	if err := h.DB.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Find(&methods).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, methods)
}

func (h *ProfileHandler) CreatePaymentMethod(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment_create")

	customerID, ok := getID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req paymentMethodRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("payment_create_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.CardNumber == "" || req.CardHolder == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "card number and holder required")
	}

	method := models.PaymentMethod{
		CustomerID: customerID,
		CardNumber: req.CardNumber,
		CardHolder: req.CardHolder,
		ExpiryDate: req.ExpiryDate,
		IsDefault:  req.IsDefault,
	}

	txErr := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := tx.Model(&models.PaymentMethod{}).
				Where("customer_id = ?", customerID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&method).Error
	})
	if txErr != nil {
		l.Error("payment_create_error", "status", 500, "error", txErr)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("payment_create_success", "paymentID", method.ID)
	return c.JSON(http.StatusCreated, method)
}

func (h *ProfileHandler) DeletePaymentMethod(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment_delete")

	customerID, ok := getID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	paymentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || paymentID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payment method id")
	}

	if err := h.DB.WithContext(ctx).
		Where("id = ? AND customer_id = ?", paymentID, customerID).
		Delete(&models.PaymentMethod{}).Error; err != nil {
		l.Error("payment_delete_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.NoContent(http.StatusNoContent)
}
