package order

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_ordering/internal/logging"
	"github.com/Skotchmaster/food_ordering/internal/models"
	"github.com/Skotchmaster/food_ordering/internal/mykafka"
	"github.com/Skotchmaster/food_ordering/internal/util"
)

var (
	ErrEmptySelection = errors.New("empty selection")
	ErrInvalidAddress = errors.New("invalid address")
	ErrNoValidItems   = errors.New("no valid items")
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type PlaceOrderRequest struct {
	SelectedItems   []uint `json:"selected_items"   form:"selected_items"`
	DeliveryAddress uint   `json:"delivery_address" form:"delivery_address"`
}

// PlaceOrder converts the selected subset of the customer's cart into an
// Order plus OrderItems and removes exactly those cart rows, all inside one
// transaction. Any failure rolls the whole mutation back and returns the
// caller to the cart with its prior state intact.
func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order_place")

	customerID, ok := getID(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/signin")
	}

	var req PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("place_order_error", "status", 400, "reason", "invalid body", "error", err)
		return c.Redirect(http.StatusSeeOther, "/cart?error=invalid_request")
	}

	if len(req.SelectedItems) == 0 {
		l.Warn("place_order_error", "reason", "empty selection")
		return c.Redirect(http.StatusSeeOther, "/cart?error=empty_selection")
	}

	var address models.DeliveryAddress
	if err := h.DB.WithContext(ctx).
		Where("id = ? AND customer_id = ?", req.DeliveryAddress, customerID).
		First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("place_order_error", "reason", "invalid address", "addressID", req.DeliveryAddress)
			return c.Redirect(http.StatusSeeOther, "/cart?error=invalid_address")
		}
		l.Error("place_order_error", "status", 500, "error", err)
		return c.Redirect(http.StatusSeeOther, "/cart?error=order_failed")
	}

	var order models.Order
	txErr := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entries []models.CartEntry
		if err := util.LockForUpdate(tx).
			Where("customer_id = ? AND food_id IN ?", customerID, req.SelectedItems).
			Find(&entries).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return ErrNoValidItems
		}

		total := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(entries))
		matchedIDs := make([]uint, 0, len(entries))
		for _, entry := range entries {
			var food models.FoodItem
			if err := tx.First(&food, entry.FoodID).Error; err != nil {
				return fmt.Errorf("food %d: %w", entry.FoodID, err)
			}
			total = total.Add(food.Price.Mul(decimal.NewFromInt(int64(entry.Quantity))))
			orderItems = append(orderItems, models.OrderItem{
				FoodID:    entry.FoodID,
				Quantity:  entry.Quantity,
				UnitPrice: food.Price,
			})
			matchedIDs = append(matchedIDs, entry.ID)
		}

		order = models.Order{
			CustomerID:      customerID,
			Status:          models.OrderStatusPlaced,
			TotalPrice:      total,
			DeliveryAddress: snapshotAddress(address),
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for i := range orderItems {
			orderItems[i].OrderID = order.ID
		}
		if err := tx.Create(&orderItems).Error; err != nil {
			return err
		}

		return tx.Where("id IN ?", matchedIDs).Delete(&models.CartEntry{}).Error
	})

	if txErr != nil {
		if errors.Is(txErr, ErrNoValidItems) {
			l.Warn("place_order_error", "reason", "no valid items")
			return c.Redirect(http.StatusSeeOther, "/cart?error=no_valid_items")
		}
		l.Error("place_order_failed", "status", 500, "error", txErr)
		return c.Redirect(http.StatusSeeOther, "/cart?error=order_failed")
	}

	h.publish(c, map[string]any{
		"type":       "order_placed",
		"customerID": customerID,
		"orderID":    order.ID,
		"total":      order.TotalPrice,
	})

	l.Info("place_order_success", "orderID", order.ID)
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/order_confirmation/%d", order.ID))
}

// OrderConfirmation is the read-only projection shown after placement.
func (h *OrderHandler) OrderConfirmation(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order_confirmation")

	customerID, ok := getID(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/signin")
	}

	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil || orderID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var order models.Order
	if err := h.DB.WithContext(ctx).
		Where("id = ? AND customer_id = ?", orderID, customerID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		l.Error("order_confirmation_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var items []models.OrderItem
	if err := h.DB.WithContext(ctx).Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		l.Error("order_confirmation_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"order": order,
		"items": items,
	})
}

// ConfirmOrder moves a placed order into the confirmed state.
func (h *OrderHandler) ConfirmOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order_confirm")

	customerID, ok := getID(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/signin")
	}

	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil || orderID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var order models.Order
	if err := h.DB.WithContext(ctx).
		Where("id = ? AND customer_id = ?", orderID, customerID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		l.Error("order_confirm_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if order.Status != models.OrderStatusPlaced {
		l.Warn("order_confirm_error", "status", 409, "reason", "invalid transition", "from", order.Status)
		return echo.NewHTTPError(http.StatusConflict, "order cannot be confirmed")
	}

	// Guard the transition in the UPDATE itself so concurrent confirms cannot
	// both pass the status check above.
	res := h.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, models.OrderStatusPlaced).
		Update("status", models.OrderStatusConfirmed)
	if res.Error != nil {
		l.Error("order_confirm_error", "status", 500, "error", res.Error)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if res.RowsAffected == 0 {
		l.Warn("order_confirm_error", "status", 409, "reason", "lost transition race")
		return echo.NewHTTPError(http.StatusConflict, "order cannot be confirmed")
	}

	h.publish(c, map[string]any{
		"type":       "order_confirmed",
		"customerID": customerID,
		"orderID":    order.ID,
	})

	l.Info("order_confirm_success", "orderID", order.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"order_id": order.ID,
		"status":   models.OrderStatusConfirmed,
	})
}

// ListOrders returns the customer's order history, newest first.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order_list")

	customerID, ok := getID(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/signin")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var orders []models.Order
	if err := h.DB.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		l.Error("order_list_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, orders)
}

func snapshotAddress(a models.DeliveryAddress) string {
	return fmt.Sprintf("%s, %s, %s %s", a.Address, a.City, a.State, a.Zip)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
