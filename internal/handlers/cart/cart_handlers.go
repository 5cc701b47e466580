package cart

import (
	"errors"
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

type CartHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type CartLine struct {
	ID        uint            `json:"id"`
	FoodID    uint            `json:"food_id"`
	Name      string          `json:"name"`
	Quantity  uint            `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartView struct {
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_view")

	customerID, ok := getID(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/signin")
	}

	var entries []models.CartEntry
	if err := h.DB.WithContext(ctx).Where("customer_id = ?", customerID).Find(&entries).Error; err != nil {
		l.Error("cart_view_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	foodIDs := make([]uint, 0, len(entries))
	for _, e := range entries {
		foodIDs = append(foodIDs, e.FoodID)
	}

	foods := map[uint]models.FoodItem{}
	if len(foodIDs) > 0 {
		var items []models.FoodItem
		if err := h.DB.WithContext(ctx).Where("id IN ?", foodIDs).Find(&items).Error; err != nil {
			l.Error("cart_view_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		for _, f := range items {
			foods[f.ID] = f
		}
	}

	view := CartView{Items: make([]CartLine, 0, len(entries)), Total: decimal.Zero}
	for _, e := range entries {
		food := foods[e.FoodID]
		lineTotal := food.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
		view.Items = append(view.Items, CartLine{
			ID:        e.ID,
			FoodID:    e.FoodID,
			Name:      food.Name,
			Quantity:  e.Quantity,
			UnitPrice: food.Price,
			LineTotal: lineTotal,
		})
		view.Total = view.Total.Add(lineTotal)
	}

	return c.JSON(http.StatusOK, view)
}

// CartCount is the "item count badge": the sum of quantities across the
// customer's cart, recomputed from current rows on every read.
func (h *CartHandler) CartCount(c echo.Context) error {
	ctx := c.Request().Context()

	customerID, ok := getID(c)
	if !ok {
		return c.JSON(http.StatusOK, echo.Map{"count": 0})
	}

	var count int64
	if err := h.DB.WithContext(ctx).Model(&models.CartEntry{}).
		Where("customer_id = ?", customerID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

// AddToCart increments the (customer, food) entry or creates it, never
// producing a second row for the same pair.
func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_add")

	customerID, ok := getID(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/signin")
	}

	foodID, err := strconv.Atoi(c.Param("food_id"))
	if err != nil || foodID <= 0 {
		l.Warn("cart_add_error", "status", 400, "reason", "invalid food id")
		return c.Redirect(http.StatusSeeOther, "/cart?error=invalid_item")
	}

	quantity := uint(1)
	if q := c.FormValue("quantity"); q != "" {
		if v, err := strconv.Atoi(q); err == nil && v > 0 {
			quantity = uint(v)
		}
	}

	var food models.FoodItem
	if err := h.DB.WithContext(ctx).First(&food, foodID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("cart_add_error", "status", 404, "reason", "food not found")
			return c.Redirect(http.StatusSeeOther, "/cart?error=item_not_found")
		}
		l.Error("cart_add_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	entry := models.CartEntry{CustomerID: customerID, FoodID: uint(foodID), Quantity: quantity}
	txErr := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartEntry{}).
			Where("customer_id = ? AND food_id = ?", customerID, foodID).
			Update("quantity", gorm.Expr("quantity + ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Create(&entry).Error
	})
	if txErr != nil {
		l.Error("cart_add_error", "status", 500, "error", txErr)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":       "cart_item_added",
		"customerID": customerID,
		"foodID":     foodID,
		"quantity":   quantity,
	})

	l.Info("cart_add_success", "foodID", foodID)
	return redirectBack(c)
}

// RemoveFromCart decrements the entry by one, deleting the row when the
// quantity would drop to zero.
func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_remove")

	customerID, ok := getID(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/signin")
	}

	foodID, err := strconv.Atoi(c.Param("food_id"))
	if err != nil || foodID <= 0 {
		l.Warn("cart_remove_error", "status", 400, "reason", "invalid food id")
		return c.Redirect(http.StatusSeeOther, "/cart?error=invalid_item")
	}

	txErr := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.CartEntry
		if err := util.LockForUpdate(tx).
			Where("customer_id = ? AND food_id = ?", customerID, foodID).
			First(&entry).Error; err != nil {
			return err
		}
		if entry.Quantity > 1 {
			return tx.Model(&entry).Update("quantity", gorm.Expr("quantity - 1")).Error
		}
		return tx.Delete(&entry).Error
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrRecordNotFound) {
			return c.Redirect(http.StatusSeeOther, "/cart")
		}
		l.Error("cart_remove_error", "status", 500, "error", txErr)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":       "cart_item_decremented",
		"customerID": customerID,
		"foodID":     foodID,
	})

	return c.Redirect(http.StatusSeeOther, "/cart")
}

// DeleteFromCart removes the entry for the food item regardless of quantity.
func (h *CartHandler) DeleteFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_delete")

	customerID, ok := getID(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/signin")
	}

	foodID, err := strconv.Atoi(c.Param("food_id"))
	if err != nil || foodID <= 0 {
		l.Warn("cart_delete_error", "status", 400, "reason", "invalid food id")
		return c.Redirect(http.StatusSeeOther, "/cart?error=invalid_item")
	}

	if err := h.DB.WithContext(ctx).
		Where("customer_id = ? AND food_id = ?", customerID, foodID).
		Delete(&models.CartEntry{}).Error; err != nil {
		l.Error("cart_delete_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":       "cart_item_deleted",
		"customerID": customerID,
		"foodID":     foodID,
	})

	return c.Redirect(http.StatusSeeOther, "/cart")
}

type bulkDeleteRequest struct {
	FoodIDs []uint `json:"food_ids"`
}

type bulkDeleteResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// DeleteCartItems bulk-removes cart rows by food id. The delete is always
// scoped to the authenticated customer.
func (h *CartHandler) DeleteCartItems(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_bulk_delete")

	customerID, ok := getID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, bulkDeleteResponse{Status: "error", Message: "unauthorized"})
	}

	var req bulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("cart_bulk_delete_error", "status", 400, "reason", "invalid body", "error", err)
		return c.JSON(http.StatusBadRequest, bulkDeleteResponse{Status: "error", Message: "invalid body"})
	}
	if len(req.FoodIDs) == 0 {
		l.Warn("cart_bulk_delete_error", "status", 400, "reason", "empty selection")
		return c.JSON(http.StatusBadRequest, bulkDeleteResponse{Status: "error", Message: "no items selected"})
	}

	if err := h.DB.WithContext(ctx).
		Where("customer_id = ? AND food_id IN ?", customerID, req.FoodIDs).
		Delete(&models.CartEntry{}).Error; err != nil {
		l.Error("cart_bulk_delete_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, bulkDeleteResponse{Status: "error", Message: "internal error"})
	}

	h.publish(c, map[string]any{
		"type":       "cart_items_deleted",
		"customerID": customerID,
		"foodIDs":    req.FoodIDs,
	})

	return c.JSON(http.StatusOK, bulkDeleteResponse{Status: "success"})
}
