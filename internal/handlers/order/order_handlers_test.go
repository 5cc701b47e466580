package order

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_ordering/internal/config"
	"github.com/Skotchmaster/food_ordering/internal/models"
	"github.com/Skotchmaster/food_ordering/internal/mykafka"
)

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
		return nil
	}

	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func newHandler(t *testing.T) *OrderHandler {
	return &OrderHandler{
		DB:       InitTestDB(t),
		Producer: &mykafka.Producer{},
	}
}

// seedCart gives customer 1 a Pizza (id 1, 9.00) x2 and a Soda (id 2, 2.00) x3
// plus delivery address 1.
func seedCart(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&models.FoodItem{RestaurantID: 1, Name: "Pizza", Price: decimal.RequireFromString("9.00")}).Error)
	require.NoError(t, db.Create(&models.FoodItem{RestaurantID: 1, Name: "Soda", Price: decimal.RequireFromString("2.00")}).Error)
	require.NoError(t, db.Create(&models.CartEntry{CustomerID: 1, FoodID: 1, Quantity: 2}).Error)
	require.NoError(t, db.Create(&models.CartEntry{CustomerID: 1, FoodID: 2, Quantity: 3}).Error)
	require.NoError(t, db.Create(&models.DeliveryAddress{
		CustomerID: 1, Address: "1 Main St", City: "Springfield", State: "IL", Zip: "62704",
	}).Error)
}

func formContext(e *echo.Echo, method, path, form string, customerID uint) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(method, path, strings.NewReader(form))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if customerID != 0 {
		c.Set("customerID", customerID)
	}
	return rec, c
}

func TestPlaceOrderSelectedSubset(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	seedCart(t, h.DB)

	rec, c := formContext(e, http.MethodPost, "/place_order", "selected_items=1&delivery_address=1", 1)
	require.NoError(t, h.PlaceOrder(c))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/order_confirmation/1", rec.Header().Get(echo.HeaderLocation))

	var order models.Order
	require.NoError(t, h.DB.First(&order, 1).Error)
	require.Equal(t, uint(1), order.CustomerID)
	require.Equal(t, models.OrderStatusPlaced, order.Status)
	require.True(t, order.TotalPrice.Equal(decimal.RequireFromString("18.00")), "total = %s", order.TotalPrice)
	require.Equal(t, "1 Main St, Springfield, IL 62704", order.DeliveryAddress)

	var items []models.OrderItem
	require.NoError(t, h.DB.Where("order_id = ?", order.ID).Find(&items).Error)
	require.Len(t, items, 1)
	require.Equal(t, uint(1), items[0].FoodID)
	require.Equal(t, uint(2), items[0].Quantity)
	require.True(t, items[0].UnitPrice.Equal(decimal.RequireFromString("9.00")))

	// The unselected Soda row survives untouched.
	var remaining []models.CartEntry
	require.NoError(t, h.DB.Where("customer_id = ?", 1).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, uint(2), remaining[0].FoodID)
	require.Equal(t, uint(3), remaining[0].Quantity)
}

func TestPlaceOrderUnauthenticated(t *testing.T) {
	h := newHandler(t)
	e := echo.New()

	rec, c := formContext(e, http.MethodPost, "/place_order", "selected_items=1&delivery_address=1", 0)
	require.NoError(t, h.PlaceOrder(c))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/signin", rec.Header().Get(echo.HeaderLocation))
}

func TestPlaceOrderEmptySelection(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	seedCart(t, h.DB)

	rec, c := formContext(e, http.MethodPost, "/place_order", "delivery_address=1", 1)
	require.NoError(t, h.PlaceOrder(c))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/cart?error=empty_selection", rec.Header().Get(echo.HeaderLocation))
}

func TestPlaceOrderInvalidAddress(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	seedCart(t, h.DB)

	// Unknown address id.
	rec, c := formContext(e, http.MethodPost, "/place_order", "selected_items=1&delivery_address=99", 1)
	require.NoError(t, h.PlaceOrder(c))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/cart?error=invalid_address", rec.Header().Get(echo.HeaderLocation))

	// Someone else's address is just as invalid.
	require.NoError(t, h.DB.Create(&models.DeliveryAddress{
		CustomerID: 2, Address: "9 Elm St", City: "Shelbyville",
	}).Error)
	rec, c = formContext(e, http.MethodPost, "/place_order", "selected_items=1&delivery_address=2", 1)
	require.NoError(t, h.PlaceOrder(c))
	require.Equal(t, "/cart?error=invalid_address", rec.Header().Get(echo.HeaderLocation))

	var count int64
	h.DB.Model(&models.Order{}).Count(&count)
	require.Zero(t, count)
}

func TestPlaceOrderNoValidItems(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	seedCart(t, h.DB)

	rec, c := formContext(e, http.MethodPost, "/place_order", "selected_items=42&delivery_address=1", 1)
	require.NoError(t, h.PlaceOrder(c))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/cart?error=no_valid_items", rec.Header().Get(echo.HeaderLocation))

	var entries, orders int64
	h.DB.Model(&models.CartEntry{}).Where("customer_id = ?", 1).Count(&entries)
	h.DB.Model(&models.Order{}).Count(&orders)
	require.Equal(t, int64(2), entries)
	require.Zero(t, orders)
}

func TestPlaceOrderRollsBackOnFailure(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	seedCart(t, h.DB)

	// Sabotage the order_items insert so the transaction must abort.
	require.NoError(t, h.DB.Migrator().DropTable(&models.OrderItem{}))

	rec, c := formContext(e, http.MethodPost, "/place_order", "selected_items=1&selected_items=2&delivery_address=1", 1)
	require.NoError(t, h.PlaceOrder(c))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/cart?error=order_failed", rec.Header().Get(echo.HeaderLocation))

	var orders int64
	h.DB.Model(&models.Order{}).Count(&orders)
	require.Zero(t, orders)

	var entries []models.CartEntry
	require.NoError(t, h.DB.Where("customer_id = ?", 1).Find(&entries).Error)
	require.Len(t, entries, 2)
}

func TestPlaceOrderDoubleSubmit(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	seedCart(t, h.DB)

	rec, c := formContext(e, http.MethodPost, "/place_order", "selected_items=1&delivery_address=1", 1)
	require.NoError(t, h.PlaceOrder(c))
	require.Equal(t, "/order_confirmation/1", rec.Header().Get(echo.HeaderLocation))

	// The matched cart rows are gone, so the replay finds nothing to order.
	rec, c = formContext(e, http.MethodPost, "/place_order", "selected_items=1&delivery_address=1", 1)
	require.NoError(t, h.PlaceOrder(c))
	require.Equal(t, "/cart?error=no_valid_items", rec.Header().Get(echo.HeaderLocation))

	var orders int64
	h.DB.Model(&models.Order{}).Count(&orders)
	require.Equal(t, int64(1), orders)
}

func TestOrderConfirmationScopedToCustomer(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	seedCart(t, h.DB)

	rec, c := formContext(e, http.MethodPost, "/place_order", "selected_items=1&delivery_address=1", 1)
	require.NoError(t, h.PlaceOrder(c))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec, c = formContext(e, http.MethodGet, "/order_confirmation/1", "", 1)
	c.SetParamNames("order_id")
	c.SetParamValues("1")
	require.NoError(t, h.OrderConfirmation(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Order models.Order       `json:"order"`
		Items []models.OrderItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, uint(1), resp.Order.ID)
	require.Len(t, resp.Items, 1)

	_, c = formContext(e, http.MethodGet, "/order_confirmation/1", "", 2)
	c.SetParamNames("order_id")
	c.SetParamValues("1")
	err := h.OrderConfirmation(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestConfirmOrderTransitions(t *testing.T) {
	h := newHandler(t)
	e := echo.New()

	order := models.Order{
		CustomerID:      1,
		Status:          models.OrderStatusPlaced,
		TotalPrice:      decimal.RequireFromString("18.00"),
		DeliveryAddress: "1 Main St, Springfield, IL 62704",
	}
	require.NoError(t, h.DB.Create(&order).Error)

	rec, c := formContext(e, http.MethodPost, "/confirm_order/1", "", 1)
	c.SetParamNames("order_id")
	c.SetParamValues("1")
	require.NoError(t, h.ConfirmOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Order
	require.NoError(t, h.DB.First(&got, order.ID).Error)
	require.Equal(t, models.OrderStatusConfirmed, got.Status)

	// Confirming twice is rejected.
	_, c = formContext(e, http.MethodPost, "/confirm_order/1", "", 1)
	c.SetParamNames("order_id")
	c.SetParamValues("1")
	err := h.ConfirmOrder(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusConflict, he.Code)
}

// A rival confirm that lands between the status read and the update must not
// let both callers through: the guarded UPDATE matches zero rows.
func TestConfirmOrderConcurrentConfirm(t *testing.T) {
	h := newHandler(t)
	e := echo.New()

	require.NoError(t, h.DB.Create(&models.Order{
		CustomerID:      1,
		Status:          models.OrderStatusPlaced,
		TotalPrice:      decimal.RequireFromString("18.00"),
		DeliveryAddress: "1 Main St, Springfield, IL 62704",
	}).Error)

	raced := false
	require.NoError(t, h.DB.Callback().Update().Before("gorm:update").Register("confirm_race", func(tx *gorm.DB) {
		if !raced {
			raced = true
			tx.Session(&gorm.Session{NewDB: true}).
				Exec("UPDATE orders SET status = ? WHERE id = ?", models.OrderStatusConfirmed, 1)
		}
	}))

	_, c := formContext(e, http.MethodPost, "/confirm_order/1", "", 1)
	c.SetParamNames("order_id")
	c.SetParamValues("1")
	err := h.ConfirmOrder(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusConflict, he.Code)
	require.True(t, raced)

	var got models.Order
	require.NoError(t, h.DB.First(&got, 1).Error)
	require.Equal(t, models.OrderStatusConfirmed, got.Status)
}

func TestListOrdersNewestFirst(t *testing.T) {
	h := newHandler(t)
	e := echo.New()

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, h.DB.Create(&models.Order{
			CustomerID:      1,
			Status:          models.OrderStatusPlaced,
			TotalPrice:      decimal.RequireFromString("5.00"),
			DeliveryAddress: "somewhere",
			CreatedAt:       base.Add(time.Duration(i) * time.Hour),
		}).Error)
	}
	require.NoError(t, h.DB.Create(&models.Order{
		CustomerID:      2,
		Status:          models.OrderStatusPlaced,
		TotalPrice:      decimal.RequireFromString("7.00"),
		DeliveryAddress: "elsewhere",
		CreatedAt:       base,
	}).Error)

	rec, c := formContext(e, http.MethodGet, "/orders", "", 1)
	require.NoError(t, h.ListOrders(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 3)
	require.True(t, orders[0].CreatedAt.After(orders[1].CreatedAt))
	require.True(t, orders[1].CreatedAt.After(orders[2].CreatedAt))
}
