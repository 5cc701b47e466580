package profile

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_ordering/internal/config"
	"github.com/Skotchmaster/food_ordering/internal/models"
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

func jsonContext(e *echo.Echo, method, path, body string, customerID uint) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if customerID != 0 {
		c.Set("customerID", customerID)
	}
	return rec, c
}

func TestGetProfileWithOrderHistory(t *testing.T) {
	h := &ProfileHandler{DB: InitTestDB(t)}
	e := echo.New()

	require.NoError(t, h.DB.Create(&models.Customer{
		Username: "test_user", Email: "test@example.com", PasswordHash: "x", Role: models.RoleCustomer,
	}).Error)
	require.NoError(t, h.DB.Create(&models.Order{
		CustomerID: 1, Status: models.OrderStatusPlaced,
		TotalPrice: decimal.RequireFromString("18.00"), DeliveryAddress: "1 Main St",
	}).Error)

	rec, c := jsonContext(e, http.MethodGet, "/profile", "", 1)
	require.NoError(t, h.GetProfile(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Customer models.Customer `json:"customer"`
		Orders   []models.Order  `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "test_user", resp.Customer.Username)
	require.Len(t, resp.Orders, 1)
}

func TestUpdateProfilePartial(t *testing.T) {
	h := &ProfileHandler{DB: InitTestDB(t)}
	e := echo.New()

	require.NoError(t, h.DB.Create(&models.Customer{
		Username: "test_user", Email: "test@example.com", PasswordHash: "x", Phone: "111",
	}).Error)

	rec, c := jsonContext(e, http.MethodPatch, "/profile", `{"phone":"222"}`, 1)
	require.NoError(t, h.UpdateProfile(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Customer
	require.NoError(t, h.DB.First(&got, 1).Error)
	require.Equal(t, "222", got.Phone)
	require.Equal(t, "test_user", got.Username)
	require.Equal(t, "test@example.com", got.Email)
}

func TestCreateAddressDefaultFlip(t *testing.T) {
	h := &ProfileHandler{DB: InitTestDB(t)}
	e := echo.New()

	rec, c := jsonContext(e, http.MethodPost, "/profile/addresses",
		`{"address":"1 Main St","city":"Springfield","state":"IL","zip":"62704","is_default":true}`, 1)
	require.NoError(t, h.CreateAddress(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, c = jsonContext(e, http.MethodPost, "/profile/addresses",
		`{"address":"9 Elm St","city":"Shelbyville","is_default":true}`, 1)
	require.NoError(t, h.CreateAddress(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var addresses []models.DeliveryAddress
	require.NoError(t, h.DB.Where("customer_id = ?", 1).Order("id ASC").Find(&addresses).Error)
	require.Len(t, addresses, 2)
	require.False(t, addresses[0].IsDefault)
	require.True(t, addresses[1].IsDefault)
}

func TestCreateAddressMissingFields(t *testing.T) {
	h := &ProfileHandler{DB: InitTestDB(t)}
	e := echo.New()

	_, c := jsonContext(e, http.MethodPost, "/profile/addresses", `{"address":"1 Main St"}`, 1)
	err := h.CreateAddress(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestDeleteAddressKeepsOrderSnapshot(t *testing.T) {
	h := &ProfileHandler{DB: InitTestDB(t)}
	e := echo.New()

	require.NoError(t, h.DB.Create(&models.DeliveryAddress{
		CustomerID: 1, Address: "1 Main St", City: "Springfield",
	}).Error)
	require.NoError(t, h.DB.Create(&models.Order{
		CustomerID: 1, Status: models.OrderStatusPlaced,
		TotalPrice: decimal.RequireFromString("18.00"), DeliveryAddress: "1 Main St, Springfield,  ",
	}).Error)

	rec, c := jsonContext(e, http.MethodDelete, "/profile/addresses/1", "", 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.DeleteAddress(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var addresses int64
	h.DB.Model(&models.DeliveryAddress{}).Count(&addresses)
	require.Zero(t, addresses)

	var order models.Order
	require.NoError(t, h.DB.First(&order, 1).Error)
	require.NotEmpty(t, order.DeliveryAddress)
}

func TestUpdateAddressScopedToCustomer(t *testing.T) {
	h := &ProfileHandler{DB: InitTestDB(t)}
	e := echo.New()

	require.NoError(t, h.DB.Create(&models.DeliveryAddress{
		CustomerID: 2, Address: "9 Elm St", City: "Shelbyville",
	}).Error)

	_, c := jsonContext(e, http.MethodPatch, "/profile/addresses/1", `{"address":"hacked","city":"x"}`, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := h.UpdateAddress(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestPaymentMethodDefaultFlip(t *testing.T) {
	h := &ProfileHandler{DB: InitTestDB(t)}
	e := echo.New()

	rec, c := jsonContext(e, http.MethodPost, "/profile/payment_methods",
		`{"card_number":"4111111111111111","card_holder":"Test User","expiry_date":"12/28","is_default":true}`, 1)
	require.NoError(t, h.CreatePaymentMethod(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, c = jsonContext(e, http.MethodPost, "/profile/payment_methods",
		`{"card_number":"5555555555554444","card_holder":"Test User","is_default":true}`, 1)
	require.NoError(t, h.CreatePaymentMethod(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var methods []models.PaymentMethod
	require.NoError(t, h.DB.Where("customer_id = ?", 1).Order("id ASC").Find(&methods).Error)
	require.Len(t, methods, 2)
	require.False(t, methods[0].IsDefault)
	require.True(t, methods[1].IsDefault)
}

func TestPreferencesDefaultsAndUpsert(t *testing.T) {
	h := &ProfileHandler{DB: InitTestDB(t)}
	e := echo.New()

	rec, c := jsonContext(e, http.MethodGet, "/profile/preferences", "", 1)
	require.NoError(t, h.GetPreferences(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var prefs models.Preferences
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prefs))
	require.Equal(t, "English", prefs.Language)
	require.Equal(t, "Light", prefs.Theme)
	require.True(t, prefs.NotificationsEnabled)

	rec, c = jsonContext(e, http.MethodPut, "/profile/preferences", `{"theme":"Dark","notifications_enabled":false}`, 1)
	require.NoError(t, h.PutPreferences(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Preferences
	require.NoError(t, h.DB.Where("customer_id = ?", 1).First(&stored).Error)
	require.Equal(t, "Dark", stored.Theme)
	require.Equal(t, "English", stored.Language)
	require.False(t, stored.NotificationsEnabled)

	// A second put updates the same row.
	rec, c = jsonContext(e, http.MethodPut, "/profile/preferences", `{"language":"Spanish"}`, 1)
	require.NoError(t, h.PutPreferences(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	h.DB.Model(&models.Preferences{}).Count(&count)
	require.Equal(t, int64(1), count)
	require.NoError(t, h.DB.Where("customer_id = ?", 1).First(&stored).Error)
	require.Equal(t, "Spanish", stored.Language)
	require.Equal(t, "Dark", stored.Theme)
}
