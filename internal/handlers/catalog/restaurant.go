package catalog

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

type CatalogHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
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

// ListRestaurants returns approved restaurants only; pending registrations
// stay invisible to customers until an admin approves them.
func (h *CatalogHandler) ListRestaurants(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "restaurant_list")

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.WithContext(ctx).Model(&models.Restaurant{}).
		Where("is_approved = ?", true).Count(&total).Error; err != nil {
		l.Error("restaurant_list_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var restaurants []models.Restaurant
	if err := h.DB.WithContext(ctx).
		Where("is_approved = ?", true).
		Order("id ASC").Offset(offset).Limit(limit).
		Find(&restaurants).Error; err != nil {
		l.Error("restaurant_list_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var featured []models.Restaurant
	if err := h.DB.WithContext(ctx).
		Where("is_approved = ? AND is_featured = ?", true, true).
		Order("id ASC").
		Find(&featured).Error; err != nil {
		l.Error("restaurant_list_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"featured": featured,
		"data":     restaurants,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

// GetMenu lists the food items of an approved restaurant, name-ordered, with
// an optional q filter.
func (h *CatalogHandler) GetMenu(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "restaurant_menu")

	restaurantID, err := strconv.Atoi(c.Param("id"))
	if err != nil || restaurantID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}

	var restaurant models.Restaurant
	if err := h.DB.WithContext(ctx).
		Where("id = ? AND is_approved = ?", restaurantID, true).
		First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "restaurant not found")
		}
		l.Error("restaurant_menu_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	q := h.DB.WithContext(ctx).Where("restaurant_id = ?", restaurant.ID)
	if query := c.QueryParam("q"); query != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+query+"%")
	}

	var foodItems []models.FoodItem
	if err := q.Order("name ASC").Find(&foodItems).Error; err != nil {
		l.Error("restaurant_menu_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"restaurant": restaurant,
		"food_items": foodItems,
	})
}

type restaurantRequest struct {
	Name           string          `json:"name"            form:"name"`
	Address        string          `json:"address"         form:"address"`
	Phone          string          `json:"phone"           form:"phone"`
	Description    string          `json:"description"     form:"description"`
	Email          string          `json:"email"           form:"email"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge" form:"delivery_charge"`
	MinOrder       decimal.Decimal `json:"min_order"       form:"min_order"`
}

// CreateRestaurant registers a restaurant for the calling owner; it stays
// unapproved until an admin signs it off.
func (h *CatalogHandler) CreateRestaurant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "restaurant_create")

	ownerID, ok := getID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req restaurantRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("restaurant_create_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Address == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and address required")
	}

	restaurant := models.Restaurant{
		OwnerID:        ownerID,
		Name:           req.Name,
		Address:        req.Address,
		Phone:          req.Phone,
		Description:    req.Description,
		Email:          req.Email,
		DeliveryCharge: req.DeliveryCharge,
		MinOrder:       req.MinOrder,
		IsApproved:     false,
	}
	if err := h.DB.WithContext(ctx).Create(&restaurant).Error; err != nil {
		l.Error("restaurant_create_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":         "restaurant_registered",
		"restaurantID": restaurant.ID,
		"ownerID":      ownerID,
	})

	l.Info("restaurant_create_success", "restaurantID", restaurant.ID)
	return c.JSON(http.StatusCreated, restaurant)
}

// restaurantPatch uses pointers so omitted fields stay untouched.
type restaurantPatch struct {
	Name           *string          `json:"name"            form:"name"`
	Address        *string          `json:"address"         form:"address"`
	Phone          *string          `json:"phone"           form:"phone"`
	Description    *string          `json:"description"     form:"description"`
	Email          *string          `json:"email"           form:"email"`
	DeliveryCharge *decimal.Decimal `json:"delivery_charge" form:"delivery_charge"`
	MinOrder       *decimal.Decimal `json:"min_order"       form:"min_order"`
}

func (h *CatalogHandler) UpdateRestaurant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "restaurant_update")

	ownerID, ok := getID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	restaurantID, err := strconv.Atoi(c.Param("id"))
	if err != nil || restaurantID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}

	var restaurant models.Restaurant
	if err := h.DB.WithContext(ctx).
		Where("id = ? AND owner_id = ?", restaurantID, ownerID).
		First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "restaurant not found")
		}
		l.Error("restaurant_update_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var req restaurantPatch
	if err := c.Bind(&req); err != nil {
		l.Warn("restaurant_update_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Name != nil {
		restaurant.Name = *req.Name
	}
	if req.Address != nil {
		restaurant.Address = *req.Address
	}
	if req.Phone != nil {
		restaurant.Phone = *req.Phone
	}
	if req.Description != nil {
		restaurant.Description = *req.Description
	}
	if req.Email != nil {
		restaurant.Email = *req.Email
	}
	if req.DeliveryCharge != nil {
		restaurant.DeliveryCharge = *req.DeliveryCharge
	}
	if req.MinOrder != nil {
		restaurant.MinOrder = *req.MinOrder
	}

	if err := h.DB.WithContext(ctx).Save(&restaurant).Error; err != nil {
		l.Error("restaurant_update_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":         "restaurant_updated",
		"restaurantID": restaurant.ID,
	})

	return c.JSON(http.StatusOK, restaurant)
}

// ApproveRestaurant is the admin sign-off that makes a restaurant visible.
func (h *CatalogHandler) ApproveRestaurant(c echo.Context) error {
	return h.setFlag(c, "is_approved", "restaurant_approved")
}

func (h *CatalogHandler) FeatureRestaurant(c echo.Context) error {
	return h.setFlag(c, "is_featured", "restaurant_featured")
}

func (h *CatalogHandler) setFlag(c echo.Context, column, eventType string) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", eventType)

	restaurantID, err := strconv.Atoi(c.Param("id"))
	if err != nil || restaurantID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}

	result := h.DB.WithContext(ctx).Model(&models.Restaurant{}).
		Where("id = ?", restaurantID).
		Update(column, true)
	if result.Error != nil {
		l.Error("restaurant_flag_error", "status", 500, "error", result.Error)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "restaurant not found")
	}

	h.publish(c, map[string]any{
		"type":         eventType,
		"restaurantID": restaurantID,
	})

	l.Info(eventType, "restaurantID", restaurantID)
	return c.JSON(http.StatusOK, echo.Map{"id": restaurantID, column: true})
}
