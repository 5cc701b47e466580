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
)

type foodRequest struct {
	Name                string          `json:"name"                 form:"name"`
	Price               decimal.Decimal `json:"price"                form:"price"`
	Description         string          `json:"description"          form:"description"`
	SpecialInstructions string          `json:"special_instructions" form:"special_instructions"`
}

// foodPatch uses pointers so omitted fields stay untouched.
type foodPatch struct {
	Name                *string          `json:"name"                 form:"name"`
	Price               *decimal.Decimal `json:"price"                form:"price"`
	Description         *string          `json:"description"          form:"description"`
	SpecialInstructions *string          `json:"special_instructions" form:"special_instructions"`
}

// ownedRestaurant resolves the restaurant only when the caller owns it.
func (h *CatalogHandler) ownedRestaurant(c echo.Context, restaurantID int) (*models.Restaurant, error) {
	ownerID, ok := getID(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var restaurant models.Restaurant
	if err := h.DB.WithContext(c.Request().Context()).
		Where("id = ? AND owner_id = ?", restaurantID, ownerID).
		First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "restaurant not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return &restaurant, nil
}

func (h *CatalogHandler) CreateFood(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "food_create")

	restaurantID, err := strconv.Atoi(c.Param("id"))
	if err != nil || restaurantID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}

	restaurant, err := h.ownedRestaurant(c, restaurantID)
	if err != nil {
		return err
	}

	var req foodRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("food_create_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name required")
	}
	if req.Price.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}

	food := models.FoodItem{
		RestaurantID:        restaurant.ID,
		Name:                req.Name,
		Price:               req.Price,
		Description:         req.Description,
		SpecialInstructions: req.SpecialInstructions,
	}
	if err := h.DB.WithContext(ctx).Create(&food).Error; err != nil {
		l.Error("food_create_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":         "food_created",
		"restaurantID": restaurant.ID,
		"foodID":       food.ID,
		"name":         food.Name,
	})

	l.Info("food_create_success", "foodID", food.ID)
	return c.JSON(http.StatusCreated, food)
}

func (h *CatalogHandler) PatchFood(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "food_update")

	foodID, err := strconv.Atoi(c.Param("id"))
	if err != nil || foodID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid food id")
	}

	var food models.FoodItem
	if err := h.DB.WithContext(ctx).First(&food, foodID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "food item not found")
		}
		l.Error("food_update_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if _, err := h.ownedRestaurant(c, int(food.RestaurantID)); err != nil {
		return err
	}

	var req foodPatch
	if err := c.Bind(&req); err != nil {
		l.Warn("food_update_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Price != nil && req.Price.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}

	if req.Name != nil {
		food.Name = *req.Name
	}
	if req.Price != nil {
		food.Price = *req.Price
	}
	if req.Description != nil {
		food.Description = *req.Description
	}
	if req.SpecialInstructions != nil {
		food.SpecialInstructions = *req.SpecialInstructions
	}

	if err := h.DB.WithContext(ctx).Save(&food).Error; err != nil {
		l.Error("food_update_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":         "food_updated",
		"restaurantID": food.RestaurantID,
		"foodID":       food.ID,
	})

	return c.JSON(http.StatusOK, food)
}

func (h *CatalogHandler) DeleteFood(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "food_delete")

	foodID, err := strconv.Atoi(c.Param("id"))
	if err != nil || foodID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid food id")
	}

	var food models.FoodItem
	if err := h.DB.WithContext(ctx).First(&food, foodID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "food item not found")
		}
		l.Error("food_delete_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if _, err := h.ownedRestaurant(c, int(food.RestaurantID)); err != nil {
		return err
	}

	if err := h.DB.WithContext(ctx).Delete(&food).Error; err != nil {
		l.Error("food_delete_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":         "food_deleted",
		"restaurantID": food.RestaurantID,
		"foodID":       food.ID,
	})

	return c.NoContent(http.StatusNoContent)
}
