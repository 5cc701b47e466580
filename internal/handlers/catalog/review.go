package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_ordering/internal/logging"
	"github.com/Skotchmaster/food_ordering/internal/models"
)

type reviewRequest struct {
	Rating     int    `json:"rating"      form:"rating"`
	ReviewText string `json:"review_text" form:"review_text"`
}

func (h *CatalogHandler) CreateReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review_create")

	customerID, ok := getID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

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
		l.Error("review_create_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("review_create_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}

	review := models.Review{
		CustomerID:   customerID,
		Rating:       req.Rating,
		ReviewText:   req.ReviewText,
		RestaurantID: &restaurant.ID,
	}
	if err := h.DB.WithContext(ctx).Create(&review).Error; err != nil {
		l.Error("review_create_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("review_create_success", "reviewID", review.ID)
	return c.JSON(http.StatusCreated, review)
}

func (h *CatalogHandler) ListReviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review_list")

	restaurantID, err := strconv.Atoi(c.Param("id"))
	if err != nil || restaurantID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}

	var reviews []models.Review
	if err := h.DB.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		l.Error("review_list_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, reviews)
}
