package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
)

func (h *AuthHandler) publish(c echo.Context, event map[string]any, customerID uint) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(customerID), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}
