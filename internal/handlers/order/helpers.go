package order

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
)

func getID(c echo.Context) (uint, bool) {
	id, ok := c.Get("customerID").(uint)
	return id, ok && id != 0
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["customerID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}
