package catalog

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

func (h *CatalogHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "catalog_events", fmt.Sprint(event["restaurantID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}
