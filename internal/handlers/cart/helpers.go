package cart

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// getID reads the customer identity resolved by the auth middleware. A
// missing value means the request is anonymous.
func getID(c echo.Context) (uint, bool) {
	id, ok := c.Get("customerID").(uint)
	return id, ok && id != 0
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["customerID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// redirectBack sends the caller to the page the form was posted from, with
// the cart page as fallback.
func redirectBack(c echo.Context) error {
	target := c.Request().Referer()
	if target == "" {
		target = "/cart"
	}
	return c.Redirect(http.StatusSeeOther, target)
}
