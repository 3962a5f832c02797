package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/catalogo-app/checkout-go/internal/domain"
	"github.com/catalogo-app/checkout-go/internal/orders"
)

// SubmitOrder validates the session, then drives the multi-step backend
// order creation with up to three attempts and linear backoff (1s, 2s)
// between them. Per-attempt failures are retried transparently; only the
// exhausted budget surfaces the last error, verbatim, in the result. On
// failure the draft order is deliberately kept so the user can retry later
// without re-entering data.
func (c *Controller) SubmitOrder(ctx context.Context, order domain.OrderData) domain.SubmitResult {
	c.mu.Lock()
	c.state.IsProcessing = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.state.IsProcessing = false
		c.mu.Unlock()
	}()

	// Session gate: no backend call happens without a live session.
	if !c.ValidateSession(ctx) && !c.RefreshSession(ctx) {
		c.audit.Append("order_submission", false, ErrSessionInvalid.Error())
		return domain.SubmitResult{Success: false, Error: ErrSessionInvalid.Error()}
	}

	var lastErr error
	for attempt := 1; attempt <= maxSubmitAttempts; attempt++ {
		c.mu.Lock()
		c.state.RetryCount = attempt
		c.mu.Unlock()

		orderID, err := c.submitOnce(ctx, order)
		if err == nil {
			c.mu.Lock()
			c.state.RetryCount = 0
			c.state.LastActivity = c.now()
			c.mu.Unlock()

			c.ClearDraftOrder()
			c.audit.Append("order_submission", true, "order "+orderID)
			return domain.SubmitResult{Success: true, OrderID: orderID}
		}

		lastErr = err
		c.audit.Append("order_submission_attempt", false,
			fmt.Sprintf("attempt %d/%d: %v", attempt, maxSubmitAttempts, err))
		c.logger.Warn("order submission attempt failed",
			"attempt", attempt, "max_attempts", maxSubmitAttempts, "error", err)

		if attempt < maxSubmitAttempts {
			// Linear backoff: attempt × 1s.
			c.sleep(time.Duration(attempt) * backoffUnit)
		}
	}

	c.audit.Append("order_submission", false, lastErr.Error())
	return domain.SubmitResult{Success: false, Error: lastErr.Error()}
}

// submitOnce performs the three sequential backend calls of one attempt.
// There is no transaction and no idempotency key: a failure after the order
// header is written leaves it without items, and the retrying caller will
// create a second header. Known gap, kept on purpose.
func (c *Controller) submitOnce(ctx context.Context, order domain.OrderData) (string, error) {
	c.mu.Lock()
	userID := c.userID
	c.mu.Unlock()

	clientID := order.ClientID
	if clientID == "" && order.ClientData.Name != "" {
		id, err := c.backend.InsertClient(ctx, orders.ClientRecord{
			UserID: userID,
			Name:   order.ClientData.Name,
			Email:  order.ClientData.Email,
			Phone:  order.ClientData.Phone,
		})
		if err != nil {
			return "", fmt.Errorf("create client: %w", err)
		}
		clientID = id
	}

	orderID, err := c.backend.InsertOrder(ctx, orders.OrderRecord{
		UserID:          userID,
		ClientID:        clientID,
		Status:          orders.StatusPending,
		TotalValue:      order.Total(),
		OrderType:       orders.TypeCatalog,
		DeliveryAddress: order.DeliveryAddress,
		PaymentMethod:   order.PaymentMethod,
		Notes:           order.Notes,
	})
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}

	items := make([]orders.ItemRecord, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orders.ItemRecord{
			OrderID:    orderID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.LineTotal(),
		})
	}
	if err := c.backend.InsertOrderItems(ctx, items); err != nil {
		return "", fmt.Errorf("create order items: %w", err)
	}

	return orderID, nil
}
