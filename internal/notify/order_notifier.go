package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/hedoomy/backoffice/internal/orders"
	"github.com/hedoomy/backoffice/jobs"
)

// OrderNotifier enqueues order confirmation emails. The render happens here
// so the worker stays a dumb SMTP pipe.
type OrderNotifier struct {
	client     *jobs.Client
	adminEmail string
}

// NewOrderNotifier constructs an OrderNotifier. adminEmail may be empty, in
// which case only the customer is notified.
func NewOrderNotifier(client *jobs.Client, adminEmail string) *OrderNotifier {
	return &OrderNotifier{client: client, adminEmail: adminEmail}
}

// OrderPlaced queues the confirmation email for a new order, plus a copy to
// the store admin when one is configured.
func (n *OrderNotifier) OrderPlaced(ctx context.Context, order orders.Order) error {
	if n == nil || n.client == nil {
		return nil
	}
	if order.Customer.Email != "" {
		payload := jobs.SendEmailPayload{
			To:      order.Customer.Email,
			Subject: fmt.Sprintf("Order confirmed #%s", shortID(order.ID)),
			Body:    renderOrderBody(order),
		}
		if _, err := n.client.EnqueueSendEmail(ctx, payload); err != nil {
			return err
		}
	}
	if n.adminEmail != "" {
		payload := jobs.SendEmailPayload{
			To:      n.adminEmail,
			Subject: fmt.Sprintf("New order #%s (%.2f)", shortID(order.ID), order.Totals.Total),
			Body:    renderOrderBody(order),
		}
		if _, err := n.client.EnqueueSendEmail(ctx, payload); err != nil {
			return err
		}
	}
	return nil
}

func renderOrderBody(order orders.Order) string {
	var b strings.Builder
	name := strings.TrimSpace(order.Delivery.FirstName + " " + order.Delivery.LastName)
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\nThanks for your order! Here is what you bought:\n\n", name)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "  %s (%s) x%d = %.2f\n", item.Title, item.VariantID, item.Qty, item.Price*float64(item.Qty))
	}
	fmt.Fprintf(&b, "\nSubtotal: %.2f\nShipping: %.2f\nTotal: %.2f\n", order.Totals.Subtotal, order.Totals.Shipping, order.Totals.Total)
	fmt.Fprintf(&b, "\nPayment: %s\nWe will email you again when your order ships.\n", order.Payment.Method)
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
