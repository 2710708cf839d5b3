package tasks

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/ekalkan/pazaryeri/internal/domain/checkout"
	"github.com/ekalkan/pazaryeri/internal/domain/order"
	"github.com/ekalkan/pazaryeri/internal/email"
)

// Notifier enqueues e-mail delivery tasks for domain events. Enqueue failures
// are returned but callers treat notification as fire-and-forget.
type Notifier struct {
	client Enqueuer
}

// NewNotifier creates a Notifier over the asynq client.
func NewNotifier(client Enqueuer) *Notifier {
	return &Notifier{client: client}
}

var (
	_ order.Notifier    = (*Notifier)(nil)
	_ checkout.Notifier = (*Notifier)(nil)
)

// OrderStatusChanged enqueues a status-change e-mail to the buyer.
func (n *Notifier) OrderStatusChanged(ctx context.Context, o *order.Order) error {
	if o.BuyerEmail == "" {
		return nil
	}
	return n.enqueue(ctx, email.Message{
		To:      o.BuyerEmail,
		Subject: fmt.Sprintf("Your order is now %s", o.Status),
		Text:    fmt.Sprintf("Order %s has moved to status %s.", o.ID, o.Status),
	})
}

// CheckoutCompleted enqueues the order confirmation e-mail.
func (n *Notifier) CheckoutCompleted(ctx context.Context, buyerEmail string, res *checkout.Result) error {
	if buyerEmail == "" {
		return nil
	}
	return n.enqueue(ctx, email.Message{
		To:      buyerEmail,
		Subject: "Your order is confirmed",
		Text: fmt.Sprintf("We received your payment of %s. Your checkout produced %d order(s).",
			res.Total.StringFixed(2), len(res.Orders)),
	})
}

func (n *Notifier) enqueue(ctx context.Context, m email.Message) error {
	task, err := NewEmailTask(m)
	if err != nil {
		return err
	}
	if _, err := n.client.EnqueueContext(ctx, task); err != nil {
		return errors.Wrap(err, "enqueue email task")
	}
	return nil
}
