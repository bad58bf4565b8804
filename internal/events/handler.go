package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-storefront/internal/obs"
)

// Handler processes activity tasks on the worker side.
type Handler struct {
	Logger zerolog.Logger
}

// ProcessTask implements asynq.Handler. Undecodable payloads are not retried.
func (h Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var a Activity
	if err := json.Unmarshal(t.Payload(), &a); err != nil {
		countActivity(t.Type(), "invalid")
		return fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if a.Topic != t.Type() {
		countActivity(t.Type(), "invalid")
		return fmt.Errorf("topic mismatch %q != %q: %w", a.Topic, t.Type(), asynq.SkipRetry)
	}
	h.Logger.Info().
		Str("topic", a.Topic).
		Str("session_id", a.SessionID).
		Int("product_id", a.ProductID).
		Int("quantity", a.Quantity).
		Int("cart_count", a.CartCount).
		Int64("cart_total", a.CartTotal).
		Time("occurred_at", a.OccurredAt).
		Msg("storefront activity")
	countActivity(a.Topic, "processed")
	return nil
}

// NewServeMux routes every activity topic to h.
func NewServeMux(h Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	for _, topic := range DefaultTopics() {
		mux.Handle(topic, h)
	}
	return mux
}

func countActivity(topic, result string) {
	if obs.ActivityEventsTotal != nil {
		obs.ActivityEventsTotal.WithLabelValues(topic, result).Inc()
	}
}
