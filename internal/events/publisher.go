package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// Activity is the payload of a storefront activity task.
type Activity struct {
	Topic      string    `json:"topic"`
	SessionID  string    `json:"sessionId"`
	ProductID  int       `json:"productId,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
	CartCount  int       `json:"cartCount"`
	CartTotal  int64     `json:"cartTotal"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Enqueuer is the subset of *asynq.Client used by Publisher.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Publisher enqueues activity tasks. A Publisher without a client drops
// events silently, which is how publishing is disabled.
type Publisher struct {
	Client   Enqueuer
	Queue    string
	MaxRetry int
	Now      func() time.Time
}

// Publish validates and enqueues a.
func (p *Publisher) Publish(ctx context.Context, a Activity) error {
	if p == nil || p.Client == nil {
		return nil
	}
	a.Topic = strings.TrimSpace(a.Topic)
	if !KnownTopic(a.Topic) {
		return fmt.Errorf("events: unknown topic %q", a.Topic)
	}
	if a.SessionID == "" {
		return errors.New("events: session id is required")
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = p.now()
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("events: encode payload: %w", err)
	}
	opts := []asynq.Option{asynq.Queue(p.queue())}
	if p.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(p.MaxRetry))
	}
	if _, err := p.Client.EnqueueContext(ctx, asynq.NewTask(a.Topic, payload), opts...); err != nil {
		countActivity(a.Topic, "enqueue_failed")
		return fmt.Errorf("events: enqueue %s: %w", a.Topic, err)
	}
	countActivity(a.Topic, "enqueued")
	return nil
}

func (p *Publisher) queue() string {
	if p.Queue == "" {
		return DefaultQueue
	}
	return p.Queue
}

func (p *Publisher) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}
