package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task)
	r.opts = append(r.opts, opts)
	return &asynq.TaskInfo{ID: "t1", Queue: DefaultQueue, Type: task.Type()}, nil
}

func TestPublisherEnqueuesActivity(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	enq := &recordingEnqueuer{}
	pub := &Publisher{Client: enq, Now: func() time.Time { return fixed }}

	err := pub.Publish(context.Background(), Activity{
		Topic:     TopicCartItemAdded,
		SessionID: "sess-1",
		ProductID: 101,
		Quantity:  1,
		CartCount: 1,
		CartTotal: 150999,
	})
	require.NoError(t, err)
	require.Len(t, enq.tasks, 1)
	require.Equal(t, TopicCartItemAdded, enq.tasks[0].Type())

	var got Activity
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &got))
	require.Equal(t, "sess-1", got.SessionID)
	require.Equal(t, 101, got.ProductID)
	require.True(t, got.OccurredAt.Equal(fixed))

	require.Len(t, enq.opts[0], 1)
	require.Equal(t, asynq.QueueOpt, enq.opts[0][0].Type())
	require.Equal(t, DefaultQueue, enq.opts[0][0].Value())
}

func TestPublisherRejectsUnknownTopic(t *testing.T) {
	enq := &recordingEnqueuer{}
	pub := &Publisher{Client: enq}
	err := pub.Publish(context.Background(), Activity{Topic: "order.created", SessionID: "s"})
	require.Error(t, err)
	require.Empty(t, enq.tasks)
}

func TestPublisherWithoutClientIsDisabled(t *testing.T) {
	var pub *Publisher
	require.NoError(t, pub.Publish(context.Background(), Activity{Topic: TopicCartItemAdded}))
	require.NoError(t, (&Publisher{}).Publish(context.Background(), Activity{Topic: "bogus"}))
}

func TestPublisherWrapsEnqueueError(t *testing.T) {
	boom := errors.New("redis down")
	pub := &Publisher{Client: &recordingEnqueuer{err: boom}}
	err := pub.Publish(context.Background(), Activity{Topic: TopicCartPanelOpened, SessionID: "s"})
	require.ErrorIs(t, err, boom)
}

func TestHandlerProcessesActivity(t *testing.T) {
	payload, err := json.Marshal(Activity{Topic: TopicCartItemRemoved, SessionID: "s", ProductID: 7})
	require.NoError(t, err)
	h := Handler{Logger: zerolog.Nop()}
	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(TopicCartItemRemoved, payload)))
}

func TestHandlerSkipsRetryOnBadPayload(t *testing.T) {
	h := Handler{Logger: zerolog.Nop()}
	err := h.ProcessTask(context.Background(), asynq.NewTask(TopicCartItemAdded, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	payload, _ := json.Marshal(Activity{Topic: TopicCartItemAdded, SessionID: "s"})
	err = h.ProcessTask(context.Background(), asynq.NewTask(TopicCartItemRemoved, payload))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestKnownTopic(t *testing.T) {
	for _, topic := range DefaultTopics() {
		require.True(t, KnownTopic(topic))
	}
	require.False(t, KnownTopic("cart.unknown"))
}
