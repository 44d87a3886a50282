package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/smm-bot/internal/config"
	"github.com/Rrens/smm-bot/internal/dialog"
)

type recordingHandler struct {
	mu       sync.Mutex
	events   []*dialog.Event
	triggers []int64
}

func (h *recordingHandler) HandleEvent(_ context.Context, ev *dialog.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return nil
}

func (h *recordingHandler) Trigger(ctx context.Context, chatID int64, fn dialog.Handler) error {
	h.mu.Lock()
	h.triggers = append(h.triggers, chatID)
	h.mu.Unlock()
	return fn(ctx, nil)
}

type fixedGuard struct {
	allow bool
}

func (g fixedGuard) Allow(context.Context, int64) (bool, error) {
	return g.allow, nil
}

func TestGatewayDispatch(t *testing.T) {
	handler := &recordingHandler{}
	gw := New(handler, fixedGuard{allow: true}, config.QueueConfig{MaxConcurrent: 2, LaneSize: 10})
	gw.Start(context.Background())
	defer gw.Stop()

	require.NoError(t, gw.Dispatch(context.Background(), &dialog.Event{ChatID: 1, Message: &dialog.Message{Text: "a"}}))
	require.NoError(t, gw.Dispatch(context.Background(), &dialog.Event{ChatID: 1, Message: &dialog.Message{Text: "b"}}))

	require.True(t, gw.Queue().WaitIdle(time.Second))
	require.Len(t, handler.events, 2)
	assert.Equal(t, "a", handler.events[0].Message.Text)
	assert.Equal(t, "b", handler.events[1].Message.Text)
}

func TestGatewayDropsFlood(t *testing.T) {
	handler := &recordingHandler{}
	gw := New(handler, fixedGuard{allow: false}, config.QueueConfig{MaxConcurrent: 1})
	gw.Start(context.Background())
	defer gw.Stop()

	err := gw.Dispatch(context.Background(), &dialog.Event{ChatID: 1, Message: &dialog.Message{Text: "spam"}})
	assert.ErrorIs(t, err, ErrFlood)

	require.NoError(t, gw.Dispatch(context.Background(), &dialog.Event{ChatID: 1, Synthetic: true}))
	require.True(t, gw.Queue().WaitIdle(time.Second))
	assert.Len(t, handler.events, 1)
}

func TestGatewayTrigger(t *testing.T) {
	handler := &recordingHandler{}
	gw := New(handler, nil, config.QueueConfig{MaxConcurrent: 1})
	gw.Start(context.Background())
	defer gw.Stop()

	called := make(chan struct{})
	require.NoError(t, gw.Trigger(5, "alert", func(context.Context, *dialog.Manager) error {
		close(called)
		return nil
	}))

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("trigger was not run")
	}
	require.True(t, gw.Queue().WaitIdle(time.Second))
	assert.Equal(t, []int64{5}, handler.triggers)
}
