package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/config"
	"github.com/Rrens/smm-bot/internal/dialog"
)

// ErrFlood is returned when a chat exceeds its update rate
var ErrFlood = errors.New("chat is sending too many updates")

// EventHandler processes chat events; implemented by the dialog engine
type EventHandler interface {
	HandleEvent(ctx context.Context, ev *dialog.Event) error
	Trigger(ctx context.Context, chatID int64, fn dialog.Handler) error
}

// FloodGuard limits inbound updates per chat
type FloodGuard interface {
	Allow(ctx context.Context, chatID int64) (bool, error)
}

// Gateway turns inbound updates and internal triggers into per-chat jobs
type Gateway struct {
	handler EventHandler
	guard   FloodGuard
	queue   *Queue
	timeout time.Duration
}

// New creates a Gateway. guard may be nil.
func New(handler EventHandler, guard FloodGuard, cfg config.QueueConfig) *Gateway {
	return &Gateway{
		handler: handler,
		guard:   guard,
		queue:   NewQueue(cfg.MaxConcurrent, cfg.LaneSize),
		timeout: 20 * time.Minute,
	}
}

// Start starts the underlying queue
func (g *Gateway) Start(ctx context.Context) {
	g.queue.Start(ctx)
}

// Stop stops the queue and waits for running jobs
func (g *Gateway) Stop() {
	g.queue.Stop()
}

// Queue exposes the queue for draining in tests and shutdown
func (g *Gateway) Queue() *Queue {
	return g.queue
}

// Dispatch queues an inbound event on its chat's lane.
// Flood guard failures let the event through.
func (g *Gateway) Dispatch(ctx context.Context, ev *dialog.Event) error {
	if g.guard != nil && !ev.Synthetic {
		allowed, err := g.guard.Allow(ctx, ev.ChatID)
		if err != nil {
			log.Warn().Err(err).Int64("chat_id", ev.ChatID).Msg("Flood guard unavailable")
		} else if !allowed {
			log.Warn().Int64("chat_id", ev.ChatID).Msg("Dropping update over rate limit")
			return ErrFlood
		}
	}

	kind := "message"
	if ev.IsCallback() {
		kind = "callback"
	}
	return g.queue.Enqueue(&Job{
		ChatID: ev.ChatID,
		Kind:   kind,
		Run: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, g.timeout)
			defer cancel()
			return g.handler.HandleEvent(ctx, ev)
		},
	})
}

// Trigger queues a synthetic dialog action for a chat, e.g. a proactive alert
func (g *Gateway) Trigger(chatID int64, kind string, fn dialog.Handler) error {
	return g.queue.Enqueue(&Job{
		ChatID: chatID,
		Kind:   kind,
		Run: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, g.timeout)
			defer cancel()
			return g.handler.Trigger(ctx, chatID, fn)
		},
	})
}
