package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

var (
	ErrQueueFull    = errors.New("chat queue is full")
	ErrQueueStopped = errors.New("queue is stopped")
)

// Job is one unit of work for a chat
type Job struct {
	ChatID int64
	Kind   string
	Run    func(ctx context.Context) error
}

// Queue manages per-chat lanes with a global concurrency semaphore.
// Jobs of one chat run sequentially in arrival order; the semaphore
// bounds how many chats are processed at once.
type Queue struct {
	lanes     map[int64]chan *Job
	laneSize  int
	idle      time.Duration
	semaphore *semaphore.Weighted
	// queued plus running jobs
	active    atomic.Int64
	stopped   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewQueue creates a Queue that runs up to maxConcurrent chats at once
func NewQueue(maxConcurrent int64, laneSize int) *Queue {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if laneSize <= 0 {
		laneSize = 100
	}
	return &Queue{
		lanes:     make(map[int64]chan *Job),
		laneSize:  laneSize,
		idle:      5 * time.Minute,
		semaphore: semaphore.NewWeighted(maxConcurrent),
	}
}

// Start initialises the queue's context. Must be called before Enqueue.
func (q *Queue) Start(ctx context.Context) {
	q.ctx, q.cancel = context.WithCancel(ctx)
}

// Stop cancels the queue context, closes all lanes, and waits for in-flight jobs
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.mu.Lock()
	q.stopped = true
	for chatID, lane := range q.lanes {
		close(lane)
		delete(q.lanes, chatID)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

// Enqueue adds a job to its chat's lane, starting the lane on first use
func (q *Queue) Enqueue(job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped || q.ctx == nil || q.ctx.Err() != nil {
		return ErrQueueStopped
	}

	lane, exists := q.lanes[job.ChatID]
	if !exists {
		lane = make(chan *Job, q.laneSize)
		q.lanes[job.ChatID] = lane
		q.wg.Add(1)
		go q.processLane(job.ChatID, lane)
	}

	select {
	case lane <- job:
		q.active.Add(1)
		return nil
	default:
		return fmt.Errorf("%w: chat %d", ErrQueueFull, job.ChatID)
	}
}

// processLane drains one chat's lane and retires it after a quiet period
func (q *Queue) processLane(chatID int64, lane chan *Job) {
	defer q.wg.Done()

	timer := time.NewTimer(q.idle)
	defer timer.Stop()

	for {
		select {
		case job, ok := <-lane:
			if !ok {
				return
			}
			q.run(job)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(q.idle)
		case <-timer.C:
			q.mu.Lock()
			if len(lane) == 0 && q.lanes[chatID] == lane {
				delete(q.lanes, chatID)
				q.mu.Unlock()
				return
			}
			q.mu.Unlock()
			timer.Reset(q.idle)
		case <-q.ctx.Done():
			q.drop(chatID, lane)
			return
		}
	}
}

// drop retires a lane of a cancelled queue and forgets its pending jobs
func (q *Queue) drop(chatID int64, lane chan *Job) {
	q.mu.Lock()
	if q.lanes[chatID] == lane {
		delete(q.lanes, chatID)
	}
	q.mu.Unlock()

	dropped := 0
	defer func() {
		if dropped > 0 {
			log.Warn().Int64("chat_id", chatID).Int("jobs", dropped).Msg("Dropped queued chat jobs")
		}
	}()
	for {
		select {
		case _, ok := <-lane:
			if !ok {
				return
			}
			dropped++
			q.active.Add(-1)
		default:
			return
		}
	}
}

func (q *Queue) run(job *Job) {
	defer q.active.Add(-1)

	if q.ctx.Err() != nil {
		return
	}
	if err := q.semaphore.Acquire(q.ctx, 1); err != nil {
		return
	}
	defer q.semaphore.Release(1)

	start := time.Now()
	err := safeRun(q.ctx, job)
	logger := log.Debug()
	if err != nil {
		logger = log.Error().Err(err)
	}
	logger.
		Int64("chat_id", job.ChatID).
		Str("kind", job.Kind).
		Dur("duration", time.Since(start)).
		Msg("Chat job finished")
}

func safeRun(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in chat job: %v", r)
		}
	}()
	return job.Run(ctx)
}

// Lanes returns the number of chats with a live lane
func (q *Queue) Lanes() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lanes)
}

// WaitIdle blocks until no jobs are running or queued, or the timeout expires.
// Returns true if idle, false if timed out.
func (q *Queue) WaitIdle(timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if q.active.Load() == 0 {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}
