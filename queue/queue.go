// Package queue coalesces rapid-fire task field edits into batched remote
// patches so fast typing never turns into one request per keystroke.
package queue

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"zainzo-board/gtasks"
)

// DefaultFlushDelay batches everything enqueued inside the same window into
// a single flush.
const DefaultFlushDelay = 600 * time.Millisecond

// PatchClient is the single remote call the queue needs.
type PatchClient interface {
	PatchTask(ctx context.Context, listID, taskID string, patch gtasks.TaskPatch) (gtasks.Task, error)
}

type key struct {
	listID string
	taskID string
}

type entry struct {
	listID string
	taskID string
	patch  gtasks.TaskPatch
}

// PatchQueue holds at most one pending patch per (list, task) pair and
// flushes all of them together after a fixed delay. The timer is armed on
// the first enqueue since the last flush and is not reset by later
// enqueues: the window batches, it does not roll.
type PatchQueue struct {
	client  PatchClient
	logger  *log.Logger
	delay   time.Duration
	timeout time.Duration

	// onError receives per-entry flush failures. Failures are isolated and
	// never retried; a later edit naturally re-syncs the field.
	onError func(listID, taskID string, err error)

	mu      sync.Mutex
	pending map[key]entry
	timer   *time.Timer
	closed  bool

	flushWG sync.WaitGroup
}

// Option configures a PatchQueue.
type Option func(*PatchQueue)

// WithFlushDelay overrides the batching window.
func WithFlushDelay(d time.Duration) Option {
	return func(q *PatchQueue) {
		if d > 0 {
			q.delay = d
		}
	}
}

// WithErrorHandler registers a callback for per-entry flush failures.
func WithErrorHandler(fn func(listID, taskID string, err error)) Option {
	return func(q *PatchQueue) { q.onError = fn }
}

// WithPatchTimeout bounds each remote patch issued by a flush.
func WithPatchTimeout(d time.Duration) Option {
	return func(q *PatchQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// New creates a PatchQueue over the given client.
func New(client PatchClient, logger *log.Logger, opts ...Option) *PatchQueue {
	if client == nil {
		panic("queue.New: patch client is required")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	q := &PatchQueue{
		client:  client,
		logger:  logger,
		delay:   DefaultFlushDelay,
		timeout: 30 * time.Second,
		pending: make(map[key]entry),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue upserts the pending patch for (listID, taskID), shallow-merging
// fields so the newest value wins, and arms the flush timer if idle.
func (q *PatchQueue) Enqueue(listID, taskID string, patch gtasks.TaskPatch) {
	if patch.Empty() {
		return
	}
	k := key{listID: listID, taskID: taskID}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	e, ok := q.pending[k]
	if !ok {
		e = entry{listID: listID, taskID: taskID}
	}
	e.patch = e.patch.Merge(patch)
	q.pending[k] = e

	if q.timer == nil {
		q.timer = time.AfterFunc(q.delay, q.flushTimer)
	}
}

// Flush drains the queue immediately and waits for the resulting patches to
// finish. Used on shutdown and in tests.
func (q *PatchQueue) Flush() {
	q.flush()
	q.flushWG.Wait()
}

// Close flushes outstanding patches and rejects further enqueues.
func (q *PatchQueue) Close() {
	q.mu.Lock()
	q.closed = true
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.mu.Unlock()
	q.Flush()
}

// Len reports the number of pending entries.
func (q *PatchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *PatchQueue) flushTimer() {
	q.flush()
}

// flush drains all pending entries atomically (swap and clear) and issues
// one concurrent patch per entry. One entry failing must not block or roll
// back the others.
func (q *PatchQueue) flush() {
	q.mu.Lock()
	drained := q.pending
	q.pending = make(map[key]entry)
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.mu.Unlock()

	for _, e := range drained {
		q.flushWG.Add(1)
		go func(e entry) {
			defer q.flushWG.Done()
			ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
			defer cancel()
			if _, err := q.client.PatchTask(ctx, e.listID, e.taskID, e.patch); err != nil {
				q.logger.WithError(err).Warnf("patch queue: flush failed, list=%s, task=%s", e.listID, e.taskID)
				if q.onError != nil {
					q.onError(e.listID, e.taskID, err)
				}
			}
		}(e)
	}
}
