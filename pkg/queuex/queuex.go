package queuex

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/workgate/pkg/logx"
)

// HandlerFunc processes a dispatched task. The dispatcher never retries:
// a handler that fails must record the outcome itself before returning.
type HandlerFunc func(ctx context.Context, task *TaskInfo) error

// Enqueuer dispatches tasks for processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, task Task) (string, error)
	EnqueueIn(ctx context.Context, task Task, delay time.Duration) (string, error)
}

// Backend provides the operations the worker loop needs on top of Enqueuer.
type Backend interface {
	Enqueuer

	// Dequeue blocks until a task is ready on one of the queues or the
	// timeout expires. A nil task with nil error means timeout.
	Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*TaskInfo, error)

	// Ack discards the task after processing, whatever the handler outcome.
	Ack(ctx context.Context, taskID string) error

	// PromoteScheduled moves due delayed tasks to their ready queues.
	PromoteScheduled(ctx context.Context, queues []string) error
}

// Client is the entry point for dispatching and processing tasks.
//
// Delivery is at-most-once. Tasks carry no status of their own; whatever a
// task does is recorded by its handler in the caller's store, and the task
// blob is discarded once the handler returns.
type Client struct {
	backend  Backend
	opts     WorkerOptions
	handlers map[string]HandlerFunc
	mu       sync.RWMutex
	running  bool
}

// NewClient creates a new task processing client.
func NewClient(backend Backend, options ...WorkerOption) *Client {
	opts := defaultWorkerOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Client{
		backend:  backend,
		opts:     opts,
		handlers: make(map[string]HandlerFunc),
	}
}

// Register adds a handler for a given task type.
func (c *Client) Register(taskType string, handler HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[taskType] = handler
}

// Handle runs the registered handler for a task inline, bypassing the
// backend. Used for synchronous dispatch and in tests.
func (c *Client) Handle(ctx context.Context, task *TaskInfo) error {
	c.mu.RLock()
	handler, ok := c.handlers[task.Type]
	c.mu.RUnlock()
	if !ok {
		return ErrRegistry.New(CodeInvalidTask).
			WithDetail("reason", "no handler registered").
			WithDetail("type", task.Type)
	}
	return handler(ctx, task)
}

// Enqueue dispatches a task for immediate processing.
func (c *Client) Enqueue(ctx context.Context, task Task) (string, error) {
	if task.Queue == "" {
		task.Queue = "default"
	}
	return c.backend.Enqueue(ctx, task)
}

// EnqueueIn dispatches a task that becomes ready after the given delay.
func (c *Client) EnqueueIn(ctx context.Context, task Task, delay time.Duration) (string, error) {
	if task.Queue == "" {
		task.Queue = "default"
	}
	return c.backend.EnqueueIn(ctx, task, delay)
}

// Start begins processing tasks. It blocks until ctx is cancelled.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrRegistry.New(CodeAlreadyRunning)
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	logx.Infof("queuex: starting %d workers on queues %v", c.opts.Concurrency, c.opts.Queues)

	var wg sync.WaitGroup

	// Scheduler goroutine: promotes delayed tasks to the ready queue.
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.schedulerLoop(ctx)
	}()

	// Worker goroutines.
	for i := range c.opts.Concurrency {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.workerLoop(ctx, id)
		}(i)
	}

	// Wait for context cancellation, then drain.
	<-ctx.Done()
	logx.Info("queuex: shutting down workers...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("queuex: all workers stopped")
	case <-time.After(c.opts.ShutdownTimeout):
		logx.Warn("queuex: shutdown timed out, some tasks may not have completed")
	}

	return nil
}

func (c *Client) schedulerLoop(ctx context.Context) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.backend.PromoteScheduled(ctx, c.opts.Queues); err != nil {
				if ctx.Err() != nil {
					return
				}
				logx.WithError(err).Warn("queuex: failed to promote scheduled tasks")
			}
		}
	}
}

func (c *Client) workerLoop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, err := c.backend.Dequeue(ctx, c.opts.Queues, c.opts.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.WithError(err).Warnf("queuex: worker %d dequeue error", id)
			time.Sleep(c.opts.PollInterval)
			continue
		}
		if task == nil {
			continue
		}

		c.processTask(ctx, task)
	}
}

func (c *Client) processTask(ctx context.Context, task *TaskInfo) {
	c.mu.RLock()
	handler, ok := c.handlers[task.Type]
	c.mu.RUnlock()

	if !ok {
		logx.Warnf("queuex: no handler for task type %q (id=%s)", task.Type, task.ID)
		c.ack(ctx, task)
		return
	}

	if err := handler(ctx, task); err != nil {
		// The handler owns the outcome; nothing to do here but log.
		logx.WithError(err).Warnf("queuex: task %s (type=%s) handler returned error", task.ID, task.Type)
	}

	c.ack(ctx, task)
}

func (c *Client) ack(ctx context.Context, task *TaskInfo) {
	if err := c.backend.Ack(ctx, task.ID); err != nil {
		logx.WithError(err).Errorf("queuex: failed to ack task %s", task.ID)
	}
}
