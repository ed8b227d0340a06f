package queuexmem

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/workgate/pkg/queuex"
	"github.com/google/uuid"
)

// MemoryBackend is an in-memory queuex.Backend for tests and local
// development. Ready tasks go through a buffered channel per queue; delayed
// tasks sit in a slice until PromoteScheduled finds them due.
type MemoryBackend struct {
	mu        sync.Mutex
	ready     map[string]chan *queuex.TaskInfo
	scheduled []scheduledTask
}

type scheduledTask struct {
	due  time.Time
	info *queuex.TaskInfo
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		ready: make(map[string]chan *queuex.TaskInfo),
	}
}

func (m *MemoryBackend) Enqueue(ctx context.Context, task queuex.Task) (string, error) {
	info, err := newTaskInfo(task)
	if err != nil {
		return "", err
	}

	select {
	case m.readyChan(task.Queue) <- info:
		return info.ID, nil
	case <-ctx.Done():
		return "", queuex.ErrRegistry.NewWithCause(queuex.CodeEnqueueFailed, ctx.Err())
	}
}

func (m *MemoryBackend) EnqueueIn(ctx context.Context, task queuex.Task, delay time.Duration) (string, error) {
	info, err := newTaskInfo(task)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.scheduled = append(m.scheduled, scheduledTask{
		due:  time.Now().Add(delay),
		info: info,
	})
	m.mu.Unlock()
	return info.ID, nil
}

func (m *MemoryBackend) Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*queuex.TaskInfo, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// Poll across the queues; good enough for a test backend.
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		for _, name := range queues {
			select {
			case info := <-m.readyChan(name):
				return info, nil
			default:
			}
		}

		select {
		case <-ctx.Done():
			return nil, nil
		case <-timer.C:
			return nil, nil
		case <-ticker.C:
		}
	}
}

func (m *MemoryBackend) Ack(ctx context.Context, taskID string) error {
	return nil // nothing to clean up, the channel already gave up the task
}

func (m *MemoryBackend) PromoteScheduled(ctx context.Context, queues []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var remaining []scheduledTask
	for _, st := range m.scheduled {
		if st.due.After(now) {
			remaining = append(remaining, st)
			continue
		}
		select {
		case m.readyChanLocked(st.info.Queue) <- st.info:
		default:
			remaining = append(remaining, st) // queue full, retry next tick
		}
	}
	m.scheduled = remaining
	return nil
}

func (m *MemoryBackend) readyChan(queue string) chan *queuex.TaskInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readyChanLocked(queue)
}

func (m *MemoryBackend) readyChanLocked(queue string) chan *queuex.TaskInfo {
	ch, ok := m.ready[queue]
	if !ok {
		ch = make(chan *queuex.TaskInfo, 1024)
		m.ready[queue] = ch
	}
	return ch
}

func newTaskInfo(task queuex.Task) (*queuex.TaskInfo, error) {
	if task.Type == "" {
		return nil, queuex.ErrRegistry.New(queuex.CodeInvalidTask).
			WithDetail("reason", "task type is empty")
	}
	return &queuex.TaskInfo{
		ID:         uuid.New().String(),
		Type:       task.Type,
		Queue:      task.Queue,
		Payload:    task.Payload,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}
