package queuex_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/workgate/pkg/queuex"
	"github.com/Abraxas-365/workgate/pkg/queuex/queuexmem"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// --- Dispatch tests ---

func TestClientDispatchesToHandler(t *testing.T) {
	backend := queuexmem.NewMemoryBackend()
	client := queuex.NewClient(backend,
		queuex.WithConcurrency(1),
		queuex.WithPollInterval(20*time.Millisecond),
		queuex.WithDequeueTimeout(50*time.Millisecond),
		queuex.WithShutdownTimeout(time.Second),
	)

	var mu sync.Mutex
	var got []string
	client.Register("test.echo", func(ctx context.Context, task *queuex.TaskInfo) error {
		var payload struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			t.Errorf("unmarshal: %v", err)
			return err
		}
		mu.Lock()
		got = append(got, payload.Msg)
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	go client.Start(ctx)

	if _, err := client.Enqueue(ctx, queuex.Task{
		Type:    "test.echo",
		Payload: json.RawMessage(`{"msg":"hello"}`),
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if got[0] != "hello" {
		t.Fatalf("got %q", got[0])
	}
}

func TestClientDefaultsQueue(t *testing.T) {
	backend := queuexmem.NewMemoryBackend()
	client := queuex.NewClient(backend)

	ctx := context.Background()
	if _, err := client.Enqueue(ctx, queuex.Task{Type: "test.noqueue"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	// The task must land on the "default" queue.
	info, err := backend.Dequeue(ctx, []string{"default"}, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if info == nil || info.Type != "test.noqueue" || info.Queue != "default" {
		t.Fatalf("unexpected task: %+v", info)
	}
}

func TestDelayedTaskIsNotReadyUntilPromoted(t *testing.T) {
	backend := queuexmem.NewMemoryBackend()
	ctx := context.Background()

	if _, err := backend.EnqueueIn(ctx, queuex.Task{Type: "test.later", Queue: "default"}, time.Hour); err != nil {
		t.Fatalf("enqueue in: %v", err)
	}

	if err := backend.PromoteScheduled(ctx, []string{"default"}); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if info, _ := backend.Dequeue(ctx, []string{"default"}, 30*time.Millisecond); info != nil {
		t.Fatalf("task became ready before its delay: %+v", info)
	}
}

func TestDelayedTaskPromotedWhenDue(t *testing.T) {
	backend := queuexmem.NewMemoryBackend()
	ctx := context.Background()

	if _, err := backend.EnqueueIn(ctx, queuex.Task{Type: "test.soon", Queue: "default"}, 10*time.Millisecond); err != nil {
		t.Fatalf("enqueue in: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if err := backend.PromoteScheduled(ctx, []string{"default"}); err != nil {
		t.Fatalf("promote: %v", err)
	}

	info, err := backend.Dequeue(ctx, []string{"default"}, 100*time.Millisecond)
	if err != nil || info == nil {
		t.Fatalf("expected promoted task, got %v (%v)", info, err)
	}
	if info.Type != "test.soon" {
		t.Fatalf("unexpected task: %+v", info)
	}
}

func TestUnhandledTaskTypeIsDiscarded(t *testing.T) {
	backend := queuexmem.NewMemoryBackend()
	client := queuex.NewClient(backend,
		queuex.WithConcurrency(1),
		queuex.WithDequeueTimeout(30*time.Millisecond),
		queuex.WithShutdownTimeout(time.Second),
	)

	var mu sync.Mutex
	handled := 0
	client.Register("test.known", func(ctx context.Context, task *queuex.TaskInfo) error {
		mu.Lock()
		handled++
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	go client.Start(ctx)

	// The unknown type is acked and dropped; the known one still gets through.
	client.Enqueue(ctx, queuex.Task{Type: "test.unknown"})
	client.Enqueue(ctx, queuex.Task{Type: "test.known"})

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return handled == 1
	})
	cancel()
}

func TestStartTwiceFails(t *testing.T) {
	backend := queuexmem.NewMemoryBackend()
	client := queuex.NewClient(backend,
		queuex.WithDequeueTimeout(30*time.Millisecond),
		queuex.WithShutdownTimeout(time.Second),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	if err := client.Start(ctx); err == nil {
		t.Fatal("second Start must fail while running")
	}
}

func TestEnqueueRejectsEmptyType(t *testing.T) {
	backend := queuexmem.NewMemoryBackend()
	if _, err := backend.Enqueue(context.Background(), queuex.Task{Queue: "default"}); err == nil {
		t.Fatal("task without a type must be rejected")
	}
}
