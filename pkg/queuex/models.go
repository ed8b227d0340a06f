package queuex

import (
	"encoding/json"
	"time"
)

// Task represents a unit of work to be dispatched.
type Task struct {
	Type    string          `json:"type"`
	Queue   string          `json:"queue"`
	Payload json.RawMessage `json:"payload"`
}

// TaskInfo is the representation of a task stored in the backend while it
// waits to be processed.
type TaskInfo struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Queue      string          `json:"queue"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}
