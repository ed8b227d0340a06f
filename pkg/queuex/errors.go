package queuex

import "github.com/Abraxas-365/workgate/pkg/errx"

var ErrRegistry = errx.NewRegistry("QUEUEX")

var (
	CodeEnqueueFailed  = ErrRegistry.Register("ENQUEUE_FAILED", errx.TypeExternal, 500, "Failed to enqueue task")
	CodeDequeueFailed  = ErrRegistry.Register("DEQUEUE_FAILED", errx.TypeExternal, 500, "Failed to dequeue task")
	CodeInvalidTask    = ErrRegistry.Register("INVALID_TASK", errx.TypeValidation, 400, "Invalid task definition")
	CodeAlreadyRunning = ErrRegistry.Register("ALREADY_RUNNING", errx.TypeConflict, 409, "Worker is already running")
)
