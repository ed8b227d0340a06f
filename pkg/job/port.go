package job

import (
	"context"

	"github.com/Abraxas-365/workgate/pkg/kernel"
)

// Store is the durable keyed record of job state and results. Every mutation
// is scoped to a single job and must be atomic: concurrent writers never
// observe a partially-updated record, and a concurrent execution update and
// payment update never lose each other's write.
type Store interface {
	// Create persists a freshly built job. The job's states must be the
	// initial ones produced by New.
	Create(ctx context.Context, j *Job) error

	// Get returns the job by id, or ErrJobNotFound.
	Get(ctx context.Context, id kernel.JobID) (*Job, error)

	// GetByPaymentID resolves a job through the payment reference index,
	// or ErrJobNotFound when the reference is unmatched.
	GetByPaymentID(ctx context.Context, paymentID kernel.PaymentID) (*Job, error)

	// AttachPayment records the one-time payment reference for a job and
	// moves the payment axis from unpaid to pending_confirmation. Attaching
	// the same reference again is a no-op; a different reference fails with
	// ErrAlreadyAttached.
	AttachPayment(ctx context.Context, id kernel.JobID, paymentID kernel.PaymentID) error

	// UpdateExecutionState advances the execution axis via compare-and-set.
	// result must be non-empty iff to == ExecutionCompleted; errorDetail
	// must be non-empty iff to == ExecutionFailed. A transition outside the
	// allowed table fails with ErrInvalidTransition.
	UpdateExecutionState(ctx context.Context, id kernel.JobID, to ExecutionState, result, errorDetail string) error

	// UpdatePaymentState advances the payment axis for the job matching
	// the payment reference. Re-applying the current terminal state is an
	// idempotent no-op; a conflicting terminal outcome fails with
	// ErrConflictingState.
	UpdatePaymentState(ctx context.Context, paymentID kernel.PaymentID, to PaymentState) error
}
