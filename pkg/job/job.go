package job

import (
	"time"

	"github.com/Abraxas-365/workgate/pkg/kernel"
)

// ExecutionState is the lifecycle of running the work itself.
type ExecutionState string

const (
	ExecutionPending   ExecutionState = "pending"
	ExecutionRunning   ExecutionState = "running"
	ExecutionCompleted ExecutionState = "completed"
	ExecutionFailed    ExecutionState = "failed"
)

// PaymentState is the lifecycle of the external payment that gates the
// release of results. It advances independently of the execution axis.
type PaymentState string

const (
	PaymentUnpaid              PaymentState = "unpaid"
	PaymentPendingConfirmation PaymentState = "pending_confirmation"
	PaymentConfirmed           PaymentState = "confirmed"
	PaymentRejected            PaymentState = "rejected"
)

// Allowed transitions per axis. Both axes are forward-only; the payment axis
// may skip pending_confirmation because webhook deliveries are not ordered
// with respect to the local attach call.
var executionTransitions = map[ExecutionState][]ExecutionState{
	ExecutionPending: {ExecutionRunning, ExecutionFailed},
	ExecutionRunning: {ExecutionCompleted, ExecutionFailed},
}

var paymentTransitions = map[PaymentState][]PaymentState{
	PaymentUnpaid:              {PaymentPendingConfirmation, PaymentConfirmed, PaymentRejected},
	PaymentPendingConfirmation: {PaymentConfirmed, PaymentRejected},
}

// CanTransition reports whether the execution axis allows moving to the given state.
func (s ExecutionState) CanTransition(to ExecutionState) bool {
	for _, next := range executionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the execution state admits no further transitions.
func (s ExecutionState) Terminal() bool {
	return s == ExecutionCompleted || s == ExecutionFailed
}

func (s ExecutionState) Valid() bool {
	switch s {
	case ExecutionPending, ExecutionRunning, ExecutionCompleted, ExecutionFailed:
		return true
	}
	return false
}

// CanTransition reports whether the payment axis allows moving to the given state.
func (s PaymentState) CanTransition(to PaymentState) bool {
	for _, next := range paymentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the payment state admits no further transitions.
func (s PaymentState) Terminal() bool {
	return s == PaymentConfirmed || s == PaymentRejected
}

func (s PaymentState) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPendingConfirmation, PaymentConfirmed, PaymentRejected:
		return true
	}
	return false
}

// Sources from which the execution axis can reach `to`. Used by stores to
// build compare-and-set updates.
func ExecutionSources(to ExecutionState) []ExecutionState {
	var from []ExecutionState
	for s, nexts := range executionTransitions {
		for _, n := range nexts {
			if n == to {
				from = append(from, s)
			}
		}
	}
	return from
}

// PaymentSources lists the states from which the payment axis can reach `to`.
func PaymentSources(to PaymentState) []PaymentState {
	var from []PaymentState
	for s, nexts := range paymentTransitions {
		for _, n := range nexts {
			if n == to {
				from = append(from, s)
			}
		}
	}
	return from
}

// Job is one unit of submitted work tracked through execution and payment
// gating. A job is never deleted by the orchestrator; retention is an
// external policy.
type Job struct {
	ID kernel.JobID `json:"job_id"`

	// Input is the ordered key/value sequence supplied by the requester.
	// Immutable once accepted.
	Input Input `json:"input_data"`

	// PaymentID correlates this job to an external payment. Empty until
	// attached; immutable once attached.
	PaymentID kernel.PaymentID `json:"payment_id,omitempty"`

	ExecutionState ExecutionState `json:"status"`
	PaymentState   PaymentState   `json:"payment_status"`

	// Result is present only after ExecutionCompleted. ErrorDetail is
	// present only after ExecutionFailed.
	Result      string `json:"result,omitempty"`
	ErrorDetail string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New builds a freshly submitted job. If a payment reference is already
// known at submission time the payment axis starts at pending_confirmation.
func New(input Input, paymentID kernel.PaymentID) *Job {
	now := time.Now().UTC()
	j := &Job{
		ID:             kernel.NewJobID(),
		Input:          input,
		PaymentID:      paymentID,
		ExecutionState: ExecutionPending,
		PaymentState:   PaymentUnpaid,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if !paymentID.IsEmpty() {
		j.PaymentState = PaymentPendingConfirmation
	}
	return j
}

// CheckInvariants verifies the structural invariants of a job record.
// Stores call this after every mutation.
func (j *Job) CheckInvariants() error {
	if (j.Result != "") != (j.ExecutionState == ExecutionCompleted) {
		return ErrCorruptRecord().
			WithDetail("job_id", j.ID.String()).
			WithDetail("reason", "result presence does not match execution state")
	}
	if (j.ErrorDetail != "") != (j.ExecutionState == ExecutionFailed) {
		return ErrCorruptRecord().
			WithDetail("job_id", j.ID.String()).
			WithDetail("reason", "error detail presence does not match execution state")
	}
	return nil
}
