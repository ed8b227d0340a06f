package jobinfra

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/kernel"
)

// MemoryJobStore is an in-memory job.Store for tests and local development.
// A single mutex serializes mutations, which trivially gives the per-job
// atomicity the postgres store gets from conditional updates.
type MemoryJobStore struct {
	mu        sync.Mutex
	jobs      map[kernel.JobID]*job.Job
	byPayment map[kernel.PaymentID]kernel.JobID
}

// NewMemoryJobStore creates an empty in-memory store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs:      make(map[kernel.JobID]*job.Job),
		byPayment: make(map[kernel.PaymentID]kernel.JobID),
	}
}

func (s *MemoryJobStore) Create(ctx context.Context, j *job.Job) error {
	if err := j.Input.Validate(); err != nil {
		return err
	}
	if err := j.CheckInvariants(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[j.ID]; exists {
		return job.ErrAlreadyAttached().
			WithDetail("job_id", j.ID.String()).
			WithDetail("reason", "job id already exists")
	}
	if !j.PaymentID.IsEmpty() {
		if _, taken := s.byPayment[j.PaymentID]; taken {
			return job.ErrAlreadyAttached().
				WithDetail("payment_id", j.PaymentID.String()).
				WithDetail("reason", "payment reference already bound to another job")
		}
		s.byPayment[j.PaymentID] = j.ID
	}

	cp := *j
	cp.Input = j.Input.Clone()
	s.jobs[j.ID] = &cp
	return nil
}

func (s *MemoryJobStore) Get(ctx context.Context, id kernel.JobID) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *MemoryJobStore) GetByPaymentID(ctx context.Context, paymentID kernel.PaymentID) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byPayment[paymentID]
	if !ok {
		return nil, job.ErrJobNotFound().WithDetail("payment_id", paymentID.String())
	}
	return s.getLocked(id)
}

func (s *MemoryJobStore) AttachPayment(ctx context.Context, id kernel.JobID, paymentID kernel.PaymentID) error {
	if paymentID.IsEmpty() {
		return job.ErrInvalidInput().WithDetail("reason", "payment id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return job.ErrJobNotFound().WithDetail("job_id", id.String())
	}
	if j.PaymentID == paymentID {
		return nil // idempotent re-attach
	}
	if !j.PaymentID.IsEmpty() {
		return job.ErrAlreadyAttached().
			WithDetail("job_id", id.String()).
			WithDetail("attached_payment_id", j.PaymentID.String()).
			WithDetail("requested_payment_id", paymentID.String())
	}
	if _, taken := s.byPayment[paymentID]; taken {
		return job.ErrAlreadyAttached().
			WithDetail("payment_id", paymentID.String()).
			WithDetail("reason", "payment reference already bound to another job")
	}

	j.PaymentID = paymentID
	if j.PaymentState == job.PaymentUnpaid {
		j.PaymentState = job.PaymentPendingConfirmation
	}
	j.UpdatedAt = time.Now().UTC()
	s.byPayment[paymentID] = id
	return nil
}

func (s *MemoryJobStore) UpdateExecutionState(ctx context.Context, id kernel.JobID, to job.ExecutionState, result, errorDetail string) error {
	if !to.Valid() {
		return job.ErrInvalidInput().WithDetail("reason", "unknown execution state: "+string(to))
	}
	if (result != "") != (to == job.ExecutionCompleted) {
		return job.ErrInvalidInput().WithDetail("reason", "result must be set exactly when completing")
	}
	if (errorDetail != "") != (to == job.ExecutionFailed) {
		return job.ErrInvalidInput().WithDetail("reason", "error detail must be set exactly when failing")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return job.ErrJobNotFound().WithDetail("job_id", id.String())
	}
	if !j.ExecutionState.CanTransition(to) {
		return job.ErrInvalidTransition().
			WithDetail("job_id", id.String()).
			WithDetail("axis", "execution").
			WithDetail("from", string(j.ExecutionState)).
			WithDetail("to", string(to))
	}

	j.ExecutionState = to
	j.Result = result
	j.ErrorDetail = errorDetail
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryJobStore) UpdatePaymentState(ctx context.Context, paymentID kernel.PaymentID, to job.PaymentState) error {
	if !to.Valid() {
		return job.ErrInvalidInput().WithDetail("reason", "unknown payment state: "+string(to))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byPayment[paymentID]
	if !ok {
		return job.ErrJobNotFound().WithDetail("payment_id", paymentID.String())
	}
	j := s.jobs[id]

	if !j.PaymentState.CanTransition(to) {
		return classifyPaymentNoop(j, to)
	}

	j.PaymentState = to
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryJobStore) getLocked(id kernel.JobID) (*job.Job, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, job.ErrJobNotFound().WithDetail("job_id", id.String())
	}
	cp := *j
	cp.Input = j.Input.Clone()
	return &cp, nil
}
