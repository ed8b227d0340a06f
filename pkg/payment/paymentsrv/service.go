package paymentsrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/kernel"
	"github.com/Abraxas-365/workgate/pkg/logx"
	"github.com/Abraxas-365/workgate/pkg/payment"
	"github.com/google/uuid"
)

// Service reconciles payment processor events against the job store.
type Service struct {
	jobs      job.Store
	unmatched payment.UnmatchedStore
	gateway   payment.Gateway
}

// NewService creates a new payment reconciliation service.
func NewService(jobs job.Store, unmatched payment.UnmatchedStore, gateway payment.Gateway) *Service {
	return &Service{
		jobs:      jobs,
		unmatched: unmatched,
		gateway:   gateway,
	}
}

// Apply reconciles a single processor event against the job it references.
//
// Events that match no job are recorded and discarded; Apply returns nil for
// them so webhook deliveries are not retried against a reference that will
// never match. Re-delivery of an already-applied outcome is a no-op. An
// outcome that contradicts a terminal payment state comes back as a
// conflicting-state error and leaves the job untouched.
func (s *Service) Apply(ctx context.Context, ev payment.Event) error {
	if ev.PaymentID.IsEmpty() {
		return payment.ErrInvalidEvent().WithDetail("reason", "payment_id is empty")
	}
	if !ev.Outcome.Valid() {
		return payment.ErrInvalidEvent().
			WithDetail("payment_id", ev.PaymentID.String()).
			WithDetail("outcome", string(ev.Outcome))
	}

	err := s.jobs.UpdatePaymentState(ctx, ev.PaymentID, stateFor(ev.Outcome))
	if err == nil {
		logx.WithField("payment_id", ev.PaymentID.String()).
			Infof("payment: applied %s", ev.Outcome)
		return nil
	}

	if job.IsCode(err, job.CodeJobNotFound) {
		return s.recordUnmatched(ctx, ev)
	}
	return err
}

// Poll asks the processor for the current status of a purchase and applies
// the outcome if it has resolved. It reports whether the purchase is settled
// so callers know to stop polling.
func (s *Service) Poll(ctx context.Context, paymentID kernel.PaymentID) (bool, error) {
	ev, resolved, err := s.check(ctx, paymentID)
	if err != nil || !resolved {
		return false, err
	}
	return true, s.Apply(ctx, *ev)
}

func (s *Service) check(ctx context.Context, paymentID kernel.PaymentID) (*payment.Event, bool, error) {
	status, err := s.gateway.GetPurchaseStatus(ctx, paymentID)
	if err != nil {
		return nil, false, err
	}
	if !status.Resolved {
		return nil, false, nil
	}
	return &payment.Event{
		PaymentID:  status.PaymentID,
		Outcome:    status.Outcome,
		ReceivedAt: time.Now().UTC(),
	}, true, nil
}

// ListUnmatched exposes the recorded unmatched events for operators.
func (s *Service) ListUnmatched(ctx context.Context, limit int) ([]payment.UnmatchedEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.unmatched.List(ctx, limit)
}

func (s *Service) recordUnmatched(ctx context.Context, ev payment.Event) error {
	rec := payment.UnmatchedEvent{
		ID:         uuid.New().String(),
		PaymentID:  ev.PaymentID,
		Outcome:    ev.Outcome,
		Payload:    ev.Raw,
		ReceivedAt: ev.ReceivedAt,
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}

	if err := s.unmatched.Record(ctx, rec); err != nil {
		return err
	}
	logx.WithField("payment_id", ev.PaymentID.String()).
		Warn("payment: event matched no job, recorded and discarded")
	return nil
}

func stateFor(o payment.Outcome) job.PaymentState {
	if o == payment.OutcomeConfirmed {
		return job.PaymentConfirmed
	}
	return job.PaymentRejected
}
