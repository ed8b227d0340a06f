package jobsrv

import (
	"context"

	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/kernel"
	"github.com/Abraxas-365/workgate/pkg/logx"
	"github.com/Abraxas-365/workgate/pkg/payment"
	"github.com/Abraxas-365/workgate/pkg/payment/paymentsrv"
	"github.com/Abraxas-365/workgate/pkg/queuex"
)

// Service orchestrates the job lifecycle: submission, queued execution,
// payment binding and gated result disclosure.
type Service struct {
	store    job.Store
	queue    queuex.Enqueuer
	gateway  payment.Gateway
	poller   *paymentsrv.Poller
	vault    *ArtifactVault
	notifier *Notifier
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithGateway lets Submit open a purchase with the payment processor when
// the caller brings no payment reference of their own.
func WithGateway(g payment.Gateway) Option {
	return func(s *Service) { s.gateway = g }
}

// WithPoller schedules purchase status polling for every bound payment.
func WithPoller(p *paymentsrv.Poller) Option {
	return func(s *Service) { s.poller = p }
}

// WithArtifactVault offloads oversized input values to file storage.
func WithArtifactVault(v *ArtifactVault) Option {
	return func(s *Service) { s.vault = v }
}

// WithNotifier sends lifecycle notifications.
func WithNotifier(n *Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService creates the orchestrator over a store and a task queue.
func NewService(store job.Store, queue queuex.Enqueuer, opts ...Option) *Service {
	s := &Service{
		store: store,
		queue: queue,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit accepts a new job, dispatches its execution and returns immediately.
// Execution runs in the background; the returned job is still pending.
//
// When paymentID is empty and a gateway is configured, a purchase is opened
// with the processor and its reference bound to the job. A gateway failure
// does not fail the submission: the job stays unpaid and a reference can be
// attached later.
func (s *Service) Submit(ctx context.Context, input job.Input, paymentID kernel.PaymentID) (*job.Job, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if s.vault != nil {
		offloaded, err := s.vault.Offload(ctx, input)
		if err != nil {
			return nil, err
		}
		input = offloaded
	}

	j := job.New(input, paymentID)
	if err := s.store.Create(ctx, j); err != nil {
		return nil, err
	}

	if paymentID.IsEmpty() && s.gateway != nil {
		s.openPurchase(ctx, j)
	}
	if !j.PaymentID.IsEmpty() && s.poller != nil {
		if err := s.poller.Schedule(ctx, j.PaymentID); err != nil {
			logx.WithError(err).Warnf("jobsrv: could not schedule payment polling for %s", j.ID)
		}
	}

	if err := s.dispatch(ctx, j.ID); err != nil {
		// The job exists and will show up in status queries; execution
		// just never got dispatched. Surface the failure.
		return nil, err
	}

	logx.WithField("job_id", j.ID.String()).Info("jobsrv: job submitted")
	return j, nil
}

// Get returns the raw job record.
func (s *Service) Get(ctx context.Context, id kernel.JobID) (*job.Job, error) {
	return s.store.Get(ctx, id)
}

// Status returns the externally visible view of a job, with the result gate
// applied.
func (s *Service) Status(ctx context.Context, id kernel.JobID) (*StatusView, error) {
	j, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewStatusView(j), nil
}

// AttachPayment binds an externally obtained payment reference to a job and
// starts polling for its settlement.
func (s *Service) AttachPayment(ctx context.Context, id kernel.JobID, paymentID kernel.PaymentID) error {
	if err := s.store.AttachPayment(ctx, id, paymentID); err != nil {
		return err
	}
	if s.poller != nil {
		if err := s.poller.Schedule(ctx, paymentID); err != nil {
			logx.WithError(err).Warnf("jobsrv: could not schedule payment polling for %s", id)
		}
	}
	return nil
}

func (s *Service) openPurchase(ctx context.Context, j *job.Job) {
	purchase, err := s.gateway.CreatePurchase(ctx, payment.PurchaseRequest{JobID: j.ID})
	if err != nil {
		logx.WithError(err).Warnf("jobsrv: could not open purchase for %s", j.ID)
		return
	}
	if err := s.store.AttachPayment(ctx, j.ID, purchase.PaymentID); err != nil {
		logx.WithError(err).Warnf("jobsrv: could not bind purchase %s to %s", purchase.PaymentID, j.ID)
		return
	}
	j.PaymentID = purchase.PaymentID
	j.PaymentState = job.PaymentPendingConfirmation
}
