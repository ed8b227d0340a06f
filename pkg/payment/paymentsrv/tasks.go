package paymentsrv

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/workgate/pkg/kernel"
	"github.com/Abraxas-365/workgate/pkg/logx"
	"github.com/Abraxas-365/workgate/pkg/queuex"
)

// TaskTypePollPayment is the task type for purchase status polling.
const TaskTypePollPayment = "payment.poll"

// PollTaskPayload is the payload carried by a polling task.
type PollTaskPayload struct {
	PaymentID string `json:"payment_id"`
	Attempt   int    `json:"attempt"`
}

// Poller drives purchase status polling through the task queue. Each poll
// that finds the purchase unresolved schedules the next one, until the
// attempt budget runs out.
type Poller struct {
	service  *Service
	enqueuer queuex.Enqueuer

	interval    time.Duration
	maxAttempts int
}

// NewPoller creates a poller that re-checks every interval, up to maxAttempts
// times per purchase.
func NewPoller(service *Service, enqueuer queuex.Enqueuer, interval time.Duration, maxAttempts int) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 60
	}
	return &Poller{
		service:     service,
		enqueuer:    enqueuer,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// Register wires the polling handler into the worker client.
func (p *Poller) Register(client *queuex.Client) {
	client.Register(TaskTypePollPayment, p.handle)
}

// Schedule starts polling for a purchase after one interval.
func (p *Poller) Schedule(ctx context.Context, paymentID kernel.PaymentID) error {
	return p.schedule(ctx, paymentID.String(), 1)
}

func (p *Poller) schedule(ctx context.Context, paymentID string, attempt int) error {
	payload, err := json.Marshal(PollTaskPayload{PaymentID: paymentID, Attempt: attempt})
	if err != nil {
		return err
	}
	_, err = p.enqueuer.EnqueueIn(ctx, queuex.Task{
		Type:    TaskTypePollPayment,
		Payload: payload,
	}, p.interval)
	return err
}

func (p *Poller) handle(ctx context.Context, task *queuex.TaskInfo) error {
	var payload PollTaskPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return err
	}

	resolved, err := p.service.Poll(ctx, kernel.NewPaymentID(payload.PaymentID))
	if err != nil {
		logx.WithError(err).Warnf("payment: poll attempt %d for %s failed", payload.Attempt, payload.PaymentID)
	}
	if resolved {
		return err
	}

	if payload.Attempt >= p.maxAttempts {
		logx.Warnf("payment: giving up on %s after %d polls", payload.PaymentID, payload.Attempt)
		return err
	}
	return p.schedule(ctx, payload.PaymentID, payload.Attempt+1)
}
