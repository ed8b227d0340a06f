package payment

import (
	"encoding/json"
	"time"

	"github.com/Abraxas-365/workgate/pkg/kernel"
)

// Outcome is the terminal result a payment processor reports for a payment.
type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeRejected  Outcome = "rejected"
)

// Valid reports whether the outcome is one the reconciler understands.
func (o Outcome) Valid() bool {
	return o == OutcomeConfirmed || o == OutcomeRejected
}

// Event is a confirmation notification received from the payment processor,
// either pushed over the webhook or pulled by the status poller.
type Event struct {
	PaymentID  kernel.PaymentID `json:"payment_id"`
	Outcome    Outcome          `json:"outcome"`
	Network    string           `json:"network,omitempty"`
	Raw        json.RawMessage  `json:"raw,omitempty"`
	ReceivedAt time.Time        `json:"received_at"`
}

// UnmatchedEvent is an event whose payment reference resolved to no job.
// These are kept for operator inspection and never reprocessed.
type UnmatchedEvent struct {
	ID         string           `json:"id"`
	PaymentID  kernel.PaymentID `json:"payment_id"`
	Outcome    Outcome          `json:"outcome"`
	Payload    json.RawMessage  `json:"payload,omitempty"`
	ReceivedAt time.Time        `json:"received_at"`
}

// PurchaseRequest asks the payment processor to open a purchase for a job.
type PurchaseRequest struct {
	JobID           kernel.JobID `json:"job_id"`
	AgentIdentifier string       `json:"agent_identifier"`
	Network         string       `json:"network"`
}

// Purchase is the processor's handle for an opened purchase.
type Purchase struct {
	PaymentID kernel.PaymentID `json:"payment_id"`
	PayByTime time.Time        `json:"pay_by_time,omitempty"`
}

// PurchaseStatus is the processor's view of a purchase when polled.
type PurchaseStatus struct {
	PaymentID kernel.PaymentID `json:"payment_id"`
	Resolved  bool             `json:"resolved"`
	Outcome   Outcome          `json:"outcome,omitempty"`
}
