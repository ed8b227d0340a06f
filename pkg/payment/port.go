package payment

import (
	"context"

	"github.com/Abraxas-365/workgate/pkg/kernel"
)

// UnmatchedStore keeps events whose payment reference resolved to no job.
type UnmatchedStore interface {
	Record(ctx context.Context, ev UnmatchedEvent) error
	List(ctx context.Context, limit int) ([]UnmatchedEvent, error)
}

// Gateway talks to the external payment processor.
type Gateway interface {
	// CreatePurchase opens a purchase for a job and returns the payment
	// reference the processor assigned.
	CreatePurchase(ctx context.Context, req PurchaseRequest) (*Purchase, error)

	// GetPurchaseStatus polls the processor for the current status of a
	// purchase.
	GetPurchaseStatus(ctx context.Context, paymentID kernel.PaymentID) (*PurchaseStatus, error)
}
