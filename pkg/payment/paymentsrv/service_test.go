package paymentsrv_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/job/jobinfra"
	"github.com/Abraxas-365/workgate/pkg/kernel"
	"github.com/Abraxas-365/workgate/pkg/payment"
	"github.com/Abraxas-365/workgate/pkg/payment/paymentinfra"
	"github.com/Abraxas-365/workgate/pkg/payment/paymentsrv"
)

// stubGateway returns a canned purchase status.
type stubGateway struct {
	status payment.PurchaseStatus
	err    error
}

func (g *stubGateway) CreatePurchase(ctx context.Context, req payment.PurchaseRequest) (*payment.Purchase, error) {
	return &payment.Purchase{PaymentID: "pay_stub"}, nil
}

func (g *stubGateway) GetPurchaseStatus(ctx context.Context, paymentID kernel.PaymentID) (*payment.PurchaseStatus, error) {
	if g.err != nil {
		return nil, g.err
	}
	st := g.status
	st.PaymentID = paymentID
	return &st, nil
}

func newReconciler(t *testing.T, gw payment.Gateway) (*paymentsrv.Service, *jobinfra.MemoryJobStore, *paymentinfra.MemoryUnmatchedStore) {
	t.Helper()
	jobs := jobinfra.NewMemoryJobStore()
	unmatched := paymentinfra.NewMemoryUnmatchedStore()
	return paymentsrv.NewService(jobs, unmatched, gw), jobs, unmatched
}

func seedJob(t *testing.T, jobs *jobinfra.MemoryJobStore, paymentID kernel.PaymentID) *job.Job {
	t.Helper()
	j := job.New(job.Input{{Key: "contract_text", Value: "..."}}, paymentID)
	if err := jobs.Create(context.Background(), j); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return j
}

// --- Apply tests ---

func TestApplyConfirmation(t *testing.T) {
	svc, jobs, _ := newReconciler(t, nil)
	ctx := context.Background()
	j := seedJob(t, jobs, "pay_1")

	err := svc.Apply(ctx, payment.Event{PaymentID: "pay_1", Outcome: payment.OutcomeConfirmed})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	got, _ := jobs.Get(ctx, j.ID)
	if got.PaymentState != job.PaymentConfirmed {
		t.Fatalf("expected confirmed, got %s", got.PaymentState)
	}
}

func TestApplyRejection(t *testing.T) {
	svc, jobs, _ := newReconciler(t, nil)
	ctx := context.Background()
	j := seedJob(t, jobs, "pay_1")

	if err := svc.Apply(ctx, payment.Event{PaymentID: "pay_1", Outcome: payment.OutcomeRejected}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, _ := jobs.Get(ctx, j.ID)
	if got.PaymentState != job.PaymentRejected {
		t.Fatalf("expected rejected, got %s", got.PaymentState)
	}
}

func TestApplyRedeliveryIsIdempotent(t *testing.T) {
	svc, jobs, _ := newReconciler(t, nil)
	ctx := context.Background()
	seedJob(t, jobs, "pay_1")

	ev := payment.Event{PaymentID: "pay_1", Outcome: payment.OutcomeConfirmed}
	if err := svc.Apply(ctx, ev); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := svc.Apply(ctx, ev); err != nil {
		t.Fatalf("redelivery must be a no-op: %v", err)
	}
}

func TestApplyConflictingOutcome(t *testing.T) {
	svc, jobs, _ := newReconciler(t, nil)
	ctx := context.Background()
	seedJob(t, jobs, "pay_1")

	svc.Apply(ctx, payment.Event{PaymentID: "pay_1", Outcome: payment.OutcomeConfirmed})
	err := svc.Apply(ctx, payment.Event{PaymentID: "pay_1", Outcome: payment.OutcomeRejected})
	if !job.IsCode(err, job.CodeConflictingState) {
		t.Fatalf("expected conflicting state, got %v", err)
	}

	// The job keeps its first terminal outcome.
	got, _ := jobs.GetByPaymentID(ctx, "pay_1")
	if got.PaymentState != job.PaymentConfirmed {
		t.Fatalf("conflict mutated the job: %s", got.PaymentState)
	}
}

func TestApplyUnmatchedEventIsRecordedAndDiscarded(t *testing.T) {
	svc, _, unmatched := newReconciler(t, nil)
	ctx := context.Background()

	err := svc.Apply(ctx, payment.Event{
		PaymentID: "pay_nobody",
		Outcome:   payment.OutcomeConfirmed,
		Raw:       []byte(`{"payment_id":"pay_nobody"}`),
	})
	if err != nil {
		t.Fatalf("unmatched events must not error so deliveries are not retried: %v", err)
	}

	events, err := unmatched.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 || events[0].PaymentID != "pay_nobody" {
		t.Fatalf("expected one recorded event, got %+v", events)
	}
	if events[0].ID == "" || events[0].ReceivedAt.IsZero() {
		t.Fatalf("recorded event missing bookkeeping fields: %+v", events[0])
	}
}

func TestApplyRejectsMalformedEvents(t *testing.T) {
	svc, _, _ := newReconciler(t, nil)
	ctx := context.Background()

	if err := svc.Apply(ctx, payment.Event{Outcome: payment.OutcomeConfirmed}); err == nil {
		t.Fatal("event without payment_id must be rejected")
	}
	if err := svc.Apply(ctx, payment.Event{PaymentID: "pay_1", Outcome: "maybe"}); err == nil {
		t.Fatal("unknown outcome must be rejected")
	}
}

// --- Poll tests ---

func TestPollUnresolvedPurchase(t *testing.T) {
	gw := &stubGateway{status: payment.PurchaseStatus{Resolved: false}}
	svc, jobs, _ := newReconciler(t, gw)
	ctx := context.Background()
	j := seedJob(t, jobs, "pay_1")

	resolved, err := svc.Poll(ctx, "pay_1")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if resolved {
		t.Fatal("unresolved purchase reported as settled")
	}
	got, _ := jobs.Get(ctx, j.ID)
	if got.PaymentState != job.PaymentPendingConfirmation {
		t.Fatalf("poll mutated an unresolved payment: %s", got.PaymentState)
	}
}

func TestPollAppliesResolvedOutcome(t *testing.T) {
	gw := &stubGateway{status: payment.PurchaseStatus{Resolved: true, Outcome: payment.OutcomeConfirmed}}
	svc, jobs, _ := newReconciler(t, gw)
	ctx := context.Background()
	j := seedJob(t, jobs, "pay_1")

	resolved, err := svc.Poll(ctx, "pay_1")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if !resolved {
		t.Fatal("resolved purchase reported as pending")
	}
	got, _ := jobs.Get(ctx, j.ID)
	if got.PaymentState != job.PaymentConfirmed {
		t.Fatalf("expected confirmed, got %s", got.PaymentState)
	}
}

// --- ListUnmatched tests ---

func TestListUnmatchedDefaultsLimit(t *testing.T) {
	svc, _, unmatched := newReconciler(t, nil)
	ctx := context.Background()

	if err := unmatched.Record(ctx, payment.UnmatchedEvent{ID: "1", PaymentID: "pay_x", Outcome: payment.OutcomeConfirmed}); err != nil {
		t.Fatalf("record: %v", err)
	}
	events, err := svc.ListUnmatched(ctx, 0)
	if err != nil || len(events) != 1 {
		t.Fatalf("expected one event with defaulted limit, got %v (%v)", events, err)
	}
}
