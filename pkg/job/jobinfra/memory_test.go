package jobinfra_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/job/jobinfra"
	"github.com/Abraxas-365/workgate/pkg/kernel"
)

func newJob(t *testing.T, paymentID kernel.PaymentID) (*jobinfra.MemoryJobStore, *job.Job) {
	t.Helper()
	store := jobinfra.NewMemoryJobStore()
	j := job.New(job.Input{{Key: "contract_text", Value: "..."}}, paymentID)
	if err := store.Create(context.Background(), j); err != nil {
		t.Fatalf("create: %v", err)
	}
	return store, j
}

// --- Create / Get tests ---

func TestCreateAndGet(t *testing.T) {
	store, j := newJob(t, "")

	got, err := store.Get(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != j.ID || got.ExecutionState != job.ExecutionPending || got.PaymentState != job.PaymentUnpaid {
		t.Fatalf("unexpected job: %+v", got)
	}
}

func TestGetUnknownJob(t *testing.T) {
	store := jobinfra.NewMemoryJobStore()
	_, err := store.Get(context.Background(), kernel.NewJobID())
	if !job.IsCode(err, job.CodeJobNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateRejectsEmptyInput(t *testing.T) {
	store := jobinfra.NewMemoryJobStore()
	j := job.New(job.Input{}, "")
	err := store.Create(context.Background(), j)
	if !job.IsCode(err, job.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store, j := newJob(t, "")

	got, _ := store.Get(context.Background(), j.ID)
	got.Input[0].Value = "mutated"
	got.ExecutionState = job.ExecutionFailed

	again, _ := store.Get(context.Background(), j.ID)
	if again.Input[0].Value != "..." || again.ExecutionState != job.ExecutionPending {
		t.Fatal("Get must not expose the stored record")
	}
}

// --- AttachPayment tests ---

func TestAttachPayment(t *testing.T) {
	store, j := newJob(t, "")
	ctx := context.Background()

	if err := store.AttachPayment(ctx, j.ID, "pay_1"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	got, _ := store.Get(ctx, j.ID)
	if got.PaymentID != "pay_1" || got.PaymentState != job.PaymentPendingConfirmation {
		t.Fatalf("unexpected state after attach: %+v", got)
	}

	// Same reference again is a no-op.
	if err := store.AttachPayment(ctx, j.ID, "pay_1"); err != nil {
		t.Fatalf("idempotent re-attach: %v", err)
	}

	// A different reference must be rejected.
	err := store.AttachPayment(ctx, j.ID, "pay_2")
	if !job.IsCode(err, job.CodeAlreadyAttached) {
		t.Fatalf("expected already attached, got %v", err)
	}

	// Resolvable through the payment index afterwards.
	byPay, err := store.GetByPaymentID(ctx, "pay_1")
	if err != nil || byPay.ID != j.ID {
		t.Fatalf("payment index lookup failed: %v", err)
	}
}

func TestAttachPaymentReferenceAlreadyBound(t *testing.T) {
	store, _ := newJob(t, "pay_1")
	ctx := context.Background()

	other := job.New(job.Input{{Key: "contract_text", Value: "..."}}, "")
	if err := store.Create(ctx, other); err != nil {
		t.Fatalf("create second: %v", err)
	}

	err := store.AttachPayment(ctx, other.ID, "pay_1")
	if !job.IsCode(err, job.CodeAlreadyAttached) {
		t.Fatalf("expected already attached, got %v", err)
	}
}

func TestAttachDoesNotRegressConfirmedPayment(t *testing.T) {
	store, j := newJob(t, "pay_1")
	ctx := context.Background()

	if err := store.UpdatePaymentState(ctx, "pay_1", job.PaymentConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := store.AttachPayment(ctx, j.ID, "pay_1"); err != nil {
		t.Fatalf("re-attach after confirm: %v", err)
	}
	got, _ := store.Get(ctx, j.ID)
	if got.PaymentState != job.PaymentConfirmed {
		t.Fatalf("attach must not regress payment state, got %s", got.PaymentState)
	}
}

// --- UpdateExecutionState tests ---

func TestExecutionLifecycle(t *testing.T) {
	store, j := newJob(t, "")
	ctx := context.Background()

	if err := store.UpdateExecutionState(ctx, j.ID, job.ExecutionRunning, "", ""); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := store.UpdateExecutionState(ctx, j.ID, job.ExecutionCompleted, "analysis", ""); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, _ := store.Get(ctx, j.ID)
	if got.ExecutionState != job.ExecutionCompleted || got.Result != "analysis" {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestExecutionClaimIsExclusive(t *testing.T) {
	store, j := newJob(t, "")
	ctx := context.Background()

	if err := store.UpdateExecutionState(ctx, j.ID, job.ExecutionRunning, "", ""); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	err := store.UpdateExecutionState(ctx, j.ID, job.ExecutionRunning, "", "")
	if !job.IsCode(err, job.CodeInvalidTransition) {
		t.Fatalf("second claim must fail with invalid transition, got %v", err)
	}
}

func TestTerminalExecutionStateIsImmutable(t *testing.T) {
	store, j := newJob(t, "")
	ctx := context.Background()

	store.UpdateExecutionState(ctx, j.ID, job.ExecutionRunning, "", "")
	store.UpdateExecutionState(ctx, j.ID, job.ExecutionCompleted, "analysis", "")

	err := store.UpdateExecutionState(ctx, j.ID, job.ExecutionFailed, "", "late failure")
	if !job.IsCode(err, job.CodeInvalidTransition) {
		t.Fatalf("completed job must reject failure, got %v", err)
	}
	got, _ := store.Get(ctx, j.ID)
	if got.Result != "analysis" || got.ErrorDetail != "" {
		t.Fatalf("terminal record was mutated: %+v", got)
	}
}

func TestExecutionPayloadMatchesState(t *testing.T) {
	store, j := newJob(t, "")
	ctx := context.Background()

	// Completing without a result is invalid input, as is a result on failure.
	if err := store.UpdateExecutionState(ctx, j.ID, job.ExecutionCompleted, "", ""); !job.IsCode(err, job.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := store.UpdateExecutionState(ctx, j.ID, job.ExecutionFailed, "oops", "detail"); !job.IsCode(err, job.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

// --- UpdatePaymentState tests ---

func TestPaymentConfirmation(t *testing.T) {
	store, j := newJob(t, "pay_1")
	ctx := context.Background()

	if err := store.UpdatePaymentState(ctx, "pay_1", job.PaymentConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	got, _ := store.Get(ctx, j.ID)
	if got.PaymentState != job.PaymentConfirmed {
		t.Fatalf("expected confirmed, got %s", got.PaymentState)
	}
}

func TestPaymentReapplyIsIdempotent(t *testing.T) {
	store, _ := newJob(t, "pay_1")
	ctx := context.Background()

	store.UpdatePaymentState(ctx, "pay_1", job.PaymentConfirmed)
	if err := store.UpdatePaymentState(ctx, "pay_1", job.PaymentConfirmed); err != nil {
		t.Fatalf("re-applying the same outcome must be a no-op, got %v", err)
	}
}

func TestPaymentConflictingOutcome(t *testing.T) {
	store, _ := newJob(t, "pay_1")
	ctx := context.Background()

	store.UpdatePaymentState(ctx, "pay_1", job.PaymentConfirmed)
	err := store.UpdatePaymentState(ctx, "pay_1", job.PaymentRejected)
	if !job.IsCode(err, job.CodeConflictingState) {
		t.Fatalf("expected conflicting state, got %v", err)
	}
}

func TestPaymentUnknownReference(t *testing.T) {
	store, _ := newJob(t, "pay_1")
	err := store.UpdatePaymentState(context.Background(), "pay_other", job.PaymentConfirmed)
	if !job.IsCode(err, job.CodeJobNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPaymentAxisIndependentOfExecution(t *testing.T) {
	store, j := newJob(t, "pay_1")
	ctx := context.Background()

	// Confirm payment while the job is still pending, then run to completion.
	if err := store.UpdatePaymentState(ctx, "pay_1", job.PaymentConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	store.UpdateExecutionState(ctx, j.ID, job.ExecutionRunning, "", "")
	store.UpdateExecutionState(ctx, j.ID, job.ExecutionCompleted, "analysis", "")

	got, _ := store.Get(ctx, j.ID)
	d := job.Disclose(got)
	if d.Visibility != job.VisibilityDisclosed || d.Result != "analysis" {
		t.Fatalf("expected disclosed result, got %+v", d)
	}
}
