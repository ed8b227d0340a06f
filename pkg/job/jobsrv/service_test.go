package jobsrv_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/workgate/pkg/executor"
	"github.com/Abraxas-365/workgate/pkg/executor/providers/execstatic"
	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/job/jobinfra"
	"github.com/Abraxas-365/workgate/pkg/job/jobsrv"
	"github.com/Abraxas-365/workgate/pkg/kernel"
	"github.com/Abraxas-365/workgate/pkg/payment"
	"github.com/Abraxas-365/workgate/pkg/queuex"
	"github.com/Abraxas-365/workgate/pkg/queuex/queuexmem"
)

// fakeGateway is a canned payment.Gateway.
type fakeGateway struct {
	paymentID kernel.PaymentID
	createErr error
	status    *payment.PurchaseStatus
}

func (g *fakeGateway) CreatePurchase(ctx context.Context, req payment.PurchaseRequest) (*payment.Purchase, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &payment.Purchase{PaymentID: g.paymentID}, nil
}

func (g *fakeGateway) GetPurchaseStatus(ctx context.Context, paymentID kernel.PaymentID) (*payment.PurchaseStatus, error) {
	if g.status != nil {
		return g.status, nil
	}
	return &payment.PurchaseStatus{PaymentID: paymentID}, nil
}

func contractInput() job.Input {
	return job.Input{{Key: executor.InputKeyContractText, Value: "Mietvertrag ..."}}
}

func newEnv(t *testing.T, completer executor.Completer, opts ...jobsrv.Option) (*jobsrv.Service, *jobsrv.Runner, *queuexmem.MemoryBackend, *jobinfra.MemoryJobStore) {
	t.Helper()
	store := jobinfra.NewMemoryJobStore()
	backend := queuexmem.NewMemoryBackend()
	client := queuex.NewClient(backend)
	service := jobsrv.NewService(store, client, opts...)
	runner := jobsrv.NewRunner(store, executor.NewContractAnalyst(completer))
	return service, runner, backend, store
}

func dequeueOne(t *testing.T, backend *queuexmem.MemoryBackend) *queuex.TaskInfo {
	t.Helper()
	info, err := backend.Dequeue(context.Background(), []string{"default"}, 100*time.Millisecond)
	if err != nil || info == nil {
		t.Fatalf("expected a dispatched task, got %v (%v)", info, err)
	}
	return info
}

// --- Submit tests ---

func TestSubmitDispatchesExecution(t *testing.T) {
	service, _, backend, _ := newEnv(t, execstatic.New("analysis"))
	ctx := context.Background()

	j, err := service.Submit(ctx, contractInput(), "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if j.ExecutionState != job.ExecutionPending {
		t.Fatalf("submit must return before execution, got %s", j.ExecutionState)
	}

	task := dequeueOne(t, backend)
	if task.Type != jobsrv.TaskTypeExecuteJob {
		t.Fatalf("unexpected task type %q", task.Type)
	}
}

func TestSubmitRejectsEmptyInput(t *testing.T) {
	service, _, _, _ := newEnv(t, execstatic.New("analysis"))
	if _, err := service.Submit(context.Background(), job.Input{}, ""); !job.IsCode(err, job.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSubmitWithCallerPaymentReference(t *testing.T) {
	service, _, _, _ := newEnv(t, execstatic.New("analysis"))

	j, err := service.Submit(context.Background(), contractInput(), "pay_ext")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if j.PaymentID != "pay_ext" || j.PaymentState != job.PaymentPendingConfirmation {
		t.Fatalf("caller reference not bound: %+v", j)
	}
}

func TestSubmitOpensPurchase(t *testing.T) {
	gw := &fakeGateway{paymentID: "pay_gw"}
	service, _, _, store := newEnv(t, execstatic.New("analysis"), jobsrv.WithGateway(gw))
	ctx := context.Background()

	j, err := service.Submit(ctx, contractInput(), "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if j.PaymentID != "pay_gw" {
		t.Fatalf("expected gateway reference on returned job, got %q", j.PaymentID)
	}

	stored, _ := store.Get(ctx, j.ID)
	if stored.PaymentID != "pay_gw" || stored.PaymentState != job.PaymentPendingConfirmation {
		t.Fatalf("purchase not bound in store: %+v", stored)
	}
}

func TestSubmitSurvivesGatewayFailure(t *testing.T) {
	gw := &fakeGateway{createErr: errors.New("processor down")}
	service, _, backend, store := newEnv(t, execstatic.New("analysis"), jobsrv.WithGateway(gw))
	ctx := context.Background()

	j, err := service.Submit(ctx, contractInput(), "")
	if err != nil {
		t.Fatalf("a gateway outage must not fail submission: %v", err)
	}

	stored, _ := store.Get(ctx, j.ID)
	if stored.PaymentState != job.PaymentUnpaid || !stored.PaymentID.IsEmpty() {
		t.Fatalf("job must stay unpaid: %+v", stored)
	}
	dequeueOne(t, backend) // execution was still dispatched
}

// --- Runner tests ---

func TestRunCompletesJob(t *testing.T) {
	service, runner, _, store := newEnv(t, execstatic.New("analysis"))
	ctx := context.Background()

	j, _ := service.Submit(ctx, contractInput(), "")
	if err := runner.Run(ctx, j.ID); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, _ := store.Get(ctx, j.ID)
	if got.ExecutionState != job.ExecutionCompleted || got.Result != "analysis" {
		t.Fatalf("unexpected outcome: %+v", got)
	}
}

func TestRunRecordsFailure(t *testing.T) {
	service, runner, _, store := newEnv(t, execstatic.NewFailing(errors.New("model unavailable")))
	ctx := context.Background()

	j, _ := service.Submit(ctx, contractInput(), "")
	if err := runner.Run(ctx, j.ID); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, _ := store.Get(ctx, j.ID)
	if got.ExecutionState != job.ExecutionFailed || got.ErrorDetail == "" {
		t.Fatalf("expected failed with detail: %+v", got)
	}
}

func TestRunFailsJobsWithoutContract(t *testing.T) {
	service, runner, _, store := newEnv(t, execstatic.New("analysis"))
	ctx := context.Background()

	j, _ := service.Submit(ctx, job.Input{{Key: "question", Value: "Is the deposit legal?"}}, "")
	if err := runner.Run(ctx, j.ID); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, _ := store.Get(ctx, j.ID)
	if got.ExecutionState != job.ExecutionFailed {
		t.Fatalf("missing contract must fail execution: %+v", got)
	}
}

func TestRunDuplicateDispatchIsHarmless(t *testing.T) {
	service, runner, _, store := newEnv(t, execstatic.New("analysis"))
	ctx := context.Background()

	j, _ := service.Submit(ctx, contractInput(), "")
	if err := runner.Run(ctx, j.ID); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := runner.Run(ctx, j.ID); err != nil {
		t.Fatalf("duplicate run must be a no-op: %v", err)
	}

	got, _ := store.Get(ctx, j.ID)
	if got.Result != "analysis" {
		t.Fatalf("duplicate run mutated the record: %+v", got)
	}
}

// --- Status / gate tests ---

func TestStatusWithholdsUnpaidResult(t *testing.T) {
	service, runner, _, _ := newEnv(t, execstatic.New("analysis"))
	ctx := context.Background()

	j, _ := service.Submit(ctx, contractInput(), "")
	runner.Run(ctx, j.ID)

	view, err := service.Status(ctx, j.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if view.Status != string(job.ExecutionCompleted) {
		t.Fatalf("status must show completion, got %s", view.Status)
	}
	if view.Result != "" {
		t.Fatal("result leaked before payment confirmation")
	}
}

func TestStatusDisclosesAfterConfirmation(t *testing.T) {
	service, runner, _, store := newEnv(t, execstatic.New("analysis"))
	ctx := context.Background()

	j, _ := service.Submit(ctx, contractInput(), "pay_1")
	runner.Run(ctx, j.ID)
	if err := store.UpdatePaymentState(ctx, "pay_1", job.PaymentConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	view, _ := service.Status(ctx, j.ID)
	if view.Result != "analysis" {
		t.Fatalf("confirmed completed job must disclose, got %+v", view)
	}
}

func TestStatusShowsFailureWithoutPayment(t *testing.T) {
	service, runner, _, _ := newEnv(t, execstatic.NewFailing(errors.New("boom")))
	ctx := context.Background()

	j, _ := service.Submit(ctx, contractInput(), "")
	runner.Run(ctx, j.ID)

	view, _ := service.Status(ctx, j.ID)
	if view.Error == "" {
		t.Fatal("failure detail must be visible regardless of payment")
	}
	if view.Result != "" {
		t.Fatal("failed job must not carry a result")
	}
}

// --- AttachPayment tests ---

func TestAttachPaymentThroughService(t *testing.T) {
	service, _, _, store := newEnv(t, execstatic.New("analysis"))
	ctx := context.Background()

	j, _ := service.Submit(ctx, contractInput(), "")
	if err := service.AttachPayment(ctx, j.ID, "pay_late"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	got, _ := store.Get(ctx, j.ID)
	if got.PaymentID != "pay_late" || got.PaymentState != job.PaymentPendingConfirmation {
		t.Fatalf("attach did not bind: %+v", got)
	}
}
