package jobapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abraxas-365/workgate/pkg/errx"
	"github.com/Abraxas-365/workgate/pkg/executor"
	"github.com/Abraxas-365/workgate/pkg/executor/providers/execstatic"
	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/job/jobapi"
	"github.com/Abraxas-365/workgate/pkg/job/jobinfra"
	"github.com/Abraxas-365/workgate/pkg/job/jobsrv"
	"github.com/Abraxas-365/workgate/pkg/kernel"
	"github.com/Abraxas-365/workgate/pkg/queuex"
	"github.com/Abraxas-365/workgate/pkg/queuex/queuexmem"
	"github.com/gofiber/fiber/v2"
)

type testEnv struct {
	app    *fiber.App
	store  *jobinfra.MemoryJobStore
	runner *jobsrv.Runner
}

func newTestApp(t *testing.T) *testEnv {
	t.Helper()

	store := jobinfra.NewMemoryJobStore()
	client := queuex.NewClient(queuexmem.NewMemoryBackend())
	service := jobsrv.NewService(store, client)
	runner := jobsrv.NewRunner(store, executor.NewContractAnalyst(execstatic.New("analysis")))

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*errx.Error); ok {
				return c.Status(e.HTTPStatus).JSON(fiber.Map{"error": e.Message, "code": e.Code})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	jobapi.NewHandlers(service, "Preprod", "agent-1").RegisterRoutes(app)

	return &testEnv{app: app, store: store, runner: runner}
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode response %q: %v", raw, err)
		}
	}
	return resp, decoded
}

// --- /start_job tests ---

func TestStartJob(t *testing.T) {
	env := newTestApp(t)

	resp, body := doJSON(t, env.app, http.MethodPost, "/start_job", fiber.Map{
		"input_data": []fiber.Map{{"key": "contract_text", "value": "Mietvertrag ..."}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	if id, _ := body["job_id"].(string); id == "" {
		t.Fatalf("missing job_id in %v", body)
	}
	if body["status"] != "pending" || body["payment_status"] != "unpaid" {
		t.Fatalf("unexpected response %v", body)
	}
}

func TestStartJobWithPaymentReference(t *testing.T) {
	env := newTestApp(t)

	resp, body := doJSON(t, env.app, http.MethodPost, "/start_job", fiber.Map{
		"input_data": []fiber.Map{{"key": "contract_text", "value": "..."}},
		"payment_id": "pay_1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if body["payment_id"] != "pay_1" || body["payment_status"] != "pending_confirmation" {
		t.Fatalf("unexpected response %v", body)
	}
}

func TestStartJobRejectsEmptyInput(t *testing.T) {
	env := newTestApp(t)

	resp, _ := doJSON(t, env.app, http.MethodPost, "/start_job", fiber.Map{
		"input_data": []fiber.Map{},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// --- /status tests ---

func TestStatusRequiresJobID(t *testing.T) {
	env := newTestApp(t)

	resp, _ := doJSON(t, env.app, http.MethodGet, "/status", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestStatusUnknownJob(t *testing.T) {
	env := newTestApp(t)

	resp, _ := doJSON(t, env.app, http.MethodGet, "/status?job_id=nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestStatusWithholdsResultUntilConfirmed(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()

	_, created := doJSON(t, env.app, http.MethodPost, "/start_job", fiber.Map{
		"input_data": []fiber.Map{{"key": "contract_text", "value": "..."}},
		"payment_id": "pay_1",
	})
	jobID := created["job_id"].(string)

	if err := env.runner.Run(ctx, kernel.ParseJobID(jobID)); err != nil {
		t.Fatalf("run: %v", err)
	}

	_, body := doJSON(t, env.app, http.MethodGet, "/status?job_id="+jobID, nil)
	if body["status"] != "completed" {
		t.Fatalf("expected completed, got %v", body)
	}
	if _, leaked := body["result"]; leaked {
		t.Fatalf("result leaked before confirmation: %v", body)
	}

	if err := env.store.UpdatePaymentState(ctx, "pay_1", job.PaymentConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	_, body = doJSON(t, env.app, http.MethodGet, "/status?job_id="+jobID, nil)
	if body["result"] != "analysis" {
		t.Fatalf("expected disclosed result, got %v", body)
	}
}

// --- /jobs/:job_id/payment tests ---

func TestAttachPaymentEndpoint(t *testing.T) {
	env := newTestApp(t)

	_, created := doJSON(t, env.app, http.MethodPost, "/start_job", fiber.Map{
		"input_data": []fiber.Map{{"key": "contract_text", "value": "..."}},
	})
	jobID := created["job_id"].(string)

	resp, body := doJSON(t, env.app, http.MethodPost, "/jobs/"+jobID+"/payment", fiber.Map{
		"payment_id": "pay_late",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, body)
	}
	if body["payment_id"] != "pay_late" || body["payment_status"] != "pending_confirmation" {
		t.Fatalf("unexpected view %v", body)
	}

	// A different reference must conflict.
	resp, _ = doJSON(t, env.app, http.MethodPost, "/jobs/"+jobID+"/payment", fiber.Map{
		"payment_id": "pay_other",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

// --- Discovery endpoints ---

func TestAvailability(t *testing.T) {
	env := newTestApp(t)

	resp, body := doJSON(t, env.app, http.MethodGet, "/availability", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["status"] != "available" || body["type"] != "masumi-agent" || body["network"] != "Preprod" {
		t.Fatalf("unexpected body %v", body)
	}
	if body["agent_identifier"] != "agent-1" {
		t.Fatalf("agent identifier missing: %v", body)
	}
}

func TestInputSchema(t *testing.T) {
	env := newTestApp(t)

	resp, body := doJSON(t, env.app, http.MethodGet, "/input_schema", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	fields, ok := body["input_data"].([]any)
	if !ok || len(fields) == 0 {
		t.Fatalf("schema missing input_data: %v", body)
	}
	first := fields[0].(map[string]any)
	if first["key"] != "contract_text" || first["required"] != true {
		t.Fatalf("unexpected schema %v", first)
	}
}
