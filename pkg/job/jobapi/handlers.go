package jobapi

import (
	"github.com/Abraxas-365/workgate/pkg/errx"
	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/job/jobsrv"
	"github.com/Abraxas-365/workgate/pkg/kernel"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Handlers exposes the job lifecycle over HTTP. The surface follows the
// MIP-003 agent convention: start_job, status, availability, input_schema.
type Handlers struct {
	service  *jobsrv.Service
	validate *validator.Validate
	network  string
	agentID  string
}

// NewHandlers creates the HTTP handlers for the job module.
func NewHandlers(service *jobsrv.Service, network, agentID string) *Handlers {
	return &Handlers{
		service:  service,
		validate: validator.New(),
		network:  network,
		agentID:  agentID,
	}
}

// RegisterRoutes mounts the job routes on the app.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	app.Post("/start_job", h.StartJob)
	app.Get("/status", h.Status)
	app.Post("/jobs/:job_id/payment", h.AttachPayment)
	app.Get("/availability", h.Availability)
	app.Get("/input_schema", h.InputSchema)
}

type startJobRequest struct {
	InputData []inputPair `json:"input_data" validate:"required,min=1,dive"`
	PaymentID string      `json:"payment_id"`
}

type inputPair struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value"`
}

type startJobResponse struct {
	JobID         string `json:"job_id"`
	PaymentID     string `json:"payment_id,omitempty"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

// StartJob accepts a new job and returns immediately with its identifiers.
// The job executes in the background; results come back through /status.
func (h *Handlers) StartJob(c *fiber.Ctx) error {
	var req startJobRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body").WithDetail("cause", err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return errx.Validation("invalid request").WithDetail("cause", err.Error())
	}

	input := make(job.Input, len(req.InputData))
	for i, p := range req.InputData {
		input[i] = job.Pair{Key: p.Key, Value: p.Value}
	}

	j, err := h.service.Submit(c.Context(), input, kernel.NewPaymentID(req.PaymentID))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(startJobResponse{
		JobID:         j.ID.String(),
		PaymentID:     j.PaymentID.String(),
		Status:        string(j.ExecutionState),
		PaymentStatus: string(j.PaymentState),
	})
}

// Status returns the gated view of a job.
func (h *Handlers) Status(c *fiber.Ctx) error {
	jobID := c.Query("job_id")
	if jobID == "" {
		return errx.Validation("job_id query parameter is required")
	}

	view, err := h.service.Status(c.Context(), kernel.ParseJobID(jobID))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

type attachPaymentRequest struct {
	PaymentID string `json:"payment_id" validate:"required"`
}

// AttachPayment binds an externally obtained payment reference to a job.
func (h *Handlers) AttachPayment(c *fiber.Ctx) error {
	var req attachPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body").WithDetail("cause", err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return errx.Validation("invalid request").WithDetail("cause", err.Error())
	}

	id := kernel.ParseJobID(c.Params("job_id"))
	if err := h.service.AttachPayment(c.Context(), id, kernel.NewPaymentID(req.PaymentID)); err != nil {
		return err
	}

	view, err := h.service.Status(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// Availability reports that the agent accepts jobs.
func (h *Handlers) Availability(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":  "available",
		"type":    "masumi-agent",
		"network": h.network,
	}
	if h.agentID != "" {
		resp["agent_identifier"] = h.agentID
	}
	return c.JSON(resp)
}

// InputSchema describes the input pairs start_job accepts.
func (h *Handlers) InputSchema(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"input_data": []fiber.Map{
			{
				"key":         "contract_text",
				"type":        "string",
				"required":    true,
				"description": "Full text of the rental contract to analyze",
			},
			{
				"key":         "question",
				"type":        "string",
				"required":    false,
				"description": "Optional question to focus the analysis on",
			},
		},
		"payment_id": fiber.Map{
			"type":        "string",
			"required":    false,
			"description": "Externally obtained payment reference to bind at submission",
		},
	})
}
