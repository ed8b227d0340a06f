package paymentapi

import (
	"time"

	"github.com/Abraxas-365/workgate/pkg/errx"
	"github.com/Abraxas-365/workgate/pkg/kernel"
	"github.com/Abraxas-365/workgate/pkg/payment"
	"github.com/Abraxas-365/workgate/pkg/payment/paymentsrv"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Handlers exposes the payment webhook and the unmatched-event listing.
type Handlers struct {
	service  *paymentsrv.Service
	validate *validator.Validate
	secret   string
}

// NewHandlers creates the HTTP handlers for the payment module.
func NewHandlers(service *paymentsrv.Service, webhookSecret string) *Handlers {
	return &Handlers{
		service:  service,
		validate: validator.New(),
		secret:   webhookSecret,
	}
}

// RegisterRoutes mounts the payment routes on the app. Both routes sit
// behind the webhook token check.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	group := app.Group("/payments", WebhookAuth(h.secret))
	group.Post("/webhook", h.Webhook)
	group.Get("/unmatched", h.Unmatched)
}

type webhookRequest struct {
	PaymentID string `json:"payment_id" validate:"required"`
	Outcome   string `json:"outcome" validate:"required,oneof=confirmed rejected"`
	Network   string `json:"network"`
}

// Webhook receives a settlement notification from the payment processor.
// Re-deliveries are acknowledged without effect; notifications that match no
// job are recorded and acknowledged so the processor stops resending them.
func (h *Handlers) Webhook(c *fiber.Ctx) error {
	var req webhookRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid webhook body").WithDetail("cause", err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return errx.Validation("invalid webhook payload").WithDetail("cause", err.Error())
	}

	ev := payment.Event{
		PaymentID:  kernel.NewPaymentID(req.PaymentID),
		Outcome:    payment.Outcome(req.Outcome),
		Network:    req.Network,
		Raw:        append([]byte(nil), c.Body()...),
		ReceivedAt: time.Now().UTC(),
	}

	if err := h.service.Apply(c.Context(), ev); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "accepted"})
}

// Unmatched lists recorded events that resolved to no job.
func (h *Handlers) Unmatched(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	events, err := h.service.ListUnmatched(c.Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"events": events, "count": len(events)})
}
