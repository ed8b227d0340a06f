package paymentcontainer

import (
	"github.com/Abraxas-365/workgate/pkg/config"
	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/logx"
	"github.com/Abraxas-365/workgate/pkg/payment"
	"github.com/Abraxas-365/workgate/pkg/payment/paymentapi"
	"github.com/Abraxas-365/workgate/pkg/payment/paymentinfra"
	"github.com/Abraxas-365/workgate/pkg/payment/paymentsrv"
	"github.com/Abraxas-365/workgate/pkg/queuex"
	"github.com/jmoiron/sqlx"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// ---------------------------------------------------------------------------

type Deps struct {
	DB    *sqlx.DB
	Queue *queuex.Client
	Cfg   *config.Config

	// JobStore is the cross-context dependency the reconciler writes
	// payment outcomes through.
	JobStore job.Store
}

// ---------------------------------------------------------------------------
// Container: the public surface of the payment module.
// ---------------------------------------------------------------------------

type Container struct {
	Service  *paymentsrv.Service
	Poller   *paymentsrv.Poller
	Gateway  payment.Gateway
	Handlers *paymentapi.Handlers
}

// New constructs the payment dependency graph.
func New(deps Deps) *Container {
	logx.Info("🔧 Initializing payment container...")

	c := &Container{}

	var unmatched payment.UnmatchedStore
	if deps.DB != nil {
		unmatched = paymentinfra.NewPostgresUnmatchedStore(deps.DB)
	} else {
		logx.Warn("  ⚠️ No database configured, using in-memory unmatched store")
		unmatched = paymentinfra.NewMemoryUnmatchedStore()
	}

	if deps.Cfg.Payment.Enabled() {
		c.Gateway = paymentinfra.NewMasumiGateway(
			deps.Cfg.Payment.ServiceURL,
			deps.Cfg.Payment.APIKey,
			deps.Cfg.Payment.Network,
			deps.Cfg.Payment.AgentIdentifier,
			nil,
		)
	} else {
		logx.Warn("  ⚠️ No payment service configured, purchases must be bound externally")
	}

	c.Service = paymentsrv.NewService(deps.JobStore, unmatched, c.Gateway)

	if c.Gateway != nil && deps.Queue != nil {
		c.Poller = paymentsrv.NewPoller(
			c.Service,
			deps.Queue,
			deps.Cfg.Payment.PollInterval,
			deps.Cfg.Payment.PollMaxAttempts,
		)
		c.Poller.Register(deps.Queue)
	}

	c.Handlers = paymentapi.NewHandlers(c.Service, deps.Cfg.Payment.WebhookSecret)

	logx.Info("✅ Payment container initialized")
	return c
}
