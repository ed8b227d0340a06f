package jobcontainer

import (
	"context"

	"github.com/Abraxas-365/workgate/pkg/config"
	"github.com/Abraxas-365/workgate/pkg/executor"
	"github.com/Abraxas-365/workgate/pkg/executor/providers/execanthropic"
	"github.com/Abraxas-365/workgate/pkg/executor/providers/execbedrock"
	"github.com/Abraxas-365/workgate/pkg/executor/providers/execgemini"
	"github.com/Abraxas-365/workgate/pkg/executor/providers/execopenai"
	"github.com/Abraxas-365/workgate/pkg/executor/providers/execstatic"
	"github.com/Abraxas-365/workgate/pkg/fsx"
	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/job/jobapi"
	"github.com/Abraxas-365/workgate/pkg/job/jobinfra"
	"github.com/Abraxas-365/workgate/pkg/job/jobsrv"
	"github.com/Abraxas-365/workgate/pkg/logx"
	"github.com/Abraxas-365/workgate/pkg/notifx"
	"github.com/Abraxas-365/workgate/pkg/payment"
	"github.com/Abraxas-365/workgate/pkg/payment/paymentsrv"
	"github.com/Abraxas-365/workgate/pkg/queuex"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/jmoiron/sqlx"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// ---------------------------------------------------------------------------

type Deps struct {
	// Store is optional; when nil one is built from DB, falling back to the
	// in-memory store for DB-less setups.
	Store job.Store
	DB    *sqlx.DB
	Queue *queuex.Client
	FS    fsx.FileSystem
	Cfg   *config.Config

	// Cross-context dependencies, injected as interfaces so the job module
	// has zero knowledge of the concrete payment implementation.
	Gateway payment.Gateway
	Poller  *paymentsrv.Poller

	// Notifier is optional; nil disables lifecycle emails.
	Notifier *notifx.Client
}

// ---------------------------------------------------------------------------
// Container: the public surface of the job module.
// ---------------------------------------------------------------------------

type Container struct {
	Store    job.Store
	Service  *jobsrv.Service
	Runner   *jobsrv.Runner
	Handlers *jobapi.Handlers
}

// New constructs the job dependency graph.
// Order matters: infra → executor → services → handlers.
func New(ctx context.Context, deps Deps) (*Container, error) {
	logx.Info("🔧 Initializing job container...")

	c := &Container{}

	// ── Store ────────────────────────────────────────────────────────────

	switch {
	case deps.Store != nil:
		c.Store = deps.Store
	case deps.DB != nil:
		c.Store = jobinfra.NewPostgresJobStore(deps.DB)
	default:
		logx.Warn("  ⚠️ No database configured, using in-memory job store")
		c.Store = jobinfra.NewMemoryJobStore()
	}

	// ── Executor ─────────────────────────────────────────────────────────

	completer, err := buildCompleter(ctx, deps.Cfg.Executor)
	if err != nil {
		return nil, err
	}
	analyst := executor.NewContractAnalyst(completer,
		executor.WithMaxTokens(deps.Cfg.Executor.MaxTokens),
		executor.WithTemperature(deps.Cfg.Executor.Temperature),
	)

	// ── Services ─────────────────────────────────────────────────────────

	var vault *jobsrv.ArtifactVault
	if deps.FS != nil {
		vault = jobsrv.NewArtifactVault(deps.FS, deps.Cfg.Storage.OffloadThreshold)
	}

	var notifier *jobsrv.Notifier
	if deps.Notifier != nil && len(deps.Cfg.Notifx.Recipients) > 0 {
		notifier, err = jobsrv.NewNotifier(deps.Notifier, deps.Cfg.Notifx.FromAddress, deps.Cfg.Notifx.Recipients)
		if err != nil {
			return nil, err
		}
	}

	serviceOpts := []jobsrv.Option{}
	if deps.Gateway != nil {
		serviceOpts = append(serviceOpts, jobsrv.WithGateway(deps.Gateway))
	}
	if deps.Poller != nil {
		serviceOpts = append(serviceOpts, jobsrv.WithPoller(deps.Poller))
	}
	if vault != nil {
		serviceOpts = append(serviceOpts, jobsrv.WithArtifactVault(vault))
	}
	if notifier != nil {
		serviceOpts = append(serviceOpts, jobsrv.WithNotifier(notifier))
	}
	c.Service = jobsrv.NewService(c.Store, deps.Queue, serviceOpts...)

	runnerOpts := []jobsrv.RunnerOption{}
	if vault != nil {
		runnerOpts = append(runnerOpts, jobsrv.RunnerWithArtifactVault(vault))
	}
	if notifier != nil {
		runnerOpts = append(runnerOpts, jobsrv.RunnerWithNotifier(notifier))
	}
	c.Runner = jobsrv.NewRunner(c.Store, analyst, runnerOpts...)
	c.Runner.Register(deps.Queue)

	// ── Handlers ─────────────────────────────────────────────────────────

	c.Handlers = jobapi.NewHandlers(c.Service, deps.Cfg.Payment.Network, deps.Cfg.Payment.AgentIdentifier)

	logx.Infof("✅ Job container initialized (executor: %s)", deps.Cfg.Executor.Provider)
	return c, nil
}

func buildCompleter(ctx context.Context, cfg config.ExecutorConfig) (executor.Completer, error) {
	switch cfg.Provider {
	case "openai":
		return execopenai.New(cfg.APIKey, cfg.Model), nil
	case "anthropic":
		return execanthropic.New(cfg.APIKey, cfg.Model), nil
	case "bedrock":
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, err
		}
		return execbedrock.New(awsCfg, cfg.Model), nil
	case "gemini":
		return execgemini.New(ctx, cfg.APIKey, cfg.Model)
	case "static":
		return execstatic.New("analysis unavailable in static mode"), nil
	default:
		return nil, executor.ErrProviderFailure().
			WithDetail("provider", cfg.Provider).
			WithDetail("reason", "unknown executor provider")
	}
}
