// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, FS) and composes
// bounded-context containers. This is the only place that knows about ALL modules.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Abraxas-365/workgate/pkg/config"
	"github.com/Abraxas-365/workgate/pkg/fsx"
	"github.com/Abraxas-365/workgate/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/workgate/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/job/jobcontainer"
	"github.com/Abraxas-365/workgate/pkg/job/jobinfra"
	"github.com/Abraxas-365/workgate/pkg/logx"
	"github.com/Abraxas-365/workgate/pkg/notifx"
	"github.com/Abraxas-365/workgate/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/workgate/pkg/notifx/notifxses"
	"github.com/Abraxas-365/workgate/pkg/payment/paymentcontainer"
	"github.com/Abraxas-365/workgate/pkg/queuex"
	"github.com/Abraxas-365/workgate/pkg/queuex/queuexredis"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB         *sqlx.DB
	Redis      *redis.Client
	FileSystem fsx.FileSystem
	S3Client   *s3.Client
	Queue      *queuex.Client
	Notifier   *notifx.Client

	// Bounded-context containers
	Payment *paymentcontainer.Container
	Job     *jobcontainer.Container
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure — DB, Redis, file storage, queue, notifications
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Config.Database.Host,
		c.Config.Database.Port,
		c.Config.Database.User,
		c.Config.Database.Password,
		c.Config.Database.Name,
		c.Config.Database.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Database connected")

	// 2. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  ✅ Redis connected")

	// 3. File storage
	c.initFileStorage()

	// 4. Task queue
	c.Queue = queuex.NewClient(
		queuexredis.NewRedisBackend(c.Redis),
		queuex.WithQueues(c.Config.Queue.Queues...),
		queuex.WithConcurrency(c.Config.Queue.Concurrency),
		queuex.WithPollInterval(c.Config.Queue.PollInterval),
		queuex.WithShutdownTimeout(c.Config.Queue.ShutdownTimeout),
		queuex.WithDequeueTimeout(c.Config.Queue.DequeueTimeout),
	)
	logx.Info("  ✅ Task queue configured")

	// 5. Notifications
	c.initNotifier()

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initFileStorage() {
	switch c.Config.Storage.Mode {
	case "s3":
		cfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
			awsConfig.WithRegion(c.Config.Storage.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		c.S3Client = s3.NewFromConfig(cfg)
		c.FileSystem = fsxs3.NewS3FileSystem(c.S3Client, c.Config.Storage.Bucket, "")
		logx.Infof("  ✅ S3 file system configured (bucket: %s, region: %s)",
			c.Config.Storage.Bucket, c.Config.Storage.AWSRegion)

	case "local":
		localFS, err := fsxlocal.NewLocalFileSystem(c.Config.Storage.UploadDir)
		if err != nil {
			logx.Fatalf("Failed to initialize local file system: %v", err)
		}
		c.FileSystem = localFS
		logx.Infof("  ✅ Local file system configured (path: %s)", localFS.GetBasePath())

	default:
		logx.Fatalf("Unknown STORAGE_MODE: %s (use 'local' or 's3')", c.Config.Storage.Mode)
	}
}

func (c *Container) initNotifier() {
	switch c.Config.Notifx.Provider {
	case "ses":
		cfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
			awsConfig.WithRegion(c.Config.Notifx.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config for SES: %v", err)
		}
		provider := notifxses.NewSESProvider(ses.NewFromConfig(cfg), c.Config.Notifx.FromAddress)
		c.Notifier = notifx.NewClient(provider)
		logx.Info("  ✅ SES notifier configured")

	default:
		c.Notifier = notifx.NewClient(notifxconsole.NewConsoleProvider())
		logx.Info("  ✅ Console notifier configured")
	}
}

// ---------------------------------------------------------------------------
// Module composition — each bounded context wires itself
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	// The job store is shared: the job module owns it, the payment module
	// writes payment outcomes through it.
	var jobStore job.Store = jobinfra.NewPostgresJobStore(c.DB)

	c.Payment = paymentcontainer.New(paymentcontainer.Deps{
		DB:       c.DB,
		Queue:    c.Queue,
		Cfg:      c.Config,
		JobStore: jobStore,
	})

	jobC, err := jobcontainer.New(context.Background(), jobcontainer.Deps{
		Store:    jobStore,
		DB:       c.DB,
		Queue:    c.Queue,
		FS:       c.FileSystem,
		Cfg:      c.Config,
		Gateway:  c.Payment.Gateway,
		Poller:   c.Payment.Poller,
		Notifier: c.Notifier,
	})
	if err != nil {
		logx.Fatalf("Failed to initialize job container: %v", err)
	}
	c.Job = jobC
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// StartBackgroundServices launches the task workers.
func (c *Container) StartBackgroundServices(ctx context.Context) {
	logx.Info("🔄 Starting background services...")

	go func() {
		if err := c.Queue.Start(ctx); err != nil {
			logx.Errorf("Task queue stopped: %v", err)
		}
	}()
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func repeatString(s string, count int) string {
	result := ""
	for range count {
		result += s
	}
	return result
}
