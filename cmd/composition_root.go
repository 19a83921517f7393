package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	orderhttp "orderflow/internal/adapters/in/http"
	"orderflow/internal/adapters/out/memory"
	"orderflow/internal/adapters/out/natspub"
	"orderflow/internal/adapters/out/policy"
	"orderflow/internal/adapters/out/postgres"
	"orderflow/internal/adapters/out/postgres/templaterepo"
	"orderflow/internal/core/application/engine"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/ports"
	"orderflow/internal/jobs"
	"orderflow/internal/pkg/metrics"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// CompositionRoot owns every long-lived collaborator of the process and
// builds handlers on demand.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger

	gormDB     *gorm.DB
	natsConn   *nats.Conn
	uowFactory ports.UnitOfWorkFactory
	templates  ports.TemplateRepository
	contracts  ports.ContractRepository

	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	engine    *engine.Engine
	policy    ports.PolicyEngine
	publisher ports.Publisher
}

// NewCompositionRoot opens the configured store and builds the engine. The
// NATS connection is only dialled when NATS_URL is set; otherwise outbox
// entries are written to the log.
func NewCompositionRoot(ctx context.Context, cfg Config, log *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{cfg: cfg, logger: log}

	if err := c.openStore(ctx); err != nil {
		return nil, err
	}

	c.registry = prometheus.NewRegistry()
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.metrics = metrics.New(c.registry)

	eng, err := engine.New(engine.Config{
		UnitOfWorkFactory: c.uowFactory,
		Templates:         c.templates,
		Contracts:         c.contracts,
		Metrics:           c.metrics,
		Logger:            log,
		Timeout:           cfg.TransitionTimeout,
	})
	if err != nil {
		return nil, c.closeOnError(fmt.Errorf("build engine: %w", err))
	}
	c.engine = eng

	spec := policy.DefaultSpec()
	if cfg.PolicyFile != "" {
		if spec, err = policy.LoadSpec(cfg.PolicyFile); err != nil {
			return nil, c.closeOnError(err)
		}
	}
	if c.policy, err = policy.NewRolePolicy(spec); err != nil {
		return nil, c.closeOnError(err)
	}

	if cfg.NATSURL == "" {
		c.publisher = natspub.NewLogPublisher(log)
	} else {
		if c.natsConn, err = natspub.Connect(cfg.NATSURL, log); err != nil {
			return nil, c.closeOnError(err)
		}
		if c.publisher, err = natspub.NewPublisher(c.natsConn, cfg.NATSSubjectPrefix); err != nil {
			return nil, c.closeOnError(err)
		}
	}

	return c, nil
}

func (c *CompositionRoot) openStore(ctx context.Context) error {
	if c.cfg.StoreDriver == StoreMemory {
		c.logger.Warn("memory store serializes every transaction, including outbox relay passes; use it for demos and tests only",
			"store_driver", StoreMemory)
		c.uowFactory = memory.NewUnitOfWorkFactory(memory.NewStore())
		c.templates = memory.NewTemplateRepository()
		c.contracts = memory.NewContractRepository()
		return nil
	}

	db, err := OpenDB(c.cfg)
	if err != nil {
		return err
	}
	if err = postgres.Migrate(ctx, db); err != nil {
		return err
	}
	c.gormDB = db
	c.uowFactory = postgres.NewGormUnitOfWorkFactory(db)
	c.templates = templaterepo.NewGormTemplateRepository(db)
	c.contracts = templaterepo.NewGormContractRepository(db)
	return nil
}

// OpenDB connects to PostgreSQL without migrating.
func OpenDB(cfg Config) (*gorm.DB, error) {
	dsn := postgres.DSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSslMode)
	return postgres.Open(dsn, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
}

func (c *CompositionRoot) closeOnError(err error) error {
	return errors.Join(err, c.Close())
}

// Close releases the database pool and the NATS connection.
func (c *CompositionRoot) Close() error {
	var problems []error
	if c.natsConn != nil {
		if err := c.natsConn.Drain(); err != nil {
			problems = append(problems, fmt.Errorf("drain nats: %w", err))
		}
	}
	if c.gormDB != nil {
		sqlDB, err := c.gormDB.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil {
			problems = append(problems, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(problems...)
}

func (c *CompositionRoot) Engine() *engine.Engine {
	return c.engine
}

func (c *CompositionRoot) Gatherer() prometheus.Gatherer {
	return c.registry
}

func (c *CompositionRoot) Templates() ports.TemplateRepository {
	return c.templates
}

func (c *CompositionRoot) orderUoWs() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) evidenceUoWs() commands.EvidenceUoWFactory {
	return FuncEvidenceUoWFactory(func() commands.EvidenceUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.engine.Graph(), c.orderUoWs())
}

func (c *CompositionRoot) CreateScreenTransitionCommandHandler() commands.ScreenTransitionCommandHandler {
	return commands.NewScreenTransitionCommandHandler(c.engine, c.engine.Contracts(), c.policy, c.orderUoWs())
}

func (c *CompositionRoot) CreateExecuteTransitionCommandHandler() commands.ExecuteTransitionCommandHandler {
	return commands.NewExecuteTransitionCommandHandler(c.engine, c.engine.Contracts(), c.policy)
}

func (c *CompositionRoot) CreateRecordItemScanCommandHandler() commands.RecordItemScanCommandHandler {
	return commands.NewRecordItemScanCommandHandler(c.evidenceUoWs())
}

func (c *CompositionRoot) CreateResolveExceptionCommandHandler() commands.ResolveExceptionCommandHandler {
	return commands.NewResolveExceptionCommandHandler(c.orderUoWs())
}

func (c *CompositionRoot) CreateRegisterArtifactCommandHandler() commands.RegisterArtifactCommandHandler {
	return commands.NewRegisterArtifactCommandHandler(c.evidenceUoWs())
}

func (c *CompositionRoot) CreatePublishTemplateCommandHandler() commands.PublishTemplateCommandHandler {
	return commands.NewPublishTemplateCommandHandler(c.templates, c.engine.Graph())
}

func (c *CompositionRoot) CreatePurgeIdempotencyRecordsCommandHandler() commands.PurgeIdempotencyRecordsCommandHandler {
	var f commands.IdempotencyUoWFactory = FuncIdempotencyUoWFactory(func() commands.IdempotencyUoW {
		return c.uowFactory.Create()
	})
	return commands.NewPurgeIdempotencyRecordsCommandHandler(f)
}

func (c *CompositionRoot) CreateRelayOutboxCommandHandler() commands.RelayOutboxCommandHandler {
	var f commands.OutboxUoWFactory = FuncOutboxUoWFactory(func() commands.OutboxUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRelayOutboxCommandHandler(f, c.publisher, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateAutoAdvanceCommandHandler() commands.AutoAdvanceCommandHandler {
	return commands.NewAutoAdvanceCommandHandler(c.templates, c.orderUoWs(), c.engine, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.uowFactory.Create().OrderRepository())
}

func (c *CompositionRoot) CreateGetOrderHistoryQueryHandler() queries.GetOrderHistoryQueryHandler {
	uow := c.uowFactory.Create()
	return queries.NewGetOrderHistoryQueryHandler(uow.OrderRepository(), uow.HistoryRepository())
}

func (c *CompositionRoot) CreateGetAllowedTransitionsQueryHandler() queries.GetAllowedTransitionsQueryHandler {
	return queries.NewGetAllowedTransitionsQueryHandler(c.engine)
}

func (c *CompositionRoot) CreatePreviewTransitionQueryHandler() queries.PreviewTransitionQueryHandler {
	return queries.NewPreviewTransitionQueryHandler(c.engine)
}

func (c *CompositionRoot) CreateHTTPServer() *orderhttp.Server {
	return orderhttp.NewServer(orderhttp.Handlers{
		CreateOrder:           c.CreateCreateOrderCommandHandler(),
		ScreenTransition:      c.CreateScreenTransitionCommandHandler(),
		ExecuteTransition:     c.CreateExecuteTransitionCommandHandler(),
		RecordItemScan:        c.CreateRecordItemScanCommandHandler(),
		ResolveException:      c.CreateResolveExceptionCommandHandler(),
		RegisterArtifact:      c.CreateRegisterArtifactCommandHandler(),
		GetOrder:              c.CreateGetOrderQueryHandler(),
		GetOrderHistory:       c.CreateGetOrderHistoryQueryHandler(),
		GetAllowedTransitions: c.CreateGetAllowedTransitionsQueryHandler(),
		PreviewTransition:     c.CreatePreviewTransitionQueryHandler(),
	}, c.logger)
}

// CreateJobManager builds the housekeeping, outbox relay and auto-advance jobs.
func (c *CompositionRoot) CreateJobManager() (*jobs.JobManager, error) {
	purger := c.CreatePurgeIdempotencyRecordsCommandHandler()
	purgeJob, err := jobs.NewIdempotencyPurgeJob(&purger, c.cfg.PurgeSchedule, c.cfg.IdempotencyRetention, c.logger)
	if err != nil {
		return nil, err
	}

	relay := c.CreateRelayOutboxCommandHandler()
	relayJob, err := jobs.NewOutboxRelayJob(&relay, c.cfg.OutboxSchedule, c.cfg.OutboxBatchSize, c.cfg.OutboxMaxAttempts, c.logger)
	if err != nil {
		return nil, err
	}

	advancer := c.CreateAutoAdvanceCommandHandler()
	advanceJob, err := jobs.NewAutoAdvanceJob(&advancer, c.cfg.AutoAdvanceSchedule, c.cfg.AutoAdvanceLimit, c.logger)
	if err != nil {
		return nil, err
	}

	return jobs.NewJobManager(purgeJob, relayJob, advanceJob), nil
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncEvidenceUoWFactory func() commands.EvidenceUoW

func (f FuncEvidenceUoWFactory) Create() commands.EvidenceUoW {
	return f()
}

type FuncOutboxUoWFactory func() commands.OutboxUoW

func (f FuncOutboxUoWFactory) Create() commands.OutboxUoW {
	return f()
}

type FuncIdempotencyUoWFactory func() commands.IdempotencyUoW

func (f FuncIdempotencyUoWFactory) Create() commands.IdempotencyUoW {
	return f()
}
