package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	orderhttp "orderflow/internal/adapters/in/http"
	"orderflow/internal/adapters/out/postgres"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

// NewRootCommand builds the orderflow CLI.
func NewRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "orderflow",
		Short:         "Tenant-aware order workflow engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		newServeCommand(&envFile),
		newMigrateCommand(&envFile),
		newSeedTemplateCommand(&envFile),
	)
	return root
}

func newServeCommand(envFile *string) *cobra.Command {
	var seedTenants []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*envFile)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger, seedTenants)
		},
	}
	cmd.Flags().StringSliceVar(&seedTenants, "seed-tenant", nil,
		"tenant IDs that get the default template at startup when they have none")
	return cmd
}

func newMigrateCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the PostgreSQL schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*envFile)
			if err != nil {
				return err
			}
			db, err := OpenDB(cfg)
			if err != nil {
				return err
			}
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				defer sqlDB.Close()
			}
			if err = postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.Info("schema migrated", "database", cfg.DBName)
			return nil
		},
	}
}

func newSeedTemplateCommand(envFile *string) *cobra.Command {
	var (
		tenant string
		file   string
	)

	cmd := &cobra.Command{
		Use:   "seed-template",
		Short: "Publish a workflow template version for a tenant",
		Long: "Publishes the workflow read from --file, or the built-in garment workflow, " +
			"as the next version of its code and makes it the tenant's active template.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*envFile)
			if err != nil {
				return err
			}
			if cfg.StoreDriver == StoreMemory {
				return errors.New("seed-template needs a persistent store, STORE_DRIVER is memory")
			}
			tenantID, err := kernel.UUIDFromString(tenant)
			if err != nil {
				return fmt.Errorf("--tenant: %w", err)
			}

			tf := DefaultTemplateFile()
			if file != "" {
				if tf, err = LoadTemplateFile(file); err != nil {
					return err
				}
			}

			root, err := NewCompositionRoot(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = root.Close() }()

			return publishTemplate(cmd.Context(), root, tenantID, tf, logger)
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant ID")
	cmd.Flags().StringVar(&file, "file", "", "YAML workflow definition")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func setup(envFile string) (Config, *slog.Logger, error) {
	cfg, err := LoadConfig(envFile)
	if err != nil {
		return Config{}, nil, err
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return Config{}, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func serve(ctx context.Context, cfg Config, logger *slog.Logger, seedTenants []string) error {
	root, err := NewCompositionRoot(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := root.Close(); err != nil {
			logger.Error("close resources", "error", err)
		}
	}()

	for _, raw := range seedTenants {
		tenantID, err := kernel.UUIDFromString(raw)
		if err != nil {
			return fmt.Errorf("--seed-tenant %s: %w", raw, err)
		}
		if err = seedDefaultTemplate(ctx, root, tenantID, logger); err != nil {
			return err
		}
	}

	router, err := orderhttp.NewRouter(ctx, root.CreateHTTPServer(), root.Gatherer(), logger)
	if err != nil {
		return err
	}
	router.Logger.SetLevel(echoLogLevel(cfg))

	manager, err := root.CreateJobManager()
	if err != nil {
		return err
	}
	if err = manager.StartAll(); err != nil {
		return err
	}
	defer manager.StopAll()

	srv := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server started", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err = <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func seedDefaultTemplate(ctx context.Context, root *CompositionRoot, tenantID kernel.UUID, logger *slog.Logger) error {
	_, err := root.Templates().GetActive(ctx, tenantID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errs.ErrObjectNotFound) {
		return err
	}
	return publishTemplate(ctx, root, tenantID, DefaultTemplateFile(), logger)
}

func publishTemplate(ctx context.Context, root *CompositionRoot, tenantID kernel.UUID, tf TemplateFile, logger *slog.Logger) error {
	stages, transitions := tf.Definition()
	cmd, err := commands.NewPublishTemplateCommand(tenantID, tf.Code, stages, transitions)
	if err != nil {
		return err
	}
	handler := root.CreatePublishTemplateCommandHandler()
	tpl, err := handler.Handle(ctx, cmd)
	if err != nil {
		return err
	}
	logger.Info("template published", "tenant_id", tenantID.String(), "code", tpl.Code(), "version", tpl.Version())
	return nil
}

func echoLogLevel(cfg Config) log.Lvl {
	level, _ := cfg.SlogLevel()
	switch {
	case level <= slog.LevelDebug:
		return log.DEBUG
	case level <= slog.LevelInfo:
		return log.INFO
	case level <= slog.LevelWarn:
		return log.WARN
	default:
		return log.ERROR
	}
}
