package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	auditpg "3tcapital/ms_consulta_ibge/internal/adapters/audit/postgres"
	audithttp "3tcapital/ms_consulta_ibge/internal/adapters/http/audit"
	healthhttp "3tcapital/ms_consulta_ibge/internal/adapters/http/health"
	queryhttp "3tcapital/ms_consulta_ibge/internal/adapters/http/query"
	ibgehttp "3tcapital/ms_consulta_ibge/internal/adapters/ibge/http"
	viacephttp "3tcapital/ms_consulta_ibge/internal/adapters/viacep/http"
	"3tcapital/ms_consulta_ibge/internal/application/catalog"
	"3tcapital/ms_consulta_ibge/internal/application/health"
	"3tcapital/ms_consulta_ibge/internal/application/matcher"
	apppostal "3tcapital/ms_consulta_ibge/internal/application/postal"
	appquery "3tcapital/ms_consulta_ibge/internal/application/query"
	"3tcapital/ms_consulta_ibge/internal/core/audit"
	"3tcapital/ms_consulta_ibge/internal/infrastructure/cache"
	"3tcapital/ms_consulta_ibge/internal/infrastructure/config"
	"3tcapital/ms_consulta_ibge/internal/infrastructure/database"
	httpinfra "3tcapital/ms_consulta_ibge/internal/infrastructure/http"
	"3tcapital/ms_consulta_ibge/internal/infrastructure/http/server"
	"3tcapital/ms_consulta_ibge/internal/infrastructure/logger"
	"3tcapital/ms_consulta_ibge/internal/infrastructure/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(tracing.Settings{
		Enabled:     cfg.Tracing.Enabled,
		ZipkinURL:   cfg.Tracing.ZipkinURL,
		ServiceName: cfg.App.Name,
	}, log)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("Failed to flush traces", "error", err)
		}
	}()

	auditRepo, closeDB := openAuditTrail(ctx, cfg, log)
	defer closeDB()

	ibgeClient := httpinfra.NewTracedClient(&httpinfra.TracedClientConfig{
		Timeout:         cfg.IBGE.Timeout,
		AuditEnabled:    cfg.Audit.Enabled,
		LogResponseBody: false, // the catalog is several megabytes
		MaxBodySize:     cfg.Audit.MaxBodySize,
	}, log, auditRepo, audit.ProviderIBGE)

	viacepClient := httpinfra.NewTracedClient(&httpinfra.TracedClientConfig{
		Timeout:         cfg.ViaCEP.Timeout,
		AuditEnabled:    cfg.Audit.Enabled,
		LogResponseBody: cfg.Audit.LogResponseBody,
		MaxBodySize:     cfg.Audit.MaxBodySize,
		MaxConnsPerHost: cfg.Postal.Workers,
	}, log, auditRepo, audit.ProviderViaCEP)

	catalogService := catalog.NewService(ibgehttp.NewClient(cfg.IBGE.BaseURL, ibgeClient, log), log, cfg.IBGE.Timeout)
	matcherService := matcher.NewService(catalogService)
	postalResolver := apppostal.NewResolver(viacephttp.NewClient(cfg.ViaCEP.BaseURL, viacepClient, log), cache.NewPostalCache(), log, cfg.ViaCEP.Timeout)
	batchResolver := apppostal.NewBatchResolver(postalResolver, cfg.Postal.Workers)
	queryService := appquery.NewService(batchResolver, matcherService, log)

	dependencies := []string{audit.ProviderIBGE, audit.ProviderViaCEP}
	if auditRepo != nil {
		dependencies = append(dependencies, "postgres")
	}
	healthService := health.NewService(health.Metadata{
		Service:      cfg.App.Name,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		Dependencies: dependencies,
	}, catalogService, postalResolver)

	queryHandler := queryhttp.NewHandler(queryService, postalResolver, matcherService, cfg.HTTP.MaxFormBytes, log)
	apiRoutes := queryHandler.Routes
	if auditRepo != nil {
		auditHandler := audithttp.NewHandler(auditRepo, log)
		apiRoutes = func(r chi.Router) {
			queryHandler.Routes(r)
			auditHandler.Routes(r)
		}
	}

	srv, err := server.New(server.Options{
		Config:        cfg,
		Logger:        log,
		HealthHandler: http.HandlerFunc(healthhttp.NewHandler(healthService, log).Status),
		APIRoutes:     apiRoutes,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	log.Info("Starting service",
		"addr", cfg.HTTP.Address(),
		"postal_workers", cfg.Postal.Workers,
		"tracing", cfg.Tracing.Enabled,
		"audit_trail", auditRepo != nil,
	)
	return srv.Run(ctx)
}

// openAuditTrail connects to Postgres when configured. Any failure disables
// the audit trail instead of stopping the service.
func openAuditTrail(ctx context.Context, cfg config.AppConfig, log *slog.Logger) (audit.Repository, func()) {
	noop := func() {}

	if !cfg.Audit.Enabled {
		log.Info("Audit trail configuration: DISABLED - Audit not enabled in configuration")
		return nil, noop
	}
	if !cfg.Database.Enabled() {
		log.Info("Database not configured, audit trail will be disabled")
		return nil, noop
	}

	pool, err := database.NewPool(ctx, database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Database,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Warn("Failed to connect to database, audit trail will be disabled",
			"error", err,
			"host", cfg.Database.Host,
			"database", cfg.Database.Database,
			"user", cfg.Database.User,
			"password_set", cfg.Database.Password != "")
		return nil, noop
	}

	if err := database.RunMigrations(ctx, pool, log); err != nil {
		log.Warn("Failed to run migrations, audit trail will be disabled", "error", err)
		pool.Close()
		return nil, noop
	}

	log.Info("Audit trail configuration: ENABLED",
		"database", cfg.Database.Database,
		"max_body_size", cfg.Audit.MaxBodySize,
	)
	return auditpg.NewRepository(pool, log), pool.Close
}
