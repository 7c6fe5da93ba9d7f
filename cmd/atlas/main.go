package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atlas-erp/atlas-erp/internal/app"
	"github.com/atlas-erp/atlas-erp/internal/draft"
	"github.com/atlas-erp/atlas-erp/internal/invoices"
	"github.com/atlas-erp/atlas-erp/internal/journals"
	"github.com/atlas-erp/atlas-erp/internal/observability"
	"github.com/atlas-erp/atlas-erp/internal/platform/cache"
	"github.com/atlas-erp/atlas-erp/internal/platform/db"
	"github.com/atlas-erp/atlas-erp/internal/refdata"
	"github.com/atlas-erp/atlas-erp/jobs"
)

// compositePoster routes validated draft payloads to the module that
// owns the resulting document.
type compositePoster struct {
	journals *journals.Service
	invoices *invoices.Service
}

func (p compositePoster) PostJournal(ctx context.Context, payload draft.JournalPayload) (int64, error) {
	return p.journals.PostJournal(ctx, payload)
}

func (p compositePoster) PostPayment(ctx context.Context, payload draft.PaymentPayload) (int64, error) {
	return p.journals.PostPayment(ctx, payload)
}

func (p compositePoster) PostInvoice(ctx context.Context, kind draft.SubmissionKind, payload draft.InvoicePayload) (int64, error) {
	return p.invoices.PostInvoice(ctx, kind, payload)
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	refdataRepo := refdata.NewRepository(pool)
	refdataService := refdata.NewService(refdataRepo, redisClient, cfg.RefdataCacheTTL, logger)
	refdataHandler := refdata.NewHandler(logger, refdataService)

	journalsRepo := journals.NewRepository(pool)
	journalsService := journals.NewService(journalsRepo, logger)
	journalsHandler := journals.NewHandler(logger, journalsService)

	invoicesRepo := invoices.NewRepository(pool)
	invoicesService := invoices.NewService(invoicesRepo, logger)
	invoicesHandler := invoices.NewHandler(logger, invoicesService)

	draftStore := draft.NewStore(redisClient, cfg.DraftTTL)
	draftService := draft.NewService(
		draftStore,
		refdataService,
		invoices.NewSourceAdapter(invoicesService),
		compositePoster{journals: journalsService, invoices: invoicesService},
		logger,
	)
	draftHandler := draft.NewHandler(logger, draftService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		DraftHandler:    draftHandler,
		RefdataHandler:  refdataHandler,
		InvoicesHandler: invoicesHandler,
		JournalsHandler: journalsHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
