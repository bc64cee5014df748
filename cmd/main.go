// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server and expiry sweeper.
package main

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

	"github.com/Shivanand-hulikatti/event-ticketing/internal/config"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/database"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/handler"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/ledger"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/memstore"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/scheduler"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// store is everything the services need from persistence.
type store interface {
	service.EventStore
	service.TeamStore
	service.BookingStore
	service.AttendeeStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := config.NewLogger(cfg.Level())
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("service stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// ── 1. Storage ────────────────────────────────────────────────────────
	var (
		st   store
		pool *pgxpool.Pool
	)
	switch cfg.Store {
	case config.StorePostgres:
		var err error
		pool, err = database.NewPool(ctx, cfg.DB, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		log.Info("connected to PostgreSQL", slog.String("host", cfg.DB.Host))
		st = repository.NewStore(pool)
	default:
		log.Warn("using in-memory store; data is lost on restart")
		st = memstore.New()
	}

	// ── 2. Capacity ledger ────────────────────────────────────────────────
	var capacity service.Ledger
	switch cfg.Ledger {
	case config.LedgerPostgres:
		capacity = ledger.NewPostgres(pool)
	case config.LedgerRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		capacity = ledger.NewRedis(rdb)
	default:
		capacity = ledger.NewMemory()
	}

	// ── 3. Wire up layers ─────────────────────────────────────────────────
	monitor := metrics.New()
	auth := service.NewAuthorizer(st)
	svc := handler.Services{
		Events:   service.NewEventService(st, st, st, capacity, auth, log),
		Bookings: service.NewBookingService(st, st, capacity, log, monitor, cfg.PaymentWindow),
		CheckIns: service.NewCheckInService(st, auth, log, monitor, cfg.AllowSelfCheckIn),
	}
	sweeper := scheduler.New(svc.Bookings, cfg.SweepInterval, log)

	// A flushed or restarted Redis comes back without counters.
	restored, err := svc.Events.RestoreCapacity(ctx)
	if err != nil {
		return fmt.Errorf("restore capacity: %w", err)
	}
	if restored > 0 {
		log.Warn("restored capacity counters", slog.Int("count", restored))
	}

	// ── 4. Start server and sweeper with graceful shutdown ────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler.NewRouter(svc, []byte(cfg.PaymentWebhookSecret), log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sweeper.Start(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
