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

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/fastprodman/wagerengine/internal/api"
	"github.com/fastprodman/wagerengine/internal/infra/logging"
	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/infra/tracing"
	"github.com/fastprodman/wagerengine/internal/repos/records"
	esrecords "github.com/fastprodman/wagerengine/internal/repos/records/elasticsearch"
	"github.com/fastprodman/wagerengine/internal/rng"
	"github.com/fastprodman/wagerengine/internal/services/blackjack"
	"github.com/fastprodman/wagerengine/internal/services/history"
	"github.com/fastprodman/wagerengine/internal/services/instant"
	"github.com/fastprodman/wagerengine/internal/services/ledger"
	"github.com/fastprodman/wagerengine/internal/services/registry"
	"github.com/fastprodman/wagerengine/internal/store"
	memstore "github.com/fastprodman/wagerengine/internal/store/memory"
	pgstore "github.com/fastprodman/wagerengine/internal/store/postgres"
	"github.com/fastprodman/wagerengine/pkg/envconf"
	"github.com/fastprodman/wagerengine/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

	err := envconf.Load(cfg, ".env")
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	shutdownqueue.Add("tracing", shutdownTracing)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	sink, err := startRecordExport(ctx, cfg)
	if err != nil {
		return err
	}

	// --- Services ---
	wallets := ledger.New(st, ledger.Config{
		Currency:        cfg.Wallet.Currency,
		StartingBalance: cfg.Wallet.StartingBalance,
	})

	reg := registry.New(st)

	err = reg.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("load rule sets: %w", err)
	}

	limits := ledger.Limits{Min: cfg.Bets.Min, Max: cfg.Bets.Max}
	gen := rng.New(nil)

	tables := blackjack.New(blackjack.Deps{
		Store:  st,
		Ledger: wallets,
		Rules:  reg,
		RNG:    gen,
		Sink:   sink,
		Limits: limits,
	})

	go reg.RunRefresher(ctx, cfg.RuleSetRefreshInterval)
	go tables.RunSweeper(ctx, cfg.SessionSweepInterval, cfg.SessionIdleTimeout)

	// --- HTTP server ---
	handler := api.NewRouter(api.Services{
		Wallets: wallets,
		Games: instant.New(instant.Deps{
			Store:  st,
			Ledger: wallets,
			Rules:  reg,
			RNG:    gen,
			Sink:   sink,
			Limits: limits,
		}),
		Blackjack: tables,
		Registry:  reg,
		History:   history.New(st),
	}, api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer))

	srv := api.NewServer(cfg.Port, handler)

	// Register HTTP server graceful shutdown
	shutdownqueue.Add("http server", func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	// Run server
	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port, "store", cfg.StoreDriver, "env", cfg.AppEnv)

	// --- Wait until either context cancels or server errors out ---
	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}

func openStore(ctx context.Context, cfg *apiConfig) (store.Store, error) {
	switch cfg.StoreDriver {
	case driverMemory:
		slog.Warn("using the in-memory store, state is lost on exit")

		return memstore.New(), nil
	case driverPostgres:
		if cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("init config: %w: PG_DSN", envconf.ErrMissingRequired)
		}

		db, err := pgutils.OpenDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}

		shutdownqueue.Add("postgres", func(context.Context) error {
			return db.Close()
		})

		return pgstore.New(db, cfg.TxMaxRetries), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// startRecordExport mirrors settled games to Elasticsearch when it is
// configured. The exporter outlives the signal context so the queue can be
// flushed during shutdown.
func startRecordExport(ctx context.Context, cfg *apiConfig) (records.Sink, error) {
	if len(cfg.Elastic.Addresses) == 0 {
		return records.Discard{}, nil
	}

	client, err := esrecords.NewClient(cfg.Elastic)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	exporter := esrecords.New(client, cfg.Elastic.Index)

	err = exporter.EnsureIndex(ctx)
	if err != nil {
		// Export retries per record; the engine does not depend on it.
		slog.Warn("ensure elasticsearch index", "index", cfg.Elastic.Index, "error", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	go func() {
		defer close(done)
		exporter.Run(runCtx)
	}()

	shutdownqueue.Add("record exporter", func(c context.Context) error {
		defer cancel()

		exporter.Close()

		select {
		case <-done:
			return nil
		case <-c.Done():
			return fmt.Errorf("flush record exporter: %w", c.Err())
		}
	})

	return exporter, nil
}
