package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turnledger/turnledger/internal/clock"
	"github.com/turnledger/turnledger/internal/config"
	"github.com/turnledger/turnledger/internal/httpserver"
	"github.com/turnledger/turnledger/internal/ledger"
	ledgerpg "github.com/turnledger/turnledger/internal/ledger/postgres"
	ledgersql "github.com/turnledger/turnledger/internal/ledger/sqlite"
	"github.com/turnledger/turnledger/internal/logging"
	"github.com/turnledger/turnledger/internal/persona"
	"github.com/turnledger/turnledger/internal/reward"
	"github.com/turnledger/turnledger/internal/version"
)

func main() {
	configPath := flag.String("config", "config/turnledger.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	const maxLogBytes = int64(100 * 1024 * 1024) // 100MB
	if cfg.LogFile != "" {
		rot, err := logging.NewRotatingWriter(cfg.LogFile, maxLogBytes)
		if err != nil {
			log.Fatalf("init rotating log: %v", err)
		}
		// Mirror to stdout as well for foreground runs
		log.SetOutput(io.MultiWriter(os.Stdout, rot))
		defer rot.Close()
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix("[turnledgerd] ")
	log.Printf("starting turnledgerd %s", version.FullInfo())

	store, err := openStore(cfg.Store)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	loc, err := cfg.Quota.Location()
	if err != nil {
		log.Fatalf("resolve timezone: %v", err)
	}

	clk := clock.System()
	locks := ledger.NewKeyedMutex()
	grants := ledger.NewGrantStore(store, clk)
	quota := ledger.NewFreeQuotaTracker(store, clk, cfg.Quota.DailyFreeLimit, loc)
	svc := ledger.NewService(quota, grants, store, locks)

	engine := reward.NewEngine(grants, store, clk, locks, reward.Config{
		BaseAmount:        cfg.Rewards.BaseAmount,
		Expiry:            cfg.Rewards.Expiry(),
		WeekendMultiplier: cfg.Rewards.WeekendMultiplier,
		VoteWindow:        cfg.Rewards.VoteWindow(),
		Location:          loc,
	}, log.Default())

	// Persona registry is populated once here, not lazily from call sites.
	registry, err := persona.LoadDir(cfg.Personas.Dir, cfg.Personas.Default, cfg.Personas.MaxCustom)
	if err != nil {
		log.Fatalf("load personas: %v", err)
	}
	log.Printf("loaded %d system personas from %s", len(registry.System()), cfg.Personas.Dir)

	server := httpserver.New(svc, engine, registry, httpserver.Options{
		WebhookPath: cfg.Webhook.Path,
		WebhookAuth: cfg.Webhook.Auth,
		Logger:      log.Default(),
	})

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s (store=%s, daily_free_limit=%d, vote_reward=%d)",
			cfg.Listen, cfg.Store.Driver, cfg.Quota.DailyFreeLimit, cfg.Rewards.BaseAmount)
		errCh <- httpSrv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.Printf("[ERROR] shutdown: %v", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}
}

func openStore(cfg config.StoreConfig) (ledger.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return ledgersql.New(cfg.Path)
	case "postgres":
		return ledgerpg.New(cfg.DSN)
	default:
		log.Printf("[WARN] using in-memory store: state will not survive a restart")
		return ledger.NewMemoryStore(), nil
	}
}
