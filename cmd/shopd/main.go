package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"servershop.gg/internal/config"
	"servershop.gg/internal/itemdefs"
	"servershop.gg/internal/ledger"
	"servershop.gg/internal/persistence/auditlog"
	"servershop.gg/internal/shop"
	"servershop.gg/internal/store"
	"servershop.gg/internal/transport/ws"
	"servershop.gg/internal/zones"
)

func main() {
	var (
		configPath = flag.String("config", "./configs/shop.yaml", "path to shop.yaml")
		addr       = flag.String("addr", "", "http listen address (overrides config)")
		dataDir    = flag.String("data", "", "runtime data directory (overrides config)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[shopd] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("config not found (%s); using defaults", *configPath)
			cfg = config.Defaults()
		} else {
			logger.Fatalf("load config: %v", err)
		}
	}
	if *addr != "" {
		cfg.Listen = *addr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	defs, err := itemdefs.Load(cfg.ItemsPath)
	if err != nil {
		logger.Fatalf("load item defs: %v", err)
	}
	zoneReg, err := zones.Load(cfg.ZonesPath)
	if err != nil {
		logger.Fatalf("load zones: %v", err)
	}

	st, err := store.Open(filepath.Join(cfg.DataDir, "shop.sqlite"))
	if err != nil {
		logger.Fatalf("open shop store: %v", err)
	}
	defer st.Close()

	led, err := ledger.Open(filepath.Join(cfg.DataDir, "ledger.sqlite"))
	if err != nil {
		logger.Fatalf("open ledger: %v", err)
	}
	defer led.Close()
	if err := led.EnsureAccount(cfg.ShopAccount, cfg.ShopOpeningBalance); err != nil {
		logger.Fatalf("ensure shop account: %v", err)
	}

	engine := shop.New(shop.Config{
		ShopAccount: cfg.ShopAccount,
		Currency:    cfg.Currency,
	}, defs, zoneReg, st, led, log.New(os.Stdout, "[shop] ", log.LstdFlags|log.Lmicroseconds))

	if cfg.AuditLog {
		audit := auditlog.New(cfg.DataDir)
		defer audit.Close()
		engine.SetAuditor(audit)
	}

	if err := engine.Load(); err != nil {
		logger.Fatalf("load shop state: %v", err)
	}
	logger.Printf("loaded %d items, %d shop zones", len(engine.Items()), len(engine.Zones()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := shop.NewScheduler(engine, time.Duration(cfg.RestockTickMs)*time.Millisecond,
		log.New(os.Stdout, "[restock] ", log.LstdFlags|log.Lmicroseconds))
	go sched.Run(ctx)

	gateway := ws.NewServer(engine, defs, led, cfg, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", gateway.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Listen, Handler: mux}
	go func() {
		logger.Printf("listening on %s", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Printf("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
