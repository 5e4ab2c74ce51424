package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/waihong/stocksim-be/internal/config"
	"github.com/waihong/stocksim-be/internal/ledger"
	"github.com/waihong/stocksim-be/internal/quote"
	"github.com/waihong/stocksim-be/internal/server"
	"github.com/waihong/stocksim-be/internal/storage"
	"github.com/waihong/stocksim-be/internal/storage/memory"
	"github.com/waihong/stocksim-be/internal/storage/postgres"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found; relying on existing environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx := context.Background()

	var store storage.Store
	switch cfg.Store {
	case "memory":
		store = memory.NewStore()
		log.Warn("using in-memory store; all data is lost on restart")
	default:
		pgStore, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("init database: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
	}

	var provider quote.Provider
	switch cfg.QuoteProvider {
	case "static":
		provider = quote.NewStaticProvider()
	default:
		provider = quote.NewYahooProvider(cfg.QuoteBaseURL, cfg.QuoteTimeout())
	}

	svc := ledger.NewService(store, provider, cfg.StartingCash)
	srv := server.New(cfg, svc, log)

	go func() {
		log.Infof("stocksim backend listening on %s", cfg.HTTPAddress())
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Errorf("graceful shutdown error: %v", err)
	}
}
