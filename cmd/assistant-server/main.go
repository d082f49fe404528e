// Package main provides the HTTP API server for the Yaung Chi assistant.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/yaungchi/assistant-go/internal/auth"
	"github.com/yaungchi/assistant-go/internal/chat"
	"github.com/yaungchi/assistant-go/internal/config"
	"github.com/yaungchi/assistant-go/internal/db"
	"github.com/yaungchi/assistant-go/internal/llm"
	"github.com/yaungchi/assistant-go/internal/market"
	"github.com/yaungchi/assistant-go/internal/metrics"
	"github.com/yaungchi/assistant-go/internal/quota"
	"github.com/yaungchi/assistant-go/internal/server"
	"github.com/yaungchi/assistant-go/internal/weather"
)

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	cfg := config.Load()

	log, logCleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer logCleanup()
	slog.SetDefault(log)

	port, err := strconv.Atoi(cfg.ServerPort)
	if err != nil {
		log.Error("invalid server port", "port", cfg.ServerPort)
		os.Exit(1)
	}

	log.Info("starting assistant-server", "port", port, "llm_provider", cfg.LLMProvider)

	collector := metrics.NewCollector()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, log, collector)
	cancel()
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}()

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	err = dbClient.InitSchema(ctx)
	cancel()
	if err != nil {
		log.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	if *wipeDB || os.Getenv("ASSISTANT_WIPE_DB") == "true" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := dbClient.WipeData(ctx)
		cancel()
		if err != nil {
			log.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
	}

	// No provider configured means canned fallback replies only.
	var model chat.ChatModel
	if cfg.LLMProvider != config.ProviderNone {
		m, err := llm.NewModel(cfg, collector)
		if err != nil {
			log.Error("failed to create LLM model", "error", err)
			os.Exit(1)
		}
		model = m
		log.Info("LLM model ready", "provider", cfg.LLMProvider, "model", cfg.LLMModel)
	} else {
		log.Info("no LLM provider configured, serving fallback advisories")
	}

	tracker := quota.NewTracker(dbClient, dbClient, log, collector)
	store := chat.NewStore(dbClient)
	titler := chat.NewTitler(store, log, cfg.TitleQuiescence)
	defer titler.Close()

	generator := chat.NewGenerator(model, log, collector)
	pipeline := chat.NewService(store, tracker, generator, titler, log, collector)

	srv := server.New(server.Config{Port: port}, server.Deps{
		Directory: dbClient,
		Auth:      auth.NewService(dbClient, log),
		Pipeline:  pipeline,
		Titler:    titler,
		Limits:    tracker,
		Weather:   weather.NewService(dbClient, tracker, log),
		Market:    market.NewService(dbClient, tracker, log),
		Log:       log,
		Metrics:   collector,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(runCtx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
