package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mediconnect/backend/internal/config"
	"github.com/mediconnect/backend/internal/db"
	httpapi "github.com/mediconnect/backend/internal/http"
	"github.com/mediconnect/backend/internal/oracle"
	"github.com/mediconnect/backend/internal/retrieval"
	"github.com/mediconnect/backend/internal/triage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "triage-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	var llm oracle.Client
	if cfg.OracleURL == "" {
		llm = &oracle.Mock{}
		logger.Info().Msg("using mock oracle client")
	} else {
		llm = &oracle.HTTPClient{
			BaseURL: cfg.OracleURL,
			APIKey:  cfg.OracleAPIKey,
			Model:   cfg.OracleModel,
			Timeout: cfg.OracleTimeout,
		}
	}

	var index retrieval.Index
	if cfg.RetrievalURL == "" {
		index = retrieval.NewMockIndex()
		logger.Info().Msg("using in-memory retrieval index")
	} else {
		index = retrieval.HTTPIndex{BaseURL: cfg.RetrievalURL}
	}

	agent := &triage.Agent{
		Store:  store,
		Index:  index,
		Oracle: llm,
		Logger: logger,
	}

	router := httpapi.Router(cfg, store, agent, index, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
