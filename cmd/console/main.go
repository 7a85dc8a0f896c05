// Package main is the entry point for the conversational console.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/conversational-console/internal/api"
	"github.com/capitalize-ai/conversational-console/internal/chat"
	"github.com/capitalize-ai/conversational-console/internal/config"
	"github.com/capitalize-ai/conversational-console/internal/diag"
	"github.com/capitalize-ai/conversational-console/internal/event"
	"github.com/capitalize-ai/conversational-console/internal/session"
	"github.com/capitalize-ai/conversational-console/internal/shell"
	"github.com/capitalize-ai/conversational-console/pkg/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting console", zap.String("backend", cfg.APIBaseURL))

	client := api.New(cfg.APIBaseURL, cfg.ChatTimeout, log)
	sessionStore := session.New(client, cfg.TokenFile, log)
	bus := event.NewBus()
	controller := chat.NewController(client, bus, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Diagnostics listener, when configured.
	var diagServer *http.Server
	if cfg.DiagAddr != "" {
		diagServer = diag.NewServer(cfg.DiagAddr, client, log)
		go func() {
			log.Info("diagnostics listening", zap.String("addr", cfg.DiagAddr))
			if err := diagServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("diagnostics server error", zap.Error(err))
			}
		}()
	}

	// Restore a previous session if a valid token is stored; an invalid
	// one is silently cleared.
	restoreCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	sessionStore.Restore(restoreCtx)
	cancel()

	sh := shell.New(shell.Options{
		In:             os.Stdin,
		Out:            os.Stdout,
		API:            client,
		Session:        sessionStore,
		Chat:           controller,
		Bus:            bus,
		Logger:         log,
		RequestTimeout: cfg.RequestTimeout,
		ChatTimeout:    cfg.ChatTimeout,
	})

	runErr := sh.Run(ctx)

	if diagServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := diagServer.Shutdown(shutdownCtx); err != nil {
			log.Error("diagnostics server forced to shutdown", zap.Error(err))
		}
	}

	if runErr != nil && runErr != context.Canceled {
		log.Error("console exited with error", zap.Error(runErr))
		os.Exit(1)
	}

	log.Info("console stopped")
}
