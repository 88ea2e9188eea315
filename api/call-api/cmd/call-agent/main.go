// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	internal_summary "github.com/expertdial/api/call-api/internal/summary"
	internal_twilio_telephony "github.com/expertdial/api/call-api/internal/telephony/twilio"
	call_routers "github.com/expertdial/api/call-api/router"
	"github.com/expertdial/config"
	"github.com/expertdial/pkg/commons"
	"github.com/expertdial/pkg/connectors"
	"github.com/expertdial/pkg/utils"
)

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("failed to initialize config: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("invalid application config: %v", err)
	}

	logger, err := commons.NewApplicationLogger(
		commons.WithLevel(cfg.LogLevel),
		commons.WithLogFile(cfg.LogFile),
	)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	var postgres connectors.PostgresConnector
	var store internal_summary.Store
	switch cfg.Summary.Store {
	case "postgres":
		postgres, err = connectors.NewPostgresConnector(cfg.Summary.PostgresDsn, logger)
		if err != nil {
			logger.Errorf("failed to connect to postgres: %v", err)
			return
		}
		store, err = internal_summary.NewPostgresStore(postgres, logger)
		if err != nil {
			logger.Errorf("failed to initialize summary store: %v", err)
			return
		}
	default:
		store = internal_summary.NewMemoryStore()
	}

	summarizer := internal_summary.NewSummarizer(logger, internal_summary.NewOpenAICompletion(cfg.OpenAI))

	domain := normalizeDomain(cfg.Domain)
	caller := internal_twilio_telephony.NewTwilio(cfg.Twilio, domain, logger)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	call_routers.HealthCheckRoutes(cfg, engine, logger, postgres)
	call_routers.ConversationApiRoute(cfg, engine, logger, caller, summarizer, store)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	utils.Go(ctx, logger, func() {
		logger.Infof("%s %s listening on %s, media domain %s", cfg.Name, cfg.Version, server.Addr, domain)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server error: %v", err)
			stop()
		}
	})

	<-ctx.Done()
	logger.Info("shutting down")

	// In-flight media streams get a grace window to finish teardown.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown error: %v", err)
	}
}

// normalizeDomain strips any scheme and trailing slashes so the value can
// be embedded in a wss:// stream URL.
func normalizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	if i := strings.Index(domain, "://"); i >= 0 {
		domain = domain[i+3:]
	}
	return strings.TrimRight(domain, "/")
}
