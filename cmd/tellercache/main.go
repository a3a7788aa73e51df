package main

import (
	"context"
	"time"

	"github.com/dvanosdol88/teller-codex10-9A/internal/application/cachesvc"
	"github.com/dvanosdol88/teller-codex10-9A/internal/infrastructure/clients"
	"github.com/dvanosdol88/teller-codex10-9A/internal/infrastructure/database"
	"github.com/dvanosdol88/teller-codex10-9A/internal/repositories/cacherepo"
	"github.com/dvanosdol88/teller-codex10-9A/internal/repositories/memrepo"
	"github.com/dvanosdol88/teller-codex10-9A/internal/server"
	"github.com/dvanosdol88/teller-codex10-9A/pkg/config"
	"github.com/dvanosdol88/teller-codex10-9A/pkg/db"
	"github.com/dvanosdol88/teller-codex10-9A/pkg/logger"
	"github.com/dvanosdol88/teller-codex10-9A/pkg/secrets"
	"github.com/dvanosdol88/teller-codex10-9A/pkg/signature"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.NewWithConfig(logger.Config{
		Level:  cfg.Logger.Level,
		Pretty: cfg.Logger.Pretty,
	})

	ctx := context.Background()

	// Hosted deploys keep the Teller mTLS material in Secret Manager
	// rather than on disk; fetched values win over file/env ones.
	if cfg.GCP.ProjectID != "" && cfg.GCP.CertificateSecretName != "" {
		cert, err := secrets.Fetch(ctx, cfg.GCP.ProjectID, cfg.GCP.CertificateSecretName)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to fetch certificate secret")
		}
		cfg.Teller.Certificate = cert
	}
	if cfg.GCP.ProjectID != "" && cfg.GCP.PrivateKeySecretName != "" {
		key, err := secrets.Fetch(ctx, cfg.GCP.ProjectID, cfg.GCP.PrivateKeySecretName)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to fetch private key secret")
		}
		cfg.Teller.PrivateKey = key
	}

	var stores cachesvc.StoreProvider
	if db.Configured(&cfg.Database) {
		dbm, err := database.New(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer dbm.ShutDown()

		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := dbm.Migrate(migrateCtx); err != nil {
			log.Fatal().Err(err).Msg("Failed to create schema")
		}

		stores = cacherepo.NewProvider(dbm.Db, log)
	} else {
		log.Warn().Msg("No database configured, caching in memory only")
		stores = memrepo.NewProvider()
	}

	tellerClient, err := clients.NewTellerClient(cfg.Teller, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build Teller client")
	}

	cacheService := cachesvc.New(stores, tellerClient, log)
	verifier := signature.NewVerifier(cfg.Webhook.Secrets, time.Duration(cfg.Webhook.ToleranceSeconds)*time.Second)

	srv := server.New(cfg, cacheService, verifier, log)
	srv.Start()
}
