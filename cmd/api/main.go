package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/linkbio/harvester"
	"github.com/linkbio/harvester/api"
	"github.com/linkbio/harvester/config"
	"github.com/linkbio/harvester/db"
	"github.com/linkbio/harvester/rules"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	log.WithField("port", cfg.Port).Info("configuration loaded")

	database, err := db.New(db.Config{DSN: cfg.DatabaseURL})
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.WithError(err).Error("error closing database")
		}
	}()

	var metaCache api.MetaCache
	if cfg.RedisAddr != "" {
		cache, err := db.NewMetaCache(cfg.RedisAddr)
		if err != nil {
			// The cache is an enrichment; run without it.
			log.WithError(err).Warn("metadata cache unavailable, continuing without it")
		} else {
			defer cache.Close()
			metaCache = cache
		}
	}

	pipeline := harvester.New(harvester.DefaultConfig(), rules.Default(), log)

	server := api.NewServer(api.Config{
		Addr:        ":" + cfg.Port,
		CORSEnabled: cfg.CORSEnabled,
	}, database, pipeline, metaCache, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Fatalf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown error")
	}

	log.Info("server stopped")
}
