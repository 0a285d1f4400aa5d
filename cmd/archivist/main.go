// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main is the entry point for the forumvault archive pipeline.
//
// forumvault watches a forum's RSS feed, extracts outbound links, and
// archives the ones that look likely to disappear: videos, galleries,
// and whole pages, saved to an S3-compatible object store and indexed in
// a local SQLite database with full-text search.
//
// # Application Architecture
//
// The process initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 load (defaults, config.yaml, ARCHIVIST_ env vars)
//  2. Local Store: SQLite database with WAL, migrations, and startup recovery
//  3. Object Store Gateway: S3-compatible client for archived content
//  4. Link normalization: canonicalization plus a BadgerDB-cached redirect resolver
//  5. Feed Poller: RSS polling and link extraction into the Local Store
//  6. Handler Registry: per-platform capture dispatch (video, gallery, browser, monolith)
//  7. Worker Pool: concurrent archive processing with per-domain admission control
//  8. Backup Scheduler: periodic database snapshots to the Object Store
//  9. Read-only API: browse/search JSON endpoints plus operator admin routes
//
// Every long-running component is registered under a three-layer
// supervisor tree (ingest, archive, maintenance) and shut down together
// on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"forumvault/internal/api"
	"forumvault/internal/backup"
	"forumvault/internal/capture/browser"
	"forumvault/internal/capture/gallery"
	"forumvault/internal/capture/monolith"
	"forumvault/internal/capture/video"
	"forumvault/internal/config"
	"forumvault/internal/feed"
	"forumvault/internal/handlers"
	"forumvault/internal/logging"
	"forumvault/internal/normalize"
	"forumvault/internal/objectstore"
	"forumvault/internal/store"
	"forumvault/internal/submit"
	"forumvault/internal/supervisor"
	"forumvault/internal/worker"
)

func main() {
	validateConfig := flag.Bool("validate-config", false, "load and validate configuration, then exit")
	flag.Parse()

	if *validateConfig {
		if err := config.ValidateOnly(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("configuration is valid")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Timestamp: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := store.Open(ctx, cfg.Storage.LocalStorePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open local store")
	}
	defer func() {
		if err := s.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing local store")
		}
	}()
	logging.Info().Msg("local store opened")

	if n, err := s.ResetStaleProcessing(ctx); err != nil {
		logging.Error().Err(err).Msg("failed to reset stale processing archives")
	} else if n > 0 {
		logging.Warn().Int64("count", n).Msg("reset archives stuck in processing from a prior crash")
	}
	if n, err := s.ResetSameDayFailed(ctx, time.Now().UTC()); err != nil {
		logging.Error().Err(err).Msg("failed to reset same-day failed archives")
	} else if n > 0 {
		logging.Info().Int64("count", n).Msg("requeued failed archives from earlier today for retry")
	}

	gw, err := objectstore.NewGateway(ctx, objectstore.Config{
		Bucket:             cfg.Storage.S3Bucket,
		Prefix:             cfg.Storage.S3Prefix,
		Region:             cfg.Storage.S3Region,
		Endpoint:           cfg.Storage.S3Endpoint,
		AccessKey:          cfg.Storage.S3AccessKeyID,
		SecretKey:          cfg.Storage.S3SecretKey,
		StreamingThreshold: cfg.Storage.MultipartChunkSize,
		PartSize:           cfg.Storage.MultipartChunkSize,
		PartConcurrency:    cfg.Storage.MultipartConcurrency,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create object store gateway")
	}
	logging.Info().Str("bucket", cfg.Storage.S3Bucket).Msg("object store gateway ready")

	redirectCache, err := openRedirectCache(cfg.Storage.LocalStorePath)
	if err != nil {
		logging.Warn().Err(err).Msg("failed to open redirect resolver cache, continuing uncached")
	}
	if redirectCache != nil {
		defer func() {
			if err := redirectCache.Close(); err != nil {
				logging.Error().Err(err).Msg("error closing redirect cache")
			}
		}()
	}
	resolver := normalize.NewRedirectResolver(redirectCache, 5)
	normalizer := normalize.New(resolver)

	videoCapturer := video.New(cfg.Video)
	galleryCapturer := gallery.New(cfg.Gallery)
	registry := handlers.NewDefaultRegistryWithCapturers(videoCapturer, galleryCapturer)
	browserCapturer := browser.New(cfg.Browser)
	monolithCapturer := monolith.New(cfg.Monolith, cfg.Browser.MonolithEnabled)
	submitManager := submit.NewManager(cfg.Submit, s)

	poller := feed.New(cfg.Feed, cfg.Archive, s, normalizer)

	pool := worker.New(cfg.Worker, cfg.Browser, cfg.Cookies, worker.Deps{
		Store:    s,
		Registry: registry,
		Objects:  gw,
		Browser:  browserCapturer,
		Monolith: monolithCapturer,
		Submit:   submitManager,
	})

	scheduler := backup.NewScheduler(backup.Config{
		Enabled:        cfg.Backup.Interval > 0,
		Interval:       cfg.Backup.Interval,
		RetentionCount: cfg.Backup.RetentionCount,
		Prefix:         cfg.Backup.S3Prefix,
	}, s, objectstore.NewBackupAdapter(gw))

	apiServer := api.NewServer(cfg.Server, s)

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddIngestService(poller)
	tree.AddArchiveService(pool)
	tree.AddMaintenanceService(scheduler)
	tree.AddMaintenanceService(apiServer)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}

	logging.Info().Msg("application stopped gracefully")
}

// openRedirectCache opens a BadgerDB instance alongside the Local Store for
// the redirect resolver's short-link cache. A nil, non-error return from
// normalize.NewRedirectResolver's perspective just means every redirect is
// resolved fresh over the network.
func openRedirectCache(localStorePath string) (*badger.DB, error) {
	opts := badger.DefaultOptions(localStorePath + ".redirects").WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open redirect cache: %w", err)
	}
	return db, nil
}
