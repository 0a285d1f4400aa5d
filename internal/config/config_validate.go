// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import "fmt"

// Validate checks that the configuration is internally consistent and that
// every field required for the components it enables is present. A
// malformed config fails fast at startup (spec's ambient-stack convention),
// never as a runtime surprise.
func (c *Config) Validate() error {
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateWorker(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateGallery(); err != nil {
		return err
	}
	if err := c.validateMonolith(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateSubmit(); err != nil {
		return err
	}
	if err := c.validateBackup(); err != nil {
		return err
	}
	return c.validateServer()
}

func (c *Config) validateFeed() error {
	if c.Feed.RSSURL == "" {
		return fmt.Errorf("ARCHIVIST_RSS_URL is required")
	}
	if c.Feed.PollInterval <= 0 {
		return fmt.Errorf("ARCHIVIST_POLL_INTERVAL_SECS must be positive")
	}
	if c.Feed.RSSMaxPages < 1 {
		return fmt.Errorf("ARCHIVIST_RSS_MAX_PAGES must be at least 1")
	}
	return nil
}

func (c *Config) validateArchive() error {
	switch c.Archive.Mode {
	case "deletable", "all":
	default:
		return fmt.Errorf("ARCHIVIST_ARCHIVE_MODE must be one of deletable, all (got %q)", c.Archive.Mode)
	}
	return nil
}

func (c *Config) validateWorker() error {
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("ARCHIVIST_WORKER_CONCURRENCY must be at least 1")
	}
	if c.Worker.PerDomainConcurrency < 1 {
		return fmt.Errorf("ARCHIVIST_PER_DOMAIN_CONCURRENCY must be at least 1")
	}
	if c.Worker.PerDomainConcurrency > c.Worker.Concurrency {
		return fmt.Errorf("worker.per_domain_concurrency (%d) cannot exceed worker.concurrency (%d)",
			c.Worker.PerDomainConcurrency, c.Worker.Concurrency)
	}
	if c.Worker.RetryMaxInterval < c.Worker.RetryBaseInterval {
		return fmt.Errorf("worker.retry_max_interval cannot be less than worker.retry_base_interval")
	}
	if c.Worker.WorkRoot == "" {
		return fmt.Errorf("worker.work_root is required")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.MaxDuration <= 0 {
		return fmt.Errorf("ARCHIVIST_YOUTUBE_MAX_DURATION_SECONDS must be positive")
	}
	if c.Video.ShortDuration > c.Video.MaxDuration {
		return fmt.Errorf("video.short_duration cannot exceed video.max_duration")
	}
	if c.Video.DownloadTimeout <= 0 {
		return fmt.Errorf("ARCHIVIST_YOUTUBE_DOWNLOAD_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

func (c *Config) validateGallery() error {
	if c.Gallery.BinaryPath == "" {
		return fmt.Errorf("gallery.binary_path is required")
	}
	if c.Gallery.Timeout <= 0 {
		return fmt.Errorf("gallery.timeout must be positive")
	}
	return nil
}

func (c *Config) validateMonolith() error {
	if !c.Browser.MonolithEnabled {
		return nil
	}
	if c.Monolith.BinaryPath == "" {
		return fmt.Errorf("monolith.binary_path is required when browser.monolith_enabled is true")
	}
	if c.Monolith.Timeout <= 0 {
		return fmt.Errorf("monolith.timeout must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.S3Bucket == "" {
		return fmt.Errorf("ARCHIVIST_S3_BUCKET is required")
	}
	if c.Storage.S3Region == "" && c.Storage.S3Endpoint == "" {
		return fmt.Errorf("one of ARCHIVIST_S3_REGION or ARCHIVIST_S3_ENDPOINT is required")
	}
	if c.Storage.MultipartChunkSize < 5<<20 {
		return fmt.Errorf("storage.multipart_chunk_size must be at least 5 MiB (S3 multipart minimum)")
	}
	if c.Storage.MultipartConcurrency < 1 {
		return fmt.Errorf("storage.multipart_concurrency must be at least 1")
	}
	if c.Storage.LocalStorePath == "" {
		return fmt.Errorf("storage.local_store_path is required")
	}
	return nil
}

func (c *Config) validateSubmit() error {
	if c.Submit.WaybackEnabled && c.Submit.WaybackRateLimit < 1 {
		return fmt.Errorf("submit.wayback_rate_limit must be at least 1 when enabled")
	}
	if c.Submit.ArchiveTodayEnabled && c.Submit.ArchiveTodayRateLimit < 1 {
		return fmt.Errorf("submit.archive_today_rate_limit must be at least 1 when enabled")
	}
	return nil
}

func (c *Config) validateBackup() error {
	if c.Backup.Interval <= 0 {
		return fmt.Errorf("backup.interval must be positive")
	}
	if c.Backup.RetentionCount < 1 {
		return fmt.Errorf("backup.retention_count must be at least 1")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535 (got %d)", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	return nil
}
