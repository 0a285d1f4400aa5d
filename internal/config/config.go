// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates this system's configuration surface
// using koanf, layering built-in defaults, an optional YAML file, and
// environment variables, in that order of increasing priority.
package config

import "time"

// Config is the root configuration struct. Every field maps to a koanf path
// (the `koanf` struct tag) and may be set via config.yaml or an ARCHIVIST_
// prefixed environment variable.
type Config struct {
	Feed       FeedConfig       `koanf:"feed"`
	Archive    ArchivePolicy    `koanf:"archive"`
	Worker     WorkerConfig     `koanf:"worker"`
	Video      VideoConfig      `koanf:"video"`
	Gallery    GalleryConfig    `koanf:"gallery"`
	Browser    BrowserConfig    `koanf:"browser"`
	Monolith   MonolithConfig   `koanf:"monolith"`
	Storage    StorageConfig    `koanf:"storage"`
	Submit     SubmitConfig     `koanf:"submit"`
	Cookies    CookiesConfig    `koanf:"cookies"`
	Backup     BackupConfig     `koanf:"backup"`
	Dedupe     DedupeConfig     `koanf:"dedupe"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// FeedConfig controls the Feed Poller (spec §4.1, §6.4 "feed").
type FeedConfig struct {
	RSSURL           string        `koanf:"rss_url"`
	PollInterval     time.Duration `koanf:"poll_interval"`
	RSSMaxPages      int           `koanf:"rss_max_pages"`
}

// ArchivePolicy controls which links get archived and under what rules
// (spec §6.4 "archive policy").
type ArchivePolicy struct {
	// Mode is "deletable" (only likely-ephemeral domains) or "all".
	Mode string `koanf:"mode"`
	// EphemeralDomains lists the domains treated as ephemeral when Mode is
	// "deletable" (see DESIGN.md's Open Question decision on this field).
	EphemeralDomains []string `koanf:"ephemeral_domains"`
	// QuoteOnlyLinks overrides the default quote-only skip policy
	// (spec §8 "Quote-only skip" invariant); true means archive quote-only
	// occurrences too.
	QuoteOnlyLinks bool `koanf:"quote_only_links"`
}

// WorkerConfig controls the Archive Worker Pool's concurrency bounds
// (spec §6.4 "concurrency", §8 "Concurrency bounds" invariant).
type WorkerConfig struct {
	Concurrency          int           `koanf:"concurrency"`
	PerDomainConcurrency int           `koanf:"per_domain_concurrency"`
	RetryBaseInterval    time.Duration `koanf:"retry_base_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`
	RetryMaxAttempts     int           `koanf:"retry_max_attempts"`
	WorkRoot             string        `koanf:"work_root"`
}

// VideoConfig controls the video-capture capability (spec §6.3.1, §6.4
// "video").
type VideoConfig struct {
	MaxDuration          time.Duration `koanf:"max_duration"`
	DownloadTimeout      time.Duration `koanf:"download_timeout"`
	SubtitleLanguages    []string      `koanf:"subtitle_languages"`
	ShortDuration        time.Duration `koanf:"short_duration"`
	LowBitrateKbps       int           `koanf:"low_bitrate_kbps"`
}

// GalleryConfig controls the gallery-capture capability (spec §6.3.2).
type GalleryConfig struct {
	BinaryPath string        `koanf:"binary_path"`
	Timeout    time.Duration `koanf:"timeout"`
}

// BrowserConfig controls the browser-capture capability (spec §6.3.3, §6.4
// "browser captures").
type BrowserConfig struct {
	ScreenshotEnabled bool   `koanf:"screenshot_enabled"`
	PDFEnabled        bool   `koanf:"pdf_enabled"`
	MHTMLEnabled      bool   `koanf:"mhtml_enabled"`
	MonolithEnabled   bool   `koanf:"monolith_enabled"`
	ViewportWidth     int    `koanf:"viewport_width"`
	ViewportHeight    int    `koanf:"viewport_height"`
	PaperSize         string `koanf:"paper_size"`
	NavigationTimeout time.Duration `koanf:"navigation_timeout"`
}

// MonolithConfig controls the monolith (self-contained HTML) capability, a
// distinct capture path from the browser-capture capability's own MHTML/
// screenshot/PDF outputs (spec §6.3.3, §6.4 "browser captures").
type MonolithConfig struct {
	BinaryPath string        `koanf:"binary_path"`
	Timeout    time.Duration `koanf:"timeout"`
}

// StorageConfig controls the Object Store Gateway (spec §4.6, §6.4
// "storage").
type StorageConfig struct {
	S3Bucket        string `koanf:"s3_bucket"`
	S3Region        string `koanf:"s3_region"`
	S3Endpoint      string `koanf:"s3_endpoint"`
	S3Prefix        string `koanf:"s3_prefix"`
	S3PublicURLBase string `koanf:"s3_public_url_base"`
	S3AccessKeyID   string `koanf:"s3_access_key_id"`
	S3SecretKey     string `koanf:"s3_secret_key"`
	S3ForcePathStyle bool  `koanf:"s3_force_path_style"`
	MultipartChunkSize int64 `koanf:"multipart_chunk_size"`
	MultipartConcurrency int `koanf:"multipart_concurrency"`
	LocalStorePath  string `koanf:"local_store_path"`
}

// SubmitConfig controls the External Archive Submitters (spec §4.7, §6.4
// "third-party").
type SubmitConfig struct {
	WaybackEnabled        bool          `koanf:"wayback_enabled"`
	WaybackRateLimit      int64         `koanf:"wayback_rate_limit"`
	WaybackRatePeriod     time.Duration `koanf:"wayback_rate_period"`
	ArchiveTodayEnabled    bool          `koanf:"archive_today_enabled"`
	ArchiveTodayRateLimit  int64         `koanf:"archive_today_rate_limit"`
	ArchiveTodayRatePeriod time.Duration `koanf:"archive_today_rate_period"`
}

// CookiesConfig controls handler authentication material (spec §6.4
// "cookies").
type CookiesConfig struct {
	FilePath          string `koanf:"file_path"`
	BrowserProfile    string `koanf:"browser_profile"`
	BrowserProfileDir string `koanf:"browser_profile_dir"`
}

// BackupConfig controls the Backup Scheduler (spec §6.4 "backup").
type BackupConfig struct {
	Interval       time.Duration `koanf:"interval"`
	RetentionCount int           `koanf:"retention_count"`
	S3Prefix       string        `koanf:"s3_prefix"`
}

// DedupeConfig controls deduplication thresholds (spec §6.4
// "deduplication").
type DedupeConfig struct {
	PerceptualHashThreshold int `koanf:"perceptual_hash_threshold"`
	LinkCacheCapacity       int `koanf:"link_cache_capacity"`
	LinkCacheTTL            time.Duration `koanf:"link_cache_ttl"`
}

// ServerConfig controls the read-only JSON API (spec §6.4, the
// SUPPLEMENTED FEATURES operator-reset endpoints).
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	Timeout      time.Duration `koanf:"timeout"`
	AdminToken   string        `koanf:"admin_token"`
	CORSOrigins  []string      `koanf:"cors_origins"`
	RateLimitReqs   int        `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig controls the zerolog global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "json" or "console"
}
