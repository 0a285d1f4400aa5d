// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order of
// priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/forumvault/config.yaml",
	"/etc/forumvault/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix is stripped from every ARCHIVIST_-prefixed environment variable
// before it is mapped onto a koanf path.
const envPrefix = "ARCHIVIST_"

// defaultConfig returns a Config with every field set to its built-in
// default. Defaults are applied first; the config file and environment
// layers may override any of them.
func defaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			PollInterval: 5 * time.Minute,
			RSSMaxPages:  1,
		},
		Archive: ArchivePolicy{
			Mode:           "deletable",
			QuoteOnlyLinks: false,
		},
		Worker: WorkerConfig{
			Concurrency:          8,
			PerDomainConcurrency: 2,
			RetryBaseInterval:    5 * time.Minute,
			RetryMaxInterval:     4 * time.Hour,
			RetryMaxAttempts:     8,
			WorkRoot:             "/tmp/forumvault",
		},
		Video: VideoConfig{
			MaxDuration:       3 * time.Hour,
			DownloadTimeout:   20 * time.Minute,
			SubtitleLanguages: []string{"en"},
			ShortDuration:     20 * time.Minute,
			LowBitrateKbps:    2000,
		},
		Gallery: GalleryConfig{
			BinaryPath: "gallery-dl",
			Timeout:    10 * time.Minute,
		},
		Browser: BrowserConfig{
			ScreenshotEnabled: true,
			PDFEnabled:        false,
			MHTMLEnabled:      false,
			MonolithEnabled:   false,
			ViewportWidth:     1920,
			ViewportHeight:    1080,
			PaperSize:         "Letter",
			NavigationTimeout: 30 * time.Second,
		},
		Monolith: MonolithConfig{
			BinaryPath: "monolith",
			Timeout:    2 * time.Minute,
		},
		Storage: StorageConfig{
			S3Prefix:             "",
			S3ForcePathStyle:     false,
			MultipartChunkSize:   5 << 20, // 5 MiB
			MultipartConcurrency: 4,
			LocalStorePath:       "/data/forumvault.db",
		},
		Submit: SubmitConfig{
			WaybackEnabled:         true,
			WaybackRateLimit:       15,
			WaybackRatePeriod:      time.Minute,
			ArchiveTodayEnabled:    false,
			ArchiveTodayRateLimit:  6,
			ArchiveTodayRatePeriod: time.Minute,
		},
		Cookies: CookiesConfig{},
		Backup: BackupConfig{
			Interval:       24 * time.Hour,
			RetentionCount: 7,
		},
		Dedupe: DedupeConfig{
			PerceptualHashThreshold: 10,
			LinkCacheCapacity:       100000,
			LinkCacheTTL:            24 * time.Hour,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the final Config by layering, in increasing priority order:
// built-in defaults, an optional YAML config file, then environment
// variables prefixed ARCHIVIST_. The result is validated before being
// returned; a malformed config is always a startup error, never a runtime
// surprise.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile resolves the config file path: CONFIG_PATH env var first,
// then DefaultConfigPaths in order. Returns "" if none exist.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists koanf paths that must be parsed as comma-separated
// slices when they arrive as a single environment-variable string.
var sliceConfigPaths = []string{
	"archive.ephemeral_domains",
	"video.subtitle_languages",
	"server.cors_origins",
}

// processSliceFields splits comma-separated env-var strings into slices for
// the paths in sliceConfigPaths, leaving YAML-sourced slices untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps ARCHIVIST_-prefixed environment variable names onto
// koanf paths, e.g. ARCHIVIST_WORKER_CONCURRENCY -> worker.concurrency.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	// Legacy/spec-named top-level variables (spec §6.4) map directly onto
	// their section.field path rather than the generic first-underscore
	// split, since several of them don't share a common section prefix
	// with their struct.
	directMappings := map[string]string{
		"rss_url":                         "feed.rss_url",
		"poll_interval_secs":              "feed.poll_interval",
		"rss_max_pages":                   "feed.rss_max_pages",
		"archive_mode":                    "archive.mode",
		"archive_quote_only_links":        "archive.quote_only_links",
		"worker_concurrency":              "worker.concurrency",
		"per_domain_concurrency":          "worker.per_domain_concurrency",
		"youtube_max_duration_seconds":    "video.max_duration",
		"youtube_download_timeout_seconds": "video.download_timeout",
		"screenshot_enabled":              "browser.screenshot_enabled",
		"pdf_enabled":                     "browser.pdf_enabled",
		"mhtml_enabled":                   "browser.mhtml_enabled",
		"monolith_enabled":                "browser.monolith_enabled",
		"s3_bucket":                       "storage.s3_bucket",
		"s3_region":                       "storage.s3_region",
		"s3_endpoint":                     "storage.s3_endpoint",
		"s3_prefix":                       "storage.s3_prefix",
		"s3_public_url_base":              "storage.s3_public_url_base",
		"s3_access_key_id":                "storage.s3_access_key_id",
		"s3_secret_access_key":            "storage.s3_secret_key",
		"wayback_enabled":                 "submit.wayback_enabled",
		"archive_today_enabled":           "submit.archive_today_enabled",
		"cookies_file_path":               "cookies.file_path",
	}
	if mapped, ok := directMappings[key]; ok {
		return mapped
	}

	// Fall through to underscore-to-dot on the first segment, matching the
	// nested struct tags directly (e.g. worker_retry_max_attempts ->
	// worker.retry_max_attempts).
	for _, section := range []string{"feed", "archive", "worker", "video", "gallery", "browser", "monolith", "storage", "submit", "cookies", "backup", "dedupe", "server", "logging"} {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return strings.ReplaceAll(key, "_", ".")
}

// GetKoanfInstance exposes a fresh koanf instance loaded the same way Load
// builds one, for callers (the --validate-config subcommand) that want to
// inspect raw keys rather than the typed Config.
func GetKoanfInstance() (*koanf.Koanf, error) {
	k := koanf.New(".")
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, err
	}
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, err
	}
	return k, nil
}
