// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Feed.RSSURL = "https://forum.example.com/latest.rss"
	cfg.Storage.S3Bucket = "archive-bucket"
	cfg.Storage.S3Region = "us-east-1"
	return cfg
}

func TestConfig_Validate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected a fully-populated default config to validate, got: %v", err)
	}
}

func TestConfig_Validate_MissingFeedURL(t *testing.T) {
	cfg := validConfig()
	cfg.Feed.RSSURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for missing feed URL")
	}
}

func TestConfig_Validate_InvalidArchiveMode(t *testing.T) {
	cfg := validConfig()
	cfg.Archive.Mode = "everything"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for an unrecognized archive mode")
	}
}

func TestConfig_Validate_PerDomainExceedsTotal(t *testing.T) {
	cfg := validConfig()
	cfg.Worker.Concurrency = 2
	cfg.Worker.PerDomainConcurrency = 4
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error when per-domain concurrency exceeds total concurrency")
	}
}

func TestConfig_Validate_RetryMaxBelowBase(t *testing.T) {
	cfg := validConfig()
	cfg.Worker.RetryBaseInterval = time.Hour
	cfg.Worker.RetryMaxInterval = time.Minute
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error when retry_max_interval is below retry_base_interval")
	}
}

func TestConfig_Validate_ShortDurationExceedsMax(t *testing.T) {
	cfg := validConfig()
	cfg.Video.ShortDuration = 4 * time.Hour
	cfg.Video.MaxDuration = 3 * time.Hour
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error when short duration threshold exceeds the max duration ceiling")
	}
}

func TestConfig_Validate_MissingS3BucketAndRegion(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no bucket", func(c *Config) { c.Storage.S3Bucket = "" }},
		{"no region or endpoint", func(c *Config) {
			c.Storage.S3Region = ""
			c.Storage.S3Endpoint = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a storage validation error")
			}
		})
	}
}

func TestConfig_Validate_EndpointSatisfiesRegionRequirement(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.S3Region = ""
	cfg.Storage.S3Endpoint = "https://minio.internal:9000"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected an S3-compatible endpoint to satisfy the region requirement, got: %v", err)
	}
}

func TestConfig_Validate_MultipartChunkTooSmall(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.MultipartChunkSize = 1 << 10
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for a multipart chunk size below the S3 minimum")
	}
}

func TestConfig_Validate_SubmitterEnabledWithoutRateLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Submit.WaybackEnabled = true
	cfg.Submit.WaybackRateLimit = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for an enabled submitter with no rate limit")
	}
}

func TestConfig_Validate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for an out-of-range server port")
	}
}
