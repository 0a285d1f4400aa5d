// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package objectstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds Object Store Gateway configuration. Endpoint and
// PathStyle are set for S3-compatible backends (MinIO, etc.); both are
// left empty/false to talk to real AWS S3.
type Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string

	// StreamingThreshold is the byte size above which PutStreaming's
	// multipart uploader is used instead of a single-shot PutObject.
	StreamingThreshold int64

	// PartSize is the multipart chunk size for streaming uploads.
	PartSize int64

	// PartConcurrency bounds how many chunks upload concurrently.
	PartConcurrency int
}

const (
	defaultStreamingThreshold = 5 * 1024 * 1024
	defaultPartSize           = 5 * 1024 * 1024
	defaultPartConcurrency    = 4
)

// s3API is the subset of *s3.Client the gateway depends on, narrowed so
// it can be faked in tests without standing up a real S3 endpoint.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, opts ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// uploaderAPI is the subset of *manager.Uploader used for multipart
// streaming uploads.
type uploaderAPI interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Gateway implements the Object Store Gateway contract against an
// S3-compatible backend.
type Gateway struct {
	client   s3API
	uploader uploaderAPI
	cfg      Config
}

// NewGateway creates a Gateway from Config, loading AWS credentials from
// the default provider chain unless explicit keys are supplied.
func NewGateway(ctx context.Context, cfg Config) (*Gateway, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("objectstore: bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.StreamingThreshold <= 0 {
		cfg.StreamingThreshold = defaultStreamingThreshold
	}
	if cfg.PartSize <= 0 {
		cfg.PartSize = defaultPartSize
	}
	if cfg.PartConcurrency <= 0 {
		cfg.PartConcurrency = defaultPartConcurrency
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("objectstore: load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = cfg.PartSize
		u.Concurrency = cfg.PartConcurrency
	})

	return &Gateway{client: client, uploader: uploader, cfg: cfg}, nil
}

// fullKey returns key prefixed with the configured key prefix, if any.
func (g *Gateway) fullKey(key string) string {
	if g.cfg.Prefix == "" {
		return key
	}
	return strings.TrimSuffix(g.cfg.Prefix, "/") + "/" + strings.TrimPrefix(key, "/")
}

// relKey strips the configured prefix back off, for keys returned from List.
func (g *Gateway) relKey(key string) string {
	if g.cfg.Prefix == "" {
		return key
	}
	trimmed := strings.TrimPrefix(key, strings.TrimSuffix(g.cfg.Prefix, "/"))
	return strings.TrimPrefix(trimmed, "/")
}
