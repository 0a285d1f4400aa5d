// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// ErrZeroByteObject is returned when a caller attempts to upload an
// empty body; zero-byte files are rejected at the pipeline boundary.
var ErrZeroByteObject = errors.New("objectstore: zero-byte upload rejected")

// HeadResult describes the outcome of a Head call.
type HeadResult struct {
	Exists      bool
	Size        int64
	ContentType string
}

// ObjectInfo describes one entry returned by List.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Put uploads body, using PutSmall for bodies at or below the
// configured streaming threshold and PutStreaming (multipart) above it.
// size must be known in advance; callers with an unknown size should
// buffer or use PutStreaming directly with a definite Content-Length.
func (g *Gateway) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if size == 0 {
		return ErrZeroByteObject
	}
	if size <= g.cfg.StreamingThreshold {
		data, err := io.ReadAll(io.LimitReader(body, size))
		if err != nil {
			return fmt.Errorf("objectstore: read body: %w", err)
		}
		return g.PutSmall(ctx, key, data, contentType)
	}
	return g.PutStreaming(ctx, key, body, contentType)
}

// PutSmall is a single-shot PUT for objects below the streaming
// threshold.
func (g *Gateway) PutSmall(ctx context.Context, key string, data []byte, contentType string) error {
	if len(data) == 0 {
		return ErrZeroByteObject
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(g.cfg.Bucket),
		Key:    aws.String(g.fullKey(key)),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := g.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("objectstore: put %s: %w", key, err)
	}
	return nil
}

// PutStreaming performs a multipart upload for large bodies. Chunks are
// uploaded concurrently up to the configured part concurrency; the SDK
// uploader aborts the multipart upload on any fatal part failure so no
// orphaned upload is left behind.
func (g *Gateway) PutStreaming(ctx context.Context, key string, body io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(g.cfg.Bucket),
		Key:    aws.String(g.fullKey(key)),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := g.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("objectstore: put-streaming %s: %w", key, err)
	}
	return nil
}

// Get fetches an object's body. Callers must close the returned reader.
func (g *Gateway) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.cfg.Bucket),
		Key:    aws.String(g.fullKey(key)),
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: get %s: %w", key, err)
	}
	return out.Body, nil
}

// Copy performs a server-side copy; no data transits through the caller.
func (g *Gateway) Copy(ctx context.Context, srcKey, dstKey string) error {
	source := g.cfg.Bucket + "/" + g.fullKey(srcKey)
	_, err := g.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(g.cfg.Bucket),
		Key:        aws.String(g.fullKey(dstKey)),
		CopySource: aws.String(source),
	})
	if err != nil {
		return fmt.Errorf("objectstore: copy %s -> %s: %w", srcKey, dstKey, err)
	}
	return nil
}

// Head reports whether key exists along with its size and content type.
func (g *Gateway) Head(ctx context.Context, key string) (HeadResult, error) {
	out, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(g.cfg.Bucket),
		Key:    aws.String(g.fullKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return HeadResult{}, nil
		}
		return HeadResult{}, fmt.Errorf("objectstore: head %s: %w", key, err)
	}

	res := HeadResult{Exists: true}
	if out.ContentLength != nil {
		res.Size = *out.ContentLength
	}
	if out.ContentType != nil {
		res.ContentType = *out.ContentType
	}
	return res, nil
}

// List returns object keys with the given prefix, paging internally.
// The returned cursor is always empty: this gateway exhausts pages
// before returning, since the pipeline's list usage (retention sweeps,
// dedup checks) always wants the full set.
func (g *Gateway) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	fullPrefix := g.fullKey(prefix)

	var continuation *string
	for {
		page, err := g.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(g.cfg.Bucket),
			Prefix:            aws.String(fullPrefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("objectstore: list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			info := ObjectInfo{Key: g.relKey(aws.ToString(obj.Key))}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			out = append(out, info)
		}
		if page.IsTruncated == nil || !*page.IsTruncated {
			break
		}
		continuation = page.NextContinuationToken
	}
	return out, nil
}

// Delete removes a single object.
func (g *Gateway) Delete(ctx context.Context, key string) error {
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.cfg.Bucket),
		Key:    aws.String(g.fullKey(key)),
	})
	if err != nil {
		return fmt.Errorf("objectstore: delete %s: %w", key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
