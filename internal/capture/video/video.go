// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"forumvault/internal/bandwidth"
	"forumvault/internal/config"
	"forumvault/internal/logging"
)

// FailureClass classifies why a capture did not produce a video, matching
// the failure taxonomy of spec §6.3.1.
type FailureClass string

const (
	FailureNone           FailureClass = ""
	FailureAuthRequired   FailureClass = "auth_required"
	FailureAgeRestricted  FailureClass = "age_restricted"
	FailureUnsupportedURL FailureClass = "unsupported_url"
	FailureNetwork        FailureClass = "network"
	FailureTimeout        FailureClass = "timeout"
	FailureOverDuration   FailureClass = "over_duration"
	FailureEmptyOutput    FailureClass = "empty_output"
)

// CaptureError wraps a FailureClass with the underlying cause.
type CaptureError struct {
	Class FailureClass
	Err   error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("video capture: %s: %v", e.Class, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// Metadata is the result of Probe: enough information to run
// internal/bandwidth's quality decision without having downloaded anything.
type Metadata struct {
	Platform       string
	VideoID        string
	Title          string
	Duration       time.Duration
	AvgBitrateKbps int
	AgeLimit       int
	RawInfoJSON    []byte
}

// Capture is the result of a successful Download: the primary video file
// plus whatever sidecars were requested.
type Capture struct {
	VideoPath     string
	ThumbnailPath string
	SubtitlePaths map[string]string // language -> path
	MetadataPath  string
	CommentsPath  string
	Metadata      Metadata
	QualityCap    bandwidth.Cap
}

// Capturer wraps go-ytdlp for metadata probing and capped-quality download.
type Capturer struct {
	cfg    config.VideoConfig
	policy bandwidth.Policy
}

// New builds a Capturer from video-capture configuration, using
// internal/bandwidth's default thresholds overridden by cfg where set.
func New(cfg config.VideoConfig) *Capturer {
	policy := bandwidth.Policy{
		ShortDuration:  cfg.ShortDuration,
		LowBitrateKbps: cfg.LowBitrateKbps,
		MaxDuration:    cfg.MaxDuration,
	}
	if policy.ShortDuration == 0 && policy.LowBitrateKbps == 0 && policy.MaxDuration == 0 {
		policy = bandwidth.DefaultPolicy()
	}
	return &Capturer{cfg: cfg, policy: policy}
}

// Probe fetches metadata only (no video bytes), via yt-dlp's --skip-download
// + --dump-json equivalent, so the caller can run internal/bandwidth.Decide
// before committing to a download.
func (c *Capturer) Probe(ctx context.Context, url string) (Metadata, error) {
	dl := ytdlp.New().
		NoPlaylist().
		SkipDownload().
		PrintJson().
		NoProgress()

	res, err := dl.Run(ctx, url)
	if err != nil {
		return Metadata{}, classifyRunError(err)
	}

	info, err := res.GetExtractedInfo()
	if err != nil || len(info) == 0 {
		return Metadata{}, &CaptureError{Class: FailureEmptyOutput, Err: errors.New("yt-dlp returned no extracted info")}
	}
	raw, err := json.Marshal(info[0])
	if err != nil {
		raw = nil
	}

	return metadataFromExtractedInfo(info[0], raw), nil
}

// Download performs the capped-quality download chosen by internal/bandwidth
// for url, writing all artifacts under dir. cookiesPath is passed through to
// yt-dlp when non-empty (spec §6.4 "cookies").
func (c *Capturer) Download(ctx context.Context, url, dir, cookiesPath string) (Capture, error) {
	meta, err := c.Probe(ctx, url)
	if err != nil {
		return Capture{}, err
	}

	decision := c.policy.Decide(meta.Duration, meta.AvgBitrateKbps)
	if decision.Skip {
		return Capture{}, &CaptureError{Class: FailureOverDuration, Err: errors.New(decision.SkipReason)}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Capture{}, fmt.Errorf("video: create workdir: %w", err)
	}

	outputTemplate := filepath.Join(dir, "%(id)s.%(ext)s")

	dl := ytdlp.New().
		NoPlaylist().
		Format(decision.Cap.FormatSelector()).
		Output(outputTemplate).
		WriteThumbnail().
		WriteInfoJson().
		PrintJson().
		NoProgress()

	if len(c.cfg.SubtitleLanguages) > 0 {
		dl = dl.WriteSubs().WriteAutoSubs().SubLangs(strings.Join(c.cfg.SubtitleLanguages, ","))
	}
	if cookiesPath != "" {
		dl = dl.Cookies(cookiesPath)
	}
	if c.cfg.DownloadTimeout > 0 {
		dl = dl.SocketTimeout(int(c.cfg.DownloadTimeout.Seconds()))
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if c.cfg.DownloadTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.cfg.DownloadTimeout)
		defer cancel()
	}

	res, err := dl.Run(runCtx, url)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return Capture{}, &CaptureError{Class: FailureTimeout, Err: err}
		}
		return Capture{}, classifyRunError(err)
	}

	info, err := res.GetExtractedInfo()
	if err != nil || len(info) == 0 {
		return Capture{}, &CaptureError{Class: FailureEmptyOutput, Err: errors.New("yt-dlp produced no extracted info")}
	}

	cp, err := resolveCapture(dir, decision.Cap, meta)
	if err != nil {
		return Capture{}, err
	}

	logging.Info().Str("video_id", cp.Metadata.VideoID).Str("quality", decision.Cap.String()).
		Str("path", cp.VideoPath).Msg("video: capture complete")
	return cp, nil
}

func resolveCapture(dir string, qualityCap bandwidth.Cap, meta Metadata) (Capture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Capture{}, fmt.Errorf("video: read workdir: %w", err)
	}

	out := Capture{
		SubtitlePaths: map[string]string{},
		Metadata:      meta,
		QualityCap:    qualityCap,
	}
	for _, e := range entries {
		name := e.Name()
		full := filepath.Join(dir, name)
		switch {
		case strings.HasSuffix(name, ".info.json"):
			out.MetadataPath = full
		case strings.Contains(name, ".jpg") || strings.Contains(name, ".webp") || strings.Contains(name, ".png"):
			out.ThumbnailPath = full
		case strings.HasSuffix(name, ".vtt") || strings.HasSuffix(name, ".srt"):
			lang := subtitleLang(name)
			out.SubtitlePaths[lang] = full
		case strings.HasSuffix(name, ".mp4") || strings.HasSuffix(name, ".webm") || strings.HasSuffix(name, ".mkv"):
			out.VideoPath = full
		}
	}

	if out.VideoPath == "" {
		return Capture{}, &CaptureError{Class: FailureEmptyOutput, Err: errors.New("no video file found in workdir after download")}
	}
	return out, nil
}

// subtitleLang extracts the language code from a yt-dlp subtitle filename of
// the form "<id>.<lang>.vtt".
func subtitleLang(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) >= 3 {
		return parts[len(parts)-2]
	}
	return "und"
}

func metadataFromExtractedInfo(info *ytdlp.ExtractedInfo, raw []byte) Metadata {
	m := Metadata{
		Platform:    info.ExtractorKey,
		VideoID:     info.ID,
		Title:       info.Title,
		AgeLimit:    info.AgeLimit,
		RawInfoJSON: raw,
	}
	if info.Duration > 0 {
		m.Duration = time.Duration(info.Duration * float64(time.Second))
	}
	if info.TBR > 0 {
		m.AvgBitrateKbps = int(info.TBR)
	}
	return m
}

// classifyRunError maps yt-dlp's stderr text to a FailureClass, since go-ytdlp
// surfaces failures as a generic error wrapping the process's stderr rather
// than typed error values.
func classifyRunError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "sign in") || strings.Contains(msg, "login required") || strings.Contains(msg, "private video"):
		return &CaptureError{Class: FailureAuthRequired, Err: err}
	case strings.Contains(msg, "age"):
		return &CaptureError{Class: FailureAgeRestricted, Err: err}
	case strings.Contains(msg, "unsupported url") || strings.Contains(msg, "no extractor"):
		return &CaptureError{Class: FailureUnsupportedURL, Err: err}
	case strings.Contains(msg, "timed out") || strings.Contains(msg, "timeout"):
		return &CaptureError{Class: FailureTimeout, Err: err}
	default:
		return &CaptureError{Class: FailureNetwork, Err: err}
	}
}
