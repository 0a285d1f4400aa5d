// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bandwidth chooses a video download quality cap before any bytes
// are fetched, per the adaptive-quality decision in spec §4.5: handlers
// probe metadata only once, then ask this package how much to ask yt-dlp
// for, so a long low-bitrate stream doesn't pull a needless 4K master.
package bandwidth

import (
	"strconv"
	"time"
)

// Cap is a video-capture capability quality ceiling, passed through to the
// format selector as a `height<=N` constraint. CapNone means "no cap, take
// the best available".
type Cap int

const (
	CapNone Cap = 0
	Cap1080 Cap = 1080
	Cap720  Cap = 720
)

func (c Cap) String() string {
	switch c {
	case CapNone:
		return "none"
	case Cap1080:
		return "1080p"
	case Cap720:
		return "720p"
	default:
		return "unknown"
	}
}

// Policy holds the thresholds used by Decide. The zero value is not usable;
// construct with DefaultPolicy or load from config.
type Policy struct {
	// ShortDuration videos keep native resolution up to 1080p regardless
	// of bitrate.
	ShortDuration time.Duration
	// LowBitrateKbps is the average-bitrate threshold below which a long
	// video is still allowed up to 1080p.
	LowBitrateKbps int
	// MaxDuration is the absolute ceiling; videos longer than this are
	// skipped rather than capped.
	MaxDuration time.Duration
}

// DefaultPolicy matches spec §4.5's key decision: short clips keep native
// resolution, long-and-quiet videos get 1080p, long-and-normal videos get
// 720p, and anything past three hours is skipped outright.
func DefaultPolicy() Policy {
	return Policy{
		ShortDuration:  20 * time.Minute,
		LowBitrateKbps: 2000,
		MaxDuration:    3 * time.Hour,
	}
}

// Decision is the outcome of Decide: either a cap to pass to the
// video-capture capability, or Skip with a reason recorded as the
// archive's failure classification.
type Decision struct {
	Cap        Cap
	Skip       bool
	SkipReason string
}

// Decide chooses a quality cap from probed metadata — duration and average
// bitrate in kbps (0 if the source didn't report one). It never touches the
// network; callers must have already fetched metadata-only.
func (p Policy) Decide(duration time.Duration, avgBitrateKbps int) Decision {
	if duration > p.MaxDuration {
		return Decision{Skip: true, SkipReason: "duration exceeds maximum archivable length"}
	}
	if duration <= p.ShortDuration {
		return Decision{Cap: Cap1080}
	}
	if avgBitrateKbps > 0 && avgBitrateKbps < p.LowBitrateKbps {
		return Decision{Cap: Cap1080}
	}
	return Decision{Cap: Cap720}
}

// FormatSelector renders the cap as a yt-dlp format-selector fragment (e.g.
// "best[height<=1080]"), or "best" for CapNone.
func (c Cap) FormatSelector() string {
	if c == CapNone {
		return "best"
	}
	h := strconv.Itoa(int(c))
	return "bestvideo[height<=" + h + "]+bestaudio/best[height<=" + h + "]"
}
