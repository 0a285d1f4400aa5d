// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package monolith

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"forumvault/internal/config"
	"forumvault/internal/logging"
)

// ErrDisabled is returned by Download when the capability is not enabled,
// so callers can treat it the same as any other skipped-artifact outcome.
var ErrDisabled = errors.New("monolith: capability disabled")

// Capturer wraps the monolith binary.
type Capturer struct {
	cfg     config.MonolithConfig
	enabled bool
}

// New builds a Capturer. enabled mirrors BrowserConfig.MonolithEnabled,
// since the capability is gated by that flag even though it has its own
// binary/timeout configuration.
func New(cfg config.MonolithConfig, enabled bool) *Capturer {
	return &Capturer{cfg: cfg, enabled: enabled}
}

// Download runs monolith against url, writing a single self-contained HTML
// file into dir. cookiesPath, when non-empty, is passed via -c.
func (c *Capturer) Download(ctx context.Context, url, dir, cookiesPath string) (string, error) {
	if !c.enabled {
		return "", ErrDisabled
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("monolith: create workdir: %w", err)
	}

	binary := c.cfg.BinaryPath
	if binary == "" {
		binary = "monolith"
	}
	outPath := filepath.Join(dir, "page.html")

	args := []string{"-o", outPath}
	if cookiesPath != "" {
		args = append(args, "-c", cookiesPath)
	}
	args = append(args, url)

	timeout := c.cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("monolith: capture of %s timed out after %s", url, timeout)
	}
	if err != nil {
		return "", fmt.Errorf("monolith: failed for %s: %w: %s", url, err, strings.TrimSpace(stderr.String()))
	}
	if info, statErr := os.Stat(outPath); statErr != nil || info.Size() == 0 {
		return "", fmt.Errorf("monolith: produced no output for %s", url)
	}

	logging.Info().Str("url", url).Str("path", outPath).Msg("monolith: capture complete")
	return outPath, nil
}
