// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"forumvault/internal/config"
	"forumvault/internal/logging"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".avif": true,
}

// Image is one captured file plus its sidecar metadata JSON, if gallery-dl
// wrote one (--write-metadata).
type Image struct {
	Path         string
	MetadataPath string
}

// Capture is the result of a successful Download: every image pulled from
// the gallery, in the order gallery-dl wrote them, with PrimaryHint set to
// the first one as the best-effort "representative" file (spec §6.3.2).
type Capture struct {
	Images      []Image
	PrimaryHint string
}

// ErrNoImages is returned when gallery-dl exits zero but the workdir holds
// no recognizable image file.
var ErrNoImages = errors.New("gallery: no image files produced")

// Capturer wraps the gallery-dl binary.
type Capturer struct {
	cfg config.GalleryConfig
}

// New builds a Capturer from gallery-capture configuration.
func New(cfg config.GalleryConfig) *Capturer {
	return &Capturer{cfg: cfg}
}

// Download runs gallery-dl against url, writing every file into dir.
// cookiesPath, when non-empty, is passed via --cookies.
func (c *Capturer) Download(ctx context.Context, url, dir, cookiesPath string) (Capture, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Capture{}, fmt.Errorf("gallery: create workdir: %w", err)
	}

	binary := c.cfg.BinaryPath
	if binary == "" {
		binary = "gallery-dl"
	}

	args := []string{
		"--dest", dir,
		"--write-metadata",
		"--no-mtime",
	}
	if cookiesPath != "" {
		args = append(args, "--cookies", cookiesPath)
	}
	args = append(args, url)

	timeout := c.cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Capture{}, fmt.Errorf("gallery: capture of %s timed out after %s", url, timeout)
	}
	if err != nil {
		return Capture{}, fmt.Errorf("gallery: gallery-dl failed for %s: %w: %s", url, err, strings.TrimSpace(stderr.String()))
	}

	images, err := collectImages(dir)
	if err != nil {
		return Capture{}, err
	}
	if len(images) == 0 {
		return Capture{}, ErrNoImages
	}

	logging.Info().Str("url", url).Int("image_count", len(images)).Msg("gallery: capture complete")
	return Capture{Images: images, PrimaryHint: images[0].Path}, nil
}

// collectImages walks dir (gallery-dl nests output under per-extractor
// subdirectories) and pairs each image file with its sidecar .json metadata
// file, if present, sorted by path for a deterministic PrimaryHint.
func collectImages(dir string) ([]Image, error) {
	var images []Image
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !imageExtensions[ext] {
			return nil
		}
		img := Image{Path: path}
		if meta := path + ".json"; fileExists(meta) {
			img.MetadataPath = meta
		}
		images = append(images, img)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gallery: walk workdir: %w", err)
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Path < images[j].Path })
	return images, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
