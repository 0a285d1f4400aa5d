// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package gallery

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"forumvault/internal/config"
)

func TestCollectImages_PairsSidecarMetadataAndSortsDeterministically(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "imgur")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	write(t, filepath.Join(sub, "002.png"), "b")
	write(t, filepath.Join(sub, "001.jpg"), "a")
	write(t, filepath.Join(sub, "001.jpg.json"), "{}")
	write(t, filepath.Join(dir, "notes.txt"), "ignored")

	images, err := collectImages(dir)
	if err != nil {
		t.Fatalf("collectImages: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d: %+v", len(images), images)
	}
	if images[0].Path != filepath.Join(sub, "001.jpg") {
		t.Fatalf("expected sorted order, got %+v", images)
	}
	if images[0].MetadataPath == "" {
		t.Fatalf("expected sidecar metadata to be paired")
	}
	if images[1].MetadataPath != "" {
		t.Fatalf("expected no sidecar metadata for 002.png")
	}
}

func TestCollectImages_ReturnsEmptyWhenNoImages(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "readme.txt"), "x")
	images, err := collectImages(dir)
	if err != nil {
		t.Fatalf("collectImages: %v", err)
	}
	if len(images) != 0 {
		t.Fatalf("expected no images, got %+v", images)
	}
}

func TestDownload_ErrNoImagesWhenBinarySucceedsButProducesNothing(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake binary script is POSIX shell")
	}
	dir := t.TempDir()
	fakeBin := writeFakeBinary(t, dir, "#!/bin/sh\nexit 0\n")

	c := New(config.GalleryConfig{BinaryPath: fakeBin, Timeout: 5 * time.Second})
	_, err := c.Download(context.Background(), "https://example.com/gallery/1", filepath.Join(dir, "work"), "")
	if err != ErrNoImages {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}
}

func TestDownload_WrapsNonZeroExitWithStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake binary script is POSIX shell")
	}
	dir := t.TempDir()
	fakeBin := writeFakeBinary(t, dir, "#!/bin/sh\necho 'boom' >&2\nexit 1\n")

	c := New(config.GalleryConfig{BinaryPath: fakeBin, Timeout: 5 * time.Second})
	_, err := c.Download(context.Background(), "https://example.com/gallery/1", filepath.Join(dir, "work"), "")
	if err == nil {
		t.Fatalf("expected an error for non-zero exit")
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeFakeBinary(t *testing.T, dir, script string) string {
	t.Helper()
	path := filepath.Join(dir, "fake-gallery-dl.sh")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	return path
}
