// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBrowserCookies_EmptyPathYieldsNil(t *testing.T) {
	if got := loadBrowserCookies(""); got != nil {
		t.Fatalf("expected nil for empty path, got %v", got)
	}
}

func TestLoadBrowserCookies_MissingFileYieldsNil(t *testing.T) {
	if got := loadBrowserCookies(filepath.Join(t.TempDir(), "missing.txt")); got != nil {
		t.Fatalf("expected nil for a missing file, got %v", got)
	}
}

func TestLoadBrowserCookies_ParsesNetscapeFormatSkippingCommentsAndBlankLines(t *testing.T) {
	content := "# Netscape HTTP Cookie File\n\n" +
		".example.com\tTRUE\t/\tFALSE\t0\tsession\tabc123\n" +
		"example.com\tFALSE\t/login\tTRUE\t0\tauth\tdeadbeef\n"
	path := filepath.Join(t.TempDir(), "cookies.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cookies := loadBrowserCookies(path)
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	if cookies[0].Domain != ".example.com" || cookies[0].Name != "session" || cookies[0].Value != "abc123" {
		t.Fatalf("unexpected first cookie: %+v", cookies[0])
	}
	if cookies[1].Path != "/login" || cookies[1].Name != "auth" || cookies[1].Value != "deadbeef" {
		t.Fatalf("unexpected second cookie: %+v", cookies[1])
	}
}

func TestLoadBrowserCookies_SkipsMalformedLines(t *testing.T) {
	content := "not\tenough\tfields\n.example.com\tTRUE\t/\tFALSE\t0\tsession\tabc123\n"
	path := filepath.Join(t.TempDir(), "cookies.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cookies := loadBrowserCookies(path)
	if len(cookies) != 1 {
		t.Fatalf("expected malformed line to be skipped, got %d cookies", len(cookies))
	}
}
