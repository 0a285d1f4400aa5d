// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const genericTestHTML = `<html><head>
<title>Plain Title</title>
<meta property="og:title" content="OG Title">
<meta property="og:description" content="OG description text">
<meta name="author" content="Jane Doe">
</head><body><script>ignored();</script><p>Hello world, this is the body text.</p></body></html>`

func TestExtractPageMeta_PrefersOpenGraphOverPlainTags(t *testing.T) {
	title, description, author, text := extractPageMeta([]byte(genericTestHTML))
	if title != "OG Title" {
		t.Errorf("title = %q, want OG Title", title)
	}
	if description != "OG description text" {
		t.Errorf("description = %q", description)
	}
	if author != "Jane Doe" {
		t.Errorf("author = %q", author)
	}
	if strings.Contains(text, "ignored()") {
		t.Errorf("expected script contents stripped from text, got %q", text)
	}
	if !strings.Contains(text, "Hello world") {
		t.Errorf("expected body text present, got %q", text)
	}
}

func TestExtractPageMeta_FallsBackToPlainTitleWhenNoOpenGraph(t *testing.T) {
	html := `<html><head><title>Only Plain</title></head><body>text</body></html>`
	title, _, _, _ := extractPageMeta([]byte(html))
	if title != "Only Plain" {
		t.Errorf("title = %q, want Only Plain", title)
	}
}

func TestGenericHandler_Archive_WritesPageAndExtractsMetadata(t *testing.T) {
	h := newGenericHandler()
	h.httpClient = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		resp := jsonResponse(genericTestHTML)
		resp.StatusCode = http.StatusOK
		return resp, nil
	})}

	dir := t.TempDir()
	capture, err := h.Archive(context.Background(), "https://example.com/thread/1", dir, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capture.Title != "OG Title" || capture.HTTPStatus != http.StatusOK || capture.Class != ClassText {
		t.Fatalf("unexpected capture: %+v", capture)
	}
	if _, err := os.Stat(filepath.Join(dir, "page.html")); err != nil {
		t.Fatalf("expected page.html written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "text.txt")); err != nil {
		t.Fatalf("expected text.txt written: %v", err)
	}
}

func TestGenericHandler_Matches_AlwaysFalse(t *testing.T) {
	h := newGenericHandler()
	if h.Matches(mustParse(t, "https://anything.example.com")) {
		t.Fatal("generic handler must never match")
	}
}
