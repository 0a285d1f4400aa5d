// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// galleryPlatformHandler delegates entirely to the gallery-capture
// capability: Imgur's plain image/album pages fit this shape exactly.
type galleryPlatformHandler struct {
	id      string
	domains []string
	gallery GalleryCapturer
}

func newGalleryPlatformHandler(id string, domains []string, g GalleryCapturer) *galleryPlatformHandler {
	return &galleryPlatformHandler{id: id, domains: domains, gallery: g}
}

func (h *galleryPlatformHandler) ID() string { return h.id }

func (h *galleryPlatformHandler) Matches(u *url.URL) bool {
	return matchesAnyDomain(u, h.domains)
}

func (h *galleryPlatformHandler) Normalize(ctx context.Context, rawURL string) (string, error) {
	return rawURL, nil
}

func (h *galleryPlatformHandler) Archive(ctx context.Context, rawURL, workdir, cookiesPath string) (Capture, error) {
	gc, err := h.gallery.Download(ctx, rawURL, workdir, cookiesPath)
	if err != nil {
		return Capture{}, fmt.Errorf("%s: %w", h.id, err)
	}

	class := ClassImage
	if len(gc.Images) > 1 {
		class = ClassGallery
	}

	var extras []string
	var metadataPath string
	for i, img := range gc.Images {
		if i == 0 {
			metadataPath = img.MetadataPath
			continue
		}
		extras = append(extras, img.Path)
		if img.MetadataPath != "" {
			extras = append(extras, img.MetadataPath)
		}
	}

	return Capture{
		PrimaryPath:  gc.PrimaryHint,
		MetadataPath: metadataPath,
		ExtraFiles:   extras,
		Class:        class,
		Platform:     h.id,
		CapturedAt:   time.Now(),
	}, nil
}
