// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"forumvault/internal/handlers"
	"forumvault/internal/logging"
	"forumvault/internal/metrics"
	"forumvault/internal/store"
)

func sqlNullInt64(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: true}
}

// process runs the per-archive pipeline of spec §4.4 steps 2-9: isolated
// workdir, handler resolution and capture, browser-capability artifacts,
// upload and artifact bookkeeping, then the state machine transition.
func (p *Pool) process(ctx context.Context, archive store.Archive, domain string) {
	started := time.Now()

	link, err := p.deps.Store.GetLink(ctx, archive.LinkID)
	if err != nil {
		logging.Error().Err(err).Int64("archive_id", archive.ID).Msg("worker: load link failed")
		p.markFailed(ctx, archive, err)
		return
	}

	dir, err := p.workRoot(archive.ID)
	if err != nil {
		logging.Error().Err(err).Int64("archive_id", archive.ID).Msg("worker: create workdir failed")
		p.markFailed(ctx, archive, err)
		return
	}
	defer os.RemoveAll(dir) //nolint:errcheck // isolation cleanup is best-effort, never blocks the transition

	parsed, err := url.Parse(link.NormalizedURL)
	if err != nil {
		p.markSkipped(ctx, archive, "unparseable url: "+err.Error())
		metrics.RecordArchiveOutcome("none", "skipped", time.Since(started))
		return
	}

	handler := p.deps.Registry.Resolve(parsed)
	cookiesPath := p.cookies.FilePath

	normalizedURL, err := handler.Normalize(ctx, link.NormalizedURL)
	if err != nil {
		p.markFailed(ctx, archive, err)
		metrics.RecordArchiveOutcome(handler.ID(), "failed", time.Since(started))
		return
	}

	var capture handlers.Capture
	admitErr := p.breakers.admit(ctx, domain, func(ctx context.Context) error {
		var captureErr error
		capture, captureErr = handler.Archive(ctx, normalizedURL, dir, cookiesPath)
		return captureErr
	})
	if admitErr != nil {
		p.finishWithError(ctx, archive, handler.ID(), admitErr, started)
		return
	}

	p.captureBrowserArtifacts(ctx, archive.ID, normalizedURL, dir, cookiesPath)

	p.finishComplete(ctx, archive, handler.ID(), capture, dir, started, link.NormalizedURL)
}

// finishWithError classifies a capture failure and applies the
// corresponding state machine transition.
func (p *Pool) finishWithError(ctx context.Context, archive store.Archive, handlerID string, err error, started time.Time) {
	switch classifyError(err) {
	case outcomeAuthRequired:
		p.markAuthRequired(ctx, archive, err)
		metrics.RecordArchiveOutcome(handlerID, "auth_required", time.Since(started))
	case outcomeSkipped:
		p.markSkipped(ctx, archive, err.Error())
		metrics.RecordArchiveOutcome(handlerID, "skipped", time.Since(started))
	default:
		p.markFailed(ctx, archive, err)
		metrics.RecordArchiveOutcome(handlerID, "failed", time.Since(started))
	}
}

// captureBrowserArtifacts requests the browser-produced whole-page
// artifacts spec §4.5 says every handler additionally gets, regardless of
// which site handler ran, plus the monolith self-contained HTML capture.
// Failures here are logged, never escalated: these are supplementary
// artifacts, not the archive's primary capture.
func (p *Pool) captureBrowserArtifacts(ctx context.Context, archiveID int64, rawURL, dir, cookiesPath string) {
	if p.deps.Browser != nil && (p.browser.ScreenshotEnabled || p.browser.PDFEnabled || p.browser.MHTMLEnabled) {
		started := time.Now()
		stepID, _ := p.deps.Store.StartJobStep(ctx, archiveID, store.JobStepScreenshot, started)
		cookies := loadBrowserCookies(cookiesPath)
		browserDir := filepath.Join(dir, "browser")
		capture, err := p.deps.Browser.Download(ctx, rawURL, browserDir, cookies)
		status := store.JobStepOK
		errMsg := ""
		if err != nil {
			status, errMsg = store.JobStepFailed, err.Error()
			metrics.RecordCapture("browser", time.Since(started), "capture_error")
		} else {
			metrics.RecordCapture("browser", time.Since(started), "")
			p.uploadRenderArtifact(ctx, archiveID, store.ArtifactScreenshot, capture.ScreenshotPath, "screenshot.jpg")
			p.uploadRenderArtifact(ctx, archiveID, store.ArtifactPDF, capture.PDFPath, "page.pdf")
			p.uploadRenderArtifact(ctx, archiveID, store.ArtifactMHTML, capture.MHTMLPath, "page.mhtml")
		}
		if stepID != 0 {
			_ = p.deps.Store.FinishJobStep(ctx, stepID, status, errMsg, time.Now())
		}
	}

	if p.deps.Monolith != nil && p.browser.MonolithEnabled {
		started := time.Now()
		stepID, _ := p.deps.Store.StartJobStep(ctx, archiveID, store.JobStepMonolith, started)
		monolithPath, err := p.deps.Monolith.Download(ctx, rawURL, filepath.Join(dir, "monolith"), cookiesPath)
		status := store.JobStepOK
		errMsg := ""
		if err != nil {
			status, errMsg = store.JobStepFailed, err.Error()
			metrics.RecordCapture("monolith", time.Since(started), "capture_error")
		} else {
			metrics.RecordCapture("monolith", time.Since(started), "")
			p.uploadRenderArtifact(ctx, archiveID, store.ArtifactCompleteHTML, monolithPath, "complete.html")
		}
		if stepID != 0 {
			_ = p.deps.Store.FinishJobStep(ctx, stepID, status, errMsg, time.Now())
		}
	}
}

// uploadRenderArtifact uploads an optional whole-page artifact under the
// render/ prefix of spec §4.6's key layout. path may be empty when the
// corresponding artifact was disabled or not produced; that is routine,
// not an error.
func (p *Pool) uploadRenderArtifact(ctx context.Context, archiveID int64, kind, path, name string) {
	if path == "" {
		return
	}
	if _, _, err := p.uploadArtifact(ctx, archiveID, kind, path, renderKey(archiveID, name)); err != nil {
		logging.Warn().Err(err).Int64("archive_id", archiveID).Str("kind", kind).Msg("worker: upload render artifact failed")
	}
}

// finishComplete uploads every produced file, resolves video dedup,
// transitions the archive to complete, and finally (spec §5's ordering
// guarantee: "database update → submitter") hands the original URL to the
// External Archive Submitters. Submission runs synchronously as the last
// pipeline step and never affects the archive's own outcome.
func (p *Pool) finishComplete(ctx context.Context, archive store.Archive, handlerID string, capture handlers.Capture, dir string, started time.Time, rawURL string) {
	uploadStepID, _ := p.deps.Store.StartJobStep(ctx, archive.ID, store.JobStepUpload, time.Now())

	params := store.CompleteArchiveParams{
		Title:       capture.Title,
		Author:      capture.Author,
		Description: capture.Description,
		ContentType: string(capture.Class),
		NSFW:        capture.NSFW,
		NSFWSource:  capture.NSFWSource,
	}

	if primaryKey, err := p.uploadPrimary(ctx, archive.ID, capture); err != nil {
		logging.Warn().Err(err).Int64("archive_id", archive.ID).Msg("worker: upload primary artifact failed")
	} else {
		params.PrimaryKey = primaryKey
	}

	if capture.ThumbnailPath != "" {
		if a, ok, err := p.uploadArtifact(ctx, archive.ID, store.ArtifactThumbnail, capture.ThumbnailPath, mediaKey(archive.ID, "thumb"+filepath.Ext(capture.ThumbnailPath))); err == nil && ok {
			params.ThumbnailKey = a.ObjectKey
		}
	}
	if capture.MetadataPath != "" {
		metadataKey := metaKey(archive.ID)
		if capture.Platform != "" && capture.VideoID != "" && capture.Class == handlers.ClassVideo {
			metadataKey = videoInfoKey(capture.VideoID)
		}
		if _, _, err := p.uploadArtifact(ctx, archive.ID, store.ArtifactMetadata, capture.MetadataPath, metadataKey); err != nil {
			logging.Warn().Err(err).Int64("archive_id", archive.ID).Msg("worker: upload metadata artifact failed")
		}
	}
	for _, extra := range capture.ExtraFiles {
		kind := extraArtifactKind(extra)
		key := mediaKey(archive.ID, filepath.Base(extra))
		if _, _, err := p.uploadArtifact(ctx, archive.ID, kind, extra, key); err != nil {
			logging.Warn().Err(err).Str("file", extra).Msg("worker: upload extra artifact failed")
		}
	}
	if txt := readExtractedText(dir); txt != "" {
		params.ExtractedText = txt
		if _, _, err := p.uploadArtifact(ctx, archive.ID, store.ArtifactExtractedText, filepath.Join(dir, "text.txt"), textKey(archive.ID)); err != nil {
			logging.Warn().Err(err).Int64("archive_id", archive.ID).Msg("worker: upload extracted text artifact failed")
		}
	}

	if uploadStepID != 0 {
		_ = p.deps.Store.FinishJobStep(ctx, uploadStepID, store.JobStepOK, "", time.Now())
	}

	if err := p.deps.Store.MarkComplete(ctx, archive.ID, params); err != nil {
		logging.Error().Err(err).Int64("archive_id", archive.ID).Msg("worker: mark complete failed")
		p.markFailed(ctx, archive, err)
		metrics.RecordArchiveOutcome(handlerID, "failed", time.Since(started))
		return
	}
	if err := p.deps.Store.TouchLinkArchived(ctx, archive.LinkID, time.Now()); err != nil {
		logging.Warn().Err(err).Int64("link_id", archive.LinkID).Msg("worker: touch link archived failed")
	}

	metrics.RecordArchiveOutcome(handlerID, "complete", time.Since(started))

	if p.deps.Submit != nil {
		p.deps.Submit.SubmitAll(ctx, archive.ID, rawURL)
	}
}

// uploadPrimary handles the primary captured file, applying the video
// dedup invariant (spec §4.4 step 6) when the capture carries a
// (platform, video_id) pair.
func (p *Pool) uploadPrimary(ctx context.Context, archiveID int64, capture handlers.Capture) (string, error) {
	if capture.PrimaryPath == "" {
		return "", nil
	}

	if capture.Platform != "" && capture.VideoID != "" && capture.Class == handlers.ClassVideo {
		return p.uploadDedupedVideo(ctx, archiveID, capture)
	}

	kind := primaryArtifactKind(capture.Class)
	key := fetchKey(archiveID, "raw"+filepath.Ext(capture.PrimaryPath))
	if capture.Class == handlers.ClassVideo || capture.Class == handlers.ClassImage || capture.Class == handlers.ClassGallery {
		key = mediaKey(archiveID, "primary"+filepath.Ext(capture.PrimaryPath))
	}
	a, ok, err := p.uploadArtifact(ctx, archiveID, kind, capture.PrimaryPath, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return a.ObjectKey, nil
}

func (p *Pool) uploadDedupedVideo(ctx context.Context, archiveID int64, capture handlers.Capture) (string, error) {
	existing, err := p.deps.Store.GetVideoFile(ctx, capture.Platform, capture.VideoID)
	if err == nil {
		metrics.RecordVideoDedupeHit()
		_, err := p.deps.Store.InsertArtifact(ctx, store.Artifact{
			ArchiveID:   archiveID,
			Kind:        store.ArtifactVideo,
			ObjectKey:   existing.ObjectKey,
			ContentType: existing.ContentType,
			ByteSize:    existing.ByteSize,
			VideoFileID: sqlNullInt64(existing.ID),
			CreatedAt:   time.Now(),
		})
		if err != nil {
			return "", err
		}
		return existing.ObjectKey, nil
	}

	key := videoKey(capture.VideoID, strings.TrimPrefix(filepath.Ext(capture.PrimaryPath), "."))
	a, ok, err := p.uploadArtifact(ctx, archiveID, store.ArtifactVideo, capture.PrimaryPath, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	videoFileID, err := p.deps.Store.InsertVideoFile(ctx, store.VideoFile{
		Platform:    capture.Platform,
		VideoID:     capture.VideoID,
		ObjectKey:   key,
		MetadataKey: videoInfoKey(capture.VideoID),
		ContentType: a.ContentType,
		ByteSize:    a.ByteSize,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		// A concurrent worker may have raced us to the UNIQUE(platform,
		// video_id) constraint; the winner's row is now the canonical one.
		if existing, getErr := p.deps.Store.GetVideoFile(ctx, capture.Platform, capture.VideoID); getErr == nil {
			return existing.ObjectKey, nil
		}
		return "", err
	}

	_, err = p.deps.Store.InsertArtifact(ctx, store.Artifact{
		ArchiveID:   archiveID,
		Kind:        store.ArtifactVideo,
		ObjectKey:   key,
		ContentType: a.ContentType,
		ByteSize:    a.ByteSize,
		VideoFileID: sqlNullInt64(videoFileID),
		CreatedAt:   time.Now(),
	})
	return key, err
}

func primaryArtifactKind(class handlers.ContentClass) string {
	switch class {
	case handlers.ClassVideo:
		return store.ArtifactVideo
	case handlers.ClassImage, handlers.ClassGallery:
		return store.ArtifactImage
	default:
		return store.ArtifactRawHTML
	}
}

func extraArtifactKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt", ".vtt":
		return store.ArtifactSubtitles
	case ".json":
		return store.ArtifactMetadata
	default:
		return store.ArtifactExtractedText
	}
}

func readExtractedText(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "text.txt"))
	if err != nil {
		return ""
	}
	return string(data)
}

func (p *Pool) markFailed(ctx context.Context, archive store.Archive, err error) {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	delay := nextRetryDelay(p.cfg.RetryBaseInterval, p.cfg.RetryMaxInterval, archive.RetryCount)
	if markErr := p.deps.Store.MarkFailed(ctx, archive.ID, msg, time.Now().Add(delay), p.cfg.RetryMaxAttempts); markErr != nil {
		logging.Error().Err(markErr).Int64("archive_id", archive.ID).Msg("worker: mark failed transition failed")
	}
}

func (p *Pool) markSkipped(ctx context.Context, archive store.Archive, reason string) {
	if err := p.deps.Store.MarkSkipped(ctx, archive.ID, reason); err != nil {
		logging.Error().Err(err).Int64("archive_id", archive.ID).Msg("worker: mark skipped transition failed")
	}
}

func (p *Pool) markAuthRequired(ctx context.Context, archive store.Archive, err error) {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	if markErr := p.deps.Store.MarkAuthRequired(ctx, archive.ID, msg); markErr != nil {
		logging.Error().Err(markErr).Int64("archive_id", archive.ID).Msg("worker: mark auth_required transition failed")
	}
}
