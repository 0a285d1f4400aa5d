// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"forumvault/internal/logging"
	"forumvault/internal/store"
)

// resetArchive handles POST /api/v1/admin/archives/{id}/reset, requeuing
// an auth_required archive back to pending once an operator has fixed the
// handler's cookies/credentials (spec §4.4, §7).
func (s *Server) resetArchive(w http.ResponseWriter, r *http.Request) {
	s.requeueWithStatusCheck(w, r, store.StatusAuthRequired)
}

// rearchiveArchive handles POST /api/v1/admin/archives/{id}/rearchive,
// forcing a complete archive back through the pipeline - the
// SUPPLEMENTED FEATURES "force rearchive" admin action.
func (s *Server) rearchiveArchive(w http.ResponseWriter, r *http.Request) {
	s.requeueWithStatusCheck(w, r, store.StatusComplete)
}

func (s *Server) requeueWithStatusCheck(w http.ResponseWriter, r *http.Request, requiredStatus string) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "invalid archive id")
		return
	}

	archive, err := s.store.GetArchive(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, errCodeNotFound, "archive not found")
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, errCodeInternal, "failed to load archive")
		return
	}
	if archive.Status != requiredStatus {
		writeError(w, http.StatusConflict, "CONFLICT", "archive status is "+archive.Status+", expected "+requiredStatus)
		return
	}

	if err := s.store.Requeue(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, errCodeInternal, "failed to requeue archive")
		return
	}

	logging.Info().Int64("archive_id", id).Str("from_status", requiredStatus).Msg("api: operator requeued archive")
	archive.Status = store.StatusPending
	writeSuccess(w, toArchiveDTO(archive), nil)
}
