// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"forumvault/internal/store"
	"forumvault/internal/validation"
)

// listArchivesRequest validates the browse endpoint's query parameters
// against the archive status enum and sane pagination bounds.
type listArchivesRequest struct {
	Status string `validate:"omitempty,oneof=pending processing complete failed skipped auth_required"`
	Domain string
	Limit  int `validate:"min=0,max=200"`
	Offset int `validate:"min=0"`
}

// listArchives handles GET /api/v1/archives, a paginated browse of every
// archived item optionally filtered by ?status= and/or ?domain=.
func (s *Server) listArchives(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := listArchivesRequest{
		Status: q.Get("status"),
		Domain: q.Get("domain"),
		Limit:  atoiOrZero(q.Get("limit")),
		Offset: atoiOrZero(q.Get("offset")),
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		writeError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message)
		return
	}

	filter := store.ArchiveListFilter{
		Status: req.Status,
		Domain: req.Domain,
		Limit:  req.Limit,
		Offset: req.Offset,
	}

	archives, err := s.store.ListArchives(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errCodeInternal, "failed to list archives")
		return
	}

	writeSuccess(w, toArchiveDTOs(archives), &meta{Count: len(archives), Limit: filter.Limit, Offset: filter.Offset})
}

// searchArchives handles GET /api/v1/archives/search?q=..., a full-text
// query over title/author/description/extracted_text ranked by FTS5
// relevance.
type searchArchivesRequest struct {
	Query string `validate:"required"`
	Limit int    `validate:"min=0,max=200"`
}

func (s *Server) searchArchives(w http.ResponseWriter, r *http.Request) {
	req := searchArchivesRequest{
		Query: r.URL.Query().Get("q"),
		Limit: atoiOrZero(r.URL.Query().Get("limit")),
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		writeError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message)
		return
	}

	archives, err := s.store.SearchArchives(r.Context(), req.Query, req.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errCodeInternal, "search failed")
		return
	}

	writeSuccess(w, toArchiveDTOs(archives), &meta{Count: len(archives), Limit: req.Limit})
}

// getArchive handles GET /api/v1/archives/{id}, returning the archive's
// metadata alongside every stored artifact and its job step history.
func (s *Server) getArchive(w http.ResponseWriter, r *http.Request) {
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

	artifacts, err := s.store.ArtifactsForArchive(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errCodeInternal, "failed to load artifacts")
		return
	}
	steps, err := s.store.JobStepsForArchive(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errCodeInternal, "failed to load job steps")
		return
	}

	writeSuccess(w, archiveDetail{
		archiveDTO: toArchiveDTO(archive),
		Artifacts:  toArtifactDTOs(artifacts),
		JobSteps:   toJobStepDTOs(steps),
	}, nil)
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
