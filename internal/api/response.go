// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// response is the standardized envelope for every endpoint in this
// package, grounded on the teacher's APIResponse.
type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
	Meta    *meta       `json:"meta,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type meta struct {
	Timestamp time.Time   `json:"timestamp"`
	Count     int         `json:"count,omitempty"`
	Limit     int         `json:"limit,omitempty"`
	Offset    int         `json:"offset,omitempty"`
}

const (
	errCodeBadRequest   = "BAD_REQUEST"
	errCodeUnauthorized = "UNAUTHORIZED"
	errCodeNotFound     = "NOT_FOUND"
	errCodeInternal     = "INTERNAL_ERROR"
)

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, data interface{}, m *meta) {
	if m == nil {
		m = &meta{Timestamp: time.Now()}
	} else {
		m.Timestamp = time.Now()
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: data, Meta: m})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, response{
		Success: false,
		Error:   &apiError{Code: code, Message: message},
		Meta:    &meta{Timestamp: time.Now()},
	})
}
