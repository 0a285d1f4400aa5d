// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validation provides struct validation using go-playground/validator
// v10, wrapping a thread-safe singleton validator with error translation into
// this system's API error format.
//
// # Quick start
//
//	type ListArchivesRequest struct {
//	    Limit  int    `validate:"min=1,max=1000"`
//	    Offset int    `validate:"min=0,max=1000000"`
//	    Status string `validate:"omitempty,oneof=pending processing complete failed skipped auth_required"`
//	}
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    var req ListArchivesRequest
//	    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
//	        // handle decode error
//	    }
//	    if verr := validation.ValidateStruct(&req); verr != nil {
//	        apiErr := verr.ToAPIError()
//	        respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	        return
//	    }
//	    // proceed with a valid request
//	}
//
// # Common validation tags
//
// String: required, min=n, max=n, email, url, base64url.
// Numeric: gte=n, lte=n, gt=n, lt=n, min=n, max=n.
// Enum: oneof=a b c.
//
// # Thread safety
//
// GetValidator and ValidateStruct are safe for concurrent use; the
// underlying validator.Validate caches struct reflection info across calls.
//
// # See also
//
//   - internal/api: query-parameter validation for the read-only JSON API
//   - internal/config: startup configuration validation (hand-written, not
//     validator-tag-based — see config.Validate)
package validation
