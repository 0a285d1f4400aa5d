// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package monolith wraps the `monolith` binary: a self-contained-HTML
// capture alternative to the browser-capture capability's own MHTML output
// (spec §6.3.3, gated independently by MONOLITH_ENABLED). Like
// internal/capture/gallery, no Go library exists for this external tool, so
// it is a thin os/exec subprocess wrapper.
package monolith
