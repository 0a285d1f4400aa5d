// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package worker implements the Archive Worker Pool (spec §4.4): the
// state machine that drives Archives from pending through processing to
// complete, failed, skipped or auth_required, under bounded global and
// per-domain concurrency.
//
// Lifecycle mirrors internal/feed's Poller (Start/Serve/Stop over a
// WaitGroup of goroutines, in the teacher's internal/sync.Manager idiom),
// generalized here to a fixed-size pool of claim loops instead of one
// fixed loop per source. Per-domain admission is additionally gated by a
// sony/gobreaker/v2 circuit breaker, grounded on the teacher's
// internal/eventprocessor/circuitbreaker.go (gobreaker.Settings wrapping)
// and internal/sync/circuit_breaker.go (state-change logging and metrics
// wiring), repurposed from per-upstream-service breakers to per-link-
// domain breakers.
package worker
