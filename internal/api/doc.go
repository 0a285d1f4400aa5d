// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api serves the read-only browse/search JSON API and the
// operator reset/rearchive admin routes over the Local Store.
//
// Routing follows the teacher's chi_router.go: route groups under
// /api/v1, a distinct middleware chain per group (CORS, go-chi/httprate,
// security headers, Prometheus instrumentation), and chi.URLParam for
// path parameters. /metrics is mounted via promhttp.Handler and
// /swagger/* via httpSwagger.Handler, same as the teacher, though the
// OpenAPI document here is a small hand-written JSON file rather than
// one generated by swag annotations - this package has too few routes
// to justify running the generator even if it were available.
//
// Server implements suture.Service (Serve/String) so it is registered
// under the maintenance supervisor alongside the Backup Scheduler; an
// admin-reset or rearchive request never blocks or is blocked by the
// worker pool, only by its own http.Server.
package api
