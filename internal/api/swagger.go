// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "net/http"

// swaggerDoc is a hand-written OpenAPI 2.0 document describing this
// package's routes. swag's annotation-driven generator produces the
// teacher's doc.json from source comments; this package has too few
// endpoints to warrant running that generator, so the document is
// maintained by hand instead and served the same way: httpSwagger
// resolves /swagger/doc.json on its own.
const swaggerDoc = `{
  "swagger": "2.0",
  "info": {
    "title": "forumvault archive API",
    "description": "Read-only browse/search over archived links, plus operator reset/rearchive actions.",
    "version": "1.0"
  },
  "basePath": "/api/v1",
  "paths": {
    "/archives": {
      "get": {
        "summary": "List archives, newest first",
        "parameters": [
          {"name": "status", "in": "query", "type": "string"},
          {"name": "domain", "in": "query", "type": "string"},
          {"name": "limit", "in": "query", "type": "integer"},
          {"name": "offset", "in": "query", "type": "integer"}
        ],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/archives/search": {
      "get": {
        "summary": "Full-text search over title/author/description/extracted text",
        "parameters": [
          {"name": "q", "in": "query", "type": "string", "required": true},
          {"name": "limit", "in": "query", "type": "integer"}
        ],
        "responses": {"200": {"description": "OK"}, "400": {"description": "missing q"}}
      }
    },
    "/archives/{id}": {
      "get": {
        "summary": "Get an archive with its artifacts and job step history",
        "parameters": [{"name": "id", "in": "path", "type": "integer", "required": true}],
        "responses": {"200": {"description": "OK"}, "404": {"description": "not found"}}
      }
    },
    "/admin/archives/{id}/reset": {
      "post": {
        "summary": "Requeue an auth_required archive back to pending",
        "security": [{"bearerAuth": []}],
        "parameters": [{"name": "id", "in": "path", "type": "integer", "required": true}],
        "responses": {"200": {"description": "OK"}, "409": {"description": "wrong status"}}
      }
    },
    "/admin/archives/{id}/rearchive": {
      "post": {
        "summary": "Force a complete archive back through the pipeline",
        "security": [{"bearerAuth": []}],
        "parameters": [{"name": "id", "in": "path", "type": "integer", "required": true}],
        "responses": {"200": {"description": "OK"}, "409": {"description": "wrong status"}}
      }
    }
  },
  "securityDefinitions": {
    "bearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
  }
}`

func serveSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(swaggerDoc))
}
