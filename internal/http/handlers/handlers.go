// Package handlers wires the HTTP surface to the service layer. Each
// handler owns a chi sub-router mounted from main.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/NishanKutu/ghumfir-api/internal/http/response"

	"github.com/go-chi/chi/v5"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// parsePagination reads limit/offset from the query string, clamping to
// sane bounds.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// urlID parses the {id} route parameter.
func urlID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// serviceError translates service-layer errors into HTTP replies. The
// service wraps every failure with a short human-readable prefix, which
// is what gets matched here.
func serviceError(w http.ResponseWriter, err error) {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "validation failed"):
		response.BadRequest(w, msg)
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no rows"):
		response.NotFound(w, msg)
	case strings.Contains(msg, "already exists"), strings.Contains(msg, "already taken"),
		strings.Contains(msg, "already verified"):
		response.Conflict(w, msg)
	case strings.Contains(msg, "invalid credentials"), strings.Contains(msg, "invalid or expired"):
		response.Unauthorized(w, msg)
	case strings.Contains(msg, "not verified"):
		response.WriteError(w, http.StatusForbidden, msg, response.CodeNotVerified)
	case strings.Contains(msg, "belong to you"), strings.Contains(msg, "your own"),
		strings.Contains(msg, "administrator"):
		response.Forbidden(w, msg)
	case strings.Contains(msg, "not open for booking"), strings.Contains(msg, "not awaiting payment"),
		strings.Contains(msg, "only pending"), strings.Contains(msg, "no longer pending"),
		strings.Contains(msg, "at most"), strings.Contains(msg, "must"):
		response.BadRequest(w, msg)
	default:
		response.InternalError(w, "internal server error")
	}
}
