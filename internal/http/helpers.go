package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finsight/internal/analytics"
	"finsight/internal/core"
	"finsight/internal/log"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// userIDFrom extracts the caller identity. The X-User-ID header wins; the
// user_id query parameter is the fallback for plain-browser use.
func userIDFrom(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("user_id"))
}

// periodFrom resolves the requested reporting window. Unknown or missing
// period values fall back to monthly rather than erroring.
func periodFrom(r *http.Request) core.Period {
	return core.ParsePeriod(r.URL.Query().Get("period"))
}

// paginationFrom parses page and page_size with defaults and caps.
func paginationFrom(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = defaultPageSize

	if v := strings.TrimSpace(r.URL.Query().Get("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("page_size")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// writeJSON marshals v with the JSON content type and the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeEngineError maps the engine's two failure classes onto HTTP statuses:
// caller misuse is 400, ledger trouble is 502, timeouts are 504.
func writeEngineError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case analytics.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		slog.ErrorContext(ctx, "Query timed out", log.FieldError, err)
		writeError(w, http.StatusGatewayTimeout, "query timed out")
	case analytics.IsInfrastructure(err):
		slog.ErrorContext(ctx, "Ledger query failed", log.FieldError, err)
		writeError(w, http.StatusBadGateway, "analytics backend unavailable")
	default:
		slog.ErrorContext(ctx, "Request failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// requireGet rejects everything but GET.
func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
