package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"assetcatalog/internal/catalogerr"
)

// ownerHeader carries the caller-supplied opaque owner id; this catalog
// performs no authentication (§1 Out of scope), so it trusts whatever the
// caller sets here, defaulting to "" (public).
const ownerHeader = "X-Owner-Id"

func ownerFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(ownerHeader))
}

// decodeJSONBody decodes r's body into v, returning an INVALID_JSON
// ServiceError on failure.
func decodeJSONBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return catalogerr.ErrInvalidJSON.WithDetails(map[string]any{"reason": err.Error()})
	}
	return nil
}

// parsePageParams extracts limit/offset from query params, clamping limit
// to [1, max] and defaulting to def when absent or unparsable.
func parsePageParams(r *http.Request, def, max int) (limit, offset int) {
	limit = def
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > max {
		limit = max
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// splitCSV splits a comma-separated query parameter into a normalized,
// non-empty token list.
func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// pathTail returns the path segment(s) after prefix, trimmed of slashes.
func pathTail(r *http.Request, prefix string) string {
	return strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
}
