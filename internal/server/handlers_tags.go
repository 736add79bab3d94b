package server

import (
	"net/http"
	"strings"

	"assetcatalog/internal/constants"
	"assetcatalog/internal/database"
)

// handleTags implements GET /api/tags: a paginated, count-sorted listing of
// every known tag, optionally filtered by a name-contains query param.
func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	all, err := database.ListTagsWithCounts(s.app.DB())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	if filter := strings.TrimSpace(r.URL.Query().Get("name_contains")); filter != "" {
		filtered := all[:0:0]
		lower := strings.ToLower(filter)
		for _, tc := range all {
			if strings.Contains(strings.ToLower(tc.Name), lower) {
				filtered = append(filtered, tc)
			}
		}
		all = filtered
	}

	limit, offset := parsePageParams(r, constants.DefaultTagPageSize, constants.MaxTagPageSize)
	total := len(all)
	end := offset + limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}
	page := all[offset:end]

	WriteSuccess(w, map[string]any{
		"tags":     page,
		"total":    total,
		"has_more": end < total,
	})
}
