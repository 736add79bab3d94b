package catalog

import (
	"encoding/json"
	"os"
	"strings"

	"assetcatalog/internal/database"
	"assetcatalog/internal/pathutil"
)

// normalizeTags strips whitespace, lowercases, and deduplicates a tag list,
// preserving first-seen order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		n := strings.ToLower(strings.TrimSpace(t))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// PickBestLivePath returns the best on-disk path among an asset's cache
// states: a verified path that exists, else any existing path, else "".
func PickBestLivePath(states []database.AssetCacheState) string {
	var firstExisting string
	for _, s := range states {
		if !fileExists(s.FilePath) {
			continue
		}
		if firstExisting == "" {
			firstExisting = s.FilePath
		}
		if !s.NeedsVerify {
			return s.FilePath
		}
	}
	return firstExisting
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func relativeFilenameOrEmpty(path, base string) string {
	rel, err := pathutil.RelativeFilename(path, base)
	if err != nil {
		return ""
	}
	return rel
}

func decodeMetadata(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

func encodeMetadata(m map[string]any) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
