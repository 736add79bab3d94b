package server

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"assetcatalog/internal/constants"
	"assetcatalog/internal/version"
)

// handleConfig implements GET /api/config: the effective startup
// configuration. This catalog has no auth layer, so unlike the teacher
// there is nothing here to redact.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	WriteSuccess(w, s.app.Config())
}

// monitoringInfo mirrors the teacher's per-service metrics payload, trimmed
// to what a single-database asset catalog actually tracks.
type monitoringInfo struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	DBSizeBytes   int64   `json:"db_size_bytes"`
	AssetCount    int64   `json:"asset_count"`
	AssetInfoCount int64  `json:"asset_info_count"`
	TagCount      int64   `json:"tag_count"`
	AppVersion    string  `json:"app_version"`
}

// handleMonitoring implements GET /api/monitoring.
func (s *Server) handleMonitoring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	info := monitoringInfo{
		UptimeSeconds: time.Since(s.app.StartedAt()).Seconds(),
		AppVersion:    version.Version,
	}

	if size, err := dbFileSize(s.app.Config().WorkingDirectory); err != nil {
		s.logger.Warn("failed to stat catalog database: %v", err)
	} else {
		info.DBSizeBytes = size
	}

	db := s.app.DB()
	if err := db.QueryRow(`SELECT COUNT(*) FROM asset`).Scan(&info.AssetCount); err != nil {
		s.logger.Warn("failed to count assets: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM asset_info`).Scan(&info.AssetInfoCount); err != nil {
		s.logger.Warn("failed to count asset_info: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM tag`).Scan(&info.TagCount); err != nil {
		s.logger.Warn("failed to count tags: %v", err)
	}

	WriteSuccess(w, info)
}

func dbFileSize(workingDir string) (int64, error) {
	path := filepath.Join(workingDir, constants.InternalDir, constants.CatalogDB)
	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}
