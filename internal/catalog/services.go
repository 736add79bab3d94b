package catalog

import (
	"assetcatalog/internal/logger"
)

// Services holds all catalog service instances, initialized once at
// startup and handed to the HTTP layer. Mirrors the teacher's service
// container shape, trimmed to this catalog's single-database surface.
type Services struct {
	app    AppState
	logger *logger.Logger

	Ingest     *IngestService
	Upload     *UploadService
	Management *ManagementService
	Download   *DownloadService
	Scanner    *Scanner
}

// NewServices wires every service from a shared AppState and logger.
func NewServices(app AppState, log *logger.Logger) *Services {
	s := &Services{app: app, logger: log}

	s.Ingest = NewIngestService(app, log)
	s.Upload = NewUploadService(app, s.Ingest, log)
	s.Management = NewManagementService(app, s.Ingest, log)
	s.Download = NewDownloadService(app, log)
	s.Scanner = NewScanner(app, log)

	return s
}

// App returns the underlying app state for callers that need direct access.
func (s *Services) App() AppState {
	return s.app
}

// Logger returns the application logger.
func (s *Services) Logger() *logger.Logger {
	return s.logger
}
