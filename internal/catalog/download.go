package catalog

import (
	"mime"
	"path/filepath"
	"time"

	"assetcatalog/internal/catalogerr"
	"assetcatalog/internal/constants"
	"assetcatalog/internal/database"
	"assetcatalog/internal/logger"
)

// ResolvedContent is what ResolveContent returns: enough for the HTTP layer
// to stream a file and label the response, without it needing to touch the
// database package directly.
type ResolvedContent struct {
	AbsPath       string
	ContentType   string
	DownloadName  string
}

// DownloadService resolves an asset_info's content to a live on-disk path
// for streaming, grounded on manager.py's resolve_asset_content_for_download.
type DownloadService struct {
	app AppState
	log *logger.Logger
}

func NewDownloadService(app AppState, log *logger.Logger) *DownloadService {
	return &DownloadService{app: app, log: log}
}

// ResolveContent looks up infoID (subject to owner visibility), picks the
// best live path among its asset's cache states, touches last_access_time,
// and derives a content type and download name.
func (d *DownloadService) ResolveContent(infoID, ownerID string) (*ResolvedContent, error) {
	db := d.app.DB()

	detail, err := database.GetAssetInfoDetail(db, infoID)
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	if detail == nil || !database.AuthorizeWrite(detail.OwnerID, ownerID) {
		return nil, catalogerr.NotFound(infoID)
	}

	states, err := database.ListCacheStatesForAsset(db, detail.AssetID)
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	best := PickBestLivePath(states)
	if best == "" {
		return nil, catalogerr.ErrFileNotFound.WithDetails(map[string]any{"asset_info_id": infoID})
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	if err := database.TouchLastAccess(tx, infoID, time.Now()); err != nil {
		tx.Rollback()
		return nil, catalogerr.WrapInternal(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, catalogerr.WrapInternal(err)
	}

	contentType := detail.Asset.MimeType
	if contentType == "" {
		if guessed := mime.TypeByExtension(filepath.Ext(best)); guessed != "" {
			contentType = guessed
		} else {
			contentType = constants.DefaultMimeType
		}
	}

	downloadName := detail.Name
	if downloadName == "" {
		downloadName = filepath.Base(best)
	}

	return &ResolvedContent{AbsPath: best, ContentType: contentType, DownloadName: downloadName}, nil
}
