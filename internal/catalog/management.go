package catalog

import (
	"database/sql"
	"os"
	"time"

	"assetcatalog/internal/catalogerr"
	"assetcatalog/internal/constants"
	"assetcatalog/internal/database"
	"assetcatalog/internal/logger"
)

func removeIfExists(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ManagementService implements read/update/delete operations on existing
// asset_info rows, grounded on asset_management.py's CRUD surface.
type ManagementService struct {
	app    AppState
	ingest *IngestService
	log    *logger.Logger
}

func NewManagementService(app AppState, ingest *IngestService, log *logger.Logger) *ManagementService {
	return &ManagementService{app: app, ingest: ingest, log: log}
}

// GetAssetDetail fetches an asset_info's joined detail, restricted to what
// ownerID may see. Returns nil (not an error) if not found or not visible.
func (m *ManagementService) GetAssetDetail(infoID, ownerID string) (*database.AssetInfoDetail, error) {
	detail, err := database.GetAssetInfoDetail(m.app.DB(), infoID)
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	if detail == nil {
		return nil, nil
	}
	if !database.AuthorizeWrite(detail.OwnerID, ownerID) {
		return nil, nil
	}
	return detail, nil
}

// ListResult is the paginated payload ListAssets returns.
type ListResult struct {
	Rows    []database.AssetInfoDetail
	Total   int
	HasMore bool
}

// ListAssets delegates to the query layer's listing, then derives HasMore
// from total/limit/offset.
func (m *ManagementService) ListAssets(f database.ListFilter) (*ListResult, error) {
	rows, total, err := database.ListAssetInfos(m.app.DB(), f)
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	hasMore := f.Offset+len(rows) < total
	return &ListResult{Rows: rows, Total: total, HasMore: hasMore}, nil
}

// UpdateFields bundles UpdateAsset's optional mutations; a nil Name leaves
// the name untouched. Tags and UserMetadata apply only when HasTags or
// HasMetadata is set; HasTags with a nil Tags clears the manual tags.
type UpdateFields struct {
	Name         *string
	Tags         []string
	HasTags      bool
	UserMetadata map[string]any
	HasMetadata  bool
}

// UpdateAsset applies an owner-checked partial update: name, manual tag
// replacement, and/or wholesale metadata replacement, always recomputing
// the derived filename metadata key.
func (m *ManagementService) UpdateAsset(infoID, ownerID string, f UpdateFields) (*database.AssetInfoDetail, error) {
	db := m.app.DB()
	tx, err := db.Begin()
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	defer tx.Rollback()

	info, err := database.GetAssetInfoByID(tx, infoID)
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	if info == nil {
		return nil, catalogerr.NotFound(infoID)
	}
	if !database.AuthorizeWrite(info.OwnerID, ownerID) {
		return nil, catalogerr.NotFound(infoID)
	}

	now := time.Now()

	if f.Name != nil {
		if err := database.UpdateAssetInfoFields(tx, infoID, f.Name, nil, nil, now); err != nil {
			return nil, catalogerr.WrapInternal(err)
		}
	}

	if f.HasTags {
		if err := replaceManualTags(tx, infoID, normalizeTags(f.Tags), now); err != nil {
			return nil, err
		}
	}

	if f.HasMetadata {
		// A provided user_metadata replaces the stored object wholesale
		// (only the derived filename key is re-added) — it does not merge
		// onto the previous value the way ingest's first-write path does.
		if err := m.replaceMetadata(tx, infoID, info.AssetID, f.UserMetadata, now); err != nil {
			return nil, err
		}
	} else {
		if err := m.ingest.mergeComputedFilename(tx, infoID, info.AssetID, map[string]any{}, now); err != nil {
			return nil, err
		}
	}

	detail, err := database.GetAssetInfoDetail(tx, infoID)
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	return detail, nil
}

// replaceMetadata overwrites user_metadata with newMetadata, re-adding only
// the derived filename key, and reprojects. Unlike ingest's
// mergeComputedFilename, it does not carry forward any of the asset_info's
// previous keys.
func (m *ManagementService) replaceMetadata(tx *sql.Tx, infoID, assetID string, newMetadata map[string]any, now time.Time) error {
	computed, err := m.ingest.computeFilename(tx, assetID)
	if err != nil {
		return catalogerr.WrapInternal(err)
	}

	replaced := map[string]any{}
	for k, v := range newMetadata {
		replaced[k] = v
	}
	if computed != "" {
		replaced["filename"] = computed
	}

	encoded, err := encodeMetadata(replaced)
	if err != nil {
		return catalogerr.WrapInternal(err)
	}
	return database.UpdateAssetInfoFields(tx, infoID, nil, nil, &encoded, now)
}

// replaceManualTags clears manual-origin tag links for infoID and installs
// the given set, leaving automatic (scanner-derived root/category) tags
// untouched.
func replaceManualTags(tx *sql.Tx, infoID string, tags []string, now time.Time) error {
	if _, err := tx.Exec(`DELETE FROM asset_info_tag WHERE asset_info_id = ? AND origin = ?`, infoID, constants.TagOriginManual); err != nil {
		return catalogerr.WrapInternal(err)
	}
	for _, t := range tags {
		if err := database.AddTagLink(tx, infoID, t, constants.TagOriginManual, now); err != nil {
			return catalogerr.WrapInternal(err)
		}
	}
	return nil
}

// AddTags attaches manual-origin tag links to an asset_info, owner-checked.
func (m *ManagementService) AddTags(infoID, ownerID string, tags []string) (*database.AssetInfoDetail, error) {
	db := m.app.DB()
	tx, err := db.Begin()
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	defer tx.Rollback()

	info, err := database.GetAssetInfoByID(tx, infoID)
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	if info == nil {
		return nil, catalogerr.NotFound(infoID)
	}
	if !database.AuthorizeWrite(info.OwnerID, ownerID) {
		return nil, catalogerr.NotFound(infoID)
	}

	now := time.Now()
	for _, t := range normalizeTags(tags) {
		if err := database.AddTagLink(tx, infoID, t, constants.TagOriginManual, now); err != nil {
			return nil, catalogerr.WrapInternal(err)
		}
	}

	detail, err := database.GetAssetInfoDetail(tx, infoID)
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	return detail, nil
}

// RemoveTags detaches tag links from an asset_info, owner-checked. Removal
// of the reserved "missing" system tag is rejected with INVALID_BODY — the
// scanner owns that tag's lifecycle, not the public API (§9 decision).
func (m *ManagementService) RemoveTags(infoID, ownerID string, tags []string) (*database.AssetInfoDetail, error) {
	db := m.app.DB()
	tx, err := db.Begin()
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	defer tx.Rollback()

	info, err := database.GetAssetInfoByID(tx, infoID)
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	if info == nil {
		return nil, catalogerr.NotFound(infoID)
	}
	if !database.AuthorizeWrite(info.OwnerID, ownerID) {
		return nil, catalogerr.NotFound(infoID)
	}

	norm := normalizeTags(tags)
	for _, t := range norm {
		if t == constants.MissingTag {
			return nil, catalogerr.ErrInvalidBody.WithDetails(map[string]any{"reason": "the missing tag is managed by the scanner and cannot be removed directly"})
		}
	}

	for _, t := range norm {
		if err := database.RemoveTagLink(tx, infoID, t); err != nil {
			return nil, catalogerr.WrapInternal(err)
		}
	}

	detail, err := database.GetAssetInfoDetail(tx, infoID)
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	return detail, nil
}

// DeleteAssetReference removes an asset_info row; if it was the last
// reference to its asset and deleteIfOrphan is set, the asset (and its
// cascaded cache states) is deleted too and its on-disk files are
// best-effort removed after commit.
func (m *ManagementService) DeleteAssetReference(infoID, ownerID string, deleteIfOrphan bool) (bool, error) {
	db := m.app.DB()
	tx, err := db.Begin()
	if err != nil {
		return false, catalogerr.WrapInternal(err)
	}
	defer tx.Rollback()

	info, err := database.GetAssetInfoByID(tx, infoID)
	if err != nil {
		return false, catalogerr.WrapInternal(err)
	}
	if info == nil {
		return false, nil
	}
	if !database.AuthorizeWrite(info.OwnerID, ownerID) {
		return false, nil
	}

	assetID := info.AssetID
	if err := database.DeleteAssetInfo(tx, infoID); err != nil {
		return false, catalogerr.WrapInternal(err)
	}

	var filesToRemove []string
	if deleteIfOrphan {
		var remaining int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM asset_info WHERE asset_id = ?`, assetID).Scan(&remaining); err != nil {
			return false, catalogerr.WrapInternal(err)
		}
		if remaining == 0 {
			states, err := database.ListCacheStatesForAsset(tx, assetID)
			if err != nil {
				return false, catalogerr.WrapInternal(err)
			}
			for _, s := range states {
				filesToRemove = append(filesToRemove, s.FilePath)
			}
			if err := database.DeleteAsset(tx, assetID); err != nil {
				return false, catalogerr.WrapInternal(err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, catalogerr.WrapInternal(err)
	}

	for _, p := range filesToRemove {
		if err := removeIfExists(p); err != nil {
			m.log.Warn("failed to remove orphaned file %s: %v", p, err)
		}
	}

	return true, nil
}

// SetAssetPreview sets or clears preview_id on an asset_info, verifying the
// target exists when non-empty.
func (m *ManagementService) SetAssetPreview(infoID, ownerID, previewAssetID string) (*database.AssetInfoDetail, error) {
	db := m.app.DB()
	tx, err := db.Begin()
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	defer tx.Rollback()

	info, err := database.GetAssetInfoByID(tx, infoID)
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	if info == nil {
		return nil, catalogerr.NotFound(infoID)
	}
	if !database.AuthorizeWrite(info.OwnerID, ownerID) {
		return nil, catalogerr.NotFound(infoID)
	}

	if previewAssetID != "" {
		target, err := database.GetAssetByID(tx, previewAssetID)
		if err != nil {
			return nil, catalogerr.WrapInternal(err)
		}
		if target == nil {
			return nil, catalogerr.ErrAssetNotFound.WithDetails(map[string]any{"preview_asset_id": previewAssetID})
		}
	}

	now := time.Now()
	if err := database.UpdateAssetInfoFields(tx, infoID, nil, &previewAssetID, nil, now); err != nil {
		return nil, catalogerr.WrapInternal(err)
	}

	detail, err := database.GetAssetInfoDetail(tx, infoID)
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	return detail, nil
}
