package catalog

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"assetcatalog/internal/catalogerr"
	"assetcatalog/internal/database"
	"assetcatalog/internal/logger"
)

// IngestService idempotently folds a piece of content already on disk into
// the catalog: an Asset row keyed by hash, a cache state pointing at its
// path, and — when a display name is given — an AssetInfo with tags and
// metadata.
type IngestService struct {
	app AppState
	log *logger.Logger
}

func NewIngestService(app AppState, log *logger.Logger) *IngestService {
	return &IngestService{app: app, log: log}
}

// IngestParams bundles IngestFileFromPath's arguments; see §4.4 item A.
type IngestParams struct {
	AbsPath              string
	Hash                 string
	SizeBytes            int64
	MtimeNs              int64
	MimeType             string
	Name                 string // empty: skip AssetInfo creation (seed-only ingest)
	OwnerID              string
	PreviewID            string
	Tags                 []string
	UserMetadata         map[string]any
	TagOrigin            string
	RequireExistingTags  bool
}

// IngestResult reports what IngestFileFromPath actually did, mirroring the
// original's return dict.
type IngestResult struct {
	AssetCreated bool
	StateCreated bool
	AssetInfoID  string
	Asset        database.Asset
}

// IngestFileFromPath upserts Asset/AssetCacheState and, when p.Name is
// given, an AssetInfo with tags and a computed filename in its metadata.
func (s *IngestService) IngestFileFromPath(p IngestParams) (*IngestResult, error) {
	db := s.app.DB()
	tx, err := db.Begin()
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	defer tx.Rollback()

	now := time.Now()

	// Validate preview_id if provided: an unresolvable preview is silently
	// dropped rather than rejected, matching the original's tolerant
	// behavior of just not setting it.
	previewID := p.PreviewID
	if previewID != "" {
		if a, err := database.GetAssetByID(tx, previewID); err != nil {
			return nil, catalogerr.WrapInternal(err)
		} else if a == nil {
			previewID = ""
		}
	}

	asset, assetCreated, err := database.UpsertAsset(tx, p.Hash, p.SizeBytes, p.MimeType, uuid.NewString(), now)
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}

	_, stateCreated, err := database.UpsertCacheState(tx, asset.ID, p.AbsPath, p.MtimeNs)
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	if err := database.MarkNeedsVerify(tx, p.AbsPath, false); err != nil {
		return nil, catalogerr.WrapInternal(err)
	}

	result := &IngestResult{AssetCreated: assetCreated, StateCreated: stateCreated, Asset: asset}

	if p.Name != "" {
		info, infoCreated, err := database.CreateAssetInfo(tx, uuid.NewString(), asset.ID, p.OwnerID, p.Name, "{}", now)
		if err != nil {
			return nil, catalogerr.WrapInternal(err)
		}

		if !infoCreated {
			if err := database.TouchLastAccess(tx, info.ID, now); err != nil {
				return nil, catalogerr.WrapInternal(err)
			}
		}
		if previewID != "" {
			if err := database.UpdateAssetInfoFields(tx, info.ID, nil, &previewID, nil, now); err != nil {
				return nil, catalogerr.WrapInternal(err)
			}
		}
		result.AssetInfoID = info.ID

		origin := p.TagOrigin
		if origin == "" {
			origin = "manual"
		}
		norm := normalizeTags(p.Tags)
		if len(norm) > 0 {
			if p.RequireExistingTags {
				if err := validateTagsExist(tx, norm); err != nil {
					return nil, err
				}
			}
			for _, t := range norm {
				if err := database.AddTagLink(tx, info.ID, t, origin, now); err != nil {
					return nil, catalogerr.WrapInternal(err)
				}
			}
		}

		if err := s.mergeComputedFilename(tx, info.ID, asset.ID, p.UserMetadata, now); err != nil {
			return nil, err
		}

		if err := removeMissingTagForAsset(tx, asset.ID); err != nil {
			s.log.Warn("failed to clear missing tag for asset %s: %v", asset.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	return result, nil
}

// RegisterExistingAsset creates (or returns) an AssetInfo for content that
// is already in the catalog by hash, skipping any disk movement.
func (s *IngestService) RegisterExistingAsset(hash, name, ownerID string, tags []string, userMetadata map[string]any) (*database.AssetInfoDetail, bool, error) {
	db := s.app.DB()
	tx, err := db.Begin()
	if err != nil {
		return nil, false, catalogerr.WrapInternal(err)
	}
	defer tx.Rollback()

	asset, err := database.GetAssetByHash(tx, hash)
	if err != nil {
		return nil, false, catalogerr.WrapInternal(err)
	}
	if asset == nil {
		return nil, false, catalogerr.ErrAssetNotFound.WithDetails(map[string]any{"hash": hash})
	}

	now := time.Now()
	info, created, err := database.CreateAssetInfo(tx, uuid.NewString(), asset.ID, ownerID, name, "{}", now)
	if err != nil {
		return nil, false, catalogerr.WrapInternal(err)
	}

	if created {
		merged := map[string]any{}
		for k, v := range userMetadata {
			merged[k] = v
		}
		if err := s.mergeComputedFilename(tx, info.ID, asset.ID, merged, now); err != nil {
			return nil, false, err
		}
		for _, t := range normalizeTags(tags) {
			if err := database.AddTagLink(tx, info.ID, t, "manual", now); err != nil {
				return nil, false, catalogerr.WrapInternal(err)
			}
		}
	}

	detail, err := database.GetAssetInfoDetail(tx, info.ID)
	if err != nil {
		return nil, false, catalogerr.WrapInternal(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, catalogerr.WrapInternal(err)
	}
	return detail, created, nil
}

// mergeComputedFilename derives the relative filename from the asset's best
// live path and merges it into user_metadata without dropping caller keys,
// then reprojects.
func (s *IngestService) mergeComputedFilename(tx *sql.Tx, infoID, assetID string, callerMetadata map[string]any, now time.Time) error {
	computed, err := s.computeFilename(tx, assetID)
	if err != nil {
		return catalogerr.WrapInternal(err)
	}

	info, err := database.GetAssetInfoByID(tx, infoID)
	if err != nil {
		return catalogerr.WrapInternal(err)
	}
	if info == nil {
		return catalogerr.NotFound(infoID)
	}

	merged, err := decodeMetadata(info.UserMetadata)
	if err != nil {
		return catalogerr.WrapInternal(err)
	}
	for k, v := range callerMetadata {
		merged[k] = v
	}
	if computed != "" {
		merged["filename"] = computed
	}

	encoded, err := encodeMetadata(merged)
	if err != nil {
		return catalogerr.WrapInternal(err)
	}
	return database.UpdateAssetInfoFields(tx, infoID, nil, nil, &encoded, now)
}

func (s *IngestService) computeFilename(tx *sql.Tx, assetID string) (string, error) {
	states, err := database.ListCacheStatesForAsset(tx, assetID)
	if err != nil {
		return "", err
	}
	best := PickBestLivePath(states)
	if best == "" {
		return "", nil
	}
	_, _, base, err := s.app.Roots().ClassifyWithBase(best)
	if err != nil {
		return "", nil
	}
	return relativeFilenameOrEmpty(best, base), nil
}

func validateTagsExist(tx *sql.Tx, names []string) error {
	var missing []string
	for _, n := range names {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM tag WHERE name = ?)`, n).Scan(&exists); err != nil {
			return catalogerr.WrapInternal(err)
		}
		if !exists {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return catalogerr.ErrInvalidBody.WithDetails(map[string]any{"unknown_tags": missing})
	}
	return nil
}

func removeMissingTagForAsset(tx *sql.Tx, assetID string) error {
	rows, err := tx.Query(`SELECT id FROM asset_info WHERE asset_id = ?`, assetID)
	if err != nil {
		return err
	}
	var infoIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		infoIDs = append(infoIDs, id)
	}
	rows.Close()

	for _, id := range infoIDs {
		if err := database.RemoveTagLink(tx, id, "missing"); err != nil {
			return err
		}
	}
	return nil
}

