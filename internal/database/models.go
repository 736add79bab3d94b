package database

import (
	"encoding/json"
	"time"
)

// Asset is a content blob, addressed by its hash once known. Hash is empty
// for a seed asset the scanner has discovered on disk but not yet hashed.
type Asset struct {
	ID        string    `json:"id"`
	Hash      string    `json:"hash"`
	SizeBytes int64     `json:"size_bytes"`
	MimeType  string    `json:"mime_type"`
	CreatedAt time.Time `json:"created_at"`
}

// AssetCacheState is an on-disk locator for an asset's content. A single
// asset may have many cache states (the same content copied to several
// paths); a single path maps to at most one cache state.
type AssetCacheState struct {
	ID          int64  `json:"id"`
	AssetID     string `json:"asset_id"`
	FilePath    string `json:"file_path"`
	MtimeNs     int64  `json:"mtime_ns"`
	NeedsVerify bool   `json:"needs_verify"`
}

// AssetInfo is a named, owned, taggable handle onto an asset.
type AssetInfo struct {
	ID             string    `json:"id"`
	AssetID        string    `json:"asset_id"`
	OwnerID        string    `json:"owner_id"`
	Name           string    `json:"name"`
	PreviewID      string    `json:"preview_id,omitempty"` // asset id of the preview image, or ""
	UserMetadata   string    `json:"-"`                    // raw JSON object; see AssetInfoDetail.MarshalJSON
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastAccessTime time.Time `json:"last_access_time"`
}

// Tag is a vocabulary entry. TagType is either "user" or "system"; system
// tags (currently just "missing") are reserved, and a request to remove one
// through the ordinary tag-link API is rejected.
type Tag struct {
	Name    string `json:"name"`
	TagType string `json:"tag_type"`
}

// AssetInfoTag links an AssetInfo to a Tag, recording how the link was
// created.
type AssetInfoTag struct {
	AssetInfoID string    `json:"asset_info_id"`
	TagName     string    `json:"tag_name"`
	Origin      string    `json:"origin"` // "manual" or "automatic"
	AddedAt     time.Time `json:"added_at"`
}

// AssetInfoMeta is one row of the typed EAV projection of an AssetInfo's
// user_metadata JSON object. Ordinal distinguishes elements of a JSON array
// value (ordinal 0 for a scalar, 0..n-1 for an array); exactly one of
// ValStr/ValNum/ValBool/ValJSON is set unless the original value was JSON
// null.
type AssetInfoMeta struct {
	AssetInfoID string
	Key         string
	Ordinal     int
	ValStr      *string
	ValNum      *float64
	ValBool     *bool
	ValJSON     *string
}

// AssetInfoDetail is the fully joined view returned by the asset-info detail
// and listing endpoints: an AssetInfo plus the Asset it points at and its
// resolved tag list.
type AssetInfoDetail struct {
	AssetInfo
	Asset Asset
	Tags  []string
}

// MarshalJSON flattens AssetInfoDetail into the wire shape external
// callers see: the asset's hash/size/mime alongside the info's own
// fields, with user_metadata decoded from its raw JSON column instead of
// re-escaped as a string.
func (d AssetInfoDetail) MarshalJSON() ([]byte, error) {
	userMetadata := json.RawMessage(d.UserMetadata)
	if len(userMetadata) == 0 {
		userMetadata = json.RawMessage("{}")
	}

	return json.Marshal(struct {
		ID             string          `json:"id"`
		AssetID        string          `json:"asset_id"`
		OwnerID        string          `json:"owner_id"`
		Name           string          `json:"name"`
		PreviewID      string          `json:"preview_id,omitempty"`
		UserMetadata   json.RawMessage `json:"user_metadata"`
		CreatedAt      time.Time       `json:"created_at"`
		UpdatedAt      time.Time       `json:"updated_at"`
		LastAccessTime time.Time       `json:"last_access_time"`
		Tags           []string        `json:"tags"`
		AssetHash      string          `json:"asset_hash"`
		SizeBytes      int64           `json:"size"`
		MimeType       string          `json:"mime_type"`
	}{
		ID:             d.AssetInfo.ID,
		AssetID:        d.AssetID,
		OwnerID:        d.OwnerID,
		Name:           d.Name,
		PreviewID:      d.PreviewID,
		UserMetadata:   userMetadata,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		LastAccessTime: d.LastAccessTime,
		Tags:           d.Tags,
		AssetHash:      d.Asset.Hash,
		SizeBytes:      d.Asset.SizeBytes,
		MimeType:       d.Asset.MimeType,
	})
}
