package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"assetcatalog/internal/constants"
)

// sortColumns whitelists the columns ListAssetInfos may order by; anything
// else falls back to created_at per the listing contract.
var sortColumns = map[string]string{
	"name":             "asset_info.name",
	"created_at":       "asset_info.created_at",
	"updated_at":       "asset_info.updated_at",
	"last_access_time": "asset_info.last_access_time",
	"size":             "asset.size_bytes",
}

// CreateAssetInfo inserts a new asset_info row, or returns the existing row
// if (asset_id, owner_id, name) already exists — the same
// insert-then-requery pattern as UpsertAsset, grounded on the same
// uniqueness constraint (asset_id, owner_id, name) rather than a
// pre-check-then-insert race.
// The returned bool reports whether this call's INSERT actually won the
// race (rows affected > 0) — callers must not infer creation from
// created_at/updated_at equality, which a row created long ago and never
// since updated would also satisfy.
func CreateAssetInfo(tx *sql.Tx, id, assetID, ownerID, name, userMetadata string, now time.Time) (AssetInfo, bool, error) {
	ts := now.UTC().Format(time.RFC3339Nano)
	if userMetadata == "" {
		userMetadata = "{}"
	}
	res, err := tx.Exec(`
		INSERT INTO asset_info (id, asset_id, owner_id, name, preview_id, user_metadata, created_at, updated_at, last_access_time)
		VALUES (?, ?, ?, ?, NULL, ?, ?, ?, ?)
		ON CONFLICT(asset_id, owner_id, name) DO NOTHING
	`, id, assetID, ownerID, name, userMetadata, ts, ts, ts)
	if err != nil {
		return AssetInfo{}, false, fmt.Errorf("creating asset info: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return AssetInfo{}, false, fmt.Errorf("creating asset info: %w", err)
	}
	created := affected > 0

	info, err := GetAssetInfoByNaturalKey(tx, assetID, ownerID, name)
	if err != nil {
		return AssetInfo{}, false, err
	}
	if info == nil {
		return AssetInfo{}, false, fmt.Errorf("asset info for (%s,%s,%s) vanished after upsert", assetID, ownerID, name)
	}

	if created {
		if err := ReplaceAssetInfoMetadataProjection(tx, info.ID, info.UserMetadata); err != nil {
			return AssetInfo{}, false, err
		}
	}

	return *info, created, nil
}

func scanAssetInfo(row *sql.Row) (*AssetInfo, error) {
	var a AssetInfo
	var preview sql.NullString
	var created, updated, accessed string
	err := row.Scan(&a.ID, &a.AssetID, &a.OwnerID, &a.Name, &preview, &a.UserMetadata, &created, &updated, &accessed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.PreviewID = preview.String
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	a.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	a.LastAccessTime, _ = time.Parse(time.RFC3339Nano, accessed)
	return &a, nil
}

const assetInfoColumns = `id, asset_id, owner_id, name, preview_id, user_metadata, created_at, updated_at, last_access_time`

// GetAssetInfoByID returns the asset_info row with the given id, or nil.
func GetAssetInfoByID(q querier, id string) (*AssetInfo, error) {
	row := q.QueryRow(`SELECT `+assetInfoColumns+` FROM asset_info WHERE id = ?`, id)
	return scanAssetInfo(row)
}

// GetAssetInfoByNaturalKey returns the asset_info row matching the
// (asset_id, owner_id, name) unique key, or nil.
func GetAssetInfoByNaturalKey(q querier, assetID, ownerID, name string) (*AssetInfo, error) {
	row := q.QueryRow(`SELECT `+assetInfoColumns+` FROM asset_info WHERE asset_id = ? AND owner_id = ? AND name = ?`, assetID, ownerID, name)
	return scanAssetInfo(row)
}

// VisibleToOwner renders the owner-visibility predicate: rows are visible
// to ownerID if they are public (owner_id = "") or privately owned by
// ownerID.
func VisibleToOwner(ownerID string) (string, []any) {
	return `asset_info.owner_id IN ('', ?)`, []any{ownerID}
}

// AuthorizeWrite reports whether a write by ownerID against a row with the
// given row owner is permitted: the row must be public or owned by the
// caller.
func AuthorizeWrite(rowOwnerID, callerOwnerID string) bool {
	return rowOwnerID == "" || rowOwnerID == callerOwnerID
}

// UpdateAssetInfoFields updates the mutable fields of an asset_info row.
// Pass nil for fields that should be left unchanged. Re-projects metadata
// when userMetadata is provided. Does not itself check authorization —
// callers must verify AuthorizeWrite first.
func UpdateAssetInfoFields(tx *sql.Tx, id string, name, previewID, userMetadata *string, now time.Time) error {
	if name != nil {
		if _, err := tx.Exec(`UPDATE asset_info SET name = ?, updated_at = ? WHERE id = ?`, *name, now.UTC().Format(time.RFC3339Nano), id); err != nil {
			return err
		}
	}
	if previewID != nil {
		var arg any
		if *previewID != "" {
			arg = *previewID
		}
		if _, err := tx.Exec(`UPDATE asset_info SET preview_id = ?, updated_at = ? WHERE id = ?`, arg, now.UTC().Format(time.RFC3339Nano), id); err != nil {
			return err
		}
	}
	if userMetadata != nil {
		if _, err := tx.Exec(`UPDATE asset_info SET user_metadata = ?, updated_at = ? WHERE id = ?`, *userMetadata, now.UTC().Format(time.RFC3339Nano), id); err != nil {
			return err
		}
		if err := ReplaceAssetInfoMetadataProjection(tx, id, *userMetadata); err != nil {
			return err
		}
	}
	return nil
}

// TouchLastAccess updates last_access_time to now, called whenever an
// asset's content is read through the download path. Only-if-newer: a
// write that lost a race against a later read must not clobber it.
func TouchLastAccess(tx *sql.Tx, id string, now time.Time) error {
	ts := now.UTC().Format(time.RFC3339Nano)
	_, err := tx.Exec(`UPDATE asset_info SET last_access_time = ? WHERE id = ? AND last_access_time < ?`, ts, id, ts)
	return err
}

// DeleteAssetInfo removes an asset_info row. Cascades to asset_info_tag and
// asset_info_meta via foreign keys.
func DeleteAssetInfo(tx *sql.Tx, id string) error {
	_, err := tx.Exec(`DELETE FROM asset_info WHERE id = ?`, id)
	return err
}

// escapeLike escapes a user-supplied substring for safe use inside a LIKE
// pattern with ESCAPE '\', per the name-contains contract.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ListFilter gathers every optional constraint ListAssetInfos accepts.
type ListFilter struct {
	OwnerID       string
	IncludeTags   []string
	ExcludeTags   []string
	Metadata      []MetadataFilter
	NameContains  string
	SortBy        string
	SortOrder     string
	Limit         int
	Offset        int
}

// ListAssetInfos returns the page of asset_info rows matching f, the total
// row count across all pages, and a tag_map keyed by asset_info id (fetched
// in a second query, ordered by added_at so tag order is stable).
func ListAssetInfos(q querier, f ListFilter) (rows []AssetInfoDetail, total int, err error) {
	var whereClauses []string
	var args []any

	visPred, visArgs := VisibleToOwner(f.OwnerID)
	whereClauses = append(whereClauses, visPred)
	args = append(args, visArgs...)

	for _, tag := range f.IncludeTags {
		whereClauses = append(whereClauses, `EXISTS (SELECT 1 FROM asset_info_tag t WHERE t.asset_info_id = asset_info.id AND t.tag_name = ?)`)
		args = append(args, tag)
	}

	if len(f.ExcludeTags) > 0 {
		placeholders := make([]string, len(f.ExcludeTags))
		for i, tag := range f.ExcludeTags {
			placeholders[i] = "?"
			args = append(args, tag)
		}
		whereClauses = append(whereClauses, fmt.Sprintf(
			`NOT EXISTS (SELECT 1 FROM asset_info_tag t WHERE t.asset_info_id = asset_info.id AND t.tag_name IN (%s))`,
			strings.Join(placeholders, ", ")))
	}

	if len(f.Metadata) > 0 {
		metaPred, metaArgs, err := BuildMetadataPredicate(f.Metadata)
		if err != nil {
			return nil, 0, err
		}
		whereClauses = append(whereClauses, "("+metaPred+")")
		args = append(args, metaArgs...)
	}

	if f.NameContains != "" {
		whereClauses = append(whereClauses, `asset_info.name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.NameContains)+"%")
	}

	where := strings.Join(whereClauses, " AND ")

	var countArgs []any
	countArgs = append(countArgs, args...)
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM asset_info JOIN asset ON asset.id = asset_info.asset_id WHERE %s`, where)
	if err := q.QueryRow(countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting asset infos: %w", err)
	}

	sortCol, ok := sortColumns[f.SortBy]
	if !ok {
		sortCol = sortColumns["created_at"]
	}
	order := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		order = "ASC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = constants.DefaultAssetPageSize
	}
	if limit > constants.MaxAssetPageSize {
		limit = constants.MaxAssetPageSize
	}

	listQuery := fmt.Sprintf(`
		SELECT asset_info.id, asset_info.asset_id, asset_info.owner_id, asset_info.name, asset_info.preview_id,
		       asset_info.user_metadata, asset_info.created_at, asset_info.updated_at, asset_info.last_access_time,
		       asset.id, asset.hash, asset.size_bytes, asset.mime_type, asset.created_at
		FROM asset_info
		JOIN asset ON asset.id = asset_info.asset_id
		WHERE %s
		ORDER BY %s %s
		LIMIT ? OFFSET ?
	`, where, sortCol, order)

	queryArgs := append(append([]any{}, args...), limit, f.Offset)
	dbRows, err := q.Query(listQuery, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing asset infos: %w", err)
	}
	defer dbRows.Close()

	var ids []string
	for dbRows.Next() {
		var d AssetInfoDetail
		var preview, hash, mime sql.NullString
		var created, updated, accessed, assetCreated string
		if err := dbRows.Scan(
			&d.ID, &d.AssetID, &d.OwnerID, &d.Name, &preview, &d.UserMetadata, &created, &updated, &accessed,
			&d.Asset.ID, &hash, &d.Asset.SizeBytes, &mime, &assetCreated,
		); err != nil {
			return nil, 0, fmt.Errorf("scanning asset info row: %w", err)
		}
		d.PreviewID = preview.String
		d.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		d.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		d.LastAccessTime, _ = time.Parse(time.RFC3339Nano, accessed)
		d.Asset.Hash = hash.String
		d.Asset.MimeType = mime.String
		d.Asset.CreatedAt, _ = time.Parse(time.RFC3339Nano, assetCreated)
		rows = append(rows, d)
		ids = append(ids, d.ID)
	}
	if err := dbRows.Err(); err != nil {
		return nil, 0, err
	}

	tagMap, err := tagMapFor(q, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range rows {
		rows[i].Tags = tagMap[rows[i].ID]
	}

	return rows, total, nil
}

// tagMapFor fetches tags for a set of asset_info ids in one query, ordered
// by added_at so the tag order rendered to callers is stable, and chunks
// the IN (...) clause to respect the bind-parameter ceiling.
func tagMapFor(q querier, ids []string) (map[string][]string, error) {
	tagMap := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return tagMap, nil
	}

	for _, chunk := range ChunkStrings(ids, RowsPerStmt(1)) {
		placeholders := make([]string, len(chunk))
		args := make([]any, len(chunk))
		for i, id := range chunk {
			placeholders[i] = "?"
			args[i] = id
		}
		query := fmt.Sprintf(
			`SELECT asset_info_id, tag_name FROM asset_info_tag WHERE asset_info_id IN (%s) ORDER BY added_at, tag_name`,
			strings.Join(placeholders, ", "))
		rows, err := q.Query(query, args...)
		if err != nil {
			return nil, fmt.Errorf("fetching tag map: %w", err)
		}
		func() {
			defer rows.Close()
			for rows.Next() {
				var id, tag string
				if err := rows.Scan(&id, &tag); err != nil {
					return
				}
				tagMap[id] = append(tagMap[id], tag)
			}
		}()
	}
	return tagMap, nil
}

// GetAssetInfoDetail returns the fully joined detail view for a single
// asset_info id, or nil if it does not exist.
func GetAssetInfoDetail(q querier, id string) (*AssetInfoDetail, error) {
	row := q.QueryRow(`
		SELECT asset_info.id, asset_info.asset_id, asset_info.owner_id, asset_info.name, asset_info.preview_id,
		       asset_info.user_metadata, asset_info.created_at, asset_info.updated_at, asset_info.last_access_time,
		       asset.id, asset.hash, asset.size_bytes, asset.mime_type, asset.created_at
		FROM asset_info
		JOIN asset ON asset.id = asset_info.asset_id
		WHERE asset_info.id = ?
	`, id)

	var d AssetInfoDetail
	var preview, hash, mime sql.NullString
	var created, updated, accessed, assetCreated string
	err := row.Scan(
		&d.ID, &d.AssetID, &d.OwnerID, &d.Name, &preview, &d.UserMetadata, &created, &updated, &accessed,
		&d.Asset.ID, &hash, &d.Asset.SizeBytes, &mime, &assetCreated,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.PreviewID = preview.String
	d.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	d.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	d.LastAccessTime, _ = time.Parse(time.RFC3339Nano, accessed)
	d.Asset.Hash = hash.String
	d.Asset.MimeType = mime.String
	d.Asset.CreatedAt, _ = time.Parse(time.RFC3339Nano, assetCreated)

	tags, err := ListTagsForAssetInfo(q, id)
	if err != nil {
		return nil, err
	}
	d.Tags = tags

	return &d, nil
}

// CountAssetInfos returns the total number of asset_info rows, used by the
// monitoring endpoint.
func CountAssetInfos(q querier) (int, error) {
	var n int
	err := q.QueryRow(`SELECT COUNT(*) FROM asset_info`).Scan(&n)
	return n, err
}
