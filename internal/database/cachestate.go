package database

import (
	"database/sql"
	"fmt"
)

// UpsertCacheState records that assetID's content lives at filePath with the
// given mtime. If filePath is already claimed by a cache state (the UNIQUE
// constraint on file_path), the existing row wins and is returned unchanged;
// callers that need to repoint a path at new content should delete the old
// state first via DeleteCacheStateByPath. The returned bool reports whether
// this call's INSERT actually won the race (rows affected > 0).
func UpsertCacheState(tx *sql.Tx, assetID, filePath string, mtimeNs int64) (AssetCacheState, bool, error) {
	res, err := tx.Exec(`
		INSERT INTO asset_cache_state (asset_id, file_path, mtime_ns, needs_verify)
		VALUES (?, ?, ?, 0)
		ON CONFLICT(file_path) DO NOTHING
	`, assetID, filePath, mtimeNs)
	if err != nil {
		return AssetCacheState{}, false, fmt.Errorf("upserting cache state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return AssetCacheState{}, false, fmt.Errorf("upserting cache state: %w", err)
	}

	state, err := GetCacheStateByPath(tx, filePath)
	if err != nil {
		return AssetCacheState{}, false, err
	}
	if state == nil {
		return AssetCacheState{}, false, fmt.Errorf("cache state for %s vanished after upsert", filePath)
	}
	return *state, affected > 0, nil
}

func scanCacheState(row *sql.Row) (*AssetCacheState, error) {
	var s AssetCacheState
	var needsVerify int
	err := row.Scan(&s.ID, &s.AssetID, &s.FilePath, &s.MtimeNs, &needsVerify)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.NeedsVerify = needsVerify != 0
	return &s, nil
}

// GetCacheStateByPath returns the cache state for a path, or nil if none
// exists.
func GetCacheStateByPath(q querier, filePath string) (*AssetCacheState, error) {
	row := q.QueryRow(`SELECT id, asset_id, file_path, mtime_ns, needs_verify FROM asset_cache_state WHERE file_path = ?`, filePath)
	return scanCacheState(row)
}

// ListCacheStatesForAsset returns every on-disk location recorded for an
// asset, used by best-live-path selection.
func ListCacheStatesForAsset(q querier, assetID string) ([]AssetCacheState, error) {
	rows, err := q.Query(`SELECT id, asset_id, file_path, mtime_ns, needs_verify FROM asset_cache_state WHERE asset_id = ? ORDER BY id`, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssetCacheState
	for rows.Next() {
		var s AssetCacheState
		var needsVerify int
		if err := rows.Scan(&s.ID, &s.AssetID, &s.FilePath, &s.MtimeNs, &needsVerify); err != nil {
			return nil, err
		}
		s.NeedsVerify = needsVerify != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListAllCacheStates returns every cache state row, used by a scanner
// reconciliation pass to diff against what is actually present on disk.
func ListAllCacheStates(q querier) ([]AssetCacheState, error) {
	rows, err := q.Query(`SELECT id, asset_id, file_path, mtime_ns, needs_verify FROM asset_cache_state ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssetCacheState
	for rows.Next() {
		var s AssetCacheState
		var needsVerify int
		if err := rows.Scan(&s.ID, &s.AssetID, &s.FilePath, &s.MtimeNs, &needsVerify); err != nil {
			return nil, err
		}
		s.NeedsVerify = needsVerify != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

// MarkNeedsVerify flags a cache state as requiring a content reverify on
// next access, used when the fast mtime/size check fails to settle whether
// the file changed.
func MarkNeedsVerify(tx *sql.Tx, filePath string, needsVerify bool) error {
	v := 0
	if needsVerify {
		v = 1
	}
	_, err := tx.Exec(`UPDATE asset_cache_state SET needs_verify = ? WHERE file_path = ?`, v, filePath)
	return err
}

// DeleteCacheStateByPath removes the cache state recorded for a path,
// typically because the scanner found the file gone or its content changed
// under a fixed path.
func DeleteCacheStateByPath(tx *sql.Tx, filePath string) error {
	_, err := tx.Exec(`DELETE FROM asset_cache_state WHERE file_path = ?`, filePath)
	return err
}

// RepointCacheState moves a path's cache state onto a different asset,
// used when the scanner discovers that content at a previously-known path
// has changed.
func RepointCacheState(tx *sql.Tx, filePath, newAssetID string, mtimeNs int64) error {
	_, err := tx.Exec(`UPDATE asset_cache_state SET asset_id = ?, mtime_ns = ?, needs_verify = 0 WHERE file_path = ?`,
		newAssetID, mtimeNs, filePath)
	return err
}
