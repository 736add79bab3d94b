package database

import (
	"database/sql"
	"fmt"
	"time"
)

// UpsertAsset inserts an asset if its hash is new, or returns the existing
// row if another writer already claimed that hash. Implements the
// winners/losers requery pattern: the insert races safely against
// concurrent callers because hash is UNIQUE and the conflict clause is a
// no-op, then every caller — winner or loser — reads back the row that
// ended up in the table.
// The returned bool reports whether this call's INSERT actually won the
// race (rows affected > 0), not whether the row happens to carry newID —
// the caller must not infer creation from ID equality.
func UpsertAsset(tx *sql.Tx, hash string, sizeBytes int64, mimeType, newID string, now time.Time) (Asset, bool, error) {
	res, err := tx.Exec(`
		INSERT INTO asset (id, hash, size_bytes, mime_type, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, newID, hash, sizeBytes, mimeType, now.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return Asset{}, false, fmt.Errorf("upserting asset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Asset{}, false, fmt.Errorf("upserting asset: %w", err)
	}
	created := affected > 0

	asset, err := GetAssetByHash(tx, hash)
	if err != nil {
		return Asset{}, false, err
	}
	if asset == nil {
		return Asset{}, false, fmt.Errorf("asset %s vanished after upsert", hash)
	}

	// The row that won the race may carry less or different information
	// than this caller has. size_bytes is filled in only when it is 0 and
	// the new size is positive; mime_type is replaced whenever a non-empty
	// mime type is given and it differs from the stored one.
	fillSize := asset.SizeBytes == 0 && sizeBytes > 0
	changeMime := mimeType != "" && asset.MimeType != mimeType
	if fillSize || changeMime {
		updSize := asset.SizeBytes
		if fillSize {
			updSize = sizeBytes
		}
		updMime := asset.MimeType
		if changeMime {
			updMime = mimeType
		}
		if _, err := tx.Exec(`UPDATE asset SET size_bytes = ?, mime_type = ? WHERE id = ?`,
			updSize, updMime, asset.ID); err != nil {
			return Asset{}, false, fmt.Errorf("backfilling asset: %w", err)
		}
		asset.SizeBytes = updSize
		asset.MimeType = updMime
	}

	return *asset, created, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}

func scanAsset(row *sql.Row) (*Asset, error) {
	var a Asset
	var hash, mime sql.NullString
	var createdAt string
	err := row.Scan(&a.ID, &hash, &a.SizeBytes, &mime, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Hash = hash.String
	a.MimeType = mime.String
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &a, nil
}

// GetAssetByHash returns the asset with the given hash, or nil if none exists.
func GetAssetByHash(q querier, hash string) (*Asset, error) {
	row := q.QueryRow(`SELECT id, hash, size_bytes, mime_type, created_at FROM asset WHERE hash = ?`, hash)
	return scanAsset(row)
}

// GetAssetByID returns the asset with the given id, or nil if none exists.
func GetAssetByID(q querier, id string) (*Asset, error) {
	row := q.QueryRow(`SELECT id, hash, size_bytes, mime_type, created_at FROM asset WHERE id = ?`, id)
	return scanAsset(row)
}

// InsertSeedAsset creates a hashless placeholder asset for a file the
// scanner has discovered but not yet hashed. Always inserts a new row
// under id and returns it as stored.
func InsertSeedAsset(tx *sql.Tx, id string, sizeBytes int64, now time.Time) (Asset, error) {
	_, err := tx.Exec(`
		INSERT INTO asset (id, hash, size_bytes, mime_type, created_at)
		VALUES (?, NULL, ?, '', ?)
	`, id, sizeBytes, now.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return Asset{}, fmt.Errorf("inserting seed asset: %w", err)
	}
	asset, err := GetAssetByID(tx, id)
	if err != nil {
		return Asset{}, err
	}
	return *asset, nil
}

// SetAssetHash assigns a hash to a previously hashless seed asset once the
// scanner or a verification pass has computed it. If another asset already
// owns that hash, the caller is responsible for merging cache states onto
// the winner and deleting the loser; the UNIQUE constraint on hash makes
// this update fail otherwise.
func SetAssetHash(tx *sql.Tx, assetID, hash string, sizeBytes int64, mimeType string) error {
	_, err := tx.Exec(`UPDATE asset SET hash = ?, size_bytes = ?, mime_type = ? WHERE id = ?`,
		hash, sizeBytes, mimeType, assetID)
	return err
}

// DeleteAsset removes an asset row. Cascades to asset_cache_state,
// asset_info, asset_info_tag, and asset_info_meta via foreign keys.
func DeleteAsset(tx *sql.Tx, id string) error {
	_, err := tx.Exec(`DELETE FROM asset WHERE id = ?`, id)
	return err
}

// CountAssets returns the total number of asset rows, used by the
// monitoring endpoint.
func CountAssets(q querier) (int, error) {
	var n int
	err := q.QueryRow(`SELECT COUNT(*) FROM asset`).Scan(&n)
	return n, err
}
