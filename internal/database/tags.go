package database

import (
	"database/sql"
	"fmt"
	"time"

	"assetcatalog/internal/constants"
)

// EnsureTag creates a tag vocabulary row if it does not already exist and
// returns it. A new tag is typed "system" if it is the reserved missing tag
// and "user" otherwise; an existing tag keeps whatever type it was created
// with.
func EnsureTag(tx *sql.Tx, name string) (Tag, error) {
	tagType := constants.TagTypeUser
	if name == constants.MissingTag {
		tagType = constants.TagTypeSystem
	}
	_, err := tx.Exec(`INSERT INTO tag (name, tag_type) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`, name, tagType)
	if err != nil {
		return Tag{}, fmt.Errorf("ensuring tag %q: %w", name, err)
	}

	var t Tag
	err = tx.QueryRow(`SELECT name, tag_type FROM tag WHERE name = ?`, name).Scan(&t.Name, &t.TagType)
	if err != nil {
		return Tag{}, err
	}
	return t, nil
}

// EnsureTags ensures every name in names exists in the vocabulary, returning
// the resolved rows in the same order.
func EnsureTags(tx *sql.Tx, names []string) ([]Tag, error) {
	out := make([]Tag, 0, len(names))
	for _, name := range names {
		t, err := EnsureTag(tx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// AddTagLink attaches tagName to assetInfoID with the given origin. A
// duplicate link is a silent no-op (ON CONFLICT DO NOTHING on the
// (asset_info_id, tag_name) primary key).
func AddTagLink(tx *sql.Tx, assetInfoID, tagName, origin string, now time.Time) error {
	if _, err := EnsureTag(tx, tagName); err != nil {
		return err
	}
	_, err := tx.Exec(`
		INSERT INTO asset_info_tag (asset_info_id, tag_name, origin, added_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(asset_info_id, tag_name) DO NOTHING
	`, assetInfoID, tagName, origin, now.UTC().Format(time.RFC3339Nano))
	return err
}

// RemoveTagLink detaches tagName from assetInfoID, whatever the tag. It does
// not refuse the reserved "missing" system tag; the service layer
// (ManagementService.RemoveTags in internal/catalog) rejects such a request
// before this is called, per the protection decision recorded in DESIGN.md.
func RemoveTagLink(tx *sql.Tx, assetInfoID, tagName string) error {
	_, err := tx.Exec(`DELETE FROM asset_info_tag WHERE asset_info_id = ? AND tag_name = ?`, assetInfoID, tagName)
	return err
}

// ListTagsForAssetInfo returns the tag names attached to an asset info, in
// the order they were added.
func ListTagsForAssetInfo(q querier, assetInfoID string) ([]string, error) {
	rows, err := q.Query(`SELECT tag_name FROM asset_info_tag WHERE asset_info_id = ? ORDER BY added_at, tag_name`, assetInfoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}

// TagCount pairs a tag name with how many asset infos currently carry it.
type TagCount struct {
	Name  string `json:"name"`
	Type  string `json:"tag_type"`
	Count int    `json:"count"`
}

// ListTagsWithCounts returns every tag in the vocabulary along with how many
// asset_info rows currently reference it, ordered by descending usage.
func ListTagsWithCounts(q querier) ([]TagCount, error) {
	rows, err := q.Query(`
		SELECT t.name, t.tag_type, COUNT(ait.asset_info_id) AS cnt
		FROM tag t
		LEFT JOIN asset_info_tag ait ON ait.tag_name = t.name
		GROUP BY t.name, t.tag_type
		ORDER BY cnt DESC, t.name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Name, &tc.Type, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// ReplaceTagLinks removes every automatic-origin tag link for assetInfoID
// and replaces it with the given tag set, leaving manual links untouched.
// Used by the scanner to keep root/category tags in sync with an asset
// info's current on-disk classification without clobbering user-added tags.
func ReplaceTagLinks(tx *sql.Tx, assetInfoID string, tagNames []string, now time.Time) error {
	_, err := tx.Exec(`DELETE FROM asset_info_tag WHERE asset_info_id = ? AND origin = ?`,
		assetInfoID, constants.TagOriginAutomatic)
	if err != nil {
		return fmt.Errorf("clearing automatic tags: %w", err)
	}
	for _, name := range tagNames {
		if err := AddTagLink(tx, assetInfoID, name, constants.TagOriginAutomatic, now); err != nil {
			return err
		}
	}
	return nil
}
