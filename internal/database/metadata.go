package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ProjectKV expands one (key, value) pair of a decoded user_metadata JSON
// object into the ordered AssetInfoMeta rows it becomes in the EAV
// projection. value must already be a decoded JSON value (nil, bool,
// float64, string, []any, or map[string]any/other — the last two fall
// through to the JSON-blob case).
func ProjectKV(assetInfoID, key string, value any) ([]AssetInfoMeta, error) {
	if value == nil {
		return []AssetInfoMeta{{AssetInfoID: assetInfoID, Key: key, Ordinal: 0}}, nil
	}

	if list, ok := value.([]any); ok {
		allScalar := true
		for _, el := range list {
			if !isScalar(el) {
				allScalar = false
				break
			}
		}
		rows := make([]AssetInfoMeta, 0, len(list))
		for i, el := range list {
			var row AssetInfoMeta
			var err error
			if allScalar {
				row, err = scalarRow(assetInfoID, key, i, el)
			} else {
				row, err = jsonRow(assetInfoID, key, i, el)
			}
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		return rows, nil
	}

	if isScalar(value) {
		row, err := scalarRow(assetInfoID, key, 0, value)
		if err != nil {
			return nil, err
		}
		return []AssetInfoMeta{row}, nil
	}

	row, err := jsonRow(assetInfoID, key, 0, value)
	if err != nil {
		return nil, err
	}
	return []AssetInfoMeta{row}, nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case bool, float64, string:
		return true
	default:
		return false
	}
}

func scalarRow(assetInfoID, key string, ordinal int, v any) (AssetInfoMeta, error) {
	row := AssetInfoMeta{AssetInfoID: assetInfoID, Key: key, Ordinal: ordinal}
	switch val := v.(type) {
	case bool:
		row.ValBool = &val
	case float64:
		if math.IsNaN(val) {
			return AssetInfoMeta{}, fmt.Errorf("metadata value for key %q is NaN, which cannot be stored", key)
		}
		row.ValNum = &val
	case string:
		row.ValStr = &val
	default:
		return AssetInfoMeta{}, fmt.Errorf("metadata value for key %q is not a scalar", key)
	}
	return row, nil
}

func jsonRow(assetInfoID, key string, ordinal int, v any) (AssetInfoMeta, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return AssetInfoMeta{}, fmt.Errorf("marshaling metadata value for key %q: %w", key, err)
	}
	s := string(b)
	return AssetInfoMeta{AssetInfoID: assetInfoID, Key: key, Ordinal: ordinal, ValJSON: &s}, nil
}

// ProjectUserMetadata decodes a user_metadata JSON object and projects every
// key into its EAV rows.
func ProjectUserMetadata(assetInfoID, userMetadataJSON string) ([]AssetInfoMeta, error) {
	var obj map[string]any
	if userMetadataJSON == "" {
		userMetadataJSON = "{}"
	}
	if err := json.Unmarshal([]byte(userMetadataJSON), &obj); err != nil {
		return nil, fmt.Errorf("decoding user metadata: %w", err)
	}

	var rows []AssetInfoMeta
	for key, value := range obj {
		kvRows, err := ProjectKV(assetInfoID, key, value)
		if err != nil {
			return nil, err
		}
		rows = append(rows, kvRows...)
	}
	return rows, nil
}

// ReplaceAssetInfoMetadataProjection deletes the existing projection rows
// for assetInfoID and re-inserts the projection of userMetadataJSON,
// keeping the EAV table consistent with the JSON blob stored on asset_info.
func ReplaceAssetInfoMetadataProjection(tx *sql.Tx, assetInfoID, userMetadataJSON string) error {
	rows, err := ProjectUserMetadata(assetInfoID, userMetadataJSON)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM asset_info_meta WHERE asset_info_id = ?`, assetInfoID); err != nil {
		return fmt.Errorf("clearing metadata projection: %w", err)
	}

	for _, r := range rows {
		if _, err := tx.Exec(`
			INSERT INTO asset_info_meta (asset_info_id, key, ordinal, val_str, val_num, val_bool, val_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, r.AssetInfoID, r.Key, r.Ordinal, r.ValStr, r.ValNum, boolPtrToInt(r.ValBool), r.ValJSON); err != nil {
			return fmt.Errorf("inserting metadata row for key %q: %w", r.Key, err)
		}
	}
	return nil
}

func boolPtrToInt(b *bool) any {
	if b == nil {
		return nil
	}
	if *b {
		return 1
	}
	return 0
}

// MetadataFilter is one {key: value} constraint from a listing request.
// Value carries the decoded JSON value exactly as received: a scalar, a
// list (OR over elements), or nil (match an explicit-null or absent key).
type MetadataFilter struct {
	Key   string
	Value any
}

// metaPredicate renders a single scalar (or null) value as an EXISTS
// fragment plus its bind arguments, matching the typed column the scalar's
// Go type corresponds to.
func metaPredicate(key string, value any) (string, []any, error) {
	switch v := value.(type) {
	case nil:
		return `(NOT EXISTS (
			SELECT 1 FROM asset_info_meta m
			WHERE m.asset_info_id = asset_info.id AND m.key = ?
		) OR EXISTS (
			SELECT 1 FROM asset_info_meta m
			WHERE m.asset_info_id = asset_info.id AND m.key = ?
			  AND m.val_str IS NULL AND m.val_num IS NULL AND m.val_bool IS NULL AND m.val_json IS NULL
		))`, []any{key, key}, nil
	case bool:
		b := 0
		if v {
			b = 1
		}
		return `EXISTS (
			SELECT 1 FROM asset_info_meta m
			WHERE m.asset_info_id = asset_info.id AND m.key = ? AND m.val_bool = ?
		)`, []any{key, b}, nil
	case float64:
		return `EXISTS (
			SELECT 1 FROM asset_info_meta m
			WHERE m.asset_info_id = asset_info.id AND m.key = ? AND m.val_num = ?
		)`, []any{key, v}, nil
	case string:
		return `EXISTS (
			SELECT 1 FROM asset_info_meta m
			WHERE m.asset_info_id = asset_info.id AND m.key = ? AND m.val_str = ?
		)`, []any{key, v}, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", nil, fmt.Errorf("encoding metadata filter value for key %q: %w", key, err)
		}
		return `EXISTS (
			SELECT 1 FROM asset_info_meta m
			WHERE m.asset_info_id = asset_info.id AND m.key = ? AND m.val_json = ?
		)`, []any{key, string(b)}, nil
	}
}

// BuildMetadataPredicate renders a list of MetadataFilters into a combined
// SQL fragment (ANDed across keys, ORed within a list-valued key's
// elements) and its bind arguments, ready to be appended to a WHERE clause
// with "AND (" + fragment + ")".
func BuildMetadataPredicate(filters []MetadataFilter) (string, []any, error) {
	if len(filters) == 0 {
		return "1=1", nil, nil
	}

	var clauses []string
	var args []any
	for _, f := range filters {
		if list, ok := f.Value.([]any); ok {
			var parts []string
			for _, el := range list {
				clause, a, err := metaPredicate(f.Key, el)
				if err != nil {
					return "", nil, err
				}
				parts = append(parts, clause)
				args = append(args, a...)
			}
			if len(parts) == 0 {
				clauses = append(clauses, "0=1")
				continue
			}
			clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
			continue
		}

		clause, a, err := metaPredicate(f.Key, f.Value)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
		args = append(args, a...)
	}

	return strings.Join(clauses, " AND "), args, nil
}
