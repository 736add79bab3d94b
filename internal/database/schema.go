package database

import (
	"database/sql"

	"assetcatalog/internal/constants"
)

// GetCatalogSchema returns the full SQL schema for the catalog database.
func GetCatalogSchema() string {
	return `
-- asset: a content blob, identified by hash once known. hash is null for
-- a "seed asset" discovered by the scanner before hashing.
CREATE TABLE IF NOT EXISTS asset (
    id          TEXT PRIMARY KEY,
    hash        TEXT UNIQUE,
    size_bytes  INTEGER NOT NULL DEFAULT 0,
    mime_type   TEXT,
    created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_asset_hash ON asset(hash);

-- asset_cache_state: an on-disk locator for an asset. Many paths may point
-- at the same asset (same content, multiple disk copies).
CREATE TABLE IF NOT EXISTS asset_cache_state (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    asset_id      TEXT NOT NULL,
    file_path     TEXT NOT NULL UNIQUE,
    mtime_ns      INTEGER NOT NULL,
    needs_verify  INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (asset_id) REFERENCES asset(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_cache_state_asset ON asset_cache_state(asset_id);

-- asset_info: a named, tagged, owned handle onto an asset.
CREATE TABLE IF NOT EXISTS asset_info (
    id                TEXT PRIMARY KEY,
    asset_id          TEXT NOT NULL,
    owner_id          TEXT NOT NULL DEFAULT '',
    name              TEXT NOT NULL,
    preview_id        TEXT,
    user_metadata     TEXT NOT NULL DEFAULT '{}',
    created_at        TEXT NOT NULL,
    updated_at        TEXT NOT NULL,
    last_access_time  TEXT NOT NULL,
    FOREIGN KEY (asset_id) REFERENCES asset(id) ON DELETE CASCADE,
    FOREIGN KEY (preview_id) REFERENCES asset(id),
    UNIQUE (asset_id, owner_id, name)
);

CREATE INDEX IF NOT EXISTS idx_asset_info_asset ON asset_info(asset_id);
CREATE INDEX IF NOT EXISTS idx_asset_info_owner ON asset_info(owner_id);
CREATE INDEX IF NOT EXISTS idx_asset_info_name ON asset_info(name);
CREATE INDEX IF NOT EXISTS idx_asset_info_created ON asset_info(created_at);
CREATE INDEX IF NOT EXISTS idx_asset_info_updated ON asset_info(updated_at);
CREATE INDEX IF NOT EXISTS idx_asset_info_last_access ON asset_info(last_access_time);

-- tag: the vocabulary. system tags (e.g. "missing") are reserved.
CREATE TABLE IF NOT EXISTS tag (
    name      TEXT PRIMARY KEY,
    tag_type  TEXT NOT NULL DEFAULT 'user'
);

-- asset_info_tag: many-to-many link with provenance.
CREATE TABLE IF NOT EXISTS asset_info_tag (
    asset_info_id  TEXT NOT NULL,
    tag_name       TEXT NOT NULL,
    origin         TEXT NOT NULL DEFAULT 'manual',
    added_at       TEXT NOT NULL,
    PRIMARY KEY (asset_info_id, tag_name),
    FOREIGN KEY (asset_info_id) REFERENCES asset_info(id) ON DELETE CASCADE,
    FOREIGN KEY (tag_name) REFERENCES tag(name)
);

CREATE INDEX IF NOT EXISTS idx_asset_info_tag_tag ON asset_info_tag(tag_name);
CREATE INDEX IF NOT EXISTS idx_asset_info_tag_added ON asset_info_tag(added_at);

-- asset_info_meta: the typed EAV projection of asset_info.user_metadata.
-- Exactly one of val_str/val_num/val_bool/val_json is non-null, unless the
-- logical value was JSON null, in which case all four are null.
CREATE TABLE IF NOT EXISTS asset_info_meta (
    asset_info_id  TEXT NOT NULL,
    key            TEXT NOT NULL,
    ordinal        INTEGER NOT NULL DEFAULT 0,
    val_str        TEXT,
    val_num        REAL,
    val_bool       INTEGER,
    val_json       TEXT,
    PRIMARY KEY (asset_info_id, key, ordinal),
    FOREIGN KEY (asset_info_id) REFERENCES asset_info(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_meta_key ON asset_info_meta(key);
CREATE INDEX IF NOT EXISTS idx_meta_key_str ON asset_info_meta(key, val_str);
CREATE INDEX IF NOT EXISTS idx_meta_key_num ON asset_info_meta(key, val_num);
CREATE INDEX IF NOT EXISTS idx_meta_key_bool ON asset_info_meta(key, val_bool);
`
}

// ApplyPragmas applies all SQLite pragmas from constants.SQLitePragmas.
// Must be called immediately after opening any database connection.
func ApplyPragmas(db *sql.DB) error {
	for _, pragma := range constants.SQLitePragmas {
		if _, err := db.Exec(pragma); err != nil {
			return err
		}
	}
	return nil
}
