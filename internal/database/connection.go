package database

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// OpenDatabase opens a SQLite database at the given path and applies pragmas.
// Uses _txlock=immediate so BEGIN acquires a RESERVED lock up front, which is
// what makes the ON CONFLICT DO NOTHING + requery pattern used throughout
// this package safe under concurrent writers: two overlapping upserts
// serialize at BEGIN instead of racing to the first write inside the
// transaction.
func OpenDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_txlock=immediate")
	if err != nil {
		return nil, err
	}

	if err := ApplyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// InitCatalogDB opens or creates the catalog database and ensures its schema
// exists. Schema application is idempotent (CREATE TABLE/INDEX IF NOT
// EXISTS), so this is safe to call on every startup.
func InitCatalogDB(path string) (*sql.DB, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(GetCatalogSchema()); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
