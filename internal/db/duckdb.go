// Package db holds the in-memory DuckDB connection used to query data files.
package db

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

// Extensions are loaded once when the connection opens
var Extensions = []string{"json"}

var (
	dbInstance *sql.DB
	dbOnce     sync.Once
	dbErr      error
)

// GetDB returns the shared connection, opening it on first use
func GetDB() (*sql.DB, error) {
	dbOnce.Do(func() {
		dbInstance, dbErr = open()
	})
	return dbInstance, dbErr
}

// Close releases the shared connection. GetDB keeps returning the closed
// handle afterwards, so call it only on shutdown.
func Close() error {
	if dbInstance == nil {
		return nil
	}
	return dbInstance.Close()
}

func open() (*sql.DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	// DuckDB works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, ext := range Extensions {
		if err := loadExtension(db, ext); err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}

func loadExtension(db *sql.DB, name string) error {
	if _, err := db.Exec("INSTALL " + name); err != nil {
		return fmt.Errorf("failed to install %s extension: %w", name, err)
	}
	if _, err := db.Exec("LOAD " + name); err != nil {
		return fmt.Errorf("failed to load %s extension: %w", name, err)
	}
	return nil
}
