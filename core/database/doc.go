// Package database handles the connection to the local record store and
// schema inspection.
//
// It wraps GORM with two dialects: MySQL for deployments and SQLite for local
// runs and tests (":memory:" works, the pool is pinned to one connection).
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns read the live table definition so that
// feature stores can refuse to run against a table that lacks their columns.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	missing, err := database.MissingColumns(db, "records", "uid", "data")
package database
