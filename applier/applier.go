// Package applier translates a parsed DiffSet into literal SQL and
// executes it against a live database. It never opens a SQLite database
// through the session-extension C API and never resolves conflicts at
// apply time: it executes operations best-effort and surfaces the first
// database/sql error, exactly like the core library's spec says the
// outer world should use changeset/patchset payloads.
package applier

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/k0kubun/sqlitesession/changeset"
	"github.com/k0kubun/sqlitesession/schema"
)

// Config carries the connection parameters common to every backend. Not
// every field is meaningful for every driver; unused fields are ignored
// by that driver's DSN builder.
type Config struct {
	DSN      string
	DbName   string
	User     string
	Password string
	Host     string
	Port     int

	// Concurrency bounds how many tables' statement batches run at once
	// (0 serializes them one at a time; negative is unlimited), mirroring
	// the teacher's DumpConcurrency knob. Each batch runs in its own
	// transaction at every setting, so a failure in one table's batch
	// never rolls back tables that already committed.
	Concurrency int
}

// Database is the abstraction layer each backend adapter (applier/mysql,
// applier/postgres, applier/mssql, applier/sqlite3) implements.
type Database interface {
	// Apply executes every operation recorded in ds, against the tables
	// named in nameOf, one transaction per table.
	Apply(ctx context.Context, ds *changeset.DiffSet, nameOf map[string]*schema.NamedTable) error
	DB() *sql.DB
	Close() error
}

// Apply is the shared transactional executor every backend's Apply method
// delegates to: it groups ds's operations into one batch per table, in
// Walk's emission order, and runs each batch in its own transaction, up
// to concurrency batches in flight at once (via ConcurrentMapFuncWithError,
// mirroring the teacher's table-DDL dump fan-out). *sql.Tx is not safe for
// concurrent use by multiple goroutines, so each batch opens its own
// transaction from db's connection pool rather than sharing one; a table's
// batch is all-or-nothing, but one table's failure never rolls back a
// different table that already committed, whatever concurrency is.
func Apply(ctx context.Context, db *sql.DB, logger Logger, ds *changeset.DiffSet, nameOf map[string]*schema.NamedTable, dialect Dialect, concurrency int) error {
	batches := buildTableBatches(ds, nameOf, dialect)
	_, err := ConcurrentMapFuncWithError(batches, concurrency, func(b tableBatch) (struct{}, error) {
		return struct{}{}, applyBatch(ctx, db, logger, b)
	})
	return err
}

func applyBatch(ctx context.Context, db *sql.DB, logger Logger, b tableBatch) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	for _, stmt := range b.statements {
		logger.Printf("%s\n", stmt.SQL)
		if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("applier: executing %q against %q: %w", stmt.SQL, b.name, err)
		}
	}

	return tx.Commit()
}
