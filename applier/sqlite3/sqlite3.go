// Package sqlite3 adapts package applier to SQLite via
// modernc.org/sqlite, a pure-Go (no cgo) driver. This touches an actual
// SQLite engine only through ordinary database/sql statements, never the
// session extension C API the core library deliberately never links.
package sqlite3

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/k0kubun/sqlitesession/applier"
	"github.com/k0kubun/sqlitesession/changeset"
	"github.com/k0kubun/sqlitesession/schema"
)

type dialect struct{}

func (dialect) QuoteIdent(name string) string   { return `"` + name + `"` }
func (dialect) Placeholder(position int) string { return "?" }

type Database struct {
	config applier.Config
	db     *sql.DB
	logger applier.Logger
}

func NewDatabase(config applier.Config, logger applier.Logger) (*Database, error) {
	if logger == nil {
		logger = applier.NullLogger{}
	}
	path := config.DSN
	if path == "" {
		path = config.DbName
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &Database{config: config, db: db, logger: logger}, nil
}

func (d *Database) Apply(ctx context.Context, ds *changeset.DiffSet, nameOf map[string]*schema.NamedTable) error {
	return applier.Apply(ctx, d.db, d.logger, ds, nameOf, dialect{}, d.config.Concurrency)
}

func (d *Database) DB() *sql.DB  { return d.db }
func (d *Database) Close() error { return d.db.Close() }
