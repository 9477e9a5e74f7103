// Package mssql adapts package applier to SQL Server via
// github.com/denisenkom/go-mssqldb.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/denisenkom/go-mssqldb"

	"github.com/k0kubun/sqlitesession/applier"
	"github.com/k0kubun/sqlitesession/changeset"
	"github.com/k0kubun/sqlitesession/schema"
)

type dialect struct{}

func (dialect) QuoteIdent(name string) string   { return "[" + name + "]" }
func (dialect) Placeholder(position int) string { return "@p" + strconv.Itoa(position) }

type Database struct {
	config applier.Config
	db     *sql.DB
	logger applier.Logger
}

func NewDatabase(config applier.Config, logger applier.Logger) (*Database, error) {
	if logger == nil {
		logger = applier.NullLogger{}
	}
	db, err := sql.Open("sqlserver", buildDSN(config))
	if err != nil {
		return nil, err
	}
	return &Database{config: config, db: db, logger: logger}, nil
}

func buildDSN(config applier.Config) string {
	if config.DSN != "" {
		return config.DSN
	}
	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
		config.User, config.Password, config.Host, config.Port, config.DbName)
}

func (d *Database) Apply(ctx context.Context, ds *changeset.DiffSet, nameOf map[string]*schema.NamedTable) error {
	return applier.Apply(ctx, d.db, d.logger, ds, nameOf, dialect{}, d.config.Concurrency)
}

func (d *Database) DB() *sql.DB  { return d.db }
func (d *Database) Close() error { return d.db.Close() }
