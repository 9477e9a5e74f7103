// Package mysql adapts package applier to MySQL via
// github.com/go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	driver "github.com/go-sql-driver/mysql"

	"github.com/k0kubun/sqlitesession/applier"
	"github.com/k0kubun/sqlitesession/changeset"
	"github.com/k0kubun/sqlitesession/schema"
)

type dialect struct{}

func (dialect) QuoteIdent(name string) string  { return "`" + name + "`" }
func (dialect) Placeholder(position int) string { return "?" }

type Database struct {
	config applier.Config
	db     *sql.DB
	logger applier.Logger
}

// NewDatabase opens a connection and returns a Database ready for Apply.
func NewDatabase(config applier.Config, logger applier.Logger) (*Database, error) {
	if logger == nil {
		logger = applier.NullLogger{}
	}
	db, err := sql.Open("mysql", buildDSN(config))
	if err != nil {
		return nil, err
	}
	return &Database{config: config, db: db, logger: logger}, nil
}

func buildDSN(config applier.Config) string {
	if config.DSN != "" {
		return config.DSN
	}
	cfg := driver.NewConfig()
	cfg.User = config.User
	cfg.Passwd = config.Password
	cfg.DBName = config.DbName
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", config.Host, config.Port)
	return cfg.FormatDSN()
}

func (d *Database) Apply(ctx context.Context, ds *changeset.DiffSet, nameOf map[string]*schema.NamedTable) error {
	return applier.Apply(ctx, d.db, d.logger, ds, nameOf, dialect{}, d.config.Concurrency)
}

func (d *Database) DB() *sql.DB { return d.db }
func (d *Database) Close() error { return d.db.Close() }
