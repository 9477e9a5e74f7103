package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/k0kubun/sqlitesession/applier"
	"github.com/k0kubun/sqlitesession/applier/mssql"
	"github.com/k0kubun/sqlitesession/applier/mysql"
	"github.com/k0kubun/sqlitesession/applier/postgres"
	"github.com/k0kubun/sqlitesession/applier/sqlite3"
	"github.com/k0kubun/sqlitesession/schema"
	"github.com/k0kubun/sqlitesession/wireparser"
)

// runApply parses a changeset/patchset payload and executes it against a
// live database selected by --driver.
func runApply(args []string) error {
	var opts struct {
		File        string `short:"f" long:"file" description:"Read the payload from the file, rather than stdin" value-name:"filename" default:"-"`
		Driver      string `long:"driver" description:"mysql, postgres, mssql, or sqlite3" required:"true"`
		DSN         string `long:"dsn" description:"Driver-specific data source name" required:"true"`
		Table       string `long:"table" description:"Table spec: name:col1,col2,...:pk1,pk2,..." required:"true"`
		Concurrency int    `long:"concurrency" description:"Tables' statement batches to run at once (0 serializes them)" default:"0"`
	}

	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "apply [option...]"
	if _, err := parser.ParseArgs(args); err != nil {
		return err
	}

	table, err := parseTableSpec(opts.Table)
	if err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if opts.File != "-" && opts.File != "" {
		f, err := os.Open(opts.File)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	ds, err := wireparser.Parse(buf)
	if err != nil {
		return err
	}

	db, err := openDatabase(opts.Driver, applier.Config{DSN: opts.DSN, Concurrency: opts.Concurrency}, applier.StdoutLogger{})
	if err != nil {
		return err
	}
	defer db.Close()

	nameOf := map[string]*schema.NamedTable{table.Name(): table}
	return db.Apply(context.Background(), ds, nameOf)
}

func openDatabase(driver string, config applier.Config, logger applier.Logger) (applier.Database, error) {
	switch driver {
	case "mysql":
		return mysql.NewDatabase(config, logger)
	case "postgres":
		return postgres.NewDatabase(config, logger)
	case "mssql":
		return mssql.NewDatabase(config, logger)
	case "sqlite3":
		return sqlite3.NewDatabase(config, logger)
	default:
		return nil, fmt.Errorf("unknown --driver %q", driver)
	}
}
