package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/k0kubun/sqlitesession/changeset"
	"github.com/k0kubun/sqlitesession/sqldigest"
)

// runBuild reads digest statements (one INSERT/UPDATE/DELETE per line)
// from a file or stdin, applies each to a patchset DiffSet, and writes
// the serialized payload to stdout.
func runBuild(args []string) error {
	var opts struct {
		File   string `short:"f" long:"file" description:"Read digest statements from the file, rather than stdin" value-name:"filename" default:"-"`
		Table  string `long:"table" description:"Table spec: name:col1,col2,...:pk1,pk2,..." required:"true"`
		Config string `long:"config" description:"YAML file specifying allow_tables/deny_tables"`
	}

	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "build [option...]"
	if _, err := parser.ParseArgs(args); err != nil {
		return err
	}

	table, err := parseTableSpec(opts.Table)
	if err != nil {
		return err
	}

	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return err
	}
	if !cfg.TableAllowed(table.Name()) {
		return fmt.Errorf("table %q is not allowed by config", table.Name())
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

	ds := changeset.New(changeset.Patchset)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		stmt := strings.TrimSpace(strings.TrimSuffix(scanner.Text(), ";"))
		if stmt == "" {
			continue
		}
		if err := sqldigest.Digest(ds, table, stmt); err != nil {
			return fmt.Errorf("digesting %q: %w", stmt, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	_, err = os.Stdout.Write(ds.Build())
	return err
}
