package main

import (
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/k0kubun/sqlitesession/changeset"
	"github.com/k0kubun/sqlitesession/wireparser"
)

// runDump parses a changeset/patchset payload and pretty-prints the
// tables and operations it contains.
func runDump(args []string) error {
	var opts struct {
		File string `short:"f" long:"file" description:"Read the payload from the file, rather than stdin" value-name:"filename" default:"-"`
	}

	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "dump [option...]"
	if _, err := parser.ParseArgs(args); err != nil {
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

	printer := pp.New()
	printer.SetColoringEnabled(term.IsTerminal(int(os.Stdout.Fd())))
	printer.Println(ds.Format().String())
	for _, t := range ds.Walk() {
		printer.Println(t.Table.Name())
		for _, op := range t.Ops {
			printer.Println(describeOp(op))
		}
	}
	return nil
}

func describeOp(op changeset.Op) string {
	switch op.Kind {
	case changeset.OpInsert:
		return "INSERT " + formatRow(op.New)
	case changeset.OpDelete:
		return "DELETE " + formatRow(op.Old)
	default:
		return "UPDATE " + formatRow(op.Old) + " -> " + formatRow(op.New)
	}
}
