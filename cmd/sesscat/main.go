// Command sesscat builds, inspects, and applies changeset/patchset wire
// payloads from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/k0kubun/sqlitesession/util"
)

func main() {
	util.InitSlog()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: sesscat <build|dump|apply> [options]")
		os.Exit(1)
	}

	subcommand, args := os.Args[1], os.Args[2:]
	var err error
	switch subcommand {
	case "build":
		err = runBuild(args)
	case "dump":
		err = runDump(args)
	case "apply":
		err = runApply(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", subcommand)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "sesscat:", err)
		os.Exit(1)
	}
}
