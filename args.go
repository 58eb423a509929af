/* ==================================================================================== *\
    args.go

    Program arguments handling
\* ==================================================================================== */

package main

import (
	"flag"
	"os"
)

/*
 * Handle the args for the "status" subcommand.
 */
func handle_args_status(args []string) (_workdir string, _block_size int) {
	if len(args) <= 0 {
		println("Missing arguments")
		os.Exit(-1)
	}
	cmd := flag.NewFlagSet(args[0], flag.ExitOnError)

	cmd.StringVar(&_workdir, "d", ".", "Working directory for raw/parsed/prefixes/formatted/analysis/cache")
	cmd.IntVar(&_block_size, "block-size", 2000, "The max_block_size of the run being inspected")

	cmd.Parse(args[1:])
	return
}
