// Command pocnode is a thin demo binary composing the mempool and
// seeker packages, the way cmd/obsidiand demonstrates the teacher's
// blockchain and mining packages. It has no network surface of its own
// (networking is out of scope); every subcommand runs entirely
// in-process against local state.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"pocnode/cmd/pocnode/cmd"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&cmd.MempoolArgs{}, "")
	subcommands.Register(&cmd.SeekArgs{}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
