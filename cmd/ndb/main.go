// Command ndb is a command-line client for the embedded nostr note database.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/ndb/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
