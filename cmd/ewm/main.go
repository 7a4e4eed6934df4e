// Command ewm manages participation requests for capacity-bounded events.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/ewm/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
