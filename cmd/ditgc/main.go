// Command ditgc deletes dit issue references that no longer carry
// information.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/ditgc/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ditgc:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
