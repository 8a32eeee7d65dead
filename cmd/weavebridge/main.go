// Command weavebridge translates data-connector requests into Weaviate calls.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/weavebridge/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
