package main

import (
	"fmt"
	"os"

	"github.com/roach88/storefront/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "storefront:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
