package main

import (
	"fmt"
	"os"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
