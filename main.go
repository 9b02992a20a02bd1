package main

import (
	"os"

	"github.com/shaktech786/arr-suite-mcp-server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
