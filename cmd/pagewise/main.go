// Command pagewise answers questions about web pages.
package main

import (
	"os"

	"github.com/custodia-labs/pagewise/internal/adapters/driving/cli"
)

// version is set via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
