package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/testbrain-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", domain.Code(err), err)
		os.Exit(1)
	}
}
