// Package cli provides the cobra command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driving"
	"github.com/custodia-labs/testbrain-cli/internal/logger"
)

// version is set by Execute from the build's main package.
var version = "dev"

var verbose bool

// Services wired at startup. Tests inject mocks through SetServices.
var (
	ingestionService  driving.IngestionService
	retrievalService  driving.RetrievalService
	generationService driving.GenerationService
	scriptService     driving.ScriptService
	configStore       driven.ConfigStore
)

var rootCmd = &cobra.Command{
	Use:   "testbrain",
	Short: "A testing brain for QA teams",
	Long: `Testbrain turns project documents and an HTML page under test into a
queryable knowledge base, then generates grounded QA test cases and
selector-validated Selenium scripts from it.

Workflow:
  testbrain ingest docs/*.md checkout.html   # build the knowledge base
  testbrain generate "test the discounts"    # grounded test plan
  testbrain script TC-001                    # Selenium script for one case`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		logger.SetOutput(cmd.ErrOrStderr())

		if !commandNeedsServices(cmd) || servicesWired() {
			return nil
		}
		return wireServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command. Called once from main.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

// SetServices injects service implementations, replacing any wired ones.
// Used by tests; production wiring happens in wireServices.
func SetServices(
	ingestion driving.IngestionService,
	retrieval driving.RetrievalService,
	generation driving.GenerationService,
	script driving.ScriptService,
) {
	ingestionService = ingestion
	retrievalService = retrieval
	generationService = generation
	scriptService = script
}

// servicesWired reports whether the core services are available.
func servicesWired() bool {
	return retrievalService != nil
}

// commandNeedsServices reports whether the command touches core services.
// Help, completion and version must work without a reachable backend.
func commandNeedsServices(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "completion", "config":
			return false
		}
	}
	return true
}
