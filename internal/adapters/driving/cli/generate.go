package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

var (
	generateJSON bool
	generateOut  string
)

var generateCmd = &cobra.Command{
	Use:   "generate <request>",
	Short: "Generate a grounded test plan",
	Long: `Retrieves evidence from the knowledge base for the request and generates
coverage viewpoints plus test cases. Every case cites the source files it
was derived from; cases the model could not ground are dropped and listed.

Write the plan to a file with -o to feed individual cases to
'testbrain script --plan'.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "output the plan as JSON")
	generateCmd.Flags().StringVarP(&generateOut, "output", "o", "", "write the plan JSON to a file")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	plan, err := generationService.GenerateTestCases(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if generateOut != "" {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling plan: %w", err)
		}
		if err := os.WriteFile(generateOut, append(data, '\n'), 0600); err != nil {
			return fmt.Errorf("writing plan: %w", err)
		}
		cmd.Printf("Plan written to %s (%d cases)\n", generateOut, len(plan.TestCases))
		return nil
	}

	if generateJSON {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling plan: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printPlan(cmd, plan)
	return nil
}

func printPlan(cmd *cobra.Command, plan *domain.TestPlan) {
	cmd.Println("Viewpoints:")
	for _, vp := range plan.Viewpoints {
		cmd.Printf("  - %s\n", vp)
	}

	cmd.Println()
	cmd.Printf("Test cases (%d):\n", len(plan.TestCases))
	for _, tc := range plan.TestCases {
		cmd.Println()
		cmd.Printf("  [%s] %s\n", tc.ID, tc.Title)
		if tc.Preconditions != "" {
			cmd.Printf("    Preconditions: %s\n", tc.Preconditions)
		}
		for i, step := range tc.Steps {
			cmd.Printf("    %d. %s\n", i+1, step)
		}
		cmd.Printf("    Expected: %s\n", tc.ExpectedResult)
		cmd.Printf("    Sources:  %s\n", strings.Join(tc.GroundedIn, ", "))
	}

	if len(plan.Dropped) > 0 {
		cmd.Println()
		cmd.Printf("Dropped (%d):\n", len(plan.Dropped))
		for _, dropped := range plan.Dropped {
			cmd.Printf("  [%s] %s\n", dropped.ID, dropped.Reason)
		}
	}
}
