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
	scriptPlanFile string
	scriptOut      string
)

var scriptCmd = &cobra.Command{
	Use:   "script <test-case-id>",
	Short: "Generate a Selenium script for a test case",
	Long: `Synthesises a Python Selenium script for one test case. Every selector
the script uses is validated against the HTML actually retrieved from the
knowledge base; a script that references elements the page does not have
is rejected rather than returned.

The test case is resolved from a plan file written by
'testbrain generate -o plan.json'.`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	scriptCmd.Flags().StringVarP(&scriptPlanFile, "plan", "p", "plan.json", "plan file to resolve the test case from")
	scriptCmd.Flags().StringVarP(&scriptOut, "output", "o", "", "write the script code to a file")
	rootCmd.AddCommand(scriptCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	testCaseID := args[0]

	tc, err := loadCaseFromPlan(scriptPlanFile, testCaseID)
	if err != nil {
		return err
	}

	script, err := scriptService.GenerateScriptForCase(cmd.Context(), tc)
	if err != nil {
		return err
	}

	if scriptOut != "" {
		if err := os.WriteFile(scriptOut, []byte(script.Code), 0600); err != nil {
			return fmt.Errorf("writing script: %w", err)
		}
		cmd.Printf("Script written to %s\n", scriptOut)
	} else {
		cmd.Println(script.Code)
	}

	cmd.PrintErrf("Selectors validated against %s: %s\n",
		strings.Join(script.SourceFilenames, ", "), strings.Join(script.Selectors, ", "))
	return nil
}

// loadCaseFromPlan reads a plan file and resolves one test case by id.
func loadCaseFromPlan(path, testCaseID string) (domain.TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.TestCase{}, fmt.Errorf("%w: plan file %q not found, run 'testbrain generate -o %s' first",
				domain.ErrTestCaseNotFound, path, path)
		}
		return domain.TestCase{}, fmt.Errorf("reading plan: %w", err)
	}

	var plan domain.TestPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return domain.TestCase{}, fmt.Errorf("%w: %q is not a valid plan file: %v", domain.ErrInvalidInput, path, err)
	}

	tc, ok := plan.FindCase(testCaseID)
	if !ok {
		return domain.TestCase{}, fmt.Errorf("%w: %q is not in %s", domain.ErrTestCaseNotFound, testCaseID, path)
	}
	return tc, nil
}
