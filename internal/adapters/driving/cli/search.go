package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

var (
	searchKDocs   int
	searchKMarkup int
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Retrieve evidence for a query",
	Long: `Runs the same two-lane retrieval that generation uses and prints the
ranked chunks, one lane for support documents and one for markup. Useful
for checking what evidence a generation request would see.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchKDocs, "k-docs", domain.DefaultKDocs, "support document chunks to retrieve")
	searchCmd.Flags().IntVar(&searchKMarkup, "k-markup", domain.DefaultKMarkup, "markup chunks to retrieve")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	set, err := retrievalService.Retrieve(cmd.Context(), args[0], searchKDocs, searchKMarkup)
	if err != nil {
		return err
	}

	if searchJSON {
		data, err := json.MarshalIndent(set, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling evidence: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printLane(cmd, "Support documents", set.SupportDocs)
	cmd.Println()
	printLane(cmd, "Markup", set.Markup)
	return nil
}

func printLane(cmd *cobra.Command, title string, evidence []domain.Evidence) {
	cmd.Printf("%s (%d):\n", title, len(evidence))
	for i, ev := range evidence {
		text := ev.Chunk.Text
		if len(text) > 160 {
			text = text[:160] + "…"
		}
		cmd.Printf("  [%d] %s #%d (%.3f)\n", i+1, ev.Chunk.SourceFilename, ev.Chunk.SequenceIndex, ev.Score)
		cmd.Printf("      %s\n", text)
	}
}
