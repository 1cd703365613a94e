package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active knowledge base",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	status, err := ingestionService.Status(cmd.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			cmd.Println("No knowledge base built yet. Run 'testbrain ingest' first.")
			return nil
		}
		return err
	}

	cmd.Printf("Build:              %s\n", status.BuildID)
	cmd.Printf("Built at:           %s\n", status.BuiltAt.Local().Format("2006-01-02 15:04:05"))
	cmd.Printf("Documents:          %d\n", status.Documents)
	cmd.Printf("Support doc chunks: %d\n", status.SupportDocChunks)
	cmd.Printf("Markup chunks:      %d\n", status.MarkupChunks)
	if status.Usable {
		cmd.Println("Ready for generation.")
	} else {
		cmd.Println("Not usable: needs at least one support document chunk and one markup chunk.")
	}
	return nil
}
