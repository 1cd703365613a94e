package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/logger"
)

// rebuildDebounce coalesces bursts of filesystem events (editors often fire
// several per save) into one rebuild.
const rebuildDebounce = 500 * time.Millisecond

var (
	ingestWatch      bool
	ingestMarkupOnly []string
	ingestDocOnly    []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <files...>",
	Short: "Build the knowledge base from documents and an HTML page",
	Long: `Reads the given files, chunks and embeds them, and activates a new
knowledge base. The batch must contain at least one support document
(MD, TXT, JSON, PDF text) and at least one HTML page; otherwise it is
rejected whole and the previous knowledge base stays active.

File types are inferred from extensions. Use --as-markup / --as-doc to
override for individual files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "watch the files and rebuild on change")
	ingestCmd.Flags().StringSliceVar(&ingestMarkupOnly, "as-markup", nil, "treat these files as markup regardless of extension")
	ingestCmd.Flags().StringSliceVar(&ingestDocOnly, "as-doc", nil, "treat these files as support documents regardless of extension")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := ingestOnce(ctx, cmd, args); err != nil {
		if !ingestWatch {
			return err
		}
		// In watch mode a failed build is not fatal: the previous build
		// stays active and the next file change retries.
		cmd.PrintErrf("Build failed: %v\n", err)
	}

	if !ingestWatch {
		return nil
	}
	return watchAndRebuild(ctx, cmd, args)
}

// ingestOnce reads the files and runs one rebuild.
func ingestOnce(ctx context.Context, cmd *cobra.Command, paths []string) error {
	batch, err := readBatch(paths)
	if err != nil {
		return err
	}

	report, err := ingestionService.Rebuild(ctx, batch)
	if err != nil {
		return err
	}

	cmd.Printf("Knowledge base built: %s\n", report.BuildID)
	cmd.Printf("  Documents:          %d\n", report.Documents)
	cmd.Printf("  Support doc chunks: %d\n", report.SupportDocChunks)
	cmd.Printf("  Markup chunks:      %d\n", report.MarkupChunks)
	for _, warning := range report.Warnings {
		cmd.Printf("  Warning: %s\n", warning)
	}
	return nil
}

// readBatch loads the files into ingestion entries, applying type overrides.
func readBatch(paths []string) ([]domain.IngestionEntry, error) {
	markupOverride := toSet(ingestMarkupOnly)
	docOverride := toSet(ingestDocOnly)

	batch := make([]domain.IngestionEntry, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		name := filepath.Base(path)
		entry := domain.IngestionEntry{Filename: name, Content: content}
		if markupOverride[name] || markupOverride[path] {
			entry.DeclaredType = domain.SourceTypeMarkup
		} else if docOverride[name] || docOverride[path] {
			entry.DeclaredType = domain.SourceTypeSupportDoc
		}
		batch = append(batch, entry)
	}
	return batch, nil
}

// watchAndRebuild blocks, rebuilding the knowledge base whenever one of the
// ingested files changes on disk.
func watchAndRebuild(ctx context.Context, cmd *cobra.Command, paths []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch parent directories: editors replace files on save, and a watch
	// on the file itself dies with the old inode.
	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolving %q: %w", path, err)
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %q: %w", dir, err)
		}
	}

	cmd.Printf("Watching %d files for changes (Ctrl+C to stop)\n", len(watched))

	var debounce *time.Timer
	rebuilds := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("Change detected: %s (%s)", event.Name, event.Op)
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(rebuildDebounce, func() {
				select {
				case rebuilds <- struct{}{}:
				default:
				}
			})

		case <-rebuilds:
			if err := ingestOnce(ctx, cmd, paths); err != nil {
				cmd.PrintErrf("Rebuild failed: %v\n", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmd.PrintErrf("Watch error: %v\n", err)
		}
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
