package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/testbrain-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/testbrain-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

// configKeys maps every supported key to a short description. Integer
// keys are parsed before storing so the TOML file stays typed.
var configKeys = map[string]string{
	keyEmbeddingProvider:   "embedding provider (ollama or openai)",
	keyEmbeddingModel:      "embedding model name",
	keyEmbeddingBaseURL:    "embedding base URL (local providers)",
	keyEmbeddingAPIKey:     "embedding API key (or set OPENAI_API_KEY)",
	keyEmbeddingDimensions: "embedding vector dimensions",
	keyCompletionProvider:  "completion provider (ollama or openai)",
	keyCompletionModel:     "completion model name",
	keyCompletionBaseURL:   "completion base URL (local providers)",
	keyCompletionAPIKey:    "completion API key (or set OPENAI_API_KEY)",
	keyRetrievalKDocs:      "support document chunks retrieved per query",
	keyRetrievalKMarkup:    "markup chunks retrieved per query",
}

var intConfigKeys = map[string]bool{
	keyEmbeddingDimensions: true,
	keyRetrievalKDocs:      true,
	keyRetrievalKMarkup:    true,
}

var secretConfigKeys = map[string]bool{
	keyEmbeddingAPIKey:  true,
	keyCompletionAPIKey: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change the AI provider and retrieval configuration stored in
~/.testbrain/config.toml.

Run without arguments to show the current configuration. Use
'config set <key> <value>' to change a value and 'config get <key>' to
read one.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Read a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configured AI backends",
	Long: `Create the configured embedding and completion services and ping each
backend. Nothing is ingested or generated; this only confirms the
services are reachable with the current configuration.`,
	RunE: runConfigCheck,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

// configStoreForCommand returns the wired config store, opening one if
// the command ran without full service wiring.
func configStoreForCommand() (*file.ConfigStore, error) {
	if cs, ok := configStore.(*file.ConfigStore); ok && cs != nil {
		return cs, nil
	}
	cfg, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("opening config store: %w", err)
	}
	configStore = cfg
	return cfg, nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := configStoreForCommand()
	if err != nil {
		return err
	}

	cmd.Printf("Configuration (%s)\n\n", cfg.Path())

	keys := make([]string, 0, len(configKeys))
	for key := range configKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		cmd.Printf("  %-24s %s\n", key, displayValue(cfg, key))
	}

	cmd.Println()
	embed, complete, retrieval := loadSettings(cfg)
	cmd.Printf("Effective embedding:  %s %s (%d dims)\n",
		providerName(embed.Provider), embed.Model, embed.Dimensions)
	cmd.Printf("Effective completion: %s %s\n", providerName(complete.Provider), complete.Model)
	cmd.Printf("Effective retrieval:  k_docs=%d k_markup=%d\n", retrieval.KDocs, retrieval.KMarkup)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if err := validateConfigKey(key); err != nil {
		return err
	}
	cfg, err := configStoreForCommand()
	if err != nil {
		return err
	}
	cmd.Println(displayValue(cfg, key))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]
	if err := validateConfigKey(key); err != nil {
		return err
	}
	cfg, err := configStoreForCommand()
	if err != nil {
		return err
	}

	var value any = raw
	if intConfigKeys[key] {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %q must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		value = int64(n)
	}

	if err := cfg.Set(key, value); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	cmd.Printf("Set %s\n", key)
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := configStoreForCommand()
	if err != nil {
		return err
	}
	embed, complete, _ := loadSettings(cfg)

	cmd.Print("Checking embedding service... ")
	embedSvc, err := ai.CreateAndValidateEmbeddingService(embed)
	if err != nil {
		cmd.Println("FAILED")
		return err
	}
	cmd.Printf("OK (%s, %s, %d dims)\n",
		providerName(embed.Provider), embedSvc.ModelName(), embedSvc.Dimensions())
	embedSvc.Close()

	cmd.Print("Checking completion service... ")
	completeSvc, err := ai.CreateAndValidateCompletionService(complete)
	if err != nil {
		cmd.Println("FAILED")
		return err
	}
	cmd.Printf("OK (%s, %s)\n", providerName(complete.Provider), completeSvc.ModelName())
	completeSvc.Close()

	return nil
}

func validateConfigKey(key string) error {
	if _, ok := configKeys[key]; ok {
		return nil
	}
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Errorf("%w: unknown config key %q, valid keys: %s",
		domain.ErrInvalidInput, key, strings.Join(keys, ", "))
}

func displayValue(cfg *file.ConfigStore, key string) string {
	val, ok := cfg.Get(key)
	if !ok {
		return "(not set)"
	}
	if secretConfigKeys[key] {
		if s, ok := val.(string); ok {
			return maskAPIKey(s)
		}
	}
	return fmt.Sprintf("%v", val)
}

func providerName(p domain.AIProvider) string {
	if p == "" {
		return string(domain.AIProviderOllama) + " (default)"
	}
	return string(p)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
