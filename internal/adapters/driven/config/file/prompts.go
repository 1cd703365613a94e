package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptTestPlan: `You are an expert QA Automation Engineer.
The retrieved context snippets below are each prefixed with [Source:<filename>].
Use ONLY this information to build:
- A list called "viewpoints" describing 3-5 distinct ways to look at the system under test.
- A "test_cases" list with detailed cases grounded in the sources.

Context:
%s

User Request: %s

Rules:
1. Do not invent features that are not explicitly mentioned in the context.
2. Every test case must include: "id", "title", "preconditions", "steps", "expected_result", "grounded_in".
3. "steps" is an ordered list of strings; "grounded_in" is a list of source filenames from the context.
4. Every filename in "grounded_in" must match one of the [Source:...] filenames above.
5. Provide at least one positive and one negative scenario when the context allows it.
6. Return ONLY valid JSON with keys "viewpoints" and "test_cases", no markdown formatting.`,

	driven.PromptScript: `You are an expert Python Selenium Developer.
Generate a complete, runnable Python Selenium script for the following test case.

Test Case:
%s

Target Markup (each snippet prefixed with [Source:<filename>]):
%s

Relevant Documentation Context:
%s

Requirements:
1. Use 'webdriver.Chrome()'.
2. Assume the page is located at 'file:///path/to/page.html' (use a placeholder path).
3. Use explicit waits (WebDriverWait) instead of sleep where possible.
4. Use precise selectors taken from the provided markup only (IDs, names, classes).
5. Include assertions that verify the expected result.
6. Return ONLY valid JSON with keys "code" (the Python source as one string) and "selectors" (the list of selector strings the code uses), no markdown formatting.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.testbrain/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".testbrain", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Testbrain Prompts

This directory contains customisable prompts used for grounded generation.

## Files

- ` + "`test_plan.txt`" + ` - Generates coverage viewpoints and grounded test cases
- ` + "`script.txt`" + ` - Generates a Python Selenium script for one test case

## Customisation

Edit any file to customise generation behaviour. Changes take effect on the
next command.

## Format Placeholders

Prompts use Go fmt placeholders:
- ` + "`%s`" + ` - String (evidence context, user request, test case block)

Ensure customised prompts maintain placeholders in the correct positions,
and keep the JSON output contract intact: generation validates the model's
output against it.
`
	return os.WriteFile(path, []byte(content), 0600)
}
