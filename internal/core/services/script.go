package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driving"
	"github.com/custodia-labs/testbrain-cli/internal/logger"
)

// Ensure ScriptService implements the interface.
var _ driving.ScriptService = (*ScriptService)(nil)

// ScriptService synthesises Python Selenium scripts for generated test
// cases. Every selector the script references is checked against the markup
// evidence retrieved for this synthesis; a script that touches an element
// the retrieved markup does not contain is never returned. One retry with
// doubled markup retrieval depth is attempted before giving up, in case the
// first retrieval simply missed the region holding the element.
type ScriptService struct {
	retriever driving.RetrievalService
	completer driven.CompletionService
	prompts   driven.PromptStore
	planStore driven.PlanStore
	settings  domain.RetrievalSettings
}

// NewScriptService creates a script synthesis service. planStore is needed
// only for GenerateScript's id resolution; GenerateScriptForCase works
// without one.
func NewScriptService(
	retriever driving.RetrievalService,
	completer driven.CompletionService,
	prompts driven.PromptStore,
	planStore driven.PlanStore,
	settings domain.RetrievalSettings,
) *ScriptService {
	return &ScriptService{
		retriever: retriever,
		completer: completer,
		prompts:   prompts,
		planStore: planStore,
		settings:  settings.Normalise(),
	}
}

// scriptEnvelope is the JSON contract the script prompt demands.
type scriptEnvelope struct {
	Code      string   `json:"code"`
	Selectors []string `json:"selectors"`
}

// byLocator matches Selenium locator calls in generated Python code, e.g.
// By.ID, "user-email". The code is the authority on which elements the
// script touches; the declared selectors list is validated as well but
// cannot hide a locator the code uses.
var byLocator = regexp.MustCompile(`By\.(ID|NAME|CSS_SELECTOR)\s*,\s*["']([^"']+)["']`)

// GenerateScript resolves a stored test case by id and synthesises its
// script.
func (s *ScriptService) GenerateScript(ctx context.Context, testCaseID string) (*domain.GeneratedScript, error) {
	if s.planStore == nil {
		return nil, fmt.Errorf("%w: no session plan store configured", domain.ErrTestCaseNotFound)
	}
	tc, err := s.planStore.GetCase(ctx, testCaseID)
	if err != nil {
		return nil, err
	}
	return s.GenerateScriptForCase(ctx, *tc)
}

// GenerateScriptForCase synthesises a script for a caller-supplied case.
func (s *ScriptService) GenerateScriptForCase(ctx context.Context, tc domain.TestCase) (*domain.GeneratedScript, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	if s.completer == nil {
		return nil, domain.ErrCompletionUnavailable
	}

	logger.Section("Script Synthesis")
	logger.Info("Test case: %s (%s)", tc.ID, tc.Title)

	// Markup retrieval is at least as deep as doc retrieval here: the
	// script needs the page regions, not just the prose.
	kMarkup := s.settings.KMarkup
	if kMarkup < s.settings.KDocs {
		kMarkup = s.settings.KDocs
	}

	script, invalid, err := s.attempt(ctx, tc, kMarkup)
	if err != nil {
		return nil, err
	}
	if len(invalid) > 0 {
		logger.Warn("Selectors %v not found in markup evidence, retrying with k=%d", invalid, kMarkup*2)
		script, invalid, err = s.attempt(ctx, tc, kMarkup*2)
		if err != nil {
			return nil, err
		}
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("%w: selectors not present in retrieved markup: %s",
			domain.ErrSelectorValidation, strings.Join(invalid, ", "))
	}

	logger.Info("Script validated: %d selectors against %d markup sources", len(script.Selectors), len(script.SourceFilenames))
	return script, nil
}

// attempt runs one retrieve-prompt-validate cycle. It returns the script
// and the selectors that failed validation; a non-empty invalid list is not
// an error here because the caller decides whether to retry.
func (s *ScriptService) attempt(ctx context.Context, tc domain.TestCase, kMarkup int) (*domain.GeneratedScript, []string, error) {
	evidence, err := s.retriever.Retrieve(ctx, tc.QueryText(), s.settings.KDocs, kMarkup)
	if err != nil {
		return nil, nil, err
	}
	if len(evidence.Markup) == 0 {
		return nil, nil, fmt.Errorf("%w: retrieval found no markup for test case %s", domain.ErrNoMarkupEvidence, tc.ID)
	}

	template, err := s.prompts.Load(driven.PromptScript)
	if err != nil {
		return nil, nil, fmt.Errorf("load script prompt: %w", err)
	}

	caseJSON, err := json.MarshalIndent(tc, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode test case: %w", err)
	}
	prompt := fmt.Sprintf(template, string(caseJSON), formatEvidence(evidence.Markup), formatEvidence(evidence.SupportDocs))

	raw, err := withRetry(ctx, defaultRetryAttempts, defaultRetryBackoff, func() (string, error) {
		return s.completer.Complete(ctx, prompt, driven.CompleteOptions{
			MaxTokens:   completionMaxTokens,
			Temperature: 0,
		})
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrCompletionService, err)
	}

	var envelope scriptEnvelope
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &envelope); err != nil {
		return nil, nil, fmt.Errorf("%w: completion is not valid script JSON: %v", domain.ErrNoValidOutput, err)
	}
	if strings.TrimSpace(envelope.Code) == "" {
		return nil, nil, fmt.Errorf("%w: generated script is empty", domain.ErrNoValidOutput)
	}

	inventory := buildSelectorInventory(evidence.Markup)
	selectors, invalid := validateSelectors(envelope, inventory)

	sources := make([]string, 0, len(evidence.Markup))
	seen := make(map[string]struct{})
	for _, ev := range evidence.Markup {
		if _, ok := seen[ev.Chunk.SourceFilename]; ok {
			continue
		}
		seen[ev.Chunk.SourceFilename] = struct{}{}
		sources = append(sources, ev.Chunk.SourceFilename)
	}

	return &domain.GeneratedScript{
		TestCaseID:      tc.ID,
		Code:            envelope.Code,
		Selectors:       selectors,
		SourceFilenames: sources,
	}, invalid, nil
}

// selectorInventory holds the locatable attribute values mined from the
// markup evidence of one synthesis attempt.
type selectorInventory struct {
	ids     map[string]struct{}
	names   map[string]struct{}
	classes map[string]struct{}
	text    []string
}

// buildSelectorInventory collects the id, name and class values carried in
// the markup chunks' metadata, plus the raw chunk text as a fallback for
// attributes the miner did not classify.
func buildSelectorInventory(markup []domain.Evidence) *selectorInventory {
	inv := &selectorInventory{
		ids:     make(map[string]struct{}),
		names:   make(map[string]struct{}),
		classes: make(map[string]struct{}),
	}
	for _, ev := range markup {
		for _, id := range ev.Chunk.StringsMeta(domain.MetaSelectorIDs) {
			inv.ids[id] = struct{}{}
		}
		for _, name := range ev.Chunk.StringsMeta(domain.MetaSelectorNames) {
			inv.names[name] = struct{}{}
		}
		for _, class := range ev.Chunk.StringsMeta(domain.MetaSelectorClasses) {
			inv.classes[class] = struct{}{}
		}
		inv.text = append(inv.text, ev.Chunk.Text)
	}
	return inv
}

// validateSelectors checks every locator the script references, both the
// By.* calls in the code and the declared selectors list. It returns the
// sorted distinct set of selectors in use and the subset that could not be
// resolved against the inventory.
func validateSelectors(envelope scriptEnvelope, inv *selectorInventory) (selectors, invalid []string) {
	type locator struct {
		kind  string
		value string
	}

	checked := make(map[string]bool)
	record := func(display string, ok bool) {
		if prev, seen := checked[display]; !seen || (prev && !ok) {
			checked[display] = ok
		}
	}

	for _, m := range byLocator.FindAllStringSubmatch(envelope.Code, -1) {
		loc := locator{kind: m[1], value: m[2]}
		record(loc.value, inv.resolves(loc.kind, loc.value))
	}
	for _, sel := range envelope.Selectors {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		record(sel, inv.resolves("CSS_SELECTOR", sel))
	}

	for display, ok := range checked {
		selectors = append(selectors, display)
		if !ok {
			invalid = append(invalid, display)
		}
	}
	sort.Strings(selectors)
	sort.Strings(invalid)
	return selectors, invalid
}

// cssToken extracts #id and .class references from a CSS selector.
var cssToken = regexp.MustCompile(`([#.])([A-Za-z][\w-]*)`)

// cssNameAttr extracts [name='value'] references from a CSS selector.
var cssNameAttr = regexp.MustCompile(`\[name\s*=\s*["']?([\w-]+)["']?\]`)

// resolves reports whether a locator of the given kind refers to an element
// present in the markup evidence.
func (inv *selectorInventory) resolves(kind, value string) bool {
	switch kind {
	case "ID":
		return inv.hasID(value)
	case "NAME":
		return inv.hasName(value)
	case "CSS_SELECTOR":
		return inv.resolvesCSS(value)
	default:
		return false
	}
}

// resolvesCSS checks every #id, .class and [name=...] token in a CSS
// selector. A selector with no such tokens (e.g. a bare tag name) falls back
// to a literal search over the evidence text.
func (inv *selectorInventory) resolvesCSS(sel string) bool {
	matched := false

	for _, m := range cssToken.FindAllStringSubmatch(sel, -1) {
		matched = true
		switch m[1] {
		case "#":
			if !inv.hasID(m[2]) {
				return false
			}
		case ".":
			if !inv.hasClass(m[2]) {
				return false
			}
		}
	}
	for _, m := range cssNameAttr.FindAllStringSubmatch(sel, -1) {
		matched = true
		if !inv.hasName(m[1]) {
			return false
		}
	}

	if !matched {
		// Bare tag or attribute selector: accept only if the literal
		// appears somewhere in the retrieved markup.
		return inv.appearsInText(strings.Trim(sel, "[]"))
	}
	return true
}

func (inv *selectorInventory) hasID(id string) bool {
	if _, ok := inv.ids[id]; ok {
		return true
	}
	return inv.appearsInText(`id="` + id + `"`) || inv.appearsInText(`id='` + id + `'`)
}

func (inv *selectorInventory) hasName(name string) bool {
	if _, ok := inv.names[name]; ok {
		return true
	}
	return inv.appearsInText(`name="` + name + `"`) || inv.appearsInText(`name='` + name + `'`)
}

func (inv *selectorInventory) hasClass(class string) bool {
	if _, ok := inv.classes[class]; ok {
		return true
	}
	return false
}

func (inv *selectorInventory) appearsInText(needle string) bool {
	for _, text := range inv.text {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
