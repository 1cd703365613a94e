package normalisers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry selects normalisers by filename extension and priority.
type Registry struct {
	byExt    map[string][]driven.Normaliser
	fallback driven.Normaliser
}

// NewRegistry creates a registry with the given normalisers registered.
// The lowest-priority normaliser that reports no extensions, or the lowest
// priority overall, becomes the fallback for unknown extensions.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{byExt: make(map[string][]driven.Normaliser)}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser to the registry.
func (r *Registry) Register(n driven.Normaliser) {
	for _, ext := range n.SupportedExtensions() {
		ext = strings.ToLower(ext)
		list := append(r.byExt[ext], n)
		// Keep highest priority first.
		for i := len(list) - 1; i > 0; i-- {
			if list[i].Priority() > list[i-1].Priority() {
				list[i], list[i-1] = list[i-1], list[i]
			}
		}
		r.byExt[ext] = list
	}
	if r.fallback == nil || n.Priority() < r.fallback.Priority() {
		r.fallback = n
	}
}

// Select returns the highest-priority normaliser for the filename.
func (r *Registry) Select(filename string) (driven.Normaliser, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("%w: empty filename", domain.ErrInvalidInput)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if list, ok := r.byExt[ext]; ok && len(list) > 0 {
		return list[0], nil
	}
	if r.fallback == nil {
		return nil, fmt.Errorf("%w: no normaliser for %q", domain.ErrInvalidInput, filename)
	}
	return r.fallback, nil
}
