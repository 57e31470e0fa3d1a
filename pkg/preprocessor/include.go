package preprocessor

import (
	"fmt"
	"os"
	"path/filepath"
)

// IncludeResolver locates #include targets on the local filesystem and
// guards the active include stack against cycles and runaway depth.
type IncludeResolver struct {
	searchPaths []string
	active      []string        // canonical paths of files being processed
	once        map[string]bool // files marked with #pragma once
	maxDepth    int
}

// NewIncludeResolver creates a resolver over an ordered search-path list
func NewIncludeResolver(searchPaths []string, maxDepth int) *IncludeResolver {
	return &IncludeResolver{
		searchPaths: searchPaths,
		once:        make(map[string]bool),
		maxDepth:    maxDepth,
	}
}

// Resolve finds the file for an include directive. Quoted includes
// first try the directory of the including file, then the configured
// search paths in order; angle-bracket includes search only the
// configured paths. The first existing match wins.
func (r *IncludeResolver) Resolve(name string, angled bool, includingFile string) (string, bool) {
	var candidates []string

	if !angled && includingFile != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(includingFile), name))
	}
	for _, dir := range r.searchPaths {
		candidates = append(candidates, filepath.Join(dir, name))
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// Push registers a file on the active include stack. It fails when the
// file is already active (an include cycle) or when the stack has
// reached the configured depth limit; either failure aborts only the
// offending include.
func (r *IncludeResolver) Push(path string) error {
	canonical := canonicalPath(path)

	if len(r.active) >= r.maxDepth {
		return fmt.Errorf("#include nested too deeply (limit %d)", r.maxDepth)
	}
	for _, p := range r.active {
		if p == canonical {
			return fmt.Errorf("include cycle detected: %s is already being processed", path)
		}
	}

	r.active = append(r.active, canonical)
	return nil
}

// Pop unwinds the top of the active include stack
func (r *IncludeResolver) Pop() {
	if len(r.active) > 0 {
		r.active = r.active[:len(r.active)-1]
	}
}

// Depth returns the current include nesting depth
func (r *IncludeResolver) Depth() int {
	return len(r.active)
}

// MarkOnce records a #pragma once for the given file
func (r *IncludeResolver) MarkOnce(path string) {
	r.once[canonicalPath(path)] = true
}

// SeenOnce reports whether a file was previously marked #pragma once
func (r *IncludeResolver) SeenOnce(path string) bool {
	return r.once[canonicalPath(path)]
}

// canonicalPath normalizes a path for identity comparison
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
