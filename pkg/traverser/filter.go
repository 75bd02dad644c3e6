package traverser

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
)

// Filter decides whether a canonical path may be emitted. A path is
// admitted when it is neither excluded nor outside the scope.
type Filter struct {
	excludes map[string]struct{}
	scope    *regexp.Regexp
}

// NewFilter canonicalizes excludes and compiles scopeTo. An empty scopeTo
// disables the scope check. scopeTo is a regular expression anchored at the
// start of the path, so a plain directory prefix works as expected.
func NewFilter(excludes []string, scopeTo string) (*Filter, error) {
	f := &Filter{excludes: make(map[string]struct{}, len(excludes))}

	for _, exclude := range excludes {
		if exclude == "" {
			continue
		}
		canonical, err := Canonical(exclude)
		if err != nil {
			return nil, err
		}
		f.excludes[canonical] = struct{}{}
	}

	if scopeTo != "" {
		scope, err := regexp.Compile("^" + scopeTo)
		if err != nil {
			return nil, &ScopeError{Scope: scopeTo, Err: err}
		}
		f.scope = scope
	}

	return f, nil
}

// Admits reports whether path passes both the exclusion and scope checks.
func (f *Filter) Admits(path string) bool {
	return !f.Excluded(path) && f.InScope(path)
}

// Excluded reports whether path, or any directory above it, is in the
// exclusion set.
func (f *Filter) Excluded(path string) bool {
	if len(f.excludes) == 0 {
		return false
	}

	for p := path; ; {
		if _, ok := f.excludes[p]; ok {
			return true
		}
		parent := filepath.Dir(p)
		if parent == p {
			return false
		}
		p = parent
	}
}

// InScope reports whether path matches the scope. Without a scope every
// path is in scope.
func (f *Filter) InScope(path string) bool {
	return f.scope == nil || f.scope.MatchString(path)
}

// Excludes returns the canonical exclusion set, sorted.
func (f *Filter) Excludes() []string {
	out := make([]string, 0, len(f.excludes))
	for p := range f.excludes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Scope returns the compiled scope pattern, or "" when unset.
func (f *Filter) Scope() string {
	if f.scope == nil {
		return ""
	}
	return f.scope.String()
}

func (f *Filter) String() string {
	return fmt.Sprintf("Filter{Excludes: %v, Scope: %q}", f.Excludes(), f.Scope())
}
