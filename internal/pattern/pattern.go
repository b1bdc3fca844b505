// Package pattern filters file names with a shell-style glob compiled once
// per run.
package pattern

import (
	"fmt"

	"github.com/gobwas/glob"
)

// InvalidPatternError reports a glob expression that failed to compile.
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }

// Matcher answers whether a file name passes the configured glob. The zero
// pattern matches everything. A Matcher is immutable and safe for
// concurrent use.
type Matcher struct {
	expr string
	g    glob.Glob
}

// New compiles expr. `*` matches any run of characters, `?` exactly one,
// and `[...]` a character class (`[!...]` negates). An empty expr yields a
// Matcher that accepts every name.
func New(expr string) (*Matcher, error) {
	if expr == "" {
		return &Matcher{}, nil
	}
	g, err := glob.Compile(expr)
	if err != nil {
		return nil, &InvalidPatternError{Pattern: expr, Err: err}
	}
	return &Matcher{expr: expr, g: g}, nil
}

// Matches reports whether name passes the pattern.
func (m *Matcher) Matches(name string) bool {
	if m == nil || m.g == nil {
		return true
	}
	return m.g.Match(name)
}

// HasPattern reports whether a non-empty pattern was configured.
func (m *Matcher) HasPattern() bool { return m != nil && m.g != nil }

// String returns the source expression ("" when none).
func (m *Matcher) String() string {
	if m == nil {
		return ""
	}
	return m.expr
}
