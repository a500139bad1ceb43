package include

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks against the typed errors below.
var (
	ErrUnresolved = errors.New("unresolved include")
	ErrCycle      = errors.New("include cycle")
	ErrDepthLimit = errors.New("include depth limit exceeded")
)

// OpenError reports a file that could not be opened for reading, either the
// root or a resolved include target.
type OpenError struct {
	Path string // File that failed to open
	Err  error  // Underlying error from the file system
}

// Error implements the error interface for OpenError.
func (e *OpenError) Error() string {
	return fmt.Sprintf("cannot open %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *OpenError) Unwrap() error {
	return e.Err
}

// UnresolvedIncludeError reports a directive whose reference matched none of
// the search candidates. It aborts the whole run.
type UnresolvedIncludeError struct {
	Name string // Reference text between the delimiters
	File string // File containing the directive
	Line int    // 1-based line number of the directive within File
}

// Error implements the error interface for UnresolvedIncludeError.
func (e *UnresolvedIncludeError) Error() string {
	return fmt.Sprintf("%s:%d: unresolved include %q", e.File, e.Line, e.Name)
}

// Is matches ErrUnresolved.
func (e *UnresolvedIncludeError) Is(target error) bool {
	return target == ErrUnresolved
}

// CyclicIncludeError reports a directive that would re-enter a file that is
// still being expanded.
type CyclicIncludeError struct {
	Path  string   // File that would be entered again
	Chain []string // Inclusion path from the root to Path, both ends included
	File  string   // File containing the offending directive
	Line  int      // 1-based line number of the directive within File
}

// Error implements the error interface for CyclicIncludeError.
func (e *CyclicIncludeError) Error() string {
	return fmt.Sprintf("%s:%d: include cycle: %s", e.File, e.Line, strings.Join(e.Chain, " -> "))
}

// Is matches ErrCycle.
func (e *CyclicIncludeError) Is(target error) bool {
	return target == ErrCycle
}

// DepthLimitError reports nesting deeper than the configured limit.
type DepthLimitError struct {
	Limit int
	File  string
	Line  int
}

// Error implements the error interface for DepthLimitError.
func (e *DepthLimitError) Error() string {
	return fmt.Sprintf("%s:%d: include nesting exceeds %d levels", e.File, e.Line, e.Limit)
}

// Is matches ErrDepthLimit.
func (e *DepthLimitError) Is(target error) bool {
	return target == ErrDepthLimit
}
