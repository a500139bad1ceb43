// Package include flattens source files by expanding inclusion directives.
//
// A directive is a line consisting only of
//
//	#include "name"
//	#include <name>
//
// with any whitespace around and between the tokens. The keyword is
// case-sensitive; anything else, including a directive followed by other
// text on the same line, is ordinary text and is copied through unchanged.
//
// # Resolution
//
// A quoted name is looked up next to the file that contains the directive,
// then in each include directory in order. An angled name is looked up in
// the include directories only. The first existing regular file wins.
//
// # Expansion
//
// Expander walks the inclusion graph depth first. Each plain line is written
// to the sink followed by the configured line terminator; each directive is
// replaced by the expansion of the file it names. The walk keeps its own
// stack of open files rather than recursing, so nesting depth is bounded by
// WithMaxDepth and not by the goroutine stack.
//
// Every failure ends the run:
//
//   - *OpenError: the root or a resolved file cannot be opened
//   - *UnresolvedIncludeError: no candidate exists for a reference
//   - *CyclicIncludeError: a file would be entered while already open
//   - *DepthLimitError: nesting exceeds the configured limit
//
// Lines written before the failure remain in the sink. ExpandFile adds the
// file-level policy on top: the output path is only replaced once the run
// succeeds, unless FileOptions.KeepPartial is set.
//
// # Usage
//
//	e := include.NewExpander([]string{"include1", "include2"})
//	if err := e.Expand(ctx, "sources/a.cpp", os.Stdout); err != nil {
//	    var unresolved *include.UnresolvedIncludeError
//	    if errors.As(err, &unresolved) {
//	        fmt.Fprintf(os.Stderr, "%s line %d: %s not found\n",
//	            unresolved.File, unresolved.Line, unresolved.Name)
//	    }
//	}
package include
