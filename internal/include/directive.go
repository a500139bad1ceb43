package include

import (
	"regexp"
)

// Kind distinguishes the two inclusion forms.
type Kind int

const (
	// Quoted is `#include "name"`: searched in the including file's
	// directory first, then in the include directories.
	Quoted Kind = iota
	// Angled is `#include <name>`: searched in the include directories only.
	Angled
)

// String returns a human-readable representation of the kind
func (k Kind) String() string {
	switch k {
	case Quoted:
		return "quoted"
	case Angled:
		return "angled"
	default:
		return "unknown"
	}
}

// Directive is an inclusion directive parsed from a single source line.
type Directive struct {
	Name string // Exact text between the delimiters
	Kind Kind
}

// String renders the directive in canonical form.
func (d Directive) String() string {
	if d.Kind == Angled {
		return "#include <" + d.Name + ">"
	}
	return "#include \"" + d.Name + "\""
}

// SourceLine is one line read from a file, without its terminator.
type SourceLine struct {
	File   string
	Number int // 1-based
	Text   string
}

// The whole line must be the directive. Whitespace is optional between the
// tokens, which accepts forms like "#   include<x.h>".
var (
	angledPattern = regexp.MustCompile(`^\s*#\s*include\s*<([^>]*)>\s*$`)
	quotedPattern = regexp.MustCompile(`^\s*#\s*include\s*"([^"]*)"\s*$`)
)

// ParseDirective classifies a line. It returns false for plain text,
// including malformed directive-like lines.
func ParseDirective(line string) (Directive, bool) {
	if m := angledPattern.FindStringSubmatch(line); m != nil {
		return Directive{Name: m[1], Kind: Angled}, true
	}
	if m := quotedPattern.FindStringSubmatch(line); m != nil {
		return Directive{Name: m[1], Kind: Quoted}, true
	}
	return Directive{}, false
}
