package include

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Line terminators accepted by WithLineEnding.
const (
	LF   = "\n"
	CRLF = "\r\n"
)

// DefaultMaxDepth is the nesting limit used when none is configured.
const DefaultMaxDepth = 200

// Logger receives expansion progress. A nil Logger discards everything.
type Logger interface {
	LogFileEnter(path string, depth int)
	LogFileExit(path string, depth int, lines int)
	LogResolved(ref ResolvedPath, from SourceLine)
}

// Visit describes one file entered during a walk.
type Visit struct {
	Path      string
	Depth     int       // 0 for the root file
	Directive Directive // Zero value for the root file
	From      SourceLine
}

// VisitFunc is called each time a file is entered, before any of its lines
// are read.
type VisitFunc func(Visit)

// Option configures an Expander.
type Option func(*Expander)

// WithFileSystem sets the source for resolution and reading.
func WithFileSystem(fsys FileSystem) Option {
	return func(e *Expander) {
		e.fsys = fsys
	}
}

// WithLogger sets the progress logger.
func WithLogger(l Logger) Option {
	return func(e *Expander) {
		e.logger = l
	}
}

// WithLineEnding sets the terminator appended to each emitted line.
func WithLineEnding(ending string) Option {
	return func(e *Expander) {
		e.lineEnding = ending
	}
}

// WithMaxDepth limits inclusion nesting. Zero means unlimited.
func WithMaxDepth(depth int) Option {
	return func(e *Expander) {
		e.maxDepth = depth
	}
}

// WithCycleDetection toggles the check for re-entry into a file that is
// still open on the inclusion path. Disabling it restores unbounded
// expansion of cyclic input, stopped only by the depth limit.
func WithCycleDetection(enabled bool) Option {
	return func(e *Expander) {
		e.detectCycles = enabled
	}
}

// WithVisitFunc registers a callback for every file entered.
func WithVisitFunc(fn VisitFunc) Option {
	return func(e *Expander) {
		e.visit = fn
	}
}

// Expander flattens a file by substituting every inclusion directive with
// the expansion of the file it names. An Expander holds no per-run state and
// may be reused, but a single run is not safe for concurrent use of its sink.
type Expander struct {
	fsys         FileSystem
	resolver     *Resolver
	logger       Logger
	lineEnding   string
	maxDepth     int
	detectCycles bool
	visit        VisitFunc
}

// NewExpander creates an Expander searching includeDirs, in order, for
// angled references and for quoted references not found next to the
// including file.
func NewExpander(includeDirs []string, opts ...Option) *Expander {
	e := &Expander{
		fsys:         OSFileSystem{},
		lineEnding:   LF,
		maxDepth:     DefaultMaxDepth,
		detectCycles: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.fsys == nil {
		e.fsys = OSFileSystem{}
	}
	if e.logger == nil {
		e.logger = nopLogger{}
	}
	e.resolver = NewResolver(e.fsys, includeDirs)
	return e
}

// IncludeDirs returns the search path in order.
func (e *Expander) IncludeDirs() []string {
	return e.resolver.IncludeDirs()
}

// frame is one file being expanded. The stack of frames replaces the call
// stack of a recursive walk.
type frame struct {
	path   string
	id     string
	file   io.ReadCloser
	reader *lineReader
	line   int
}

// Expand writes the flattened contents of root to sink. On failure, lines
// already written stay in sink. Every file opened is closed before Expand
// returns.
func (e *Expander) Expand(ctx context.Context, root string, sink io.Writer) error {
	f, err := e.open(ctx, root)
	if err != nil {
		return err
	}
	return e.run(ctx, f, sink)
}

func (e *Expander) open(ctx context.Context, path string) (*frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := e.fsys.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	return &frame{
		path:   path,
		id:     e.fsys.Identity(path),
		file:   file,
		reader: newLineReader(file),
	}, nil
}

func (e *Expander) run(ctx context.Context, root *frame, sink io.Writer) (err error) {
	out := bufio.NewWriter(sink)
	stack := []*frame{root}

	defer func() {
		for i := len(stack) - 1; i >= 0; i-- {
			stack[i].file.Close()
		}
		if flushErr := out.Flush(); flushErr != nil && err == nil {
			err = fmt.Errorf("writing output: %w", flushErr)
		}
	}()

	e.enter(Visit{Path: root.path})

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		text, ok, readErr := top.reader.next()
		if readErr != nil {
			return fmt.Errorf("reading %s: %w", top.path, readErr)
		}
		if !ok {
			stack = stack[:len(stack)-1]
			top.file.Close()
			e.logger.LogFileExit(top.path, len(stack), top.line)
			continue
		}
		top.line++

		d, isDirective := ParseDirective(text)
		if !isDirective {
			if _, err := out.WriteString(text); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			if _, err := out.WriteString(e.lineEnding); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			continue
		}

		from := SourceLine{File: top.path, Number: top.line, Text: text}
		ref := e.resolver.Resolve(d, top.path)
		if !ref.Found {
			return &UnresolvedIncludeError{Name: d.Name, File: top.path, Line: top.line}
		}
		e.logger.LogResolved(ref, from)

		if e.maxDepth > 0 && len(stack) > e.maxDepth {
			return &DepthLimitError{Limit: e.maxDepth, File: top.path, Line: top.line}
		}

		if e.detectCycles {
			if cycleErr := cycleAt(stack, ref.Path, e.fsys.Identity(ref.Path), from); cycleErr != nil {
				return cycleErr
			}
		}

		child, err := e.open(ctx, ref.Path)
		if err != nil {
			return err
		}

		stack = append(stack, child)
		e.enter(Visit{Path: child.path, Depth: len(stack) - 1, Directive: d, From: from})
	}

	return nil
}

func (e *Expander) enter(v Visit) {
	e.logger.LogFileEnter(v.Path, v.Depth)
	if e.visit != nil {
		e.visit(v)
	}
}

// cycleAt returns a CyclicIncludeError if the file identified by id is
// already on the stack.
func cycleAt(stack []*frame, path, id string, from SourceLine) error {
	for i, f := range stack {
		if f.id != id {
			continue
		}
		chain := make([]string, 0, len(stack)-i+1)
		for _, g := range stack[i:] {
			chain = append(chain, g.path)
		}
		chain = append(chain, path)
		return &CyclicIncludeError{
			Path:  path,
			Chain: chain,
			File:  from.File,
			Line:  from.Number,
		}
	}
	return nil
}

// lineReader yields lines without their trailing newline. A final line with
// no newline is still a line; an empty remainder after the last newline is
// not.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

func (lr *lineReader) next() (string, bool, error) {
	s, err := lr.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", false, err
	}
	if s == "" && err == io.EOF {
		return "", false, nil
	}
	return strings.TrimSuffix(s, "\n"), true, nil
}

type nopLogger struct{}

func (nopLogger) LogFileEnter(string, int)             {}
func (nopLogger) LogFileExit(string, int, int)         {}
func (nopLogger) LogResolved(ResolvedPath, SourceLine) {}
