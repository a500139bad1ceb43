package include

import (
	"path/filepath"
)

// SearchContext holds everything one directive lookup needs. Whether the
// requesting directory is searched follows from Kind alone.
type SearchContext struct {
	RequestingDir string   // Directory of the file containing the directive
	IncludeDirs   []string // Searched in order; never mutated
	Kind          Kind
}

// AllowsRequestingDir reports whether the requesting file's directory is
// searched before the include directories.
func (sc SearchContext) AllowsRequestingDir() bool {
	return sc.Kind == Quoted
}

// ResolvedPath is the outcome of a lookup.
type ResolvedPath struct {
	Name  string // Reference text as written in the directive
	Path  string // Resolved file path; empty when not found
	Found bool
}

// Found builds a successful lookup result.
func Found(name, path string) ResolvedPath {
	return ResolvedPath{Name: name, Path: path, Found: true}
}

// NotFound builds a failed lookup result.
func NotFound(name string) ResolvedPath {
	return ResolvedPath{Name: name}
}

// Resolve finds the file a directive refers to. Absence is reported through
// the result, never as an error. The first existing candidate wins.
func Resolve(fsys FileSystem, name string, sc SearchContext) ResolvedPath {
	if sc.AllowsRequestingDir() {
		candidate := joinReference(sc.RequestingDir, name)
		if name != "" && fsys.IsFile(candidate) {
			return Found(name, candidate)
		}
	}

	for _, dir := range sc.IncludeDirs {
		candidate := joinReference(dir, name)
		if name != "" && fsys.IsFile(candidate) {
			return Found(name, candidate)
		}
	}

	return NotFound(name)
}

// joinReference joins a reference onto a directory. An absolute reference
// replaces the directory.
func joinReference(dir, name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(dir, name)
}

// Resolver binds a FileSystem and an include path for repeated lookups.
type Resolver struct {
	fsys        FileSystem
	includeDirs []string
}

// NewResolver creates a Resolver. The include directory slice is copied.
func NewResolver(fsys FileSystem, includeDirs []string) *Resolver {
	if fsys == nil {
		fsys = OSFileSystem{}
	}
	dirs := make([]string, len(includeDirs))
	copy(dirs, includeDirs)
	return &Resolver{fsys: fsys, includeDirs: dirs}
}

// IncludeDirs returns the search path in order.
func (r *Resolver) IncludeDirs() []string {
	return r.includeDirs
}

// Resolve looks up d as referenced from the file at requestingFile.
func (r *Resolver) Resolve(d Directive, requestingFile string) ResolvedPath {
	return Resolve(r.fsys, d.Name, SearchContext{
		RequestingDir: filepath.Dir(requestingFile),
		IncludeDirs:   r.includeDirs,
		Kind:          d.Kind,
	})
}
