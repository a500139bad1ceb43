// Package fixture builds the sample source tree used by the demo command and
// by end-to-end tests.
//
// The tree is rooted at a.cpp, which pulls in headers through quoted and
// angled directives spread across dir1, include1 and include2. Its last
// directive names dummy.txt, which exists nowhere, so expanding the tree
// always fails at line 8 of a.cpp after the first thirteen lines of output.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"
)

// Files maps paths relative to the tree root to their contents.
var Files = map[string]string{
	"a.cpp": "// this comment before include\n" +
		"#include \"dir1/b.h\"\n" +
		"// text between b.h and c.h\n" +
		"#include \"dir1/d.h\"\n" +
		"\n" +
		"int SayHello() {\n" +
		"    cout << \"hello, world!\" << endl;\n" +
		"#   include<dummy.txt>\n" +
		"}\n",
	"dir1/b.h": "// text from b.h before include\n" +
		"#include \"subdir/c.h\"\n" +
		"// text from b.h after include",
	"dir1/subdir/c.h": "// text from c.h before include\n" +
		"#include <std1.h>\n" +
		"// text from c.h after include\n",
	"dir1/d.h": "// text from d.h before include\n" +
		"#include \"lib/std2.h\"\n" +
		"// text from d.h after include\n",
	"include1/std1.h":     "// std1\n",
	"include2/lib/std2.h": "// std2\n",
}

// Root is the entry file, relative to the tree root.
const Root = "a.cpp"

// IncludeDirs lists the search path, relative to the tree root.
var IncludeDirs = []string{"include1", "include2"}

// Unresolved describes the failure the tree is built to trigger.
const (
	UnresolvedName = "dummy.txt"
	UnresolvedLine = 8
)

// PartialOutput is everything written before the run aborts on dummy.txt.
const PartialOutput = "// this comment before include\n" +
	"// text from b.h before include\n" +
	"// text from c.h before include\n" +
	"// std1\n" +
	"// text from c.h after include\n" +
	"// text from b.h after include\n" +
	"// text between b.h and c.h\n" +
	"// text from d.h before include\n" +
	"// std2\n" +
	"// text from d.h after include\n" +
	"\n" +
	"int SayHello() {\n" +
	"    cout << \"hello, world!\" << endl;\n"

// Tree is a sample tree written to disk.
type Tree struct {
	Dir string
}

// Write removes dir and recreates it holding Files.
func Write(dir string) (*Tree, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("failed to clear %s: %w", dir, err)
	}
	for name, content := range Files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return &Tree{Dir: dir}, nil
}

// Root returns the path of a.cpp.
func (t *Tree) Root() string {
	return filepath.Join(t.Dir, Root)
}

// IncludeDirs returns the search path inside the tree.
func (t *Tree) IncludeDirs() []string {
	dirs := make([]string, len(IncludeDirs))
	for i, d := range IncludeDirs {
		dirs[i] = filepath.Join(t.Dir, d)
	}
	return dirs
}

// Path returns the on-disk path of a file in the tree.
func (t *Tree) Path(name string) string {
	return filepath.Join(t.Dir, filepath.FromSlash(name))
}
