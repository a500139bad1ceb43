package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/incflat/internal/fixture"
	"github.com/harrison/incflat/internal/include"
)

func writeTree(t *testing.T) *fixture.Tree {
	t.Helper()
	tree, err := fixture.Write(filepath.Join(t.TempDir(), "sources"))
	require.NoError(t, err)
	return tree
}

func includeArgs(tree *fixture.Tree) []string {
	var args []string
	for _, d := range tree.IncludeDirs() {
		args = append(args, "-I", d)
	}
	return args
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// The sample tree stops at dummy.txt with the earlier lines on stdout.
func TestExpandSampleTreeToStdout(t *testing.T) {
	tree := writeTree(t)

	args := append([]string{"expand", tree.Root()}, includeArgs(tree)...)
	stdout, stderr, err := execute(t, args...)

	var unresolved *include.UnresolvedIncludeError
	require.True(t, errors.As(err, &unresolved), "got %v", err)
	assert.Equal(t, fixture.UnresolvedName, unresolved.Name)
	assert.Equal(t, tree.Root(), unresolved.File)
	assert.Equal(t, fixture.UnresolvedLine, unresolved.Line)

	if diff := cmp.Diff(fixture.PartialOutput, stdout); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, stderr, "[ERROR]")
	assert.Contains(t, stderr, "dummy.txt")
}

func TestExpandSampleTreeSucceedsOnceResolvable(t *testing.T) {
	tree := writeTree(t)
	writeFile(t, tree.Path("include2/dummy.txt"), "// dummy\n")

	args := append([]string{"expand", tree.Root()}, includeArgs(tree)...)
	stdout, stderr, err := execute(t, args...)
	require.NoError(t, err)

	want := fixture.PartialOutput + "// dummy\n" + "}\n"
	if diff := cmp.Diff(want, stdout); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, stderr, "complete")
}

func TestExpandWithoutSearchPathFailsEarlier(t *testing.T) {
	tree := writeTree(t)

	_, _, err := execute(t, "expand", tree.Root())

	var unresolved *include.UnresolvedIncludeError
	require.True(t, errors.As(err, &unresolved), "got %v", err)
	assert.Equal(t, "std1.h", unresolved.Name)
	assert.Equal(t, tree.Path("dir1/subdir/c.h"), unresolved.File)
	assert.Equal(t, 2, unresolved.Line)
}

func TestExpandToFile(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "a.c")
	writeFile(t, root, "a\n#include \"b.h\"\n")
	writeFile(t, filepath.Join(dir, "b.h"), "b\n")
	out := filepath.Join(dir, "out", "a.i")

	stdout, _, err := execute(t, "expand", root, "-o", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}

func TestExpandToFileFailureWritesNothing(t *testing.T) {
	tree := writeTree(t)
	out := tree.Path("a.in")

	args := append([]string{"expand", tree.Root(), "-o", out}, includeArgs(tree)...)
	_, _, err := execute(t, args...)
	require.True(t, errors.Is(err, include.ErrUnresolved), "got %v", err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExpandKeepPartial(t *testing.T) {
	tree := writeTree(t)
	out := tree.Path("a.in")

	args := append([]string{"expand", tree.Root(), "-o", out, "--keep-partial"}, includeArgs(tree)...)
	_, stderr, err := execute(t, args...)
	require.True(t, errors.Is(err, include.ErrUnresolved), "got %v", err)
	assert.Contains(t, stderr, "Partial output written")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, fixture.PartialOutput, string(data))
}

func TestExpandCRLF(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "a.c")
	writeFile(t, root, "a\nb")

	stdout, _, err := execute(t, "expand", root, "--crlf")
	require.NoError(t, err)
	assert.Equal(t, "a\r\nb\r\n", stdout)
}

func TestExpandMissingRoot(t *testing.T) {
	dir := t.TempDir()

	_, _, err := execute(t, "expand", filepath.Join(dir, "missing.c"))

	var openErr *include.OpenError
	require.True(t, errors.As(err, &openErr), "got %v", err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExpandCycle(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "a.h")
	writeFile(t, root, "#include \"b.h\"\n")
	writeFile(t, filepath.Join(dir, "b.h"), "#include \"a.h\"\n")

	_, _, err := execute(t, "expand", root)
	assert.True(t, errors.Is(err, include.ErrCycle), "got %v", err)

	_, _, err = execute(t, "expand", root, "--no-cycle-check", "--max-depth", "4")
	assert.True(t, errors.Is(err, include.ErrDepthLimit), "got %v", err)
}

func TestExpandConfigFile(t *testing.T) {
	tree := writeTree(t)
	writeFile(t, tree.Path("include2/dummy.txt"), "// dummy\n")
	cfgPath := tree.Path(".incflat.yaml")
	writeFile(t, cfgPath, "include_dirs:\n  - include1\n  - include2\noutput: a.in\nline_ending: lf\n")

	_, _, err := execute(t, "expand", tree.Root(), "--config", cfgPath)
	require.NoError(t, err)

	data, err := os.ReadFile(tree.Path("a.in"))
	require.NoError(t, err)
	assert.Equal(t, fixture.PartialOutput+"// dummy\n}\n", string(data))
}

// Flag directories are searched before directories from the config file.
func TestExpandFlagDirsSearchedFirst(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "a.c")
	writeFile(t, root, "#include <x.h>\n")
	writeFile(t, filepath.Join(dir, "cfgdir", "x.h"), "from config\n")
	writeFile(t, filepath.Join(dir, "flagdir", "x.h"), "from flag\n")
	cfgPath := filepath.Join(dir, "incflat.yaml")
	writeFile(t, cfgPath, "include_dirs: [cfgdir]\n")

	stdout, _, err := execute(t, "expand", root, "--config", cfgPath, "-I", filepath.Join(dir, "flagdir"))
	require.NoError(t, err)
	assert.Equal(t, "from flag\n", stdout)
}

func TestExpandInvalidConfiguration(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "a.c")
	writeFile(t, root, "a\n")

	tests := []struct {
		name string
		args []string
	}{
		{"bad log level", []string{"--log-level", "loud"}},
		{"negative depth", []string{"--max-depth", "-1"}},
		{"unbounded legacy recursion", []string{"--no-cycle-check", "--max-depth", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"expand", root}, tt.args...)
			_, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestExpandMalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "a.c")
	writeFile(t, root, "a\n")
	cfgPath := filepath.Join(dir, "bad.yaml")
	writeFile(t, cfgPath, "include_dirs: [unclosed\n")

	_, _, err := execute(t, "expand", root, "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestExpandRequiresOneArgument(t *testing.T) {
	_, _, err := execute(t, "expand")
	assert.Error(t, err)
}

func TestExpandDebugLogsEachFile(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "a.c")
	writeFile(t, root, "#include \"b.h\"\n")
	writeFile(t, filepath.Join(dir, "b.h"), "b\n")

	_, stderr, err := execute(t, "expand", root, "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, stderr, "enter "+root)
	assert.Contains(t, stderr, "  enter "+filepath.Join(dir, "b.h"))
}
