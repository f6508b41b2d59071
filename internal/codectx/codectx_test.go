package codectx

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		b.WriteString("line")
		b.WriteString(strings.Repeat("x", i%3))
		b.WriteString("\n")
	}
	return b.String()
}

func TestWindow_Middle(t *testing.T) {
	got := Window("a\nb\nc\nd\ne\n", 3, 1)
	assert.Equal(t, "   2 | b\n   3 | c\n   4 | d\n", got)
}

func TestWindow_Clamped(t *testing.T) {
	content := "a\nb\nc"
	assert.Equal(t, "   1 | a\n   2 | b\n", Window(content, 1, 1))
	assert.Equal(t, "   2 | b\n   3 | c", Window(content, 3, 1))
	assert.Equal(t, "", Window(content, 50, 1))
}

func TestWindow_FiftyLines(t *testing.T) {
	got := Window(numbered(200), 100, 50)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require.Len(t, lines, 101)
	assert.True(t, strings.HasPrefix(lines[0], "  50 | "))
	assert.True(t, strings.HasPrefix(lines[100], " 150 | "))
}

func TestSnippet(t *testing.T) {
	got := Snippet("app/db.py", "q = 1\nexecute(q)\n", "execute(q)", 2, 5)
	want := "```python\n   1 | q = 1\n   2 | execute(q)\n```\n\nSnippet:\n```python\nexecute(q)\n```"
	assert.Equal(t, want, got)
}

func TestSnippet_NoContent(t *testing.T) {
	assert.Equal(t, "execute(q)", Snippet("a.py", "", "execute(q)", 2, 5))
	assert.Equal(t, "", Snippet("a.py", "", "", 2, 5))
}

func TestSnippet_NoSnippet(t *testing.T) {
	got := Snippet("main.go", "package main\n", "", 1, 5)
	assert.Equal(t, "```go\n   1 | package main\n```", got)
}

func TestDisk_LookupCachesAndCaps(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o644))
	big := make([]byte, MaxFileSize+1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.txt"), big, 0o644))

	d := NewDisk(dir)
	got, ok := d.Lookup("a.go")
	require.True(t, ok)
	assert.Equal(t, "package a\n", got)

	// Later changes are not observed once cached.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("changed"), 0o644))
	got, _ = d.Lookup("a.go")
	assert.Equal(t, "package a\n", got)

	_, ok = d.Lookup("big.txt")
	assert.False(t, ok)
	_, err := d.Read("big.txt")
	assert.True(t, errors.Is(err, ErrTooLarge))

	_, ok = d.Lookup("missing.go")
	assert.False(t, ok)
}

func TestDisk_Concurrent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("x"), 0o644))
	d := NewDisk(dir)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, ok := d.Lookup("a.go")
			assert.True(t, ok)
			assert.Equal(t, "x", c)
		}()
	}
	wg.Wait()
}

func TestLanguage(t *testing.T) {
	assert.Equal(t, "go", Language("x/y.go"))
	assert.Equal(t, "csharp", Language("Program.CS"))
	assert.Equal(t, "", Language("Makefile"))
}
