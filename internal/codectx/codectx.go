package codectx

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MaxFileSize is the largest file Disk will read.
const MaxFileSize = 1_000_000

// ErrTooLarge is reported by Disk.Read for files above MaxFileSize.
var ErrTooLarge = errors.New("file exceeds context size limit")

// Source resolves a finding's file path to the file contents.
type Source interface {
	Lookup(path string) (string, bool)
}

// Files is a preloaded path to contents map.
type Files map[string]string

func (f Files) Lookup(path string) (string, bool) {
	c, ok := f[path]
	return c, ok
}

// Disk reads files relative to Root on first use and remembers the result,
// including misses. It is safe for concurrent use.
type Disk struct {
	Root string

	mu    sync.Mutex
	cache map[string]diskEntry
}

type diskEntry struct {
	content string
	ok      bool
}

// NewDisk returns a Disk rooted at root. An empty root resolves paths as given.
func NewDisk(root string) *Disk {
	return &Disk{Root: root, cache: make(map[string]diskEntry)}
}

func (d *Disk) Lookup(path string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cache == nil {
		d.cache = make(map[string]diskEntry)
	}
	if e, hit := d.cache[path]; hit {
		return e.content, e.ok
	}
	content, err := d.Read(path)
	e := diskEntry{content: content, ok: err == nil}
	d.cache[path] = e
	return e.content, e.ok
}

// Read loads one file without consulting the cache.
func (d *Disk) Read(path string) (string, error) {
	full := path
	if d.Root != "" && !filepath.IsAbs(path) {
		full = filepath.Join(d.Root, path)
	}
	info, err := os.Stat(full)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", &fs.PathError{Op: "read", Path: full, Err: errors.New("is a directory")}
	}
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("%s (%d bytes): %w", full, info.Size(), ErrTooLarge)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

// Window returns lines line-n through line+n of content (1-based, clamped),
// each prefixed with a right-aligned line number and " | ".
func Window(content string, line, n int) string {
	if content == "" {
		return ""
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	start := max(0, line-n-1)
	end := min(len(lines), line+n)
	if start >= end {
		return ""
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		fmt.Fprintf(&b, "%4d | %s", i+1, lines[i])
	}
	return b.String()
}

// Snippet renders the context block for a prompt: the window around line in
// a fenced block, followed by the matched snippet. Without a usable window
// it returns the snippet alone.
func Snippet(path, content, snippet string, line, n int) string {
	window := Window(content, line, n)
	if window == "" {
		return snippet
	}
	lang := Language(path)
	out := "```" + lang + "\n" + strings.TrimRight(window, "\n") + "\n```"
	if snippet != "" {
		out += "\n\nSnippet:\n```" + lang + "\n" + snippet + "\n```"
	}
	return out
}

var languages = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".tsx":  "tsx",
	".jsx":  "jsx",
	".rs":   "rust",
	".java": "java",
	".kt":   "kotlin",
	".rb":   "ruby",
	".cpp":  "cpp",
	".c":    "c",
	".cs":   "csharp",
	".php":  "php",
	".sh":   "bash",
	".sql":  "sql",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
	".tf":   "hcl",
}

// Language returns the fence tag for a path, or "" when unknown.
func Language(path string) string {
	return languages[strings.ToLower(filepath.Ext(path))]
}
