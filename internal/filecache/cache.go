// Package filecache keeps the raw contents of every file discovered under a
// project tree, keyed case-insensitively by absolute path.
package filecache

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"datapacks/internal/fileutil"
)

// Encoding describes how a cached file's content is represented.
type Encoding string

const (
	Text   Encoding = "utf8"
	Base64 Encoding = "base64"
)

var textExtensions = map[string]struct{}{
	"css":  {},
	"json": {},
	"yaml": {},
	"scss": {},
	"html": {},
	"js":   {},
}

// EncodingFor returns the encoding used for a file name. Only the text
// extension allow-list is read as UTF-8; everything else is base64.
func EncodingFor(name string) Encoding {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if _, ok := textExtensions[ext]; ok {
		return Text
	}
	return Base64
}

// Entry is one cached file.
type Entry struct {
	Path     string
	Encoding Encoding
	Content  string
}

// Cache maps folded absolute paths to file content. Writes are serialized;
// the cache is filled once per run and only cleared through Reset.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]Entry),
	}
}

// Key folds path into its cache key.
func Key(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	// Casers carry state and must not be shared between goroutines.
	return cases.Lower(language.Und).String(filepath.ToSlash(abs))
}

// Put stores raw file bytes under path using the encoding for its extension.
func (c *Cache) Put(path string, raw []byte) Entry {
	entry := Entry{Path: path, Encoding: EncodingFor(path)}
	if entry.Encoding == Text {
		entry.Content = string(raw)
	} else {
		entry.Content = base64.StdEncoding.EncodeToString(raw)
	}
	key := Key(path)
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return entry
}

// Get returns the cached entry for path.
func (c *Cache) Get(path string) (Entry, bool) {
	key := Key(path)
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Has reports whether path is cached.
func (c *Cache) Has(path string) bool {
	_, ok := c.Get(path)
	return ok
}

// Len reports the number of cached files.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// LoadDir reads every regular file directly inside dir and returns the
// number of files cached.
func (c *Cache) LoadDir(dir string) (int, error) {
	names, err := fileutil.ListFiles(dir)
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, name := range names {
		path := filepath.Join(dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return loaded, fmt.Errorf("read %s: %w", path, err)
		}
		c.Put(path, raw)
		loaded++
	}
	return loaded, nil
}
