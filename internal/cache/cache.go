// Package cache keeps the parsed document of every open file, keyed by URI.
package cache

import (
	"sort"
	"sync"

	"github.com/jward/pkgls/internal/syntax"
)

// Entry is a parsed document and the filetype it was classified as.
type Entry struct {
	Filetype string
	Doc      *syntax.Document
	// Version increases every time the URI is replaced.
	Version int
}

// Cache maps URIs to entries. A new parse replaces the old entry outright;
// nothing is updated in place. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Put stores doc for uri, replacing any previous entry, and returns the new
// entry. Replaced documents are not closed since readers may still hold them.
func (c *Cache) Put(uri, filetype string, doc *syntax.Document) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := Entry{Filetype: filetype, Doc: doc, Version: c.entries[uri].Version + 1}
	c.entries[uri] = e
	return e
}

// Get returns the entry for uri.
func (c *Cache) Get(uri string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[uri]
	return e, ok
}

// Delete forgets uri.
func (c *Cache) Delete(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, uri)
}

// Len returns the number of cached URIs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// URIs returns the cached URIs, sorted.
func (c *Cache) URIs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for uri := range c.entries {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}
