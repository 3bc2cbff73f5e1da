// Package cache implements the bounded path→content store the monitor
// uses to remember what it last observed on disk for each tracked file.
package cache

import "container/list"

// LRU is a byte-budgeted, strictly-LRU path→content cache. There is no
// entry-count cap; eviction is driven entirely by the total size of
// cached values against MaxBytes.
//
// Not safe for concurrent use — callers (the monitor's single loop
// goroutine) are expected to serialize access.
type LRU struct {
	maxBytes  int
	totalSize int
	ll        *list.List // front = most recently used
	items     map[string]*list.Element
}

type entry struct {
	path    string
	content []byte
}

// New returns an LRU cache that evicts entries once the sum of cached
// value sizes would exceed maxBytes.
func New(maxBytes int) *LRU {
	return &LRU{
		maxBytes: maxBytes,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the cached content for path, promoting it to
// most-recently-used. The returned slice must not be mutated by the
// caller.
func (c *LRU) Get(path string) (content []byte, ok bool) {
	el, found := c.items[path]
	if !found {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).content, true
}

// Has reports whether path is currently cached, without affecting LRU order.
func (c *LRU) Has(path string) bool {
	_, ok := c.items[path]
	return ok
}

// Set stores content for path at the front (most-recently-used)
// position, evicting the least-recently-used entries until the total
// fits within maxBytes. Oversize values (len(content) > maxBytes) are
// rejected silently; the caller proceeds with the file effectively
// unobserved rather than letting one huge file flush the whole cache.
func (c *LRU) Set(path string, content []byte) {
	if c.maxBytes > 0 && len(content) > c.maxBytes {
		return
	}

	if el, ok := c.items[path]; ok {
		old := el.Value.(*entry)
		c.totalSize += len(content) - len(old.content)
		old.content = content
		c.ll.MoveToFront(el)
	} else {
		el := c.ll.PushFront(&entry{path: path, content: content})
		c.items[path] = el
		c.totalSize += len(content)
	}

	c.evict()
}

// Remove deletes the cache entry for path, if any.
func (c *LRU) Remove(path string) {
	el, ok := c.items[path]
	if !ok {
		return
	}
	c.removeElement(el)
}

// Clear empties the cache.
func (c *LRU) Clear() {
	c.ll = list.New()
	c.items = make(map[string]*list.Element)
	c.totalSize = 0
}

// TotalBytes returns the current sum of cached value sizes.
func (c *LRU) TotalBytes() int {
	return c.totalSize
}

// Len returns the number of cached entries.
func (c *LRU) Len() int {
	return c.ll.Len()
}

func (c *LRU) evict() {
	if c.maxBytes <= 0 {
		return
	}
	for c.totalSize > c.maxBytes {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
	}
}

func (c *LRU) removeElement(el *list.Element) {
	e := el.Value.(*entry)
	c.ll.Remove(el)
	delete(c.items, e.path)
	c.totalSize -= len(e.content)
}
