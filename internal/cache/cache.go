package cache

import "sync"

// ViewCache holds the realized presentation handles keyed by annotation id.
// A handle lives exactly as long as its annotation stays active; the cache
// never owns the annotation itself.
type ViewCache[H any] struct {
	m     sync.Mutex
	views map[string]H
}

// NewViewCache creates an empty view cache.
func NewViewCache[H any]() *ViewCache[H] {
	return &ViewCache[H]{
		views: make(map[string]H),
	}
}

// Get returns the handle bound to the annotation id, if any.
func (c *ViewCache[H]) Get(id string) (H, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	h, ok := c.views[id]
	return h, ok
}

// Put binds a handle to an annotation id, replacing any previous binding.
func (c *ViewCache[H]) Put(id string, h H) {
	c.m.Lock()
	defer c.m.Unlock()
	c.views[id] = h
}

// Remove unbinds the handle for an annotation id and returns it.
func (c *ViewCache[H]) Remove(id string) (H, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	h, ok := c.views[id]
	if ok {
		delete(c.views, id)
	}
	return h, ok
}

// IDs returns the annotation ids that currently have a bound handle.
func (c *ViewCache[H]) IDs() []string {
	c.m.Lock()
	defer c.m.Unlock()
	ids := make([]string, 0, len(c.views))
	for id := range c.views {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of bound handles.
func (c *ViewCache[H]) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.views)
}

// Reset drops all bindings.
func (c *ViewCache[H]) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.views = make(map[string]H)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
