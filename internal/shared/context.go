// Package shared holds the session-wide registry that stages and the map
// controller use to collaborate. One Context is created when a map is built
// and passed by reference to every component. By convention only the map
// controller writes to it; stages read.
package shared

import (
	"sync"

	"github.com/AaronLay10/GameMap/internal/content"
)

// Well-known keys.
const (
	KeyMainInstance  = "mainInstance"
	KeyContentID     = "contentId"
	KeyParams        = "params"
	KeyPreviousState = "previousState"
	KeyStates        = "states"
	KeyResize        = "resize"
	KeyEngine        = "engine"
)

// Context is a key/value registry with last-write-wins semantics.
// Reading a key before it is set returns the zero value; callers are
// expected to read only keys the map has established.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewContext creates an empty registry.
func NewContext() *Context {
	return &Context{
		values: make(map[string]any),
	}
}

// Set stores value under key.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Get returns the value stored under key, or nil.
func (c *Context) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[key]
}

// Lookup is like Get but reports whether the key was set.
func (c *Context) Lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// MainInstance returns the orchestrating instance events bubble to.
func (c *Context) MainInstance() content.Relay {
	r, _ := c.Get(KeyMainInstance).(content.Relay)
	return r
}

// ContentID returns the id of the content the map belongs to.
func (c *Context) ContentID() string {
	s, _ := c.Get(KeyContentID).(string)
	return s
}

// Params returns the raw map parameters.
func (c *Context) Params() any {
	return c.Get(KeyParams)
}

// PreviousState returns the saved state blob the session was started with.
func (c *Context) PreviousState() any {
	return c.Get(KeyPreviousState)
}

// States returns the state-code table.
func (c *Context) States() *StateTable {
	t, _ := c.Get(KeyStates).(*StateTable)
	return t
}

// Engine returns the rendering engine identifier of the host, e.g. "blink".
func (c *Context) Engine() string {
	s, _ := c.Get(KeyEngine).(string)
	return s
}

// Resize invokes the registered resize trigger, if any.
func (c *Context) Resize() {
	if fn, ok := c.Get(KeyResize).(func()); ok && fn != nil {
		fn()
	}
}
