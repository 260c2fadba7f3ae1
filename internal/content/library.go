package content

import (
	"fmt"
	"sort"
	"sync"
)

// RunOptions are passed along with a descriptor when an instance is created.
type RunOptions struct {
	// IsSubContent is true when the instance lives inside another content
	// rather than being the outermost content of the page.
	IsSubContent bool
	// PreviousState is the opaque saved state for this instance.
	PreviousState any
}

// Factory creates runnable instances. A nil instance or an error means the
// content could not be created.
type Factory interface {
	NewRunnable(desc Descriptor, contentID string, opts RunOptions) (Instance, error)
}

// Constructor builds one library's instances.
type Constructor func(desc Descriptor, contentID string, opts RunOptions) (Instance, error)

// Library is a Factory backed by constructors registered per machine name.
type Library struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{
		ctors: make(map[string]Constructor),
	}
}

// DefaultLibrary returns a library with the built-in content types.
func DefaultLibrary() *Library {
	l := NewLibrary()
	l.Register(ExerciseLibrary, NewExercise)
	l.Register(VideoLibrary, NewMedia)
	l.Register(AudioLibrary, NewMedia)
	return l
}

// Register adds or replaces the constructor for machineName.
func (l *Library) Register(machineName string, ctor Constructor) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ctors[machineName] = ctor
}

// Has returns true if machineName is registered.
func (l *Library) Has(machineName string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.ctors[machineName]
	return ok
}

// Names returns the registered machine names, sorted.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.ctors))
	for name := range l.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRunnable implements Factory.
func (l *Library) NewRunnable(desc Descriptor, contentID string, opts RunOptions) (Instance, error) {
	name := desc.MachineName()
	l.mu.RLock()
	ctor, ok := l.ctors[name]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("library not installed: %q", desc.Library)
	}
	return ctor(desc, contentID, opts)
}
