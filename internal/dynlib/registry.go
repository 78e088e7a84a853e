// Package dynlib implements the process-wide, deduplicated cache of opened
// shared objects and the symbols resolved from them: the DynamicLibraryRegistry.
package dynlib

import (
	"plugin"
	"sync"

	dagerrors "github.com/alexisbeaulieu97/dagflow/pkg/errors"
)

// Opener abstracts shared-object loading so the registry can be exercised
// in tests without a real *.so built with -buildmode=plugin.
type Opener interface {
	Open(path string) (Symboler, error)
}

// Symboler abstracts symbol resolution from an opened library.
type Symboler interface {
	Lookup(symbol string) (interface{}, error)
}

// pluginOpener is the production Opener, backed by the standard library's
// plugin package.
type pluginOpener struct{}

func (pluginOpener) Open(path string) (Symboler, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return pluginSymboler{p}, nil
}

type pluginSymboler struct {
	p *plugin.Plugin
}

func (s pluginSymboler) Lookup(symbol string) (interface{}, error) {
	sym, err := s.p.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	return sym, nil
}

// Handle pins a loaded library for the life of the process. Handles are
// deduplicated by path: two RegisterLibrary calls for the same path return
// the same Handle.
type Handle struct {
	path string
	lib  Symboler
}

// Path returns the filesystem path this handle was opened from.
func (h *Handle) Path() string {
	if h == nil {
		return ""
	}
	return h.path
}

// Registry is a process-wide set of opened shared libraries keyed by path.
// Lookups are synchronized; insertions are serialized. The registry survives
// for the life of the process — no explicit unload is exposed.
type Registry struct {
	mu      sync.RWMutex
	opener  Opener
	handles map[string]*Handle
}

// NewRegistry constructs an empty Registry backed by the real plugin package.
func NewRegistry() *Registry {
	return NewRegistryWithOpener(pluginOpener{})
}

// NewRegistryWithOpener constructs a Registry with a custom Opener, for tests.
func NewRegistryWithOpener(opener Opener) *Registry {
	return &Registry{opener: opener, handles: make(map[string]*Handle)}
}

// RegisterLibrary opens (or returns the cached handle for) the shared object
// at path.
func (r *Registry) RegisterLibrary(path string) (*Handle, error) {
	r.mu.RLock()
	if h, ok := r.handles[path]; ok {
		r.mu.RUnlock()
		return h, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[path]; ok {
		return h, nil
	}

	lib, err := r.opener.Open(path)
	if err != nil {
		return nil, dagerrors.Wrap(dagerrors.CodeLibraryLoadFailed, "open shared library "+path, err)
	}

	h := &Handle{path: path, lib: lib}
	r.handles[path] = h
	return h, nil
}

// Resolve looks up symbol within the library pinned by handle.
func (r *Registry) Resolve(handle *Handle, symbol string) (interface{}, error) {
	if handle == nil || handle.lib == nil {
		return nil, dagerrors.New(dagerrors.CodeSymbolNotFound, "symbol "+symbol+" requested on nil handle")
	}
	sym, err := handle.lib.Lookup(symbol)
	if err != nil {
		return nil, dagerrors.Wrap(dagerrors.CodeSymbolNotFound, "symbol "+symbol+" not found in "+handle.path, err)
	}
	return sym, nil
}

// Len reports how many distinct libraries are currently pinned.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
