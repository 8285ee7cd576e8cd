package tfsm

import (
	"fmt"
	"sync"

	"facette.io/natsort"
)

// Registry maps the callback names used in a Config to implementations.
type Registry struct {
	mut       sync.RWMutex
	callbacks map[string]Callback
}

func NewRegistry() *Registry {
	return &Registry{
		callbacks: make(map[string]Callback),
	}
}

// Register adds cb under name. Names are unique and cb must not be nil.
func (r *Registry) Register(name string, cb Callback) error {
	if name == "" {
		return ErrCallbackNameRequired
	}

	if isNil(cb) {
		return fmt.Errorf("%w: %s", ErrNilCallback, name)
	}

	r.mut.Lock()
	defer r.mut.Unlock()

	if _, ok := r.callbacks[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCallback, name)
	}

	r.callbacks[name] = cb

	return nil
}

// Lookup returns the callback registered under name.
func (r *Registry) Lookup(name string) (Callback, bool) { //nolint:ireturn
	r.mut.RLock()
	defer r.mut.RUnlock()

	cb, ok := r.callbacks[name]

	return cb, ok
}

// Names lists registered names in natural order (step2 before step10).
func (r *Registry) Names() []string {
	r.mut.RLock()
	names := make([]string, 0, len(r.callbacks))

	for name := range r.callbacks {
		names = append(names, name)
	}
	r.mut.RUnlock()

	natsort.Sort(names)

	return names
}
