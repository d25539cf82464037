package capability

import (
	"errors"
	"fmt"
	"sync"
)

var ErrNoAdapter = errors.New("capability: no adapter registered for model name")

// Builder produces a Capability for one concrete model name, e.g.
// "openai:gpt-4o" once the "openai:" adapter matched.
type Builder func(model string) (Capability, error)

// Registry dispatches model names to provider adapters by longest
// registered prefix. Registering the same prefix twice replaces the
// previous builder.
type Registry struct {
	lk sync.RWMutex
	d  *tree[Builder]
}

func NewRegistry() *Registry {
	return &Registry{d: newTree[Builder]()}
}

// Register binds every model name starting with `prefix` to `build`.
func (r *Registry) Register(prefix string, build Builder) {
	r.lk.Lock()
	defer r.lk.Unlock()
	r.d.insert(prefix, build)
}

// Deregister removes a prefix binding, reporting whether it existed.
func (r *Registry) Deregister(prefix string) bool {
	r.lk.Lock()
	defer r.lk.Unlock()
	_, had := r.d.remove(prefix)
	return had
}

// Registered reports whether `prefix` has an exact binding.
func (r *Registry) Registered(prefix string) bool {
	r.lk.RLock()
	defer r.lk.RUnlock()
	_, found := r.d.get(prefix)
	return found
}

// Resolve builds the adapter whose prefix is the longest match for
// `model`, or fails with ErrNoAdapter.
func (r *Registry) Resolve(model string) (Capability, error) {
	r.lk.RLock()
	_, build, found := r.d.longestPrefix(model)
	r.lk.RUnlock()
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrNoAdapter, model)
	}
	return build(model)
}

// Prefixes lists the registered prefixes in lexicographic order.
func (r *Registry) Prefixes() []string {
	r.lk.RLock()
	defer r.lk.RUnlock()
	out := make([]string, 0, r.d.len())
	for prefix := range r.d.walk() {
		out = append(out, prefix)
	}
	return out
}
