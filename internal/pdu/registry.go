package pdu

import (
	"fmt"
	"sort"
	"sync"

	relayerr "github.com/tturner/simbridge/internal/errors"
)

// Constructor returns a fresh, zero-valued body.
type Constructor func() Body

// Registry maps PDU types to body constructors.
type Registry struct {
	mu    sync.RWMutex
	ctors map[Type]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[Type]Constructor)}
}

// Register adds ctor for t. The type must be declared in Types and may only
// be registered once.
func (r *Registry) Register(t Type, ctor Constructor) error {
	if ctor == nil {
		return fmt.Errorf("%w: nil constructor for PDU type %d", relayerr.ErrConfiguration, t)
	}
	if _, err := Types.FromOrdinal(int(t)); err != nil {
		return fmt.Errorf("%w: %w", relayerr.ErrConfiguration, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ctors[t]; ok {
		return fmt.Errorf("%w: PDU type %s already registered", relayerr.ErrConfiguration, t)
	}
	r.ctors[t] = ctor
	return nil
}

// New returns a fresh body for t.
func (r *Registry) New(t Type) (Body, bool) {
	r.mu.RLock()
	ctor, ok := r.ctors[t]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// Has reports whether t has a registered body.
func (r *Registry) Has(t Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[t]
	return ok
}

// Types returns the registered types in ascending order.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	out := make([]Type, 0, len(r.ctors))
	for t := range r.ctors {
		out = append(out, t)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry of every body this package carries.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		r := NewRegistry()
		mustRegister(r, TypeEntityState, func() Body { return &EntityState{} })
		mustRegister(r, TypeFire, func() Body { return &Fire{} })
		mustRegister(r, TypeDetonation, func() Body { return &Detonation{} })
		mustRegister(r, TypeEnvironmentalProcess, func() Body { return NewEnvironmentalProcess() })
		defaultRegistry = r
	})
	return defaultRegistry
}

func mustRegister(r *Registry, t Type, ctor Constructor) {
	if err := r.Register(t, ctor); err != nil {
		panic(err)
	}
}
