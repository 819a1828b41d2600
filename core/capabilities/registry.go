package capabilities

import (
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
)

var ErrDuplicateModule = errors.New("module already registered")

// Registry holds every capability the assistant can dispatch to. It is the
// single source of truth for what is executable: a proposal whose module/verb
// pair is not found here is never resolved.
//
// Registration happens at startup, single-threaded. Reads afterwards are safe
// to call concurrently because the stored capabilities are never mutated.
type Registry struct {
	capabilities []Capability
	byModule     map[string]int
}

func NewRegistry() *Registry {
	return &Registry{byModule: map[string]int{}}
}

// Register adds a capability. The capability is deep-copied on the way in so
// later mutation of the caller's value cannot reach the registry.
func (r *Registry) Register(capability Capability) error {
	if capability.ModuleID == "" {
		return fmt.Errorf("capability has no module id")
	}
	if _, exists := r.byModule[capability.ModuleID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateModule, capability.ModuleID)
	}

	var stored Capability
	if err := copier.CopyWithOption(&stored, &capability, copier.Option{DeepCopy: true}); err != nil {
		return fmt.Errorf("failed to copy capability %q: %w", capability.ModuleID, err)
	}

	r.byModule[capability.ModuleID] = len(r.capabilities)
	r.capabilities = append(r.capabilities, stored)
	return nil
}

// List returns a deep copy of all registered capabilities, in registration
// order. Callers may mutate the result freely.
func (r *Registry) List() []Capability {
	capabilities := make([]Capability, 0, len(r.capabilities))
	for index := range r.capabilities {
		capabilities = append(capabilities, r.clone(index))
	}
	return capabilities
}

// Find returns a deep copy of the capability registered for moduleID, but
// only if it also declares verb. Returns nil otherwise.
func (r *Registry) Find(moduleID, verb string) *Capability {
	index, ok := r.byModule[moduleID]
	if !ok {
		return nil
	}

	if _, ok := r.capabilities[index].Action(verb); !ok {
		return nil
	}
	capability := r.clone(index)
	return &capability
}

// clone deep-copies the stored capability at index so handed-out values never
// alias the registry's maps.
func (r *Registry) clone(index int) Capability {
	var out Capability
	if err := copier.CopyWithOption(&out, &r.capabilities[index], copier.Option{DeepCopy: true}); err != nil {
		// Register already proved the value copies cleanly.
		return r.capabilities[index]
	}
	return out
}
