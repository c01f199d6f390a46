package vm

import (
	"github.com/google/uuid"
)

// HostModule is the opaque native artifact holding compiled kernels for
// InvokePacked/InvokeJit dispatch. This package never inspects its
// contents; the interpreter that consumes a loaded Executable is expected
// to type-assert its own concrete type back out of it.
type HostModule interface {
	Name() string
}

// HostModuleRegistry maps an opaque handle to the HostModule a caller
// registered against a loaded Executable, so a process hosting several
// executables can look one back up without threading a pointer through
// unrelated code. It is entirely optional: Load never requires a registry,
// and a nil HostModule is a legal argument to Load.
type HostModuleRegistry struct {
	mu      rwMutex
	entries map[uuid.UUID]HostModule
}

// NewHostModuleRegistry returns an empty registry.
func NewHostModuleRegistry() *HostModuleRegistry {
	return &HostModuleRegistry{entries: make(map[uuid.UUID]HostModule)}
}

// Register stores mod and returns the handle it was assigned. A nil mod is
// rejected — registering is only meaningful for a real host module; pass
// nil directly to Load instead.
func (r *HostModuleRegistry) Register(mod HostModule) (uuid.UUID, bool) {
	if mod == nil {
		return uuid.UUID{}, false
	}
	handle := uuid.New()
	r.mu.Lock()
	r.entries[handle] = mod
	r.mu.Unlock()
	return handle, true
}

// Lookup returns the HostModule registered under handle, if any.
func (r *HostModuleRegistry) Lookup(handle uuid.UUID) (HostModule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mod, ok := r.entries[handle]
	return mod, ok
}

// Forget removes handle from the registry.
func (r *HostModuleRegistry) Forget(handle uuid.UUID) {
	r.mu.Lock()
	delete(r.entries, handle)
	r.mu.Unlock()
}
