package vm

import "testing"

func TestHostModuleRegistryRegisterLookup(t *testing.T) {
	reg := NewHostModuleRegistry()
	mod := fakeHostModule{name: "kernels.so"}
	handle, ok := reg.Register(mod)
	if !ok {
		t.Fatal("Register returned ok=false for a non-nil module")
	}
	got, ok := reg.Lookup(handle)
	if !ok || got.Name() != "kernels.so" {
		t.Errorf("Lookup(%v) = (%v, %v), want (%v, true)", handle, got, ok, mod)
	}
	reg.Forget(handle)
	if _, ok := reg.Lookup(handle); ok {
		t.Errorf("Lookup after Forget still found an entry")
	}
}

func TestHostModuleRegistryRejectsNil(t *testing.T) {
	reg := NewHostModuleRegistry()
	if _, ok := reg.Register(nil); ok {
		t.Errorf("Register(nil) returned ok=true, want false")
	}
}
