package backend

import "testing"

// TestSoftwareAlwaysRegistered verifies the software device registers on
// package import.
func TestSoftwareAlwaysRegistered(t *testing.T) {
	found := false
	for _, name := range Available() {
		if name == NameSoftware {
			found = true
		}
	}
	if !found {
		t.Fatalf("software device missing from %v", Available())
	}
	if d := Get(NameSoftware); d == nil {
		t.Fatal("Get(software) = nil")
	}
}

// TestDefaultPrefersGPU verifies a registered GPU device wins the
// default selection, and unregistering it falls back to software.
func TestDefaultPrefersGPU(t *testing.T) {
	Register(NameWGPU, func() Device { return NewSoftwareDevice() })
	defer Unregister(NameWGPU)

	if d := Default(); d == nil {
		t.Fatal("Default() = nil with two devices registered")
	}

	Unregister(NameWGPU)
	d := Default()
	if d == nil {
		t.Fatal("Default() = nil after unregister")
	}
	if d.Name() != NameSoftware {
		t.Errorf("Default().Name() = %q, want %q", d.Name(), NameSoftware)
	}
}

// TestGetUnknown verifies unknown names return nil rather than panicking.
func TestGetUnknown(t *testing.T) {
	if d := Get("no-such-device"); d != nil {
		t.Errorf("Get(unknown) = %v, want nil", d)
	}
}

// TestMustDefault verifies MustDefault returns the registered fallback.
func TestMustDefault(t *testing.T) {
	if d := MustDefault(); d == nil {
		t.Fatal("MustDefault() = nil")
	}
}
