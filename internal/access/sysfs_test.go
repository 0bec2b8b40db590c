package access

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hostwatch/pcie-errmon/internal/pci"
)

// createMockSysfs builds a fake {dir}/devices/ tree with the given BDF
// strings, each carrying a config file of the given size filled with zeros.
func createMockSysfs(t *testing.T, bdfs []string, configSize int) string {
	t.Helper()
	root := t.TempDir()
	devicesDir := filepath.Join(root, "devices")
	if err := os.MkdirAll(devicesDir, 0o755); err != nil {
		t.Fatalf("mkdir devices: %v", err)
	}
	for _, bdf := range bdfs {
		devDir := filepath.Join(devicesDir, bdf)
		if err := os.MkdirAll(devDir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", devDir, err)
		}
		cfg := make([]byte, configSize)
		if err := os.WriteFile(filepath.Join(devDir, "config"), cfg, 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}
	// a dotfile entry that must never be treated as a device
	if err := os.WriteFile(filepath.Join(devicesDir, ".lock"), nil, 0o644); err != nil {
		t.Fatalf("write .lock: %v", err)
	}
	return root
}

func TestSysfsBackendEnumerate(t *testing.T) {
	root := createMockSysfs(t, []string{"0000:00:1f.0", "0000:01:00.0"}, 256)

	b := &sysfsBackend{dir: root}
	bdfs, err := b.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(bdfs) != 2 {
		t.Fatalf("got %d devices, want 2", len(bdfs))
	}
}

func TestSysfsBackendEnumerateNoDevices(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "devices"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	b := &sysfsBackend{dir: root}
	if _, err := b.Enumerate(); err != ErrNoDevices {
		t.Fatalf("got err %v, want ErrNoDevices", err)
	}
}

func TestSysfsBackendOpenAndReadAt(t *testing.T) {
	root := createMockSysfs(t, []string{"0000:00:1f.0"}, 256)
	b := &sysfsBackend{dir: root}

	bdf, _ := pci.ParseBDF("0000:00:1f.0")
	dev, err := b.Open(bdf)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dev.Close()

	if dev.BDF() != bdf {
		t.Fatalf("BDF() = %v, want %v", dev.BDF(), bdf)
	}

	var buf [4]byte
	if !dev.ReadAt(buf[:], 0) {
		t.Fatalf("ReadAt at offset 0 failed")
	}

	// reading past the end of the file must report failure, never a short
	// zero-padded result.
	var tail [4]byte
	if dev.ReadAt(tail[:], 512) {
		t.Fatalf("ReadAt past EOF unexpectedly succeeded")
	}
}

func TestSysfsBackendOpenMissingDevice(t *testing.T) {
	root := createMockSysfs(t, nil, 256)
	b := &sysfsBackend{dir: root}
	bdf, _ := pci.ParseBDF("0000:05:00.0")
	if _, err := b.Open(bdf); err == nil {
		t.Fatalf("Open on missing device: want error, got nil")
	}
}
