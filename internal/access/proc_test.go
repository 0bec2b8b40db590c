package access

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hostwatch/pcie-errmon/internal/pci"
)

func createMockProc(t *testing.T, devicesLine string, nodes map[string][]byte) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "devices"), []byte(devicesLine), 0o644); err != nil {
		t.Fatalf("write devices: %v", err)
	}
	for rel, data := range nodes {
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", full, err)
		}
	}
	return root
}

func TestProcBackendEnumerate(t *testing.T) {
	// slot 0x00f8 = bus 0x00, device 0x1f, function 0x0
	root := createMockProc(t, "00f8\t808680ee\n0100\t808680ee\n", nil)

	b := &procBackend{dir: root}
	bdfs, err := b.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(bdfs) != 2 {
		t.Fatalf("got %d devices, want 2", len(bdfs))
	}
	if bdfs[0].Domain != 0 {
		t.Fatalf("Domain = %d, want 0 (proc backend has no domain field)", bdfs[0].Domain)
	}
	if bdfs[0].Bus != 0x00 || bdfs[0].Device != 0x1f || bdfs[0].Function != 0x00 {
		t.Fatalf("got %+v, want bus=0x00 dev=0x1f fn=0x0", bdfs[0])
	}
}

func TestProcBackendEnumerateNoDevices(t *testing.T) {
	root := createMockProc(t, "", nil)
	b := &procBackend{dir: root}
	if _, err := b.Enumerate(); err != ErrNoDevices {
		t.Fatalf("got err %v, want ErrNoDevices", err)
	}
}

func TestProcBackendOpenAndReadAt(t *testing.T) {
	cfg := make([]byte, 256)
	root := createMockProc(t, "00f8\t808680ee\n", map[string][]byte{"00/1f.0": cfg})

	b := &procBackend{dir: root}
	bdf := pci.BDF{Bus: 0x00, Device: 0x1f, Function: 0x0}
	dev, err := b.Open(bdf)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dev.Close()

	var buf [4]byte
	if !dev.ReadAt(buf[:], 0) {
		t.Fatalf("ReadAt failed")
	}
}
