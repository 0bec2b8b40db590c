package access

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hostwatch/pcie-errmon/internal/pci"
	"golang.org/x/sys/unix"
)

// DefaultSysfsDir is the standard mount point for the PCI sysfs tree.
const DefaultSysfsDir = "/sys/bus/pci"

type sysfsBackend struct {
	dir string
}

// Enumerate lists {dir}/devices/, matching entries named DDDD:BB:DD.F and
// skipping dotfiles and anything that fails to parse as a BDF.
func (b *sysfsBackend) Enumerate() ([]pci.BDF, error) {
	devicesDir := filepath.Join(b.dir, "devices")
	entries, err := os.ReadDir(devicesDir)
	if err != nil {
		return nil, fmt.Errorf("access: reading %s: %w", devicesDir, err)
	}

	var bdfs []pci.BDF
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		bdf, err := pci.ParseBDF(name)
		if err != nil {
			continue
		}
		bdfs = append(bdfs, bdf)
	}
	if len(bdfs) == 0 {
		return nil, ErrNoDevices
	}
	return bdfs, nil
}

// Open opens {dir}/devices/DDDD:BB:DD.F/config for positional read access.
func (b *sysfsBackend) Open(bdf pci.BDF) (Device, error) {
	path := filepath.Join(b.dir, "devices", bdf.String(), "config")
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("access: opening %s: %w", path, err)
		}
	}
	return &sysfsDevice{bdf: bdf, f: f}, nil
}

type sysfsDevice struct {
	bdf pci.BDF
	f   *os.File
}

func (d *sysfsDevice) BDF() pci.BDF { return d.bdf }

// ReadAt issues a positional pread(2) and reports success only when the full
// buffer is filled; short reads and I/O errors both count as failure.
func (d *sysfsDevice) ReadAt(buf []byte, offset int64) bool {
	n, err := unix.Pread(int(d.f.Fd()), buf, offset)
	if err != nil {
		return false
	}
	return n == len(buf)
}

func (d *sysfsDevice) Close() error {
	return d.f.Close()
}
