package access

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hostwatch/pcie-errmon/internal/pci"
	"golang.org/x/sys/unix"
)

// DefaultProcDir is the standard mount point for the legacy procfs PCI tree.
const DefaultProcDir = "/proc/bus/pci"

// procBackend reads device identity from {dir}/devices, a line-oriented text
// file where the first whitespace-delimited token on each line is a 16-bit
// slot value packing bus (high byte) and device.function (low byte). Unlike
// sysfs, procfs carries no domain field; every BDF it produces has Domain 0.
type procBackend struct {
	dir string
}

func (b *procBackend) Enumerate() ([]pci.BDF, error) {
	path := filepath.Join(b.dir, "devices")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("access: reading %s: %w", path, err)
	}
	defer f.Close()

	var bdfs []pci.BDF
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		slot, err := strconv.ParseUint(fields[0], 16, 16)
		if err != nil {
			continue
		}
		bdfs = append(bdfs, pci.BDF{
			Domain:   0,
			Bus:      uint8(slot >> 8),
			Device:   uint8(slot>>3) & 0x1f,
			Function: uint8(slot) & 0x07,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("access: scanning %s: %w", path, err)
	}
	if len(bdfs) == 0 {
		return nil, ErrNoDevices
	}
	return bdfs, nil
}

// Open opens {dir}/BB/DD.F, the legacy per-device procfs node.
func (b *procBackend) Open(bdf pci.BDF) (Device, error) {
	path := filepath.Join(b.dir, fmt.Sprintf("%02x", bdf.Bus), fmt.Sprintf("%02x.%x", bdf.Device, bdf.Function))
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("access: opening %s: %w", path, err)
		}
	}
	return &procDevice{bdf: bdf, f: f}, nil
}

type procDevice struct {
	bdf pci.BDF
	f   *os.File
}

func (d *procDevice) BDF() pci.BDF { return d.bdf }

func (d *procDevice) ReadAt(buf []byte, offset int64) bool {
	n, err := unix.Pread(int(d.f.Fd()), buf, offset)
	if err != nil {
		return false
	}
	return n == len(buf)
}

func (d *procDevice) Close() error {
	return d.f.Close()
}
