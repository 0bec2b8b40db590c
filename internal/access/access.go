// Package access implements the positional, seekless config-space reads
// that back internal/pci.Reader: sysfs on modern kernels, procfs as a
// compatibility fallback. Neither backend retains cursor state between
// reads; every read names its own offset.
package access

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hostwatch/pcie-errmon/internal/pci"
)

// ErrNoDevices is returned by Enumerate when a backend's device directory or
// listing file exists but names no devices.
var ErrNoDevices = errors.New("access: no devices found")

// Device is an open handle to one device's config space. It satisfies
// pci.Reader so capability and register decoding can operate directly
// against live hardware state.
type Device interface {
	pci.Reader
	BDF() pci.BDF
	Close() error
}

// Backend enumerates PCI devices and opens per-device config-space handles.
// Source (see internal/config) selects between the sysfs and proc
// implementations.
type Backend interface {
	Enumerate() ([]pci.BDF, error)
	Open(bdf pci.BDF) (Device, error)
}

// New constructs the backend named by source ("sysfs" or "proc", matched
// case-insensitively). accessDir overrides the backend's default root when
// non-empty.
func New(source, accessDir string) (Backend, error) {
	switch strings.ToLower(source) {
	case "", "sysfs":
		dir := accessDir
		if dir == "" {
			dir = DefaultSysfsDir
		}
		return &sysfsBackend{dir: dir}, nil
	case "proc":
		dir := accessDir
		if dir == "" {
			dir = DefaultProcDir
		}
		return &procBackend{dir: dir}, nil
	default:
		return nil, fmt.Errorf("access: unknown source %q", source)
	}
}
