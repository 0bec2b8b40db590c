// Package walker searches a live device's config space for the PCI Express
// capability and the AER extended capability by following the standard and
// extended capability linked lists, generalizing the buffer-based list walk
// in pcileechgen's internal/pci to operate against per-offset live reads.
package walker

import "github.com/hostwatch/pcie-errmon/internal/pci"

// maxCapabilities bounds standard capability list traversal against a
// corrupt or malicious device presenting a cyclic list.
const maxCapabilities = 48

// maxExtCapabilities bounds extended capability list traversal the same way.
const maxExtCapabilities = 256

const (
	statusOffset       = 0x06
	statusCapListBit   = 0x10
	capabilitiesOffset = 0x34
	extCapStart        = 0x100
)

// FindPCIExpress walks the standard capability list looking for the PCI
// Express capability. found is false if the device has no capability list,
// the list has no PCI Express entry, or a read failure interrupts the walk.
func FindPCIExpress(r pci.Reader) (offset int, found bool) {
	status, ok := pci.ReadU16(r, statusOffset)
	if !ok || status&statusCapListBit == 0 {
		return 0, false
	}

	ptr, ok := pci.ReadU8(r, capabilitiesOffset)
	if !ok {
		return 0, false
	}

	next := ptr & 0xfc
	visited := map[uint8]bool{}
	for i := 0; i < maxCapabilities && next != 0; i++ {
		if visited[next] {
			return 0, false
		}
		visited[next] = true

		header, ok := pci.ReadU16(r, int(next))
		if !ok {
			return 0, false
		}
		id := uint8(header)
		if id == 0xff {
			return 0, false
		}
		if id == pci.CapIDPCIExpress {
			return int(next), true
		}
		next = uint8(header>>8) & 0xfc
	}
	return 0, false
}

// FindAER walks the extended capability list looking for the Advanced Error
// Reporting capability. The extended list always starts at offset 0x100;
// each entry is a 32-bit header packing ID (bits 0-15), version (16-19), and
// next-offset (20-31).
func FindAER(r pci.Reader) (offset int, found bool) {
	next := extCapStart
	visited := map[int]bool{}
	for i := 0; i < maxExtCapabilities && next != 0; i++ {
		if next < extCapStart || visited[next] {
			return 0, false
		}
		visited[next] = true

		header, ok := pci.ReadU32(r, next)
		if !ok {
			return 0, false
		}
		id := uint16(header & 0xffff)
		if id == 0x0000 || id == 0xffff {
			return 0, false
		}
		if id == pci.ExtCapIDAER {
			return next, true
		}
		next = int(header>>20) & 0xffc
	}
	return 0, false
}
