// Package device holds the device record model: identity plus the
// capability offsets and status snapshots carried between polls.
package device

import "github.com/hostwatch/pcie-errmon/internal/pci"

// offsetAbsent marks a capability offset that was never located.
const offsetAbsent = -1

// Record is one tracked PCIe device. Snapshots are mutated only by the
// status differ, once per pass; a register read that fails is treated as
// zero, and the snapshot takes that value.
type Record struct {
	BDF     pci.BDF
	CapExp  int
	EcapAER int

	DeviceStatus        uint16
	UncorrectableErrors uint32
	CorrectableErrors   uint32
}

// New creates a record with both capability offsets marked absent and
// zeroed snapshots, per the device-record lifecycle (§3).
func New(bdf pci.BDF) *Record {
	return &Record{
		BDF:     bdf,
		CapExp:  offsetAbsent,
		EcapAER: offsetAbsent,
	}
}

// HasPCIExpress reports whether preprocessing located the PCI Express
// capability. A record without it does not survive preprocessing.
func (r *Record) HasPCIExpress() bool { return r.CapExp >= 0 }

// HasAER reports whether preprocessing located the AER extended capability.
func (r *Record) HasAER() bool { return r.EcapAER >= 0 }
