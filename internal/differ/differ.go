// Package differ implements the status differ (component C): it turns raw
// register snapshots into set/cleared notifications, honoring the AER mask
// and the persistent-notification policy.
package differ

import (
	"fmt"

	"github.com/hostwatch/pcie-errmon/internal/device"
	"github.com/hostwatch/pcie-errmon/internal/notify"
	"github.com/hostwatch/pcie-errmon/internal/pci"
)

const (
	deviceStatusOffset = pci.DeviceStatusOffset
	deviceStatusMask   = pci.DeviceStatusMask

	uncorStatusOffset = pci.UncorrectableStatusOffset
	uncorMaskOffset   = pci.UncorrectableMaskOffset
	uncorSeverOffset  = pci.UncorrectableSeverityOffset

	corStatusOffset = pci.CorrectableStatusOffset
	corMaskOffset   = pci.CorrectableMaskOffset
)

// Options carries the configuration knobs the differ consults on each pass.
type Options struct {
	ReportMasked            bool
	PersistentNotifications bool
}

// Differ runs the three passes described in spec §4.C against one device
// record, emitting notifications to sink as it goes.
type Differ struct {
	opts Options
	sink notify.Sink
	host string
}

func New(host string, sink notify.Sink, opts Options) *Differ {
	return &Differ{opts: opts, sink: sink, host: host}
}

// DeviceStatusPass reads the Device Status register and emits set/cleared
// events for the four catalog bits. It always runs when the caller has a
// surviving record (cap_exp >= 0 is the caller's responsibility to check).
func (d *Differ) DeviceStatusPass(r pci.Reader, rec *device.Record) {
	new16, ok := pci.ReadU16(r, rec.CapExp+deviceStatusOffset)
	if !ok {
		new16 = 0
	}
	newVal := new16 & deviceStatusMask
	old := rec.DeviceStatus

	if !(newVal == old && (!d.opts.PersistentNotifications || newVal == 0)) {
		for _, bit := range pci.DeviceStatusBits {
			mask := uint16(bit.Mask)
			set := newVal&mask != 0
			wasSet := old&mask != 0

			switch {
			case set && (d.opts.PersistentNotifications || !wasSet):
				d.emit(deviceStatusSeverity(bit.Mask), deviceStatusTypeInstance(bit.Mask),
					rec.BDF.String(), fmt.Sprintf("Device Status Error set: %s", bit.Desc))
			case !set && wasSet:
				d.emit(notify.SeverityOkay, deviceStatusTypeInstance(bit.Mask),
					rec.BDF.String(), fmt.Sprintf("Device Status Error cleared: %s", bit.Desc))
			}
		}
	}

	rec.DeviceStatus = newVal
}

func deviceStatusSeverity(mask uint32) notify.Severity {
	if mask == 0x04 { // FED
		return notify.SeverityFailure
	}
	return notify.SeverityWarning
}

func deviceStatusTypeInstance(mask uint32) notify.TypeInstance {
	switch mask {
	case 0x01: // CED
		return notify.TypeInstanceCorrectable
	case 0x04: // FED
		return notify.TypeInstanceFatal
	default: // NFED, URD
		return notify.TypeInstanceNonFatal
	}
}

// UncorrectablePass reads the AER uncorrectable status register (and, when
// entering the pass, the mask and severity registers) and emits events for
// the 16 catalog bits.
func (d *Differ) UncorrectablePass(r pci.Reader, rec *device.Record) {
	new32, ok := pci.ReadU32(r, rec.EcapAER+uncorStatusOffset)
	if !ok {
		new32 = 0
	}
	old := rec.UncorrectableErrors

	if new32 == old && (!d.opts.PersistentNotifications || new32 == 0) {
		rec.UncorrectableErrors = new32
		return
	}

	mask, ok := pci.ReadU32(r, rec.EcapAER+uncorMaskOffset)
	if !ok {
		mask = 0
	}
	sever, ok := pci.ReadU32(r, rec.EcapAER+uncorSeverOffset)
	if !ok {
		sever = 0
	}

	for _, bit := range pci.UncorrectableAERBits {
		if bit.Mask&mask != 0 && !d.opts.ReportMasked {
			continue
		}
		set := new32&bit.Mask != 0
		wasSet := old&bit.Mask != 0

		sev := notify.SeverityWarning
		ti := notify.TypeInstanceNonFatal
		if bit.Mask&sever != 0 {
			sev = notify.SeverityFailure
			ti = notify.TypeInstanceFatal
		}

		switch {
		case set && (d.opts.PersistentNotifications || !wasSet):
			d.emit(sev, ti, rec.BDF.String(),
				fmt.Sprintf("AER Uncorrectable Error set: %s", bit.Desc))
		case wasSet && !set:
			d.emit(notify.SeverityOkay, ti, rec.BDF.String(),
				fmt.Sprintf("AER Uncorrectable Error cleared: %s", bit.Desc))
		}
	}

	rec.UncorrectableErrors = new32
}

// CorrectablePass mirrors UncorrectablePass against the correctable status
// and mask registers. There is no severity register; every SET event is
// WARNING tagged "correctable".
func (d *Differ) CorrectablePass(r pci.Reader, rec *device.Record) {
	new32, ok := pci.ReadU32(r, rec.EcapAER+corStatusOffset)
	if !ok {
		new32 = 0
	}
	old := rec.CorrectableErrors

	if new32 == old && (!d.opts.PersistentNotifications || new32 == 0) {
		rec.CorrectableErrors = new32
		return
	}

	mask, ok := pci.ReadU32(r, rec.EcapAER+corMaskOffset)
	if !ok {
		mask = 0
	}

	for _, bit := range pci.CorrectableAERBits {
		if bit.Mask&mask != 0 && !d.opts.ReportMasked {
			continue
		}
		set := new32&bit.Mask != 0
		wasSet := old&bit.Mask != 0

		switch {
		case set && (d.opts.PersistentNotifications || !wasSet):
			d.emit(notify.SeverityWarning, notify.TypeInstanceCorrectable, rec.BDF.String(),
				fmt.Sprintf("AER Correctable Error set: %s", bit.Desc))
		case wasSet && !set:
			d.emit(notify.SeverityOkay, notify.TypeInstanceCorrectable, rec.BDF.String(),
				fmt.Sprintf("AER Correctable Error cleared: %s", bit.Desc))
		}
	}

	rec.CorrectableErrors = new32
}

func (d *Differ) emit(sev notify.Severity, ti notify.TypeInstance, pluginInstance, message string) {
	n := notify.New(d.host)
	n.Severity = sev
	n.TypeInstance = ti
	n.PluginInstance = pluginInstance
	n.Message = message
	d.sink.Notify(n)
}
