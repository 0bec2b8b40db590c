// Package poll implements the device poll loop (component D): open each
// surviving device, run the differ passes, close, sequentially.
package poll

import (
	"github.com/hostwatch/pcie-errmon/internal/access"
	"github.com/hostwatch/pcie-errmon/internal/device"
	"github.com/hostwatch/pcie-errmon/internal/differ"
	"github.com/hostwatch/pcie-errmon/internal/notify"
	"github.com/sirupsen/logrus"
)

// Loop iterates the device list, running the differ against each one. It
// returns true iff every device opened successfully; a failed open does not
// stop the loop, it only marks the overall result and emits one FAILURE
// notification for that device.
type Loop struct {
	backend access.Backend
	differ  *differ.Differ
	sink    notify.Sink
	host    string
	log     *logrus.Entry
}

func New(backend access.Backend, d *differ.Differ, sink notify.Sink, host string) *Loop {
	return &Loop{
		backend: backend,
		differ:  d,
		sink:    sink,
		host:    host,
		log:     logrus.WithField("component", "poll"),
	}
}

// Run polls every device in records, in list order. Ordering of
// notifications within one device follows catalog order (enforced by
// differ); ordering across devices follows the slice order passed in.
func (l *Loop) Run(records []*device.Record) (ok bool) {
	ok = true
	for _, rec := range records {
		if !l.pollOne(rec) {
			ok = false
		}
	}
	return ok
}

func (l *Loop) pollOne(rec *device.Record) bool {
	dev, err := l.backend.Open(rec.BDF)
	if err != nil {
		l.log.WithField("bdf", rec.BDF.String()).WithError(err).Warn("failed to open device")
		n := notify.New(l.host)
		n.Severity = notify.SeverityFailure
		n.TypeInstance = notify.TypeInstanceNonFatal
		n.PluginInstance = rec.BDF.String()
		n.Message = "Failed to read device status"
		l.sink.Notify(n)
		return false
	}
	defer func() {
		if cerr := dev.Close(); cerr != nil {
			l.log.WithField("bdf", rec.BDF.String()).WithError(cerr).Debug("error closing device")
		}
	}()

	l.differ.DeviceStatusPass(dev, rec)
	if rec.HasAER() {
		l.differ.UncorrectablePass(dev, rec)
		l.differ.CorrectablePass(dev, rec)
	}
	return true
}
