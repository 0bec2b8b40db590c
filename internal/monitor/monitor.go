// Package monitor implements bootstrap and the single per-poll entry point
// (component G): it wires the access backend, preprocesses the device list
// through the capability walker, installs the default log parser when
// needed, and owns the device list and parser jobs across the component's
// lifetime.
package monitor

import (
	"errors"
	"fmt"

	"github.com/hostwatch/pcie-errmon/internal/access"
	"github.com/hostwatch/pcie-errmon/internal/config"
	"github.com/hostwatch/pcie-errmon/internal/device"
	"github.com/hostwatch/pcie-errmon/internal/differ"
	"github.com/hostwatch/pcie-errmon/internal/logtail"
	"github.com/hostwatch/pcie-errmon/internal/notify"
	"github.com/hostwatch/pcie-errmon/internal/pci"
	"github.com/hostwatch/pcie-errmon/internal/poll"
	"github.com/hostwatch/pcie-errmon/internal/shaper"
	"github.com/hostwatch/pcie-errmon/internal/walker"
	"github.com/sirupsen/logrus"
)

// ErrNoDevices is returned by New when device polling is enabled but
// preprocessing leaves zero surviving PCIe devices.
var ErrNoDevices = errors.New("monitor: no PCIe devices found")

// Monitor owns the device list, the parser jobs, and the wiring needed to
// run one poll cycle: device pass, then log pass, as required by the
// single-threaded cooperative concurrency model.
type Monitor struct {
	cfg     config.Config
	host    string
	sink    notify.Sink
	backend access.Backend
	devices []*device.Record
	differ  *differ.Differ
	loop    *poll.Loop
	jobs    []*logtail.Job

	readLog bool
	log     *logrus.Entry
}

// New validates cfg, enumerates and preprocesses devices (if device polling
// is enabled), and installs parser jobs (if log reading is enabled),
// failing fatally per the bootstrap contract in §4.G.
func New(host string, cfg config.Config, sink notify.Sink) (*Monitor, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}

	m := &Monitor{
		cfg:     cfg,
		host:    host,
		sink:    sink,
		readLog: cfg.ReadLog,
		log:     logrus.WithField("component", "monitor"),
	}

	if cfg.DevicePollingEnabled() {
		backend, err := access.New(cfg.Source, cfg.AccessDir)
		if err != nil {
			return nil, fmt.Errorf("monitor: %w", err)
		}
		m.backend = backend

		bdfs, err := backend.Enumerate()
		if err != nil {
			return nil, fmt.Errorf("monitor: enumerating devices: %w", err)
		}

		m.devices = preprocess(backend, bdfs, m.log)
		if len(m.devices) == 0 {
			return nil, ErrNoDevices
		}

		m.differ = differ.New(host, sink, differ.Options{
			ReportMasked:            cfg.ReportMasked,
			PersistentNotifications: cfg.PersistentNotifications,
		})
		m.loop = poll.New(backend, m.differ, sink, host)
	}

	if cfg.ReadLog {
		parsers := cfg.Parsers
		if len(parsers) == 0 {
			parsers = []config.ParserConfig{{Name: "default", Patterns: config.DefaultPatternSpecs}}
		}
		for _, pc := range parsers {
			parser, err := config.BuildParser(pc)
			if err != nil {
				return nil, fmt.Errorf("monitor: %w", err)
			}
			m.jobs = append(m.jobs, logtail.NewJob(cfg.LogFile, parser, cfg.FirstFullRead))
		}
	}

	return m, nil
}

// preprocess opens each enumerated device once, walks its capability lists,
// and keeps only those with a PCI Express capability (§4.B). A device
// without a PCI Express capability is not a PCIe device and is dropped; one
// with no AER capability is kept, with EcapAER left absent.
func preprocess(backend access.Backend, bdfs []pci.BDF, log *logrus.Entry) []*device.Record {
	var records []*device.Record
	for _, bdf := range bdfs {
		rec := device.New(bdf)

		dev, err := backend.Open(bdf)
		if err != nil {
			log.WithField("bdf", bdf.String()).WithError(err).Warn("failed to open device during preprocessing")
			continue
		}

		if off, ok := walker.FindPCIExpress(dev); ok {
			rec.CapExp = off
			if aerOff, ok := walker.FindAER(dev); ok {
				rec.EcapAER = aerOff
			}
		}

		if cerr := dev.Close(); cerr != nil {
			log.WithField("bdf", bdf.String()).WithError(cerr).Debug("error closing device after preprocessing")
		}

		if rec.HasPCIExpress() {
			records = append(records, rec)
		}
	}
	return records
}

// Poll runs one cycle: the device pass, then the log pass, in series.
// Either pass may be a no-op if its feature is disabled. ok is true iff the
// device pass succeeded for every device (log failures are reported via
// notification, not the return value, per §4.E).
func (m *Monitor) Poll() (ok bool) {
	ok = true
	if m.loop != nil {
		ok = m.loop.Run(m.devices)
	}
	if m.readLog {
		m.pollLogs()
	}
	return ok
}

func (m *Monitor) pollLogs() {
	for _, job := range m.jobs {
		recs, err := job.Poll()
		if err != nil {
			m.log.WithError(err).Warn("failed to read from log file")
			n := notify.New(m.host)
			n.Severity = notify.SeverityFailure
			n.TypeInstance = notify.TypeInstanceNonFatal
			n.Message = "Failed to read from log file"
			m.sink.Notify(n)
			return
		}
		for _, rec := range recs {
			m.sink.Notify(shaper.Shape(m.host, rec))
		}
	}
}

// Shutdown releases parser job resources. The device list and parser table
// are otherwise owned by the Go garbage collector; there is no explicit
// free step beyond closing the jobs' rotation watchers.
func (m *Monitor) Shutdown() {
	for _, job := range m.jobs {
		if err := job.Close(); err != nil {
			m.log.WithError(err).Debug("error closing parser job")
		}
	}
}
