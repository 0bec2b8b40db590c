package monitor

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/hostwatch/pcie-errmon/internal/config"
	"github.com/hostwatch/pcie-errmon/internal/notify"
)

type recordingSink struct{ notifications []notify.Notification }

func (s *recordingSink) Notify(n notify.Notification) { s.notifications = append(s.notifications, n) }

func writeMockDevice(t *testing.T, devicesDir, bdf string, hasPCIExpress bool) {
	t.Helper()
	devDir := filepath.Join(devicesDir, bdf)
	if err := os.MkdirAll(devDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg := make([]byte, 4096)
	if hasPCIExpress {
		binary.LittleEndian.PutUint16(cfg[0x06:], 0x0010) // capabilities list bit
		cfg[0x34] = 0x40
		binary.LittleEndian.PutUint16(cfg[0x40:], 0x0010) // PCI Express cap, next=0
	} else {
		binary.LittleEndian.PutUint16(cfg[0x06:], 0x0000) // no capability list
	}
	if err := os.WriteFile(filepath.Join(devDir, "config"), cfg, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestNewPrunesNonPCIeDeviceS6(t *testing.T) {
	root := t.TempDir()
	devicesDir := filepath.Join(root, "devices")
	writeMockDevice(t, devicesDir, "0000:00:1f.0", true)
	writeMockDevice(t, devicesDir, "0000:02:00.0", false)

	sink := &recordingSink{}
	m, err := New("host", config.Config{Source: "sysfs", AccessDir: root}, sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if len(m.devices) != 1 {
		t.Fatalf("got %d surviving devices, want 1", len(m.devices))
	}
	if m.devices[0].BDF.String() != "0000:00:1f.0" {
		t.Fatalf("surviving device = %s, want 0000:00:1f.0", m.devices[0].BDF.String())
	}
}

func TestNewAbortsWithNoSurvivingDevices(t *testing.T) {
	root := t.TempDir()
	devicesDir := filepath.Join(root, "devices")
	writeMockDevice(t, devicesDir, "0000:02:00.0", false)

	sink := &recordingSink{}
	_, err := New("host", config.Config{Source: "sysfs", AccessDir: root}, sink)
	if err != ErrNoDevices {
		t.Fatalf("got err %v, want ErrNoDevices", err)
	}
}

func TestNewInstallsDefaultParserWhenLogReadingEnabled(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "syslog")
	if err := os.WriteFile(logPath, nil, 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	sink := &recordingSink{}
	m, err := New("host", config.Config{Source: "none", ReadLog: true, LogFile: logPath}, sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(m.jobs) != 1 {
		t.Fatalf("got %d parser jobs, want 1 (default)", len(m.jobs))
	}
}

func TestPollRunsDevicePassThenLogPass(t *testing.T) {
	root := t.TempDir()
	devicesDir := filepath.Join(root, "devices")
	writeMockDevice(t, devicesDir, "0000:00:1f.0", true)
	cfgPath := filepath.Join(devicesDir, "0000:00:1f.0", "config")
	cfg, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	binary.LittleEndian.PutUint16(cfg[0x40+0x0A:], 0x0001) // Device Status: CED set
	if err := os.WriteFile(cfgPath, cfg, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	dir := t.TempDir()
	logPath := filepath.Join(dir, "syslog")
	logLines := "pcieport 0000:00:1c.0: AER: Corrected error received: id=0100\n" +
		" 0000:01:00.0: PCIe Bus Error: severity=Corrected, type=Data Link Layer, id=0100\n"
	if err := os.WriteFile(logPath, []byte(logLines), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	sink := &recordingSink{}
	m, err := New("host", config.Config{Source: "sysfs", AccessDir: root, ReadLog: true, LogFile: logPath, FirstFullRead: true}, sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if ok := m.Poll(); !ok {
		t.Fatalf("Poll() = false, want true (device open should succeed)")
	}
	if len(sink.notifications) != 2 {
		t.Fatalf("got %d notifications, want 2 (one from each pass)", len(sink.notifications))
	}
	if sink.notifications[0].PluginInstance != "0000:00:1f.0" {
		t.Fatalf("first notification from %q, want the device pass (0000:00:1f.0)", sink.notifications[0].PluginInstance)
	}
	if sink.notifications[1].PluginInstance != "0000:01:00.0" {
		t.Fatalf("second notification from %q, want the log pass (0000:01:00.0)", sink.notifications[1].PluginInstance)
	}
	m.Shutdown()
}
