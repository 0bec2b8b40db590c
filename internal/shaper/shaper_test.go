package shaper

import (
	"testing"

	"github.com/hostwatch/pcie-errmon/internal/logtail"
	"github.com/hostwatch/pcie-errmon/internal/notify"
)

func recordS4() logtail.Record {
	return logtail.Record{
		{Name: "root port", Value: "0000:00:1c.0"},
		{Name: "device", Value: "0000:01:00.0"},
		{Name: "severity", Value: "Corrected"},
		{Name: "error type", Value: "Data Link Layer"},
		{Name: "id", Value: "0100"},
	}
}

func TestShapeCorrectable(t *testing.T) {
	n := Shape("myhost", recordS4())

	if n.PluginInstance != "0000:01:00.0" {
		t.Fatalf("PluginInstance = %q, want 0000:01:00.0", n.PluginInstance)
	}
	if n.TypeInstance != notify.TypeInstanceCorrectable {
		t.Fatalf("TypeInstance = %q, want correctable", n.TypeInstance)
	}
	if n.Severity != notify.SeverityWarning {
		t.Fatalf("Severity = %q, want WARNING", n.Severity)
	}
	if n.Annotations["root port"] != "0000:00:1c.0" || n.Annotations["error type"] != "Data Link Layer" || n.Annotations["id"] != "0100" {
		t.Fatalf("Annotations = %+v", n.Annotations)
	}
	if _, ok := n.Annotations["device"]; ok {
		t.Fatalf("device must become PluginInstance, not an annotation")
	}
}

func TestShapeFatalEscalation(t *testing.T) {
	rec := recordS4()
	rec[2].Value = "Fatal"
	n := Shape("myhost", rec)

	if n.Severity != notify.SeverityFailure || n.TypeInstance != notify.TypeInstanceFatal {
		t.Fatalf("got %v/%v, want FAILURE/fatal", n.Severity, n.TypeInstance)
	}
}

func TestShapeNonFatalDoesNotEscalate(t *testing.T) {
	rec := recordS4()
	rec[2].Value = "Non-Fatal"
	n := Shape("myhost", rec)

	if n.Severity != notify.SeverityWarning {
		t.Fatalf("got severity %v, want WARNING (non-fatal must not escalate)", n.Severity)
	}
}
