// Package shaper implements the event shaper (component F): translating one
// assembled log record into a notification.
package shaper

import (
	"fmt"
	"strings"

	"github.com/hostwatch/pcie-errmon/internal/logtail"
	"github.com/hostwatch/pcie-errmon/internal/notify"
)

// Shape builds a notification from rec. The field named "severity" selects
// the type tag and may upgrade severity to FAILURE; the field named
// "device" becomes the plugin instance; every other field becomes an
// annotation.
func Shape(host string, rec logtail.Record) notify.Notification {
	n := notify.New(host)
	n.Severity = notify.SeverityWarning
	n.TypeInstance = notify.TypeInstanceNonFatal
	n.Annotations = make(map[string]string, len(rec))

	for _, f := range rec {
		switch f.Name {
		case "severity":
			n.TypeInstance, n.Severity = classifySeverity(f.Value)
		case "device":
			n.PluginInstance = f.Value
		default:
			n.Annotations[f.Name] = f.Value
		}
	}

	n.Message = fmt.Sprintf("AER %s error reported in log", n.TypeInstance)
	return n
}

// classifySeverity maps the kernel's free-text severity field to a type tag
// and notification severity. "fatal" escalates to FAILURE unless it appears
// only as part of "non-fatal", which remains WARNING.
func classifySeverity(value string) (notify.TypeInstance, notify.Severity) {
	lower := strings.ToLower(value)
	switch {
	case strings.Contains(lower, "non-fatal") || strings.Contains(lower, "non_fatal"):
		return notify.TypeInstanceNonFatal, notify.SeverityWarning
	case strings.Contains(lower, "fatal"):
		return notify.TypeInstanceFatal, notify.SeverityFailure
	case strings.Contains(lower, "correct"):
		return notify.TypeInstanceCorrectable, notify.SeverityWarning
	default:
		return notify.TypeInstanceNonFatal, notify.SeverityWarning
	}
}
