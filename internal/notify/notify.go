// Package notify defines the notification wire contract emitted by the
// status differ and the event shaper, and the Sink interface that delivers
// them to the host.
package notify

import "time"

// Severity is the notification severity enum.
type Severity string

const (
	SeverityOkay    Severity = "OKAY"
	SeverityWarning Severity = "WARNING"
	SeverityFailure Severity = "FAILURE"
)

// TypeInstance classifies the kind of PCIe error a notification reports.
type TypeInstance string

const (
	TypeInstanceCorrectable TypeInstance = "correctable"
	TypeInstanceNonFatal    TypeInstance = "non_fatal"
	TypeInstanceFatal       TypeInstance = "fatal"
)

// Notification is one emitted event, carrying the fixed plugin/type pair
// mandated by the wire contract plus per-event identity and payload.
type Notification struct {
	Host           string
	Plugin         string
	Type           string
	PluginInstance string
	TypeInstance   TypeInstance
	Severity       Severity
	Time           int64
	Message        string
	Annotations    map[string]string
}

const (
	Plugin     = "pcie_errors"
	PluginType = "pcie_error"
)

// New builds a Notification with the fixed plugin/type fields and the given
// host already attached, leaving the caller to fill in the event-specific
// fields.
func New(host string) Notification {
	return Notification{
		Host:   host,
		Plugin: Plugin,
		Type:   PluginType,
		Time:   time.Now().Unix(),
	}
}

// Sink accepts a finished notification for delivery. Implementations are
// assumed thread-safe and the call is fire-and-forget: the core never waits
// on delivery confirmation.
type Sink interface {
	Notify(n Notification)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(n Notification)

func (f SinkFunc) Notify(n Notification) { f(n) }
