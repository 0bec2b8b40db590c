// Package config defines the component's configuration surface and its
// defaults, standing in for the host framework's config-file lexer (out of
// scope per spec §1): callers build a Config directly, from flags or
// otherwise, and call Validate/WithDefaults before bootstrapping.
package config

import (
	"fmt"
	"strings"

	"github.com/hostwatch/pcie-errmon/internal/logtail"
)

const (
	DefaultLogFile = "/var/log/syslog"
)

// PatternConfig is the unparsed form of a MsgPattern config block.
type PatternConfig struct {
	Name         string
	Regex        string
	SubmatchIdx  int
	ExcludeRegex string
	IsMandatory  bool
}

// ParserConfig names one parser and its ordered pattern list.
type ParserConfig struct {
	Name     string
	Patterns []PatternConfig
}

// Config mirrors the external configuration options of §6.
type Config struct {
	Source    string
	AccessDir string

	ReportMasked            bool
	PersistentNotifications bool

	LogFile       string
	ReadLog       bool
	FirstFullRead bool
	Parsers       []ParserConfig
}

// WithDefaults returns a copy of c with unset fields filled to their
// documented defaults.
func (c Config) WithDefaults() Config {
	if c.Source == "" {
		c.Source = "sysfs"
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
	return c
}

// Validate checks c for the configuration errors bootstrap must treat as
// fatal (§7 "Configuration error").
func (c Config) Validate() error {
	switch strings.ToLower(c.Source) {
	case "sysfs", "proc", "":
	default:
		// any other value disables device polling per §6; not an error.
	}
	for _, p := range c.Parsers {
		if p.Name == "" {
			return fmt.Errorf("config: parser with empty name")
		}
		if len(p.Patterns) == 0 {
			return fmt.Errorf("config: parser %q has no patterns", p.Name)
		}
		for _, pat := range p.Patterns {
			if pat.Name == "" {
				return fmt.Errorf("config: parser %q: pattern with empty name", p.Name)
			}
			if pat.Regex == "" {
				return fmt.Errorf("config: parser %q: pattern %q has no regex", p.Name, pat.Name)
			}
		}
	}
	return nil
}

// DevicePollingEnabled reports whether Source names a recognized backend.
// Any other value disables device polling per the config table.
func (c Config) DevicePollingEnabled() bool {
	switch strings.ToLower(c.Source) {
	case "sysfs", "proc", "":
		return true
	default:
		return false
	}
}

// DefaultPatternSpecs is Table 4: the default log pattern list installed
// when log reading is enabled and no parser was configured.
var DefaultPatternSpecs = []PatternConfig{
	{Name: "root port", Regex: `pcieport (.*): AER:`, SubmatchIdx: 1, IsMandatory: true},
	{Name: "device", Regex: ` ([0-9a-fA-F:\.]*): PCIe Bus Error`, SubmatchIdx: 1, IsMandatory: true},
	{Name: "severity", Regex: `severity=([^,]*)`, SubmatchIdx: 1, IsMandatory: true},
	{Name: "error type", Regex: `type=(.*),`, SubmatchIdx: 1, IsMandatory: false},
	{Name: "id", Regex: `, id=(.*)`, SubmatchIdx: 1, IsMandatory: true},
}

// BuildParser compiles a ParserConfig into a logtail.Parser.
func BuildParser(pc ParserConfig) (*logtail.Parser, error) {
	patterns := make([]logtail.Pattern, 0, len(pc.Patterns))
	for _, spec := range pc.Patterns {
		p, err := logtail.PatternSpec{
			Name:         spec.Name,
			Regex:        spec.Regex,
			SubmatchIdx:  spec.SubmatchIdx,
			ExcludeRegex: spec.ExcludeRegex,
			IsMandatory:  spec.IsMandatory,
		}.Compile()
		if err != nil {
			return nil, fmt.Errorf("config: parser %q: %w", pc.Name, err)
		}
		patterns = append(patterns, p)
	}
	return logtail.NewParser(pc.Name, patterns), nil
}
