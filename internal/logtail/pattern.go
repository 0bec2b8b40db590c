// Package logtail implements the log parser (component E): incremental
// tail-follow reads of a text log, driven by an ordered list of
// regular-expression patterns with mandatory/optional semantics.
package logtail

import (
	"fmt"
	"regexp"
)

// Pattern is one named match rule within a Parser's ordered pattern list.
type Pattern struct {
	Name         string
	Regex        *regexp.Regexp
	SubmatchIdx  int
	ExcludeRegex *regexp.Regexp
	IsMandatory  bool
}

// PatternSpec is the unparsed, config-level form of a Pattern (regex and
// excluderegex as strings, as they arrive from a MsgPattern config block).
type PatternSpec struct {
	Name         string
	Regex        string
	SubmatchIdx  int
	ExcludeRegex string
	IsMandatory  bool
}

// Compile turns a PatternSpec into a Pattern, defaulting SubmatchIdx to 1.
func (s PatternSpec) Compile() (Pattern, error) {
	idx := s.SubmatchIdx
	if idx == 0 {
		idx = 1
	}
	re, err := regexp.Compile(s.Regex)
	if err != nil {
		return Pattern{}, fmt.Errorf("logtail: pattern %q: compiling regex: %w", s.Name, err)
	}
	var exclude *regexp.Regexp
	if s.ExcludeRegex != "" {
		exclude, err = regexp.Compile(s.ExcludeRegex)
		if err != nil {
			return Pattern{}, fmt.Errorf("logtail: pattern %q: compiling excluderegex: %w", s.Name, err)
		}
	}
	return Pattern{
		Name:         s.Name,
		Regex:        re,
		SubmatchIdx:  idx,
		ExcludeRegex: exclude,
		IsMandatory:  s.IsMandatory,
	}, nil
}

// match reports whether line satisfies the pattern and, if so, the captured
// submatch text. A line matching the main regex but also matching
// ExcludeRegex counts as not matching.
func (p Pattern) match(line string) (value string, ok bool) {
	if p.ExcludeRegex != nil && p.ExcludeRegex.MatchString(line) {
		return "", false
	}
	groups := p.Regex.FindStringSubmatch(line)
	if groups == nil || p.SubmatchIdx >= len(groups) {
		return "", false
	}
	return groups[p.SubmatchIdx], true
}

// Parser is a named ordered pattern list plus the index of its anchor
// pattern. Per the bootstrap contract, the anchor is the last pattern in the
// list regardless of mandatory status (see DESIGN.md "anchor pattern").
type Parser struct {
	Name      string
	Patterns  []Pattern
	AnchorIdx int
}

// NewParser builds a Parser with the anchor fixed at the last pattern.
func NewParser(name string, patterns []Pattern) *Parser {
	return &Parser{Name: name, Patterns: patterns, AnchorIdx: len(patterns) - 1}
}

// Field is one captured (pattern name, value) pair, in pattern order.
type Field struct {
	Name  string
	Value string
}

// Record is one assembled message: the captured fields of every pattern in
// the parser, in pattern-list order, with empty Value for unmatched
// optional patterns.
type Record []Field
