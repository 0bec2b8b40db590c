package logtail

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// messageState tracks which pattern slots have been filled for the message
// currently being assembled. The first line to satisfy a slot wins; later
// matches for an already-filled slot are ignored.
type messageState struct {
	values    []string
	satisfied []bool
}

func newMessageState(n int) *messageState {
	return &messageState{values: make([]string, n), satisfied: make([]bool, n)}
}

func (s *messageState) allMandatorySatisfied(patterns []Pattern) bool {
	for i, p := range patterns {
		if p.IsMandatory && !s.satisfied[i] {
			return false
		}
	}
	return true
}

func (s *messageState) toRecord(patterns []Pattern) Record {
	rec := make(Record, len(patterns))
	for i, p := range patterns {
		rec[i] = Field{Name: p.Name, Value: s.values[i]}
	}
	return rec
}

// Job is an opaque handle wrapping a log path, its current read offset, the
// compiled parser, and in-progress message assembly state. It is created at
// bootstrap, advanced by each poll, and discarded at shutdown.
type Job struct {
	path          string
	parser        *Parser
	firstFullRead bool

	initialized bool
	offset      int64
	pending     []byte
	state       *messageState
	watcher     *rotationWatcher

	log *logrus.Entry
}

// NewJob creates a parser job over path. If firstFullRead is true, the first
// Poll call consumes the file from the beginning; otherwise it seeks to the
// current end and reports only subsequent appends.
func NewJob(path string, parser *Parser, firstFullRead bool) *Job {
	return &Job{
		path:          path,
		parser:        parser,
		firstFullRead: firstFullRead,
		state:         newMessageState(len(parser.Patterns)),
		watcher:       newRotationWatcher(path),
		log:           logrus.WithField("component", "logtail").WithField("parser", parser.Name),
	}
}

// Close releases the job's rotation watcher, if any. It does not affect the
// static pattern table the parser was built from.
func (j *Job) Close() error {
	if j.watcher != nil {
		return j.watcher.Close()
	}
	return nil
}

// Poll consumes all bytes appended to the log since the last call and
// returns any messages completed in the process.
func (j *Job) Poll() ([]Record, error) {
	j.watcher.drain(j.resetPosition)

	f, err := os.Open(j.path)
	if err != nil {
		return nil, fmt.Errorf("logtail: opening %s: %w", j.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("logtail: stat %s: %w", j.path, err)
	}
	size := info.Size()

	if !j.initialized {
		j.initialized = true
		if !j.firstFullRead {
			j.offset = size
		}
	}

	if size < j.offset {
		// file was truncated or rotated out from under us; restart from
		// the beginning and drop any partial line we were holding.
		j.offset = 0
		j.pending = nil
	}

	if size == j.offset {
		return nil, nil
	}

	toRead := size - j.offset
	buf := make([]byte, toRead)
	if _, err := f.ReadAt(buf, j.offset); err != nil {
		return nil, fmt.Errorf("logtail: reading %s: %w", j.path, err)
	}
	j.offset = size

	full := append(j.pending, buf...)
	lines, remainder := splitLines(full)
	j.pending = remainder

	var out []Record
	for _, line := range lines {
		if rec, ok := j.feed(line); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (j *Job) resetPosition() {
	j.offset = 0
	j.pending = nil
}

// feed tests line against every unsatisfied pattern and reports a completed
// record when the anchor pattern is matched and every mandatory pattern is
// satisfied. An anchor match with unmet mandatory patterns silently discards
// the in-progress message (per the malformed-message error kind).
func (j *Job) feed(line string) (Record, bool) {
	patterns := j.parser.Patterns
	anchorMatched := false

	for i, p := range patterns {
		if j.state.satisfied[i] {
			continue
		}
		if val, ok := p.match(line); ok {
			j.state.values[i] = val
			j.state.satisfied[i] = true
			if i == j.parser.AnchorIdx {
				anchorMatched = true
			}
		}
	}

	if !anchorMatched {
		return nil, false
	}

	complete := j.state.allMandatorySatisfied(patterns)
	var rec Record
	if complete {
		rec = j.state.toRecord(patterns)
	} else {
		j.log.Debug("discarding incomplete message at anchor boundary")
	}
	j.state = newMessageState(len(patterns))
	return rec, complete
}

// splitLines splits on '\n' and reports any trailing partial line
// separately so the caller can prepend it to the next read.
func splitLines(data []byte) (lines []string, remainder []byte) {
	s := string(data)
	parts := strings.Split(s, "\n")
	n := len(parts)
	if n == 0 {
		return nil, nil
	}
	last := parts[n-1]
	complete := parts[:n-1]
	lines = make([]string, len(complete))
	copy(lines, complete)
	if last != "" {
		remainder = []byte(last)
	}
	return lines, remainder
}
