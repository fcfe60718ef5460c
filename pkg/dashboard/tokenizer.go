package dashboard

import (
	"regexp"
	"strings"

	"vrm-observer/pkg/models"
	"vrm-observer/pkg/parse"
)

var (
	pairSeparator  = regexp.MustCompile(`\s*[:=]\s*`)
	trailingNumber = regexp.MustCompile(`^(.*?)([-+]?\d[\d.,]*)$`)
)

// tokenizerState tracks whether a label is waiting for its value
type tokenizerState int

const (
	awaitingLabel tokenizerState = iota
	awaitingValue
)

func (s tokenizerState) String() string {
	switch s {
	case awaitingLabel:
		return "awaiting-label"
	case awaitingValue:
		return "awaiting-value"
	default:
		return "unknown"
	}
}

// tokenizer pairs adjacent leaf texts into entries. At most one label is pending at a time.
type tokenizer struct {
	state   tokenizerState
	pending string
	entries []models.Entry
}

// ExtractEntries scans nodes[start:end) and groups leaf texts into label/value entries.
//
// Per node, in order:
//   - "label: value" or "label=value" with both sides non-empty is emitted directly and drops any pending label
//   - while no label is pending, "label123" is split into label and trailing number
//   - a pending label takes the node text as its value
//   - a bare number with no pending label is discarded
//   - anything else becomes the pending label
//
// A label still pending at the end of the range is emitted with an empty value.
func ExtractEntries(nodes []models.LeafNode, start, end int) []models.Entry {
	if start < 0 {
		start = 0
	}
	if end > len(nodes) {
		end = len(nodes)
	}

	t := &tokenizer{state: awaitingLabel, entries: []models.Entry{}}
	for i := start; i < end; i++ {
		t.feed(strings.TrimSpace(nodes[i].Text))
	}
	t.flush()
	return t.entries
}

func (t *tokenizer) feed(text string) {
	if text == "" {
		return
	}

	if label, value, ok := splitPair(text); ok {
		t.emit(label, value)
		t.reset()
		return
	}

	switch t.state {
	case awaitingLabel:
		if m := trailingNumber.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "" {
			t.emit(m[1], m[2])
			return
		}
		if parse.Number(text) != nil {
			return
		}
		t.pending = text
		t.state = awaitingValue
	case awaitingValue:
		t.emit(t.pending, text)
		t.reset()
	}
}

func (t *tokenizer) flush() {
	if t.state == awaitingValue {
		t.emit(t.pending, "")
		t.reset()
	}
}

func (t *tokenizer) reset() {
	t.pending = ""
	t.state = awaitingLabel
}

func (t *tokenizer) emit(label, value string) {
	label = strings.TrimSpace(label)
	if label == "" {
		return
	}
	value = strings.TrimSpace(value)
	t.entries = append(t.entries, models.Entry{
		Label:     label,
		ValueText: value,
		Number:    parse.Number(value),
	})
}

// splitPair splits text at its first ':' or '=' (with surrounding spaces).
// Both halves must be non-empty.
func splitPair(text string) (label, value string, ok bool) {
	loc := pairSeparator.FindStringIndex(text)
	if loc == nil {
		return "", "", false
	}
	label = strings.TrimSpace(text[:loc[0]])
	value = strings.TrimSpace(text[loc[1]:])
	if label == "" || value == "" {
		return "", "", false
	}
	return label, value, true
}

// BuildSection indexes entries by normalized label; a later entry replaces an earlier one
func BuildSection(entries []models.Entry) models.Section {
	sec := models.NewSection()
	sec.Entries = append(sec.Entries, entries...)
	for _, e := range entries {
		if key := parse.NormalizeLabel(e.Label); key != "" {
			sec.Map[key] = e
		}
	}
	return sec
}
