package cast2gif

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// EventKind classifies an asciicast event as terminal output or user input.
type EventKind int

const (
	// OutputKind marks bytes the recorded program wrote ("o" events).
	OutputKind EventKind = iota
	// InputKind marks bytes the user typed ("i" events). Input events are
	// kept for completeness but do not participate in replay.
	InputKind
)

// CastEvent is one timestamped chunk of a recorded session.
type CastEvent struct {
	Timestamp float64
	Kind      EventKind
	Data      []byte
}

// Metadata describes the recorded terminal geometry.
type Metadata struct {
	Width  int
	Height int
	Title  string
}

// InputSource is a pull-based supplier of recorded events.
type InputSource interface {
	ReadEvents() ([]CastEvent, error)
	Metadata() Metadata
}

// ErrEmptyCast is returned when an asciicast stream has no header line.
var ErrEmptyCast = errors.New("empty asciicast input")

// castHeader is the first JSON line of an asciicast v2 file.
type castHeader struct {
	Version int    `json:"version"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Title   string `json:"title"`
}

// AsciicastReader parses asciicast v2: a JSON header line followed by
// newline-delimited [timestamp, kind, data] arrays.
type AsciicastReader struct {
	header castHeader
	events []CastEvent
}

// NewAsciicastReader reads and parses the whole stream up front.
// Malformed headers or event lines are fatal.
func NewAsciicastReader(r io.Reader) (*AsciicastReader, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read asciicast header: %w", err)
		}
		return nil, ErrEmptyCast
	}

	var header castHeader
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		return nil, fmt.Errorf("parse asciicast header: %w", err)
	}

	var events []CastEvent
	line := 1
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		event, err := parseCastEvent(raw)
		if err != nil {
			return nil, fmt.Errorf("parse asciicast event at line %d: %w", line, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read asciicast input: %w", err)
	}

	return &AsciicastReader{header: header, events: events}, nil
}

func parseCastEvent(raw []byte) (CastEvent, error) {
	var fields []json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return CastEvent{}, err
	}
	if len(fields) < 3 {
		return CastEvent{}, fmt.Errorf("expected [time, kind, data], got %d fields", len(fields))
	}

	var timestamp float64
	if err := json.Unmarshal(fields[0], &timestamp); err != nil {
		return CastEvent{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	var kindStr string
	if err := json.Unmarshal(fields[1], &kindStr); err != nil {
		return CastEvent{}, fmt.Errorf("invalid event kind: %w", err)
	}

	var data string
	if err := json.Unmarshal(fields[2], &data); err != nil {
		return CastEvent{}, fmt.Errorf("invalid event data: %w", err)
	}

	kind := OutputKind
	if kindStr == "i" {
		kind = InputKind
	}

	return CastEvent{Timestamp: timestamp, Kind: kind, Data: []byte(data)}, nil
}

// ReadEvents returns the recorded events in file order.
func (r *AsciicastReader) ReadEvents() ([]CastEvent, error) {
	events := make([]CastEvent, len(r.events))
	copy(events, r.events)
	return events, nil
}

// Metadata returns the geometry from the header.
func (r *AsciicastReader) Metadata() Metadata {
	return Metadata{
		Width:  r.header.Width,
		Height: r.header.Height,
		Title:  r.header.Title,
	}
}

// RawReader wraps a raw terminal byte stream as a single output event at
// time zero, with caller-supplied geometry.
type RawReader struct {
	data   []byte
	width  int
	height int
}

// NewRawReader creates a reader over raw (non-asciicast) terminal data.
func NewRawReader(data []byte, width, height int) *RawReader {
	return &RawReader{data: data, width: width, height: height}
}

// ReadEvents returns the stream as one output event.
func (r *RawReader) ReadEvents() ([]CastEvent, error) {
	return []CastEvent{{Timestamp: 0, Kind: OutputKind, Data: r.data}}, nil
}

// Metadata returns the configured geometry.
func (r *RawReader) Metadata() Metadata {
	return Metadata{Width: r.width, Height: r.height}
}

// ReadStream consumes the stream and returns an asciicast reader when the
// content parses as asciicast, falling back to a raw reader at the given
// geometry otherwise. Used for stdin, where either format is acceptable.
func ReadStream(r io.Reader, width, height int) (InputSource, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	if reader, err := NewAsciicastReader(strings.NewReader(string(data))); err == nil {
		return reader, nil
	}

	return NewRawReader(data, width, height), nil
}
