package stream

import (
	"bytes"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decoder turns raw response bytes into events. It is a synchronous
// stepper: Feed may be called with chunks of any size, split anywhere, and
// yields the same events as feeding the whole response at once.
//
// Bytes are only converted to text once a complete line is buffered. A line
// break byte never occurs inside a multi-byte UTF-8 sequence, so a character
// split across reads is reassembled before it is decoded.
type Decoder struct {
	pending   []byte
	firstLine bool
	done      bool
	discarded int
}

func NewDecoder() *Decoder {
	return &Decoder{firstLine: true}
}

// Feed appends chunk to the pending buffer and returns the events for every
// complete line. The trailing partial line stays buffered.
func (d *Decoder) Feed(chunk []byte) []Event {
	if d.done {
		return nil
	}
	d.pending = append(d.pending, chunk...)

	var events []Event
	for !d.done {
		idx := bytes.IndexByte(d.pending, '\n')
		if idx < 0 {
			break
		}
		line := d.pending[:idx]
		d.pending = d.pending[idx+1:]
		if ev, ok := d.decodeLine(line); ok {
			events = append(events, ev)
		}
	}

	if d.done {
		d.pending = nil
	} else if len(d.pending) == 0 {
		// Drop the backing array once fully consumed.
		d.pending = nil
	}
	return events
}

// Close flushes a final unterminated line, if any, and ends the sequence.
func (d *Decoder) Close() []Event {
	if d.done {
		return nil
	}
	d.done = true
	line := d.pending
	d.pending = nil
	if len(line) == 0 {
		return nil
	}
	if ev, ok := d.decodeLine(line); ok {
		return []Event{ev}
	}
	return nil
}

// Done reports whether a terminator was observed or Close was called.
func (d *Decoder) Done() bool {
	return d.done
}

// Discarded returns the number of lines dropped for lacking the record prefix.
func (d *Decoder) Discarded() int {
	return d.discarded
}

func (d *Decoder) decodeLine(line []byte) (Event, bool) {
	if d.firstLine {
		d.firstLine = false
		line = bytes.TrimPrefix(line, utf8BOM)
	}
	line = bytes.TrimSuffix(line, []byte{'\r'})

	text := strings.ToValidUTF8(string(line), "\uFFFD")
	payload, ok := strings.CutPrefix(text, RecordPrefix)
	if !ok {
		d.discarded++
		return Event{}, false
	}

	ev := Classify(payload)
	if ev.Kind == KindTerminator {
		d.done = true
	}
	return ev, true
}

// Classify maps a record payload to its event. Control tokens are matched
// exactly; everything else is literal text.
func Classify(payload string) Event {
	switch payload {
	case TokenClose:
		return Event{Kind: KindTerminator}
	case TokenNewline:
		return Event{Text: "\n", Kind: KindNewline}
	case TokenEndOfEnglish:
		return boundaryEvent(BoundaryEndOfEnglish)
	case TokenEndOfDevanagari:
		return boundaryEvent(BoundaryEndOfDevanagari)
	case TokenEndOfRoman:
		return boundaryEvent(BoundaryEndOfRoman)
	}
	return Event{Text: payload, Kind: KindPlain, Tag: DetectTag(payload)}
}

func boundaryEvent(b Boundary) Event {
	return Event{Text: b.Spacer(), Kind: KindSectionBoundary, Boundary: b}
}

// DetectTag tags text as math if it has a dollar sign, hindi if it has any
// Devanagari block code point, english otherwise.
func DetectTag(text string) Tag {
	if strings.Contains(text, "$") {
		return TagMath
	}
	for _, r := range text {
		if IsDevanagari(r) {
			return TagHindi
		}
	}
	return TagEnglish
}

// IsDevanagari reports whether r is in the Devanagari block U+0900–U+097F.
func IsDevanagari(r rune) bool {
	return r >= 0x0900 && r <= 0x097F
}
