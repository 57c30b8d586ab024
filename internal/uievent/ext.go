package uievent

import (
	"errors"
	"fmt"
)

// ExtChannel is the notification method of the nvgrid extension channel.
const ExtChannel = "nvgrid"

// ErrUnknownRecord is returned for an extension record with an unknown tag.
var ErrUnknownRecord = errors.New("unknown extension record")

// ExtEvent is one record of the extension channel.
type ExtEvent interface {
	Tag() string
}

// MaxEchoRepeat bounds EchoRepeat.Times.
const MaxEchoRepeat = 1000

// EchoRepeat asks the UI to echo Msg Times times through the editor.
type EchoRepeat struct {
	Msg   string
	Times int
}

// Debugger turns on the UI's debugging aids.
type Debugger struct{}

// Transition sets the duration of one animation, in milliseconds.
type Transition struct {
	Name   string // "cursor_blink_transition", "cursor_position_transition" or "scroll_transition"
	Millis float64
}

func (EchoRepeat) Tag() string   { return "echo_repeat" }
func (Debugger) Tag() string     { return "debugger" }
func (e Transition) Tag() string { return e.Name }

// DecodeExt decodes the params of an extension channel notification.  Each
// element is a record [tag, args...].  A malformed record is skipped and
// reported in errs; the rest are still returned.
func DecodeExt(params []interface{}) (events []ExtEvent, errs []error) {
	for i, raw := range params {
		e, err := decodeRecord(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		events = append(events, e)
	}
	return events, errs
}

func decodeRecord(raw interface{}) (ExtEvent, error) {
	rec, err := ToArray(raw)
	if err != nil {
		return nil, err
	}
	if len(rec) == 0 {
		return nil, fmt.Errorf("%w: empty record", ErrMalformed)
	}
	tag, err := ToString(rec[0])
	if err != nil {
		return nil, err
	}
	a := &args{v: rec[1:]}
	var e ExtEvent
	switch tag {
	case "echo_repeat":
		e = EchoRepeat{Msg: a.str(0), Times: a.int(1)}
		if n := e.(EchoRepeat).Times; a.err == nil && (n < 0 || n > MaxEchoRepeat) {
			return nil, fmt.Errorf("%w: repeat count %d not in [0, %d]", ErrMalformed, n, MaxEchoRepeat)
		}
	case "debugger":
		e = Debugger{}
	case "cursor_blink_transition", "cursor_position_transition", "scroll_transition":
		e = Transition{Name: tag, Millis: a.float(0)}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecord, tag)
	}
	if a.err != nil {
		return nil, fmt.Errorf("%s: %w", tag, a.err)
	}
	return e, nil
}
