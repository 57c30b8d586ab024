package ui

import (
	"errors"
	"fmt"
)

// ErrModeIndex is returned by mode_change for an index outside the current
// mode table.
var ErrModeIndex = errors.New("mode index out of range")

// ProtocolError is a fatal desync between the editor and the UI model.
type ProtocolError struct {
	Event string
	Err   error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error in %s: %v", e.Event, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
