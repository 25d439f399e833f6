package scpfwk

import "errors"

// Status is the framework outcome taxonomy. The integer values are stable
// and shared with module collaborators; a Status other than StatusSuccess
// doubles as a Go error so handlers and framework entry points can return
// it directly or wrap it with context.
type Status int

// Outcome codes. StatusSuccess is never returned as an error; framework
// entry points return nil instead.
const (
	StatusSuccess Status = iota
	StatusPending
	StatusParam
	StatusAccess
	StatusState
	StatusNoMem
	StatusBusy
	StatusTimeout
	StatusSupport
	StatusDevice
	StatusPanic
)

var statusNames = [...]string{
	StatusSuccess: "success",
	StatusPending: "pending",
	StatusParam:   "invalid parameter",
	StatusAccess:  "access denied",
	StatusState:   "invalid state",
	StatusNoMem:   "out of memory",
	StatusBusy:    "busy",
	StatusTimeout: "timeout",
	StatusSupport: "not supported",
	StatusDevice:  "device error",
	StatusPanic:   "unrecoverable error",
}

// String returns the human-readable name of the status.
func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown status"
	}
	return statusNames[s]
}

// Error implements the error interface so a Status can be returned, wrapped
// and matched with errors.Is.
func (s Status) Error() string {
	return s.String()
}

// AsStatus reduces an error to its Status. A nil error is StatusSuccess; an
// error that is or wraps a Status yields that Status; anything else is
// treated as a lower-layer failure and reported as StatusDevice.
func AsStatus(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return StatusDevice
}

// errOf converts a Status back to the error domain: StatusSuccess becomes
// nil, everything else is the Status itself.
func (s Status) errOf() error {
	if s == StatusSuccess {
		return nil
	}
	return s
}
