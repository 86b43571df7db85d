package meetme

import (
	"errors"
	"fmt"
)

// Status classifies a MeetMe error into the taxonomy the session and
// registry use to decide how to react (terminate the session, roll back
// a registry mutation, retry an admission, or simply hang up quietly).
type Status int

const (
	// StatusDeviceError indicates the mixer device failed to open or an
	// ioctl-equivalent call on it failed. Fatal for the session issuing
	// it; never fatal for the conference as a whole.
	StatusDeviceError Status = iota
	// StatusOutOfResource indicates allocation failure (memory, handles).
	// Fatal for the affected operation; the registry rolls back.
	StatusOutOfResource
	// StatusInvalidInput indicates a malformed confno, command, or PIN.
	StatusInvalidInput
	// StatusLocked indicates admission was refused because the conference
	// is locked and the caller is not the admin. Not an error to the
	// dialplan — callers should treat this as a normal return, not a
	// failure.
	StatusLocked
	// StatusCapacity indicates the conference is full or an exit
	// condition has been reached.
	StatusCapacity
	// StatusPeerHangup indicates the call's read side reached end of
	// stream.
	StatusPeerHangup
)

func (s Status) String() string {
	switch s {
	case StatusDeviceError:
		return "device_error"
	case StatusOutOfResource:
		return "out_of_resource"
	case StatusInvalidInput:
		return "invalid_input"
	case StatusLocked:
		return "locked"
	case StatusCapacity:
		return "capacity"
	case StatusPeerHangup:
		return "peer_hangup"
	default:
		return "unknown"
	}
}

// StatusError wraps an error with a Status tag so callers can branch on
// the taxonomy via errors.As instead of string matching, while still
// carrying a specific, wrapped cause.
type StatusError struct {
	Status Status
	Err    error
}

func (e *StatusError) Error() string {
	if e.Err == nil {
		return e.Status.String()
	}
	return fmt.Sprintf("%s: %v", e.Status, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// NewStatusError builds a StatusError, wrapping msg/args with fmt.Errorf
// the way the rest of the codebase wraps errors.
func NewStatusError(status Status, format string, args ...any) error {
	return &StatusError{Status: status, Err: fmt.Errorf(format, args...)}
}

// IsStatus reports whether err carries the given Status anywhere in its
// chain.
func IsStatus(err error, status Status) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status == status
	}
	return false
}

// Sentinel errors for conditions that do not need a formatted message.
var (
	// ErrConferenceNotFound is returned by Registry.Find/Unlink when the
	// requested confno has no live conference.
	ErrConferenceNotFound = errors.New("meetme: conference not found")
	// ErrParticipantNotFound is returned when an admin command targets a
	// user_no that is not in the conference.
	ErrParticipantNotFound = errors.New("meetme: participant not found")
	// ErrNoRecorder is returned when a recorder operation is attempted on
	// a conference with no active recorder.
	ErrNoRecorder = errors.New("meetme: no active recorder")
)
