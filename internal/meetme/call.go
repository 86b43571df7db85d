package meetme

import "context"

// Call abstracts the external channel/call leg a participant session
// drives. This package is defined independently of any SIP or dialplan
// runtime to avoid a circular dependency; the caller's signaling layer
// implements Call and hands the session a live instance already answered
// and ready for media.
type Call interface {
	// ID returns a stable identifier for the call, used as the
	// management event's Channel field.
	ID() string

	// UniqueID returns the call's globally unique id, used as the
	// management event's Uniqueid field.
	UniqueID() string

	// ReadDigit waits for the next DTMF digit pressed on the call, or
	// returns the zero rune if ctx is done first. Used by the main loop's DTMF
	// dispatch and the star-menu digit collector.
	ReadDigit(ctx context.Context) (rune, error)

	// CollectDigits reads up to maxDigits DTMF digits, stopping early on
	// the terminator rune (0 to disable) or timeout between digits.
	// Used for PIN and menu-option entry.
	CollectDigits(ctx context.Context, maxDigits int, terminator rune, timeout int) (string, error)

	// PlayPrompt plays the named prompt file to completion or until ctx
	// is done. A missing prompt is not an error; implementations log and
	// return nil rather than aborting the session.
	PlayPrompt(ctx context.Context, name string) error

	// Hangup terminates the call with the given reason, used on kick,
	// capacity rejection, or PIN exhaustion.
	Hangup(ctx context.Context, reason string) error

	// Language returns the call's configured prompt language, used to
	// resolve the prompt file's locale subdirectory.
	Language() string

	// ReadFrame blocks for the next 20ms linear PCM frame of the
	// participant's own audio, or returns a StatusError tagged
	// StatusPeerHangup when the call's read side reaches end of stream.
	ReadFrame(ctx context.Context) ([]int16, error)

	// WriteFrame writes one 20ms linear PCM frame of mixed conference
	// audio out to the participant.
	WriteFrame(ctx context.Context, frame []int16) error
}
