package meetme

import (
	"context"
	"sync"
)

// fakeCall is a minimal in-memory Call used across this package's tests.
// Digits are queued with pressDigits and played prompt names are appended
// to Played; frame I/O is a simple channel pair.
type fakeCall struct {
	id       string
	uniqueID string
	lang     string

	mu      sync.Mutex
	digits  []rune
	gains   map[VolumeDirection]int

	Played []string

	in  chan []int16
	out chan []int16

	hungUp     bool
	hangupReason string

	onHold    bool
	mohStarts int
	mohStops  int

	exitDigits   map[rune]bool
	exitSwitched rune
}

func newFakeCall(id string) *fakeCall {
	return &fakeCall{
		id:       id,
		uniqueID: id + "-uid",
		lang:     "en",
		gains:    make(map[VolumeDirection]int),
		in:       make(chan []int16, 64),
		out:      make(chan []int16, 64),
	}
}

func (c *fakeCall) ID() string       { return c.id }
func (c *fakeCall) UniqueID() string { return c.uniqueID }
func (c *fakeCall) Language() string { return c.lang }

func (c *fakeCall) pressDigits(digits string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range digits {
		c.digits = append(c.digits, d)
	}
}

func (c *fakeCall) ReadDigit(ctx context.Context) (rune, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.digits) == 0 {
		return 0, nil
	}
	d := c.digits[0]
	c.digits = c.digits[1:]
	return d, nil
}

func (c *fakeCall) CollectDigits(ctx context.Context, maxDigits int, terminator rune, timeout int) (string, error) {
	return newDigitCollector(c).collect(ctx, maxDigits, terminator)
}

func (c *fakeCall) PlayPrompt(ctx context.Context, name string) error {
	c.mu.Lock()
	c.Played = append(c.Played, name)
	c.mu.Unlock()
	return nil
}

func (c *fakeCall) Hangup(ctx context.Context, reason string) error {
	c.mu.Lock()
	c.hungUp = true
	c.hangupReason = reason
	c.mu.Unlock()
	return nil
}

func (c *fakeCall) ReadFrame(ctx context.Context) ([]int16, error) {
	select {
	case f, ok := <-c.in:
		if !ok {
			return nil, NewStatusError(StatusPeerHangup, "fakeCall: closed")
		}
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeCall) WriteFrame(ctx context.Context, frame []int16) error {
	select {
	case c.out <- frame:
		return nil
	default:
		return nil
	}
}

func (c *fakeCall) SetGainDB(direction VolumeDirection, gainDB int) error {
	c.mu.Lock()
	c.gains[direction] = gainDB
	c.mu.Unlock()
	return nil
}

// StartMusicOnHold and StopMusicOnHold satisfy MusicOnHolder, letting tests
// observe moh-when-alone transitions by counting calls.
func (c *fakeCall) StartMusicOnHold(ctx context.Context) error {
	c.mu.Lock()
	c.mohStarts++
	c.onHold = true
	c.mu.Unlock()
	return nil
}

func (c *fakeCall) StopMusicOnHold(ctx context.Context) error {
	c.mu.Lock()
	c.mohStops++
	c.onHold = false
	c.mu.Unlock()
	return nil
}

// allowExitDigit marks digit as a valid exit-context extension for
// ExitToContext to report a successful switch on.
func (c *fakeCall) allowExitDigit(digit rune) {
	c.mu.Lock()
	if c.exitDigits == nil {
		c.exitDigits = make(map[rune]bool)
	}
	c.exitDigits[digit] = true
	c.mu.Unlock()
}

// ExitToContext satisfies ExitContextSwitcher: digit switches successfully
// only if previously allowed via allowExitDigit.
func (c *fakeCall) ExitToContext(ctx context.Context, digit rune) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.exitDigits[digit] {
		return false, nil
	}
	c.exitSwitched = digit
	return true, nil
}

// bareCall implements only the required Call interface, forwarding every
// method to an inner fakeCall without promoting its optional hooks
// (MusicOnHolder, ExitContextSwitcher, HardwareGainSetter) — used to
// confirm those features are silent no-ops when a Call does not implement
// them.
type bareCall struct {
	inner *fakeCall
}

func newBareCall(id string) *bareCall {
	return &bareCall{inner: newFakeCall(id)}
}

func (c *bareCall) ID() string       { return c.inner.ID() }
func (c *bareCall) UniqueID() string { return c.inner.UniqueID() }
func (c *bareCall) Language() string { return c.inner.Language() }

func (c *bareCall) ReadDigit(ctx context.Context) (rune, error) { return c.inner.ReadDigit(ctx) }

func (c *bareCall) CollectDigits(ctx context.Context, maxDigits int, terminator rune, timeout int) (string, error) {
	return c.inner.CollectDigits(ctx, maxDigits, terminator, timeout)
}

func (c *bareCall) PlayPrompt(ctx context.Context, name string) error {
	return c.inner.PlayPrompt(ctx, name)
}

func (c *bareCall) Hangup(ctx context.Context, reason string) error {
	return c.inner.Hangup(ctx, reason)
}

func (c *bareCall) ReadFrame(ctx context.Context) ([]int16, error) { return c.inner.ReadFrame(ctx) }

func (c *bareCall) WriteFrame(ctx context.Context, frame []int16) error {
	return c.inner.WriteFrame(ctx, frame)
}

func (c *bareCall) pressDigits(digits string) { c.inner.pressDigits(digits) }
