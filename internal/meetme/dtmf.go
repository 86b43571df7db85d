package meetme

import (
	"context"
	"time"
)

// DefaultFirstDigitTimeout is how long the star-menu waits for its first
// digit before giving up and returning to the main loop.
const DefaultFirstDigitTimeout = 5 * time.Second

// DefaultInterDigitTimeout is how long PIN/menu entry waits between
// consecutive digits before delivering what has been collected so far.
const DefaultInterDigitTimeout = 3 * time.Second

// digitEventName maps an RFC 2833 telephone-event code to its digit
// character.
func digitEventName(event uint8) rune {
	switch {
	case event <= 9:
		return rune('0' + event)
	case event == 10:
		return '*'
	case event == 11:
		return '#'
	case event >= 12 && event <= 15:
		return rune('A' + event - 12)
	default:
		return 0
	}
}

// digitCollector accumulates digits pulled one at a time from a Call's
// ReadDigit, applying first-digit and inter-digit timeout phases. This is
// the shared machinery behind Call.CollectDigits implementations and the
// PIN-entry/star-menu loops in session.go — Call implementations are free
// to use it, a stub, or their own logic, since Call only promises
// CollectDigits as a contract, not this concrete type.
type digitCollector struct {
	call              Call
	firstDigitTimeout time.Duration
	interDigitTimeout time.Duration
}

func newDigitCollector(call Call) *digitCollector {
	return &digitCollector{
		call:              call,
		firstDigitTimeout: DefaultFirstDigitTimeout,
		interDigitTimeout: DefaultInterDigitTimeout,
	}
}

// collect reads up to maxDigits digits (0 = unlimited until terminator or
// timeout), stopping at the terminator rune (0 to disable) or when the
// inter-digit timeout elapses after at least one digit.
func (c *digitCollector) collect(parent context.Context, maxDigits int, terminator rune) (string, error) {
	timeout := c.firstDigitTimeout
	var digits []rune

	for {
		readCtx, cancel := context.WithTimeout(parent, timeout)
		d, err := c.call.ReadDigit(readCtx)
		cancel()
		if err != nil {
			return string(digits), err
		}
		if d == 0 {
			return string(digits), nil
		}
		if terminator != 0 && d == terminator {
			return string(digits), nil
		}
		digits = append(digits, d)
		if maxDigits > 0 && len(digits) >= maxDigits {
			return string(digits), nil
		}
		timeout = c.interDigitTimeout
	}
}
