package meetme

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusErrorWrapsAndUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := &StatusError{Status: StatusDeviceError, Err: cause}

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "device_error")
	require.Contains(t, err.Error(), "boom")
}

func TestIsStatusMatchesTaggedError(t *testing.T) {
	err := NewStatusError(StatusCapacity, "conference %s full", "1234")

	require.True(t, IsStatus(err, StatusCapacity))
	require.False(t, IsStatus(err, StatusLocked))
	require.False(t, IsStatus(errors.New("plain"), StatusCapacity))
}

func TestNewStatusErrorFormatsMessage(t *testing.T) {
	err := NewStatusError(StatusInvalidInput, "bad pin %q", "0000")
	require.Contains(t, err.Error(), "invalid_input")
	require.Contains(t, err.Error(), `"0000"`)
}
