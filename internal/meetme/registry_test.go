package meetme

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRegistryFindOrBuildReusesExistingConference(t *testing.T) {
	reg := NewRegistry(newMemoryMixerDevice(), nil, testLogger())

	conf1, err := reg.FindOrBuild("1234", RoomConfig{Confno: "1234"})
	require.NoError(t, err)

	conf2, err := reg.FindOrBuild("1234", RoomConfig{Confno: "1234"})
	require.NoError(t, err)

	require.Same(t, conf1, conf2)
}

func TestRegistryFindMissingReturnsNotFound(t *testing.T) {
	reg := NewRegistry(newMemoryMixerDevice(), nil, testLogger())
	_, err := reg.Find("0000")
	require.ErrorIs(t, err, ErrConferenceNotFound)
}

func TestRegistryUnlinkRemovesConferenceAndWakesWaiters(t *testing.T) {
	reg := NewRegistry(newMemoryMixerDevice(), nil, testLogger())
	_, err := reg.FindOrBuild("1234", RoomConfig{Confno: "1234"})
	require.NoError(t, err)

	require.NoError(t, reg.Unlink("1234"))
	_, err = reg.Find("1234")
	require.ErrorIs(t, err, ErrConferenceNotFound)

	// A fresh FindOrBuild after Unlink builds a brand new conference.
	conf, err := reg.FindOrBuild("1234", RoomConfig{Confno: "1234"})
	require.NoError(t, err)
	require.NotNil(t, conf)
}

func TestRegistryUnlinkUnknownConferenceErrors(t *testing.T) {
	reg := NewRegistry(newMemoryMixerDevice(), nil, testLogger())
	err := reg.Unlink("nope")
	require.ErrorIs(t, err, ErrConferenceNotFound)
}
