package meetme

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConferenceAddParticipantAssignsSequentialUserNumbers(t *testing.T) {
	device := newMemoryMixerDevice()
	conf := NewConference("1234", 1, device, nil)

	h1, _ := device.OpenChannel(conf.MixerID)
	n1, err := conf.addParticipant(&Participant{Call: newFakeCall("a"), Handle: h1, Flags: FlagTalker})
	require.NoError(t, err)
	require.Equal(t, 1, n1)

	h2, _ := device.OpenChannel(conf.MixerID)
	n2, err := conf.addParticipant(&Participant{Call: newFakeCall("b"), Handle: h2, Flags: FlagTalker})
	require.NoError(t, err)
	require.Equal(t, 2, n2)

	require.Equal(t, 2, conf.UserCount())
}

func TestConferenceAdmissionRefusedWhenLocked(t *testing.T) {
	device := newMemoryMixerDevice()
	conf := NewConference("1234", 1, device, nil)
	conf.SetLocked(true)

	h, _ := device.OpenChannel(conf.MixerID)
	_, err := conf.addParticipant(&Participant{Call: newFakeCall("a"), Handle: h, Flags: FlagTalker})

	require.True(t, IsStatus(err, StatusLocked))
}

func TestConferenceAdmissionAllowedWhenLockedForAdmin(t *testing.T) {
	device := newMemoryMixerDevice()
	conf := NewConference("1234", 1, device, nil)
	conf.SetLocked(true)

	h, _ := device.OpenChannel(conf.MixerID)
	_, err := conf.addParticipant(&Participant{Call: newFakeCall("a"), Handle: h, Flags: FlagAdmin})

	require.NoError(t, err)
}

func TestConferenceAdmissionRefusedAtCapacity(t *testing.T) {
	device := newMemoryMixerDevice()
	conf := NewConference("1234", 1, device, nil)
	conf.MaxMembers = 1

	h1, _ := device.OpenChannel(conf.MixerID)
	_, err := conf.addParticipant(&Participant{Call: newFakeCall("a"), Handle: h1, Flags: FlagTalker})
	require.NoError(t, err)

	h2, _ := device.OpenChannel(conf.MixerID)
	_, err = conf.addParticipant(&Participant{Call: newFakeCall("b"), Handle: h2, Flags: FlagTalker})
	require.True(t, IsStatus(err, StatusCapacity))
}

func TestConferenceRemoveParticipantDecrementsCounters(t *testing.T) {
	device := newMemoryMixerDevice()
	conf := NewConference("1234", 1, device, nil)

	h, _ := device.OpenChannel(conf.MixerID)
	userNo, err := conf.addParticipant(&Participant{Call: newFakeCall("a"), Handle: h, Flags: FlagMarked})
	require.NoError(t, err)
	require.Equal(t, 1, conf.MarkedCount())

	_, err = conf.removeParticipant(userNo)
	require.NoError(t, err)
	require.Equal(t, 0, conf.UserCount())
	require.Equal(t, 0, conf.MarkedCount())
}

func TestConferenceToggleMarkedIncrementsOnFirstMark(t *testing.T) {
	device := newMemoryMixerDevice()
	conf := NewConference("1234", 1, device, nil)

	h, _ := device.OpenChannel(conf.MixerID)
	userNo, err := conf.addParticipant(&Participant{Call: newFakeCall("a"), Handle: h, Flags: FlagTalker})
	require.NoError(t, err)
	require.Equal(t, 0, conf.MarkedCount())

	require.NoError(t, conf.toggleMarked(userNo))
	require.Equal(t, 1, conf.MarkedCount(), "marking a not-yet-marked participant must raise the counter")

	p, err := conf.Participant(userNo)
	require.NoError(t, err)
	require.True(t, p.Flags.Has(FlagMarked))
}

func TestConferenceLastJoinedSkipsAdmins(t *testing.T) {
	device := newMemoryMixerDevice()
	conf := NewConference("1234", 1, device, nil)

	h1, _ := device.OpenChannel(conf.MixerID)
	conf.addParticipant(&Participant{Call: newFakeCall("a"), Handle: h1, Flags: FlagTalker})

	h2, _ := device.OpenChannel(conf.MixerID)
	conf.addParticipant(&Participant{Call: newFakeCall("admin"), Handle: h2, Flags: FlagAdmin})

	last := conf.LastJoined()
	require.NotNil(t, last)
	require.Equal(t, "a", last.Call.ID())
}
