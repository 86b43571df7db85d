package meetme

import "time"

// Flag is one bit of a participant's join-time option set, a bitmask
// over the option letters a dialplan passes to the conference app.
type Flag uint32

const (
	FlagAdmin Flag = 1 << iota
	FlagMonitor
	FlagTalker
	FlagMarked
	FlagWaitMarked
	FlagMarkedExit
	FlagQuiet
	FlagMohWhenAlone
	FlagPoundExit
	FlagStarMenu
	FlagExitContext
	FlagAnnounceJoinLeave
	FlagRecordConference
	FlagMonitorTalker
	FlagDynamic
	FlagDynamicPin
	FlagEmpty
	FlagEmptyNoPin
	FlagAlwaysPrompt
)

// Has reports whether f is set in the flag bitset.
func (flags Flag) Has(f Flag) bool { return flags&f != 0 }

// AdminFlag is the mutable runtime state an admin command can set on a
// participant, distinct from the join-time Flag option set.
type AdminFlag uint32

const (
	AdminFlagMuted AdminFlag = 1 << iota
	AdminFlagKickMe
	// AdminFlagSelfMuted is the participant's own star-menu mute toggle
	// (user-menu digit 1), tracked separately from AdminFlagMuted (the
	// admin-plane mute) so a self-unmute can be refused while an admin
	// mute is in effect without losing the admin's own state.
	AdminFlagSelfMuted
)

func (flags AdminFlag) Has(f AdminFlag) bool { return flags&f != 0 }

// Participant is one call's seat in a Conference: its user number, its
// join-time flags, its runtime admin state, and the per-direction volume
// it has dialed in via the star-menu.
type Participant struct {
	UserNo   int
	Call     Call
	Handle   ChannelHandle
	Flags    Flag
	Admin    AdminFlag
	Talk     Volume
	Listen   Volume
	JoinedAt time.Time

	talker talkerState

	// NameRecordingPath is the path of this participant's name
	// announcement recording. Admission does not capture a name
	// recording or set this field; it stays empty unless a caller sets it.
	NameRecordingPath string
}

// IsTalking reports the participant's most recently observed talking
// state, as tracked by the session's talker-detection loop.
func (p *Participant) IsTalking() bool { return p.talker.talking }

// Muted reports whether this participant is currently silenced in the
// mix, either by the admin plane or by its own star-menu toggle.
func (p *Participant) Muted() bool {
	return p.Admin.Has(AdminFlagMuted) || p.Admin.Has(AdminFlagSelfMuted)
}

// observeTalking feeds one audio frame into the participant's talker
// state machine, returning whether a MeetmeTalking/MeetmeStopTalking
// transition occurred this frame.
func (p *Participant) observeTalking(frame []int16, frameDuration time.Duration) (becameTalking, becameSilent bool) {
	return p.talker.observe(frame, frameDuration)
}
