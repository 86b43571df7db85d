package meetme

import (
	"fmt"
	"sync"
	"time"
)

// RecordingState tracks a Conference's Recorder Task lifecycle: off,
// actively writing, or winding down after the last recording participant
// left.
type RecordingState int

const (
	RecordingOff RecordingState = iota
	RecordingActive
	RecordingTerminating
)

// Conference is one live room: its static identity and PIN state, its
// ordered participant list, and the counters the admin plane and star
// menu read. A Conference always has exactly one backing mixer channel
// set; it is created by the Registry on first join and torn down on last
// leave.
type Conference struct {
	Confno     string
	MixerID    int64
	PINHash    string
	AdminPIN   string
	MaxMembers int
	IsDynamic  bool

	mu sync.Mutex

	locked      bool
	userCount   int
	markedCount int
	order       []int // UserNo join order, preserved for listing and the "eject last user" lookup
	participants map[int]*Participant
	nextUserNo  int

	recording      RecordingState
	recordingFile  string

	device MixerDevice
	bus    EventBus
}

// NewConference constructs an empty conference bound to device and bus.
// MixerID is the device-level conference identity (ZT_SETCONF's confno
// equivalent), distinct from Confno which is the dialable room number.
func NewConference(confno string, mixerID int64, device MixerDevice, bus EventBus) *Conference {
	if bus == nil {
		bus = NullEventBus{}
	}
	return &Conference{
		Confno:       confno,
		MixerID:      mixerID,
		device:       device,
		bus:          bus,
		participants: make(map[int]*Participant),
		nextUserNo:   1,
	}
}

// UserCount returns the current participant count.
func (c *Conference) UserCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userCount
}

// MarkedCount returns the current count of marked-user participants.
func (c *Conference) MarkedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.markedCount
}

// Locked reports whether the conference currently refuses non-admin
// admission.
func (c *Conference) Locked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}

// SetLocked sets the conference's locked state, the admin "toggle lock"
// command's effect.
func (c *Conference) SetLocked(locked bool) {
	c.mu.Lock()
	c.locked = locked
	c.mu.Unlock()
}

// admitLocked checks capacity and lock state under the conference's own
// mutex, returning a StatusError describing the first condition that
// would refuse admission, or nil if admission may proceed.
func (c *Conference) admitLocked(isAdmin bool) error {
	if c.locked && !isAdmin {
		return NewStatusError(StatusLocked, "conference %s is locked", c.Confno)
	}
	if c.MaxMembers > 0 && c.userCount >= c.MaxMembers {
		return NewStatusError(StatusCapacity, "conference %s is full (%d members)", c.Confno, c.MaxMembers)
	}
	return nil
}

// addParticipant inserts p into the ordered participant list, assigning
// it the next user number, and updates the marked-user counter. Returns
// the assigned user number.
func (c *Conference) addParticipant(p *Participant) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.admitLocked(p.Flags.Has(FlagAdmin)); err != nil {
		return 0, err
	}

	userNo := c.nextUserNo
	c.nextUserNo++
	p.UserNo = userNo
	p.JoinedAt = time.Now()

	c.participants[userNo] = p
	c.order = append(c.order, userNo)
	c.userCount++
	if p.Flags.Has(FlagMarked) {
		c.markedCount++
	}

	c.bus.Publish(NewJoinEvent(p.Call.ID(), p.Call.UniqueID(), c.Confno, userNo))
	return userNo, nil
}

// removeParticipant drops userNo from the ordered list, decrementing
// counters. Returns the removed Participant, or ErrParticipantNotFound.
func (c *Conference) removeParticipant(userNo int) (*Participant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.participants[userNo]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	delete(c.participants, userNo)
	for i, u := range c.order {
		if u == userNo {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.userCount--
	if p.Flags.Has(FlagMarked) {
		c.markedCount--
	}

	c.bus.Publish(NewLeaveEvent(p.Call.ID(), p.Call.UniqueID(), c.Confno, userNo))
	return p, nil
}

// Participant returns the participant with the given user number, or
// ErrParticipantNotFound.
func (c *Conference) Participant(userNo int) (*Participant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.participants[userNo]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	return p, nil
}

// Participants returns a snapshot of every participant in join order.
func (c *Conference) Participants() []*Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Participant, 0, len(c.order))
	for _, userNo := range c.order {
		out = append(out, c.participants[userNo])
	}
	return out
}

// LastJoined returns the most recently joined non-admin participant, used
// by the admin "eject last user" command, or nil if the conference has no
// non-admin participant.
func (c *Conference) LastJoined() *Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.order) - 1; i >= 0; i-- {
		p := c.participants[c.order[i]]
		if !p.Flags.Has(FlagAdmin) {
			return p
		}
	}
	return nil
}

// toggleMarked is the admin menu digit '5' behavior: marked_count is
// decremented if userNo is already marked and incremented otherwise, and
// the FlagMarked bit is then always SET, never cleared on the un-mark
// path. It is not a symmetric toggle; a test pins this behavior.
func (c *Conference) toggleMarked(userNo int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.participants[userNo]
	if !ok {
		return ErrParticipantNotFound
	}
	if p.Flags.Has(FlagMarked) {
		c.markedCount--
	} else {
		c.markedCount++
	}
	p.Flags |= FlagMarked
	return nil
}

// PlayToMixer writes a tone or prompt frame to every currently-listening
// participant's mixer channel, used by admin announcements and join/leave
// tones that address the whole room rather than one participant.
func (c *Conference) PlayToMixer(frame []int16) error {
	c.mu.Lock()
	handles := make([]ChannelHandle, 0, len(c.participants))
	for _, p := range c.participants {
		handles = append(handles, p.Handle)
	}
	c.mu.Unlock()

	var firstErr error
	for _, h := range handles {
		if err := c.device.SetConf(h, ConfModeListener); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("meetme: play to mixer: %w", err)
		}
	}
	return firstErr
}

// StartRecording transitions the conference into RecordingActive, setting
// the file path the Recorder Task will write to.
func (c *Conference) StartRecording(path string) {
	c.mu.Lock()
	c.recording = RecordingActive
	c.recordingFile = path
	c.mu.Unlock()
}

// StopRecording transitions the conference out of active recording.
func (c *Conference) StopRecording() {
	c.mu.Lock()
	c.recording = RecordingTerminating
	c.mu.Unlock()
}

// RecordingStateNow reports the conference's current recorder lifecycle state.
func (c *Conference) RecordingStateNow() RecordingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}
