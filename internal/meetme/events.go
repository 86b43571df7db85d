package meetme

import (
	"strconv"
	"sync/atomic"
)

// EventBus is the external management bus collaborator. The conference
// core only ever produces events through this interface; how they are
// transported (AMI-style socket, message queue, in-process log) is
// outside this package's scope.
type EventBus interface {
	Publish(Event)
}

// Event is the common shape of every MeetMe management event. Name
// identifies the event type; Fields() renders the event's payload as a
// flat map keyed by field name.
type Event struct {
	Name      string
	Channel   string
	UniqueID  string
	Confno    string
	UserNo    int
}

const (
	EventConferenceJoin        = "MeetmeJoin"
	EventConferenceLeave       = "MeetmeLeave"
	EventConferenceTalking     = "MeetmeTalking"
	EventConferenceStopTalking = "MeetmeStopTalking"
)

// NewJoinEvent builds a MeetmeJoin event for the given participant.
func NewJoinEvent(channel, uniqueID, confno string, userNo int) Event {
	return Event{Name: EventConferenceJoin, Channel: channel, UniqueID: uniqueID, Confno: confno, UserNo: userNo}
}

// NewLeaveEvent builds a MeetmeLeave event for the given participant.
func NewLeaveEvent(channel, uniqueID, confno string, userNo int) Event {
	return Event{Name: EventConferenceLeave, Channel: channel, UniqueID: uniqueID, Confno: confno, UserNo: userNo}
}

// NewTalkingEvent builds a MeetmeTalking event.
func NewTalkingEvent(channel, uniqueID, confno string, userNo int) Event {
	return Event{Name: EventConferenceTalking, Channel: channel, UniqueID: uniqueID, Confno: confno, UserNo: userNo}
}

// NewStopTalkingEvent builds a MeetmeStopTalking event.
func NewStopTalkingEvent(channel, uniqueID, confno string, userNo int) Event {
	return Event{Name: EventConferenceStopTalking, Channel: channel, UniqueID: uniqueID, Confno: confno, UserNo: userNo}
}

// Fields returns the event's fields keyed by their management names:
// Channel, Uniqueid, Meetme, Usernum. The map carries no field order.
func (e Event) Fields() map[string]string {
	return map[string]string{
		"Channel":  e.Channel,
		"Uniqueid": e.UniqueID,
		"Meetme":   e.Confno,
		"Usernum":  strconv.Itoa(e.UserNo),
	}
}

// NullEventBus discards every event. Useful as a default when no bus is
// wired, and in tests that don't assert on emitted events.
type NullEventBus struct{}

func (NullEventBus) Publish(Event) {}

// RecordingEventBus is an in-memory EventBus that appends every published
// event to a slice, for tests that assert on emission order and content.
type RecordingEventBus struct {
	Events []Event
}

func (b *RecordingEventBus) Publish(e Event) {
	b.Events = append(b.Events, e)
}

// CountingEventBus wraps another EventBus and tallies talker state
// transitions, satisfying metrics.TalkerEventCounter. Every published
// event is forwarded unchanged to the inner bus after counting.
type CountingEventBus struct {
	inner   EventBus
	talking uint64
	silent  uint64
}

// NewCountingEventBus wraps inner, counting talker transitions as they
// pass through. If inner is nil, events are still counted but otherwise
// discarded.
func NewCountingEventBus(inner EventBus) *CountingEventBus {
	if inner == nil {
		inner = NullEventBus{}
	}
	return &CountingEventBus{inner: inner}
}

func (b *CountingEventBus) Publish(e Event) {
	switch e.Name {
	case EventConferenceTalking:
		atomic.AddUint64(&b.talking, 1)
	case EventConferenceStopTalking:
		atomic.AddUint64(&b.silent, 1)
	}
	b.inner.Publish(e)
}

// TalkerEventCount returns the number of talker transitions observed for
// state, one of "talking" or "silent". Unknown states return 0.
func (b *CountingEventBus) TalkerEventCount(state string) uint64 {
	switch state {
	case "talking":
		return atomic.LoadUint64(&b.talking)
	case "silent":
		return atomic.LoadUint64(&b.silent)
	default:
		return 0
	}
}
