package meetme

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventFieldsContent(t *testing.T) {
	e := NewJoinEvent("SIP/100-1", "uid-1", "1234", 3)
	fields := e.Fields()

	require.Equal(t, "SIP/100-1", fields["Channel"])
	require.Equal(t, "uid-1", fields["Uniqueid"])
	require.Equal(t, "1234", fields["Meetme"])
	require.Equal(t, "3", fields["Usernum"])
}

func TestRecordingEventBusCapturesPublishOrder(t *testing.T) {
	bus := &RecordingEventBus{}
	bus.Publish(NewJoinEvent("a", "a-uid", "1234", 1))
	bus.Publish(NewTalkingEvent("a", "a-uid", "1234", 1))
	bus.Publish(NewStopTalkingEvent("a", "a-uid", "1234", 1))
	bus.Publish(NewLeaveEvent("a", "a-uid", "1234", 1))

	require.Len(t, bus.Events, 4)
	require.Equal(t, EventConferenceJoin, bus.Events[0].Name)
	require.Equal(t, EventConferenceTalking, bus.Events[1].Name)
	require.Equal(t, EventConferenceStopTalking, bus.Events[2].Name)
	require.Equal(t, EventConferenceLeave, bus.Events[3].Name)
}

func TestNullEventBusDiscardsEvents(t *testing.T) {
	var bus NullEventBus
	require.NotPanics(t, func() {
		bus.Publish(NewJoinEvent("a", "a-uid", "1234", 1))
	})
}

func TestCountingEventBusTalliesTalkerTransitions(t *testing.T) {
	inner := &RecordingEventBus{}
	bus := NewCountingEventBus(inner)

	bus.Publish(NewJoinEvent("a", "a-uid", "1234", 1))
	bus.Publish(NewTalkingEvent("a", "a-uid", "1234", 1))
	bus.Publish(NewTalkingEvent("b", "b-uid", "1234", 2))
	bus.Publish(NewStopTalkingEvent("a", "a-uid", "1234", 1))

	require.Equal(t, uint64(2), bus.TalkerEventCount("talking"))
	require.Equal(t, uint64(1), bus.TalkerEventCount("silent"))
	require.Equal(t, uint64(0), bus.TalkerEventCount("unknown"))

	// Events still reach the wrapped bus unchanged.
	require.Len(t, inner.Events, 4)
}

func TestNewCountingEventBusNilInnerDoesNotPanic(t *testing.T) {
	bus := NewCountingEventBus(nil)
	require.NotPanics(t, func() {
		bus.Publish(NewTalkingEvent("a", "a-uid", "1234", 1))
	})
	require.Equal(t, uint64(1), bus.TalkerEventCount("talking"))
}
