package meetme

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func loudFrame() []int16 {
	f := make([]int16, confSampleCount)
	for i := range f {
		f[i] = 5000
	}
	return f
}

func silentFrame() []int16 {
	return make([]int16, confSampleCount)
}

func TestTalkerStateTransitionsToTalkingAfterThreshold(t *testing.T) {
	var ts talkerState
	becameTalking := false

	// silenceToTalkingMS=300 at 20ms/frame needs 15 consecutive loud frames.
	for i := 0; i < 20; i++ {
		talking, _ := ts.observe(loudFrame(), 20*time.Millisecond)
		if talking {
			becameTalking = true
			break
		}
	}
	require.True(t, becameTalking)
	require.True(t, ts.talking)
}

func TestTalkerStateTransitionsBackToSilentAfterThreshold(t *testing.T) {
	var ts talkerState
	for i := 0; i < 20; i++ {
		ts.observe(loudFrame(), 20*time.Millisecond)
	}
	require.True(t, ts.talking)

	becameSilent := false
	for i := 0; i < 60; i++ {
		_, silent := ts.observe(silentFrame(), 20*time.Millisecond)
		if silent {
			becameSilent = true
			break
		}
	}
	require.True(t, becameSilent)
	require.False(t, ts.talking)
}

func TestTalkerStateStaysQuietBelowThreshold(t *testing.T) {
	var ts talkerState
	talking, silent := ts.observe(silentFrame(), 20*time.Millisecond)
	require.False(t, talking)
	require.False(t, silent)
}
