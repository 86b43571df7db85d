package meetme

import "time"

// Talker-detection thresholds, matching the conventional default silence
// threshold and debounce timings used by energy-based VAD.
const (
	// silenceToTalkingMS is how long continuous energy above the
	// threshold must persist before a participant transitions to talking.
	silenceToTalkingMS = 300
	// talkingToSilentMS is how long continuous silence must persist
	// before a talking participant transitions back to silent.
	talkingToSilentMS = 1000

	// talkingEnergyThreshold is the minimum RMS-ish per-frame energy
	// that counts as "has audio" for talker-detection purposes. Coarse
	// by design: this is a presence gate, not a VU meter.
	talkingEnergyThreshold = 256
)

// talkerState tracks one participant's running silence/talk duration
// across successive 20ms frames, driving the MeetmeTalking/
// MeetmeStopTalking event transitions.
type talkerState struct {
	talking        bool
	aboveSinceMS   int
	belowSinceMS   int
}

// frameEnergy returns a coarse magnitude-sum energy estimate for one
// linear PCM frame, cheap enough to run every 20ms per participant.
func frameEnergy(frame []int16) int {
	sum := 0
	for _, s := range frame {
		if s < 0 {
			sum -= int(s)
		} else {
			sum += int(s)
		}
	}
	if len(frame) == 0 {
		return 0
	}
	return sum / len(frame)
}

// observe feeds one frame's worth of audio into the talker state machine
// and reports whether a talking-state transition occurred this frame.
// frameDuration is normally 20ms (the conference's fixed frame quantum).
func (t *talkerState) observe(frame []int16, frameDuration time.Duration) (becameTalking, becameSilent bool) {
	ms := int(frameDuration / time.Millisecond)
	energy := frameEnergy(frame)

	if energy >= talkingEnergyThreshold {
		t.aboveSinceMS += ms
		t.belowSinceMS = 0
	} else {
		t.belowSinceMS += ms
		t.aboveSinceMS = 0
	}

	if !t.talking && t.aboveSinceMS >= silenceToTalkingMS {
		t.talking = true
		return true, false
	}
	if t.talking && t.belowSinceMS >= talkingToSilentMS {
		t.talking = false
		return false, true
	}
	return false, false
}
