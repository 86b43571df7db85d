package meetme

import (
	"context"
	"math"
)

const (
	joinToneHz         = 440.0
	joinToneAmplitude  = 0.25
	joinToneDurationMs = 200

	leaveToneDurationMs = 100
)

// generateTone creates linear PCM samples for a sine-wave tone at 8kHz,
// the conference's fixed clock.
func generateTone(frequencyHz, amplitude float64, durationMs int) []int16 {
	const sampleRate = 8000
	total := sampleRate * durationMs / 1000
	samples := make([]int16, total)
	peak := amplitude * 32767.0
	for i := 0; i < total; i++ {
		t := float64(i) / float64(sampleRate)
		samples[i] = int16(peak * math.Sin(2.0*math.Pi*frequencyHz*t))
	}
	return samples
}

// playTone writes a generated tone to the mixer device in confSampleCount
// chunks, so every other participant hears the join/leave notification
// mixed into the next cycles of their output. Silent failures (a
// disconnected or closing channel) are tolerated; tones are a courtesy,
// never load-bearing for the conference's correctness.
func playTone(ctx context.Context, device MixerDevice, h ChannelHandle, frequencyHz, amplitude float64, durationMs int) {
	samples := generateTone(frequencyHz, amplitude, durationMs)
	for offset := 0; offset < len(samples); offset += confSampleCount {
		end := offset + confSampleCount
		if end > len(samples) {
			end = len(samples)
		}
		frame := make([]int16, confSampleCount)
		copy(frame, samples[offset:end])
		if err := device.Write(ctx, h, frame); err != nil {
			return
		}
	}
}

// playJoinTone signals a participant entering the conference.
func playJoinTone(ctx context.Context, device MixerDevice, h ChannelHandle) {
	playTone(ctx, device, h, joinToneHz, joinToneAmplitude, joinToneDurationMs)
}

// playLeaveTone signals a participant leaving the conference.
func playLeaveTone(ctx context.Context, device MixerDevice, h ChannelHandle) {
	playTone(ctx, device, h, joinToneHz, joinToneAmplitude, leaveToneDurationMs)
}
