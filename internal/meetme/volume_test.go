package meetme

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTweakVolumeAsymmetricCurve(t *testing.T) {
	// From 0, a single up-step jumps to +2, not +1 — bit-exact with the
	// reference implementation's tweak_volume.
	require.Equal(t, 2, tweakVolume(0, true))
	require.Equal(t, 3, tweakVolume(2, true))
	require.Equal(t, 0, tweakVolume(2, false))

	require.Equal(t, -2, tweakVolume(0, false))
	require.Equal(t, -3, tweakVolume(-2, false))

	require.Equal(t, 5, tweakVolume(5, true))
	require.Equal(t, -5, tweakVolume(-5, false))

	require.Equal(t, 4, tweakVolume(3, true))
	require.Equal(t, -4, tweakVolume(-3, false))
}

func TestGainForLevelMatchesGainMap(t *testing.T) {
	require.Equal(t, -15, gainForLevel(-5))
	require.Equal(t, 0, gainForLevel(0))
	require.Equal(t, 15, gainForLevel(5))
}

func TestApplyVolumeStepHardwarePath(t *testing.T) {
	call := newFakeCall("c1")
	var vol Volume
	applyVolumeStep(call, VolumeTalk, &vol, true)

	require.Equal(t, 2, vol.Desired)
	require.Equal(t, 0, vol.Actual, "hardware absorbed the gain")
	require.Equal(t, gainForLevel(2), call.gains[VolumeTalk])
}

// softwareOnlyCall implements Call by delegating to an inner fakeCall
// without promoting its SetGainDB method, so it does not satisfy
// HardwareGainSetter and forces the software-scaling fallback path.
type softwareOnlyCall struct {
	inner *fakeCall
}

func (c *softwareOnlyCall) ID() string       { return c.inner.ID() }
func (c *softwareOnlyCall) UniqueID() string { return c.inner.UniqueID() }
func (c *softwareOnlyCall) Language() string { return c.inner.Language() }
func (c *softwareOnlyCall) ReadDigit(ctx context.Context) (rune, error) {
	return c.inner.ReadDigit(ctx)
}
func (c *softwareOnlyCall) CollectDigits(ctx context.Context, maxDigits int, terminator rune, timeout int) (string, error) {
	return c.inner.CollectDigits(ctx, maxDigits, terminator, timeout)
}
func (c *softwareOnlyCall) PlayPrompt(ctx context.Context, name string) error {
	return c.inner.PlayPrompt(ctx, name)
}
func (c *softwareOnlyCall) Hangup(ctx context.Context, reason string) error {
	return c.inner.Hangup(ctx, reason)
}
func (c *softwareOnlyCall) ReadFrame(ctx context.Context) ([]int16, error) {
	return c.inner.ReadFrame(ctx)
}
func (c *softwareOnlyCall) WriteFrame(ctx context.Context, frame []int16) error {
	return c.inner.WriteFrame(ctx, frame)
}

func TestApplyVolumeStepSoftwareFallback(t *testing.T) {
	call := Call(&softwareOnlyCall{inner: newFakeCall("c2")})
	var vol Volume
	applyVolumeStep(call, VolumeListen, &vol, true)

	require.Equal(t, 2, vol.Desired)
	require.Equal(t, 2, vol.Actual, "no hardware gain hook, software must scale")
}

func TestScaleSampleClampsToInt16Range(t *testing.T) {
	require.Equal(t, int16(32767), scaleSample(20000, 6))
	require.Equal(t, int16(-32768), scaleSample(-20000, 6))
	require.Equal(t, int16(1000), scaleSample(1000, 0))
}
