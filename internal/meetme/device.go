package meetme

import "context"

// ChannelHandle identifies one participant's binding inside a MixerDevice.
// Opaque to callers; devices are free to use it as an index, fd, or map
// key internally.
type ChannelHandle int64

// ConfMode mirrors the bitmask the device's SET_CONF entry point accepts:
// a channel can simultaneously listen, talk, and receive the announcement
// stream. Zero means "not bound to any conference."
type ConfMode int

const (
	// ConfModeListener receives the mixed output but contributes no audio.
	ConfModeListener ConfMode = 1 << iota
	// ConfModeTalker contributes audio to the mix.
	ConfModeTalker
	// ConfModeAnnounce receives the announcement/prompt stream instead of
	// (or in addition to) the conference mix.
	ConfModeAnnounce
	// ConfModeAnnounceMonitor both announces and listens to the mix. The
	// admission protocol does not use it: a joining participant is set
	// directly to listener or listener+talker mode.
	ConfModeAnnounceMonitor = ConfModeAnnounce | ConfModeListener
	// ConfModeNone leaves the conference mix entirely; used on teardown.
	ConfModeNone ConfMode = 0
)

// confSampleCount is the number of 16-bit linear samples per mix cycle:
// 160 samples at 8kHz for a 20ms frame, the quantum the device operates
// on end to end.
const confSampleCount = 160

// confFrameBytes is confSampleCount samples at 2 bytes each, the size of
// one linear PCM frame moved through the device in a single Read/Write.
const confFrameBytes = confSampleCount * 2

// BufInfo mirrors the device's buffering negotiation (SET_BUFINFO):
// how many frames of jitter buffering and frame size the channel uses.
type BufInfo struct {
	NumBufs  int
	BufSize  int
}

// MixerDevice is the Go-native shape of the mixer's ioctl surface
// (SET_CONF, GET_CONF, SET_BUFINFO, SET_LINEAR, IOMUX, FLUSH). Every
// participant session talks to its conference exclusively through this
// interface, never through a concrete transport, so the production
// UDP/G.711 mixer and the in-memory test fake are interchangeable.
type MixerDevice interface {
	// OpenChannel allocates a new channel bound to confID and returns its
	// handle. Returns a StatusError tagged StatusDeviceError on failure.
	OpenChannel(confID int64) (ChannelHandle, error)

	// SetConf changes h's participation mode. ConfModeNone detaches h
	// from the mix without closing the channel.
	SetConf(h ChannelHandle, mode ConfMode) error

	// GetConf reports h's current participation mode, used by the
	// admission protocol to detect an already-bound channel before
	// retrying with a fresh one.
	GetConf(h ChannelHandle) (ConfMode, error)

	// SetBufInfo negotiates the channel's jitter buffering.
	SetBufInfo(h ChannelHandle, info BufInfo) error

	// Flush discards any buffered audio queued for h, used when a
	// participant re-enters the main loop after the star-menu or a DTMF
	// interruption so stale frames don't play back.
	Flush(h ChannelHandle) error

	// Write pushes one 160-sample linear PCM frame of h's own audio into
	// the mix. Blocks only as long as required to hand the frame to the
	// device; never blocks for a full mix cycle.
	Write(ctx context.Context, h ChannelHandle, frame []int16) error

	// Read returns the next mixed output frame for h (160 linear
	// samples), blocking until the device's mix cycle produces one or
	// ctx is done.
	Read(ctx context.Context, h ChannelHandle) ([]int16, error)

	// Close releases h. After Close, h is invalid.
	Close(h ChannelHandle) error
}
