package meetme

import (
	"context"
	"sync"
)

// memoryMixerDevice is an in-memory MixerDevice fake: no sockets, no
// G.711, no mix cycle ticker. Every Write to a channel is fanned out as
// the Read result to every other open channel on the same conference,
// matching the N-1 sum-mix contract closely enough for session and
// admin-plane tests without any timing dependency.
type memoryMixerDevice struct {
	mu       sync.Mutex
	next     ChannelHandle
	channels map[ChannelHandle]*memoryChannel
}

type memoryChannel struct {
	confID int64
	mode   ConfMode
	inbox  chan []int16
	closed bool
}

// newMemoryMixerDevice constructs an empty fake device.
func newMemoryMixerDevice() *memoryMixerDevice {
	return &memoryMixerDevice{channels: make(map[ChannelHandle]*memoryChannel)}
}

func (d *memoryMixerDevice) OpenChannel(confID int64) (ChannelHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	h := d.next
	d.channels[h] = &memoryChannel{
		confID: confID,
		inbox:  make(chan []int16, 32),
	}
	return h, nil
}

func (d *memoryMixerDevice) SetConf(h ChannelHandle, mode ConfMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, ok := d.channels[h]
	if !ok {
		return NewStatusError(StatusDeviceError, "memorymixer: unknown handle %d", h)
	}
	ch.mode = mode
	return nil
}

func (d *memoryMixerDevice) GetConf(h ChannelHandle) (ConfMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, ok := d.channels[h]
	if !ok {
		return ConfModeNone, NewStatusError(StatusDeviceError, "memorymixer: unknown handle %d", h)
	}
	return ch.mode, nil
}

func (d *memoryMixerDevice) SetBufInfo(ChannelHandle, BufInfo) error { return nil }

func (d *memoryMixerDevice) Flush(h ChannelHandle) error {
	d.mu.Lock()
	ch, ok := d.channels[h]
	d.mu.Unlock()
	if !ok {
		return NewStatusError(StatusDeviceError, "memorymixer: unknown handle %d", h)
	}
	for {
		select {
		case <-ch.inbox:
		default:
			return nil
		}
	}
}

func (d *memoryMixerDevice) Write(ctx context.Context, h ChannelHandle, frame []int16) error {
	d.mu.Lock()
	src, ok := d.channels[h]
	if !ok {
		d.mu.Unlock()
		return NewStatusError(StatusDeviceError, "memorymixer: unknown handle %d", h)
	}
	if src.mode&ConfModeTalker == 0 {
		d.mu.Unlock()
		return nil
	}
	cp := make([]int16, len(frame))
	copy(cp, frame)
	var targets []*memoryChannel
	for oh, ch := range d.channels {
		if oh == h || ch.closed || ch.mode&(ConfModeListener|ConfModeAnnounceMonitor) == 0 {
			continue
		}
		if ch.confID != src.confID {
			continue
		}
		targets = append(targets, ch)
	}
	d.mu.Unlock()

	for _, ch := range targets {
		select {
		case ch.inbox <- cp:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Drop on a full inbox rather than block the writer, matching
			// the device's own non-blocking Write contract.
		}
	}
	return nil
}

func (d *memoryMixerDevice) Read(ctx context.Context, h ChannelHandle) ([]int16, error) {
	d.mu.Lock()
	ch, ok := d.channels[h]
	d.mu.Unlock()
	if !ok {
		return nil, NewStatusError(StatusDeviceError, "memorymixer: unknown handle %d", h)
	}
	select {
	case frame := <-ch.inbox:
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *memoryMixerDevice) Close(h ChannelHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, ok := d.channels[h]
	if !ok {
		return NewStatusError(StatusDeviceError, "memorymixer: unknown handle %d", h)
	}
	ch.closed = true
	delete(d.channels, h)
	return nil
}
