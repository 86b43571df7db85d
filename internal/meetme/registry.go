package meetme

import (
	"fmt"
	"log/slog"
	"sync"
)

// RoomConfig is the static, persisted definition of a dialable room:
// its PIN(s), capacity, and default behavior flags, loaded from the
// static room config file or created on the fly for dynamic
// (usually-unknown-number) conferences.
type RoomConfig struct {
	Confno     string
	PINHash    string
	AdminPIN   string
	MaxMembers int
	Record     bool
	AnnounceJoinLeave bool
	IsDynamic  bool
}

// Registry maps a confno to its live Conference, building one on first
// join and unlinking it on last leave. A single coarse mutex guards the
// map — correct and simple for the expected scale of a handful of
// concurrent rooms.
//
// FindOrBuild waits on a condition variable, rather than busy-waiting,
// while a teardown marked by BeginTeardown is in flight; Unlink clears the
// marker and wakes it. Unlink does not wait for a recorder.
type Registry struct {
	logger *slog.Logger
	device MixerDevice
	bus    EventBus

	mu         sync.Mutex
	cond       *sync.Cond
	conferences map[string]*Conference
	tearingDown map[string]bool
	nextMixerID int64
}

// NewRegistry constructs an empty registry backed by device for mixer
// allocation and bus for management-event publication.
func NewRegistry(device MixerDevice, bus EventBus, logger *slog.Logger) *Registry {
	r := &Registry{
		logger:      logger.With("subsystem", "conference-registry"),
		device:      device,
		bus:         bus,
		conferences: make(map[string]*Conference),
		tearingDown: make(map[string]bool),
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// FindOrBuild returns the live conference for confno, constructing it
// from cfg if none exists yet. If a teardown for confno is in flight,
// FindOrBuild blocks until it completes before deciding whether to
// rebuild, using a condition variable rather than a spin-wait.
func (r *Registry) FindOrBuild(confno string, cfg RoomConfig) (*Conference, error) {
	r.mu.Lock()
	for r.tearingDown[confno] {
		r.cond.Wait()
	}
	if conf, ok := r.conferences[confno]; ok {
		r.mu.Unlock()
		return conf, nil
	}
	r.nextMixerID++
	mixerID := r.nextMixerID
	r.mu.Unlock()

	conf := NewConference(confno, mixerID, r.device, r.bus)
	conf.PINHash = cfg.PINHash
	conf.AdminPIN = cfg.AdminPIN
	conf.MaxMembers = cfg.MaxMembers
	conf.IsDynamic = cfg.IsDynamic

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.conferences[confno]; ok {
		// Lost a race with another builder; use the one that won.
		return existing, nil
	}
	r.conferences[confno] = conf
	r.logger.Info("conference built", "confno", confno, "dynamic", cfg.IsDynamic)
	return conf, nil
}

// Find returns the live conference for confno without building one.
func (r *Registry) Find(confno string) (*Conference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conf, ok := r.conferences[confno]
	if !ok {
		return nil, ErrConferenceNotFound
	}
	return conf, nil
}

// All returns a snapshot of every live conference, used by MeetMeCount
// and admin listing.
func (r *Registry) All() []*Conference {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Conference, 0, len(r.conferences))
	for _, c := range r.conferences {
		out = append(out, c)
	}
	return out
}

// Unlink removes confno from the registry once its last participant has
// left. It does not consult the conference's recording state or wait for
// a recorder to finish. Callers mark teardown in
// flight by calling BeginTeardown before releasing the last participant,
// and must call Unlink (which also clears the in-flight marker and wakes
// any FindOrBuild waiters) when done.
func (r *Registry) Unlink(confno string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conferences[confno]; !ok {
		return ErrConferenceNotFound
	}
	delete(r.conferences, confno)
	delete(r.tearingDown, confno)
	r.cond.Broadcast()
	r.logger.Info("conference unlinked", "confno", confno)
	return nil
}

// BeginTeardown marks confno as tearing down, causing any concurrent
// FindOrBuild to block until Unlink completes rather than racing to
// rebuild a conference that is mid-teardown.
func (r *Registry) BeginTeardown(confno string) {
	r.mu.Lock()
	r.tearingDown[confno] = true
	r.mu.Unlock()
}

// CancelTeardown clears an in-flight teardown marker without unlinking,
// used when a new participant joins before the previous last-leaver's
// teardown actually completed.
func (r *Registry) CancelTeardown(confno string) {
	r.mu.Lock()
	r.tearingDown[confno] = false
	r.cond.Broadcast()
	r.mu.Unlock()
}

// ActiveConferenceCount returns the number of live conferences, satisfying
// metrics.ConferenceProvider.
func (r *Registry) ActiveConferenceCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conferences)
}

// ActiveParticipantCount returns the total participant count across every
// live conference, satisfying metrics.ConferenceProvider.
func (r *Registry) ActiveParticipantCount() int {
	total := 0
	for _, c := range r.All() {
		total += c.UserCount()
	}
	return total
}

// ActiveRecordingCount returns the number of conferences currently being
// recorded, satisfying metrics.ConferenceProvider.
func (r *Registry) ActiveRecordingCount() int {
	count := 0
	for _, c := range r.All() {
		if c.RecordingStateNow() == RecordingActive {
			count++
		}
	}
	return count
}

// describeCapacity is a small helper shared by admin listing and logging
// to render a conference's occupancy as "n/max" or just "n" when
// unlimited.
func describeCapacity(c *Conference) string {
	if c.MaxMembers <= 0 {
		return fmt.Sprintf("%d", c.UserCount())
	}
	return fmt.Sprintf("%d/%d", c.UserCount(), c.MaxMembers)
}
