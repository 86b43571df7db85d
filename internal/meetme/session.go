package meetme

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"
)

// conferencePINMaxAttempts caps how many wrong PIN entries the admission
// protocol tolerates before hanging up.
const conferencePINMaxAttempts = 3

// frameQuantum is the conference's fixed frame duration; every Read/Write
// against a MixerDevice and every Call frame moves exactly this much
// audio.
const frameQuantum = 20 * time.Millisecond

// AdmitRequest carries everything the admission protocol needs to decide
// whether a call may join a conference: the target confno, the flags
// requested at invocation time (the option-letter flags a dialplan
// passes to the application), and an optional pre-supplied PIN (e.g.
// from a digit collection done before the conference app was invoked).
type AdmitRequest struct {
	Confno     string
	Flags      Flag
	SuppliedPIN string
	RoomConfig RoomConfig
}

// Session drives one participant's entire time in a conference: PIN
// challenge, registry lookup, mixer channel setup, the talk/listen audio
// pump, DTMF dispatch to the star menu, and teardown.
type Session struct {
	call     Call
	registry *Registry
	device   MixerDevice
	logger   *slog.Logger

	conf *Conference
	p    *Participant
}

// NewSession constructs a session for call, backed by registry for
// conference lookup/creation and device for mixer access.
func NewSession(call Call, registry *Registry, device MixerDevice, logger *slog.Logger) *Session {
	return &Session{
		call:     call,
		registry: registry,
		device:   device,
		logger:   logger.With("subsystem", "participant-session", "call_id", call.ID()),
	}
}

// Run executes the session end to end: admission, the main audio/DTMF
// loop, and teardown. It blocks until the call hangs up, the participant
// is kicked, or ctx is cancelled.
func (s *Session) Run(ctx context.Context, req AdmitRequest) error {
	if err := s.admit(ctx, req); err != nil {
		s.rejectAdmission(ctx, err)
		return err
	}
	loopErr := s.mainLoop(ctx)
	s.teardown(ctx)
	return loopErr
}

// rejectAdmission plays the prompt matching why admission failed and
// hangs up, announcing the reason before dropping a caller that never
// made it into the room. Only locked, capacity and PIN failures do this;
// any other error returns without a prompt or hangup.
func (s *Session) rejectAdmission(ctx context.Context, err error) {
	reason := "conf-invalid"
	switch {
	case IsStatus(err, StatusLocked):
		reason = "conf-locked"
	case IsStatus(err, StatusCapacity):
		reason = "conf-invalid"
	case IsStatus(err, StatusInvalidInput):
		reason = "conf-invalidpin"
	default:
		return
	}
	if playErr := s.call.PlayPrompt(ctx, reason); playErr != nil {
		s.logger.Debug("prompt playback failed", "prompt", reason, "error", playErr)
	}
	s.call.Hangup(ctx, reason)
}

// admit runs the admission protocol: PIN challenge (the room PIN, or the
// admin PIN when joining as admin; skipped when that PIN is unset or was
// supplied correctly), conference lookup/creation, and mixer channel binding. On
// success s.conf and s.p are populated and the participant has been
// registered in the conference's ordered list.
func (s *Session) admit(ctx context.Context, req AdmitRequest) error {
	isAdmin := req.Flags.Has(FlagAdmin)

	if err := s.verifyPIN(ctx, req, isAdmin); err != nil {
		return err
	}

	conf, err := s.registry.FindOrBuild(req.Confno, req.RoomConfig)
	if err != nil {
		return err
	}
	s.conf = conf

	p := &Participant{
		Call:  s.call,
		Flags: req.Flags,
	}

	handle, err := s.openChannel(conf)
	if err != nil {
		return err
	}
	p.Handle = handle

	// A normal participant (no monitor-only flag) is a full talker from
	// the start (P7); a participant waiting for a marked user and no
	// marked user is present yet starts demoted, promoted later by
	// syncMarkedTransition on the 0->=1 transition.
	mode := talkerConfModeFor(req.Flags, false)
	if req.Flags.Has(FlagWaitMarked) && conf.MarkedCount() == 0 {
		mode = ConfModeListener
	}
	if err := s.device.SetConf(handle, mode); err != nil {
		s.device.Close(handle)
		return NewStatusError(StatusDeviceError, "meetme: set conf mode: %w", err)
	}

	if _, err := conf.addParticipant(p); err != nil {
		s.device.Close(handle)
		return err
	}
	s.p = p

	s.logger.Info("participant admitted", "confno", conf.Confno, "user_no", p.UserNo)

	switch {
	case conf.UserCount() == 1 && !req.Flags.Has(FlagWaitMarked):
		if err := s.call.PlayPrompt(ctx, "conf-onlyperson"); err != nil {
			s.logger.Debug("prompt playback failed", "prompt", "conf-onlyperson", "error", err)
		}
	case req.Flags.Has(FlagWaitMarked) && conf.MarkedCount() == 0:
		if err := s.call.PlayPrompt(ctx, "conf-waitforleader"); err != nil {
			s.logger.Debug("prompt playback failed", "prompt", "conf-waitforleader", "error", err)
		}
	}

	if s.shouldPlayJoinLeaveTone() {
		playJoinTone(ctx, s.device, handle)
	}
	return nil
}

// shouldPlayJoinLeaveTone reports whether the join/leave tone should be
// written to the mixer for this participant right now (P8): not quiet,
// not monitor-only, not admin, and either not waiting for a marked user or
// a marked user is already present.
func (s *Session) shouldPlayJoinLeaveTone() bool {
	f := s.p.Flags
	if f.Has(FlagQuiet) || f.Has(FlagMonitor) || f.Has(FlagAdmin) {
		return false
	}
	if f.Has(FlagWaitMarked) && s.conf.MarkedCount() == 0 {
		return false
	}
	return true
}

// openChannel opens a mixer channel for this session's participant,
// retrying once with a fresh channel if the device reports the handle
// already bound to a conference.
func (s *Session) openChannel(conf *Conference) (ChannelHandle, error) {
	for attempt := 0; attempt < 2; attempt++ {
		h, err := s.device.OpenChannel(conf.MixerID)
		if err != nil {
			return 0, NewStatusError(StatusDeviceError, "meetme: open mixer channel: %w", err)
		}
		mode, err := s.device.GetConf(h)
		if err == nil && mode == ConfModeNone {
			return h, nil
		}
		s.device.Close(h)
	}
	return 0, NewStatusError(StatusDeviceError, "meetme: mixer channel unavailable after retry")
}

// verifyPIN challenges the caller for the room's PIN (or admin PIN, when
// joining with FlagAdmin) up to conferencePINMaxAttempts times. A room
// with no PIN configured, or a pre-supplied PIN that already matches,
// skips the challenge entirely.
func (s *Session) verifyPIN(ctx context.Context, req AdmitRequest, isAdmin bool) error {
	want := req.RoomConfig.PINHash
	if isAdmin {
		want = req.RoomConfig.AdminPIN
	}
	if want == "" {
		return nil
	}

	if req.SuppliedPIN != "" && constantTimeEqual(req.SuppliedPIN, want) {
		return nil
	}

	collector := newDigitCollector(s.call)
	for attempt := 0; attempt < conferencePINMaxAttempts; attempt++ {
		if err := s.call.PlayPrompt(ctx, "conf-getpin"); err != nil {
			s.logger.Warn("prompt playback failed", "prompt", "conf-getpin", "error", err)
		}
		pin, err := collector.collect(ctx, 0, '#')
		if err != nil {
			return NewStatusError(StatusPeerHangup, "meetme: pin entry: %w", err)
		}
		if constantTimeEqual(pin, want) {
			return nil
		}
		if err := s.call.PlayPrompt(ctx, "conf-invalidpin"); err != nil {
			s.logger.Warn("prompt playback failed", "prompt", "conf-invalidpin", "error", err)
		}
	}
	return NewStatusError(StatusInvalidInput, "meetme: pin verification failed after %d attempts", conferencePINMaxAttempts)
}

// constantTimeEqual compares two PIN strings without leaking timing
// information about where they first differ.
func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// mainLoop is the steady-state audio/DTMF pump: for
// every frame quantum, reconcile the marked-user wait state, music-on-hold,
// and admin flags against the previous iteration, read the participant's
// own audio and hand it to the mixer (unless monitor-only or muted), read
// the mixed result back and hand it to the call, run talker detection, and
// watch for digits that should route to the star menu. Returns when the
// call's read side ends, the participant is kicked or marked-exits, or ctx
// is cancelled.
func (s *Session) mainLoop(ctx context.Context) error {
	digits := make(chan rune, 4)
	go s.digitWatcher(ctx, digits)

	lastMarked := s.conf.MarkedCount()
	lastMuted := s.p.Muted()
	onHold := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case d := <-digits:
			if err := s.handleDigit(ctx, d); err != nil {
				if IsStatus(err, StatusCapacity) {
					return nil
				}
				return err
			}

		default:
		}

		terminate, err := s.syncMarkedTransition(ctx, &lastMarked)
		if err != nil {
			return err
		}
		if terminate {
			return nil
		}

		s.syncMusicOnHold(ctx, &onHold)

		if err := s.syncMuteState(&lastMuted); err != nil {
			return err
		}
		if s.p.Admin.Has(AdminFlagKickMe) {
			if err := s.call.PlayPrompt(ctx, "conf-kicked"); err != nil {
				s.logger.Debug("prompt playback failed", "prompt", "conf-kicked", "error", err)
			}
			return nil
		}

		frame, err := s.call.ReadFrame(ctx)
		if err != nil {
			if IsStatus(err, StatusPeerHangup) {
				return nil
			}
			return err
		}

		if !s.p.Flags.Has(FlagMonitor) && !s.p.Muted() {
			out := frame
			if s.p.Talk.Actual != 0 {
				out = make([]int16, len(frame))
				gain := gainForLevel(s.p.Talk.Actual)
				for i, samp := range frame {
					out[i] = scaleSample(samp, gain)
				}
			}
			if err := s.device.Write(ctx, s.p.Handle, out); err != nil {
				return NewStatusError(StatusDeviceError, "meetme: write to mixer: %w", err)
			}
		}

		s.reportTalkerTransition(frame)

		mixed, err := s.device.Read(ctx, s.p.Handle)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return NewStatusError(StatusDeviceError, "meetme: read from mixer: %w", err)
		}
		if s.p.Listen.Actual != 0 {
			gain := gainForLevel(s.p.Listen.Actual)
			for i, samp := range mixed {
				mixed[i] = scaleSample(samp, gain)
			}
		}
		if err := s.call.WriteFrame(ctx, mixed); err != nil {
			return NewStatusError(StatusPeerHangup, "meetme: write to call: %w", err)
		}
	}
}

// talkerConfModeFor returns the ConfMode a participant with flags should
// hold given its current mute state: always a listener, plus talker when
// neither monitor-only (P7) nor muted.
func talkerConfModeFor(flags Flag, muted bool) ConfMode {
	mode := ConfModeListener
	if !flags.Has(FlagMonitor) && !muted {
		mode |= ConfModeTalker
	}
	return mode
}

// talkerConfMode is talkerConfModeFor for this session's participant.
func (s *Session) talkerConfMode(muted bool) ConfMode {
	return talkerConfModeFor(s.p.Flags, muted)
}

// syncMarkedTransition implements the wait-for-marked state machine
// (§4.3.2 steps 2/3/5): on a marked_count transition from >=1 to 0, demote
// to listener-only and announce the leader's departure, terminating the
// session outright if marked-exit is also set; on a transition from 0 to
// >=1, promote back to the participant's normal mode and announce
// placement into the conference, unless this participant is itself the
// one that just became marked. lastMarked is updated in place for the
// next iteration.
func (s *Session) syncMarkedTransition(ctx context.Context, lastMarked *int) (terminate bool, err error) {
	if !s.p.Flags.Has(FlagWaitMarked) {
		*lastMarked = s.conf.MarkedCount()
		return false, nil
	}

	current := s.conf.MarkedCount()
	prev := *lastMarked

	if prev >= 1 && current == 0 {
		if playErr := s.call.PlayPrompt(ctx, "conf-leaderhasleft"); playErr != nil {
			s.logger.Debug("prompt playback failed", "prompt", "conf-leaderhasleft", "error", playErr)
		}
		if s.p.Flags.Has(FlagMarkedExit) {
			*lastMarked = current
			return true, nil
		}
		if err := s.device.SetConf(s.p.Handle, ConfModeListener); err != nil {
			return false, NewStatusError(StatusDeviceError, "meetme: demote on leader departure: %w", err)
		}
	} else if prev == 0 && current >= 1 {
		if !s.p.Flags.Has(FlagMarked) {
			if err := s.device.SetConf(s.p.Handle, s.talkerConfMode(s.p.Muted())); err != nil {
				return false, NewStatusError(StatusDeviceError, "meetme: promote into conference: %w", err)
			}
			if playErr := s.call.PlayPrompt(ctx, "conf-placeintoconf"); playErr != nil {
				s.logger.Debug("prompt playback failed", "prompt", "conf-placeintoconf", "error", playErr)
			}
			if s.shouldPlayJoinLeaveTone() {
				playJoinTone(ctx, s.device, s.p.Handle)
			}
		}
	}

	*lastMarked = current
	return false, nil
}

// syncMusicOnHold implements the moh-when-alone behavior (§4.3.2 step 4):
// start hold music when this participant becomes the conference's sole
// member, stop it (and let the participant's normal audio resume) as soon
// as a second participant arrives. A Call that does not implement
// MusicOnHolder is a silent no-op. onHold is updated in place.
func (s *Session) syncMusicOnHold(ctx context.Context, onHold *bool) {
	if !s.p.Flags.Has(FlagMohWhenAlone) {
		return
	}
	moh, ok := s.call.(MusicOnHolder)
	if !ok {
		return
	}

	alone := s.conf.UserCount() == 1
	switch {
	case alone && !*onHold:
		if err := moh.StartMusicOnHold(ctx); err != nil {
			s.logger.Debug("music-on-hold start failed", "error", err)
		}
		*onHold = true
	case !alone && *onHold:
		if err := moh.StopMusicOnHold(ctx); err != nil {
			s.logger.Debug("music-on-hold stop failed", "error", err)
		}
		*onHold = false
	}
}

// syncMuteState implements §4.3.2 step 6's device reconfiguration: when
// MUTED (admin or self) is newly set, the mixer's TALKER bit is cleared;
// when it is newly cleared and this participant is not a pure monitor,
// TALKER is restored. lastMuted is updated in place.
func (s *Session) syncMuteState(lastMuted *bool) error {
	muted := s.p.Muted()
	if muted == *lastMuted {
		return nil
	}
	if err := s.device.SetConf(s.p.Handle, s.talkerConfMode(muted)); err != nil {
		return NewStatusError(StatusDeviceError, "meetme: set conf mode on mute transition: %w", err)
	}
	*lastMuted = muted
	return nil
}

// reportTalkerTransition feeds frame into the participant's talker state
// machine and publishes a management event on any transition.
func (s *Session) reportTalkerTransition(frame []int16) {
	becameTalking, becameSilent := s.p.observeTalking(frame, frameQuantum)
	switch {
	case becameTalking:
		s.conf.bus.Publish(NewTalkingEvent(s.call.ID(), s.call.UniqueID(), s.conf.Confno, s.p.UserNo))
	case becameSilent:
		s.conf.bus.Publish(NewStopTalkingEvent(s.call.ID(), s.call.UniqueID(), s.conf.Confno, s.p.UserNo))
	}
}

// digitWatcher forwards digits from the call to the digits channel until
// ctx is done, letting mainLoop interleave DTMF handling with the audio
// pump instead of blocking on one or the other.
func (s *Session) digitWatcher(ctx context.Context, out chan<- rune) {
	for {
		d, err := s.call.ReadDigit(ctx)
		if err != nil || d == 0 {
			return
		}
		select {
		case out <- d:
		case <-ctx.Done():
			return
		}
	}
}

// MusicOnHolder is the optional hold-music hook a Call may implement,
// consumed by the moh-when-alone behavior. A Call that does not implement
// it simply never receives hold music.
type MusicOnHolder interface {
	StartMusicOnHold(ctx context.Context) error
	StopMusicOnHold(ctx context.Context) error
}

// ExitContextSwitcher is the optional dialplan hand-off hook consumed by
// the exit-context flag: digit reports whether it resolved to a valid
// one-digit extension in the call's configured exit context and, if so,
// switched the call to resume there.
type ExitContextSwitcher interface {
	ExitToContext(ctx context.Context, digit rune) (bool, error)
}

// handleDigit dispatches one DTMF digit: '*' opens the
// star menu (admin or user, by FlagAdmin), '#' exits the conference when
// FlagPoundExit is set, any digit is offered to the exit-context switch
// when FlagExitContext is set, everything else is ignored in the main
// loop.
func (s *Session) handleDigit(ctx context.Context, d rune) error {
	switch {
	case d == '*' && s.p.Flags.Has(FlagStarMenu):
		return s.runStarMenu(ctx)
	case d == '#' && s.p.Flags.Has(FlagPoundExit):
		return NewStatusError(StatusCapacity, "meetme: pound-exit requested")
	case s.p.Flags.Has(FlagExitContext):
		return s.tryExitContext(ctx, d)
	default:
		return nil
	}
}

// tryExitContext offers d to the call's configured exit context. A
// successful switch ends the session the same way pound-exit does; a
// digit that does not resolve to a valid extension, or a call with no
// ExitContextSwitcher, is a no-op.
func (s *Session) tryExitContext(ctx context.Context, d rune) error {
	switcher, ok := s.call.(ExitContextSwitcher)
	if !ok {
		return nil
	}
	switched, err := switcher.ExitToContext(ctx, d)
	if err != nil {
		s.logger.Debug("exit-context switch failed", "digit", string(d), "error", err)
		return nil
	}
	if !switched {
		return nil
	}
	return NewStatusError(StatusCapacity, "meetme: exit-context switch on digit %q", string(d))
}

// runStarMenu reads one menu digit and dispatches it to the admin plane
// (lock/eject-last/toggle-marked), the self-directed user menu
// (self-mute/volume/exit), or plays conf-errormenu on an unrecognized
// digit, returning to the main loop afterward.
func (s *Session) runStarMenu(ctx context.Context) error {
	collector := newDigitCollector(s.call)
	digit, err := collector.collect(ctx, 1, 0)
	if err != nil || digit == "" {
		return nil
	}

	cmd, ok := adminCommandForDigit(rune(digit[0]), s.p.Flags.Has(FlagAdmin))
	if !ok {
		if playErr := s.call.PlayPrompt(ctx, "conf-errormenu"); playErr != nil {
			s.logger.Debug("prompt playback failed", "prompt", "conf-errormenu", "error", playErr)
		}
		return nil
	}

	switch cmd {
	case AdminCommandToggleLock:
		return s.runAdminToggleLock(ctx)
	case AdminCommandEjectLast:
		return s.runAdminEjectLast(ctx)
	case AdminCommandToggleMarked:
		if err := AdminExec(s.conf, AdminCommandToggleMarked, s.p.UserNo); err != nil {
			s.logger.Warn("toggle marked", "error", err)
		}
		return nil
	default:
		return applyUserMenuCommand(ctx, s.call, s.p, cmd)
	}
}

// runAdminToggleLock toggles the conference lock and speaks the matching
// confirmation prompt.
func (s *Session) runAdminToggleLock(ctx context.Context) error {
	locked := !s.conf.Locked()
	s.conf.SetLocked(locked)
	prompt := "conf-lockednow"
	if !locked {
		prompt = "conf-unlockednow"
	}
	if err := s.call.PlayPrompt(ctx, prompt); err != nil {
		s.logger.Debug("prompt playback failed", "prompt", prompt, "error", err)
	}
	return nil
}

// runAdminEjectLast kicks the most recently joined non-admin participant.
// Refused with conf-errormenu when there is no eligible target (an empty
// or admin-only room, including the self-kick case since LastJoined never
// returns an admin).
func (s *Session) runAdminEjectLast(ctx context.Context) error {
	err := AdminExec(s.conf, AdminCommandEjectLast, 0)
	if errors.Is(err, ErrParticipantNotFound) {
		if playErr := s.call.PlayPrompt(ctx, "conf-errormenu"); playErr != nil {
			s.logger.Debug("prompt playback failed", "prompt", "conf-errormenu", "error", playErr)
		}
		return nil
	}
	if err != nil {
		s.logger.Warn("eject last", "error", err)
	}
	return nil
}

// teardown removes the participant from its conference and releases its
// mixer channel. When the leaving participant was the last one in the
// room, teardown moves an active recording to RecordingTerminating and
// hands the conference to the registry for unlinking without waiting for
// the recorder.
func (s *Session) teardown(ctx context.Context) {
	if s.conf == nil || s.p == nil {
		return
	}

	if s.shouldPlayJoinLeaveTone() {
		playLeaveTone(ctx, s.device, s.p.Handle)
	}
	resetVolume(s.call, &s.p.Talk, &s.p.Listen)

	s.device.Close(s.p.Handle)
	if _, err := s.conf.removeParticipant(s.p.UserNo); err != nil {
		s.logger.Warn("teardown: remove participant", "error", err)
	}

	if s.conf.UserCount() > 0 {
		return
	}

	s.registry.BeginTeardown(s.conf.Confno)
	if s.conf.RecordingStateNow() != RecordingOff {
		s.conf.StopRecording()
	}
	if err := s.registry.Unlink(s.conf.Confno); err != nil {
		s.logger.Warn("teardown: unlink conference", "error", err)
	}
	s.logger.Info("conference emptied", "confno", s.conf.Confno)
}
