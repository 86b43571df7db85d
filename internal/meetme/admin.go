package meetme

import "context"

// AdminCommand enumerates the conference control operations reachable
// both from the in-call star menu and the programmatic Admin Plane
// (MeetMeAdmin / the HTTP surface). The CLI dispatch and the programmatic
// dispatch are two separate functions sharing this one enum, rather than
// a single argv-rewriting command string.
type AdminCommand int

const (
	AdminCommandNone AdminCommand = iota
	AdminCommandToggleLock
	AdminCommandEjectLast
	AdminCommandToggleMarked
	AdminCommandMute
	AdminCommandUnmute
	AdminCommandKick
	AdminCommandVolumeUp
	AdminCommandVolumeDown
	AdminCommandListenVolumeUp
	AdminCommandListenVolumeDown
	// AdminCommandToggleSelfMute is user/admin menu digit '1': the
	// participant's own mute toggle, distinct from AdminCommandMute which
	// is the admin plane acting on someone else.
	AdminCommandToggleSelfMute
	// AdminCommandMenuExit is user menu digit '8': leave the menu with no
	// other side effect.
	AdminCommandMenuExit
)

// adminCommandForDigit maps a star-menu digit to an AdminCommand,
// mirroring the reference digit layout: 1=self-mute, 4=listen down,
// 6=listen up, 7=talk down, 9=talk up, 8=exit menu (user only).
// Lock/eject-last/toggle-marked (2/3/5) are admin-only.
func adminCommandForDigit(digit rune, isAdmin bool) (AdminCommand, bool) {
	switch digit {
	case '1':
		return AdminCommandToggleSelfMute, true
	case '4':
		return AdminCommandListenVolumeDown, true
	case '6':
		return AdminCommandListenVolumeUp, true
	case '7':
		return AdminCommandVolumeDown, true
	case '9':
		return AdminCommandVolumeUp, true
	case '8':
		if isAdmin {
			return AdminCommandNone, false
		}
		return AdminCommandMenuExit, true
	}
	if !isAdmin {
		return AdminCommandNone, false
	}
	switch digit {
	case '2':
		return AdminCommandToggleLock, true
	case '3':
		return AdminCommandEjectLast, true
	case '5':
		return AdminCommandToggleMarked, true
	default:
		return AdminCommandNone, false
	}
}

// applyUserMenuCommand executes a self-directed menu command (self-mute,
// volume controls, menu exit) against the calling participant. Commands
// that act on the whole conference (lock, eject, toggle-marked) go
// through AdminExec instead since they need the Conference, not just the
// Participant.
func applyUserMenuCommand(ctx context.Context, call Call, p *Participant, cmd AdminCommand) error {
	switch cmd {
	case AdminCommandToggleSelfMute:
		toggleSelfMute(ctx, call, p)
	case AdminCommandVolumeUp:
		applyVolumeStep(call, VolumeTalk, &p.Talk, true)
	case AdminCommandVolumeDown:
		applyVolumeStep(call, VolumeTalk, &p.Talk, false)
	case AdminCommandListenVolumeUp:
		applyVolumeStep(call, VolumeListen, &p.Listen, true)
	case AdminCommandListenVolumeDown:
		applyVolumeStep(call, VolumeListen, &p.Listen, false)
	case AdminCommandMenuExit:
	}
	return nil
}

// toggleSelfMute flips the participant's own self-muted bit. Re-enabling
// talk is refused (the participant stays muted) when the admin plane has
// independently set AdminFlagMuted, matching the user-menu's "refuse to
// unmute if admin-muted" rule.
func toggleSelfMute(ctx context.Context, call Call, p *Participant) {
	if p.Admin.Has(AdminFlagSelfMuted) {
		if p.Admin.Has(AdminFlagMuted) {
			playPromptLogged(ctx, call, "conf-now-muted")
			return
		}
		p.Admin &^= AdminFlagSelfMuted
		playPromptLogged(ctx, call, "conf-now-unmuted")
		return
	}
	p.Admin |= AdminFlagSelfMuted
	playPromptLogged(ctx, call, "conf-now-muted")
}

// playPromptLogged plays name on call, logging (not failing) on error —
// every star-menu confirmation prompt is a courtesy, never load-bearing.
func playPromptLogged(ctx context.Context, call Call, name string) {
	_ = call.PlayPrompt(ctx, name)
}

// AdminExec is the programmatic Admin Plane entry point: executes cmd
// against conf, optionally targeting a specific participant by userNo
// (ignored for conference-wide commands like ToggleLock).
func AdminExec(conf *Conference, cmd AdminCommand, userNo int) error {
	switch cmd {
	case AdminCommandToggleLock:
		conf.SetLocked(!conf.Locked())
		return nil

	case AdminCommandEjectLast:
		p := conf.LastJoined()
		if p == nil {
			return ErrParticipantNotFound
		}
		p.Admin |= AdminFlagKickMe
		return nil

	case AdminCommandToggleMarked:
		return conf.toggleMarked(userNo)

	case AdminCommandMute:
		return setParticipantMuted(conf, userNo, true)

	case AdminCommandUnmute:
		return setParticipantMuted(conf, userNo, false)

	case AdminCommandKick:
		p, err := conf.Participant(userNo)
		if err != nil {
			return err
		}
		p.Admin |= AdminFlagKickMe
		return nil

	default:
		return NewStatusError(StatusInvalidInput, "meetme: unsupported admin command %d", cmd)
	}
}

// setParticipantMuted sets or clears a participant's runtime muted flag,
// the admin plane's direct mute/unmute verb (distinct from a
// participant's own self-mute, which is AdminFlagSelfMuted).
func setParticipantMuted(conf *Conference, userNo int, muted bool) error {
	p, err := conf.Participant(userNo)
	if err != nil {
		return err
	}
	if muted {
		p.Admin |= AdminFlagMuted
	} else {
		p.Admin &^= AdminFlagMuted
	}
	return nil
}

// AdminCommandFromCLIVerb maps the CLI's human-readable verb spelling
// (as used by the `meetme` command-line tool) to an AdminCommand. This is
// the CLI-facing half of the split dispatch described above.
func AdminCommandFromCLIVerb(verb string) (AdminCommand, bool) {
	switch verb {
	case "lock", "unlock":
		return AdminCommandToggleLock, true
	case "kick":
		return AdminCommandKick, true
	case "mute":
		return AdminCommandMute, true
	case "unmute":
		return AdminCommandUnmute, true
	default:
		return AdminCommandNone, false
	}
}
