// Package prompts provides embedded default system audio prompts for the
// conference bridge. These are G.711 u-law WAV files (8kHz, mono, 8-bit)
// suitable for direct RTP playback without transcoding.
//
// The embedded prompts are extracted to the data directory on first
// boot so they can be served by the prompt player. Custom prompts
// uploaded by operators are stored separately in the custom/ subdirectory.
package prompts

import "embed"

// SystemFS holds the default system audio prompts embedded in the binary.
// Files are under system/ (e.g. system/conf-getpin.wav).
//
//go:embed system/*.wav
var SystemFS embed.FS

// SystemPrompts lists the filenames of all default system prompts.
// These are extracted to $DATA_DIR/prompts/system/ on first boot.
var SystemPrompts = []string{
	"conf-getpin.wav",
	"conf-invalidpin.wav",
	"conf-invalid.wav",
	"conf-locked.wav",
	"conf-lockednow.wav",
	"conf-unlockednow.wav",
	"conf-onlyperson.wav",
	"conf-waitforleader.wav",
	"conf-placeintoconf.wav",
	"conf-leaderhasleft.wav",
	"conf-kicked.wav",
	"conf-errormenu.wav",
	"conf-hasleft.wav",
	"conf-hasjoin.wav",
	"conf-now-muted.wav",
	"conf-now-unmuted.wav",
}
