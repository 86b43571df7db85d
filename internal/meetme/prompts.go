package meetme

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// wavHeaderInfo holds the fields of a parsed WAV header needed to decode
// a prompt file into linear PCM frames.
type wavHeaderInfo struct {
	AudioFormat uint16
	NumChannels uint16
	SampleRate  uint32
	DataSize    uint32
}

// parsePromptWAVHeader reads and validates a prompt WAV file's header,
// leaving r positioned at the start of the data chunk.
func parsePromptWAVHeader(r io.ReadSeeker) (*wavHeaderInfo, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("meetme: reading riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, fmt.Errorf("meetme: not a RIFF/WAVE file")
	}

	hdr := &wavHeaderInfo{}
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return nil, fmt.Errorf("meetme: reading chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			var fmtBody [16]byte
			if _, err := io.ReadFull(r, fmtBody[:]); err != nil {
				return nil, fmt.Errorf("meetme: reading fmt chunk: %w", err)
			}
			hdr.AudioFormat = binary.LittleEndian.Uint16(fmtBody[0:2])
			hdr.NumChannels = binary.LittleEndian.Uint16(fmtBody[2:4])
			hdr.SampleRate = binary.LittleEndian.Uint32(fmtBody[4:8])
			if size > 16 {
				if _, err := r.Seek(int64(size-16), io.SeekCurrent); err != nil {
					return nil, err
				}
			}
		case "data":
			hdr.DataSize = size
			return hdr, nil
		default:
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("meetme: skipping chunk %q: %w", id, err)
			}
		}
	}
}

// PromptPlayer resolves a prompt name (e.g. "conf-locked") to audio and
// delivers it frame by frame, the Prompt/Tone Layer's production
// boundary. Call.PlayPrompt implementations typically delegate to one of
// these per call.
type PromptPlayer interface {
	// Frames returns the prompt's audio as a sequence of confSampleCount
	// linear PCM frames, or an error if the prompt cannot be resolved.
	// A missing prompt is reported via a StatusError tagged
	// StatusInvalidInput so callers can treat it as a tolerated no-op,
	// not a fatal device error.
	Frames(name, language string) ([][]int16, error)
}

// FilePromptPlayer resolves prompts from WAV files under
// baseDir/<language>/<name>.wav, falling back to baseDir/<name>.wav when
// no language-specific file exists.
type FilePromptPlayer struct {
	baseDir string
	logger  *slog.Logger
}

// NewFilePromptPlayer constructs a player rooted at baseDir. The embedded
// default prompts are extracted to dataDir/prompts/system.
func NewFilePromptPlayer(baseDir string, logger *slog.Logger) *FilePromptPlayer {
	return &FilePromptPlayer{baseDir: baseDir, logger: logger.With("subsystem", "prompt-player")}
}

func (p *FilePromptPlayer) Frames(name, language string) ([][]int16, error) {
	path := filepath.Join(p.baseDir, language, name+".wav")
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(p.baseDir, name+".wav")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, NewStatusError(StatusInvalidInput, "meetme: prompt %q not found: %w", name, err)
	}
	defer f.Close()

	hdr, err := parsePromptWAVHeader(f)
	if err != nil {
		return nil, NewStatusError(StatusInvalidInput, "meetme: prompt %q: %w", name, err)
	}
	if hdr.NumChannels != 1 {
		return nil, NewStatusError(StatusInvalidInput, "meetme: prompt %q: only mono supported", name)
	}

	data, err := io.ReadAll(io.LimitReader(f, int64(hdr.DataSize)))
	if err != nil {
		return nil, NewStatusError(StatusDeviceError, "meetme: prompt %q: reading data: %w", name, err)
	}

	var samples []int16
	switch hdr.AudioFormat {
	case wavFormatPCMU:
		samples = make([]int16, len(data))
		for i, b := range data {
			samples[i] = ulawToLinear[b]
		}
	case 1: // PCM linear 16-bit
		samples = make([]int16, len(data)/2)
		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		}
	default:
		return nil, NewStatusError(StatusInvalidInput, "meetme: prompt %q: unsupported audio format %d", name, hdr.AudioFormat)
	}

	var frames [][]int16
	for offset := 0; offset < len(samples); offset += confSampleCount {
		end := offset + confSampleCount
		if end > len(samples) {
			end = len(samples)
		}
		frame := make([]int16, confSampleCount)
		copy(frame, samples[offset:end])
		frames = append(frames, frame)
	}
	return frames, nil
}

// FakePromptPlayer is a PromptPlayer test double that returns scripted
// frames for known prompt names and StatusInvalidInput otherwise.
type FakePromptPlayer struct {
	Scripted map[string][][]int16
}

func (p *FakePromptPlayer) Frames(name, language string) ([][]int16, error) {
	frames, ok := p.Scripted[name]
	if !ok {
		return nil, NewStatusError(StatusInvalidInput, "meetme: prompt %q not scripted", name)
	}
	return frames, nil
}

// AnnounceToConference plays the named prompt to every current
// participant of conf by writing its frames to each participant's mixer
// channel, used for room-wide announcements like "conf-lockednow" after
// an admin toggles the lock. A missing or unscripted prompt is silently
// ignored.
func AnnounceToConference(ctx context.Context, conf *Conference, device MixerDevice, player PromptPlayer, name, language string) {
	frames, err := player.Frames(name, language)
	if err != nil {
		return
	}
	for _, p := range conf.Participants() {
		for _, frame := range frames {
			if err := device.Write(ctx, p.Handle, frame); err != nil {
				break
			}
		}
	}
}

// DefaultPromptNames lists every prompt the conference core itself may
// play.
var DefaultPromptNames = []string{
	"conf-getpin",
	"conf-invalidpin",
	"conf-invalid",
	"conf-locked",
	"conf-lockednow",
	"conf-unlockednow",
	"conf-onlyperson",
	"conf-waitforleader",
	"conf-placeintoconf",
	"conf-leaderhasleft",
	"conf-kicked",
	"conf-errormenu",
	"conf-hasleft",
	"conf-hasjoin",
	"conf-now-muted",
	"conf-now-unmuted",
}
