package meetme

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// wavHeaderSize is the size of the WAV file header this recorder writes.
const wavHeaderSize = 44

// wavFormatPCMU is the WAVE_FORMAT code for G.711 u-law.
const wavFormatPCMU = 7

// Recorder captures a conference's mixed output to a G.711 u-law WAV
// file: one instance per conference, created by RecorderManager.Start and
// finalized by RecorderManager.Stop. Nothing in this package starts or
// stops a recording when a FlagRecordConference participant joins or
// leaves.
//
// WriteSamples is called once per mix cycle from whatever drives the
// conference's audio (normally the session forwarding its own mixed
// frame, since this package has no separate mixer-side hook into the
// device); Stop finalizes the header and closes the file exactly once.
type Recorder struct {
	mu       sync.Mutex
	file     *os.File
	filePath string
	dataSize uint32
	stopped  bool
	logger   *slog.Logger
}

// NewRecorder creates a recorder writing to filePath, creating the file
// immediately with a placeholder header that Stop rewrites with the
// final size.
func NewRecorder(filePath string, logger *slog.Logger) (*Recorder, error) {
	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("meetme: creating recording file: %w", err)
	}
	if err := writeRecorderWAVHeader(f, 0); err != nil {
		f.Close()
		os.Remove(filePath)
		return nil, fmt.Errorf("meetme: writing wav header: %w", err)
	}

	logger.Info("conference recording started", "file", filePath)
	return &Recorder{
		file:     f,
		filePath: filePath,
		logger:   logger.With("subsystem", "conference-recorder"),
	}, nil
}

// WriteSamples encodes a linear PCM frame to G.711 u-law and appends it
// to the WAV file. Safe to call after Stop (becomes a no-op).
func (r *Recorder) WriteSamples(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}

	buf := make([]byte, len(samples))
	for i, s := range samples {
		buf[i] = linearToUlaw[uint16(s)]
	}

	n, err := r.file.Write(buf)
	if err != nil {
		r.logger.Error("failed to write recording data", "error", err)
		return
	}
	r.dataSize += uint32(n)
}

// Stop finalizes the WAV header with the actual data size and closes the
// file. Must be called exactly once; subsequent calls are no-ops
// returning the same result.
func (r *Recorder) Stop() (filePath string, durationSecs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return r.filePath, int(r.dataSize / 8000)
	}
	r.stopped = true

	if _, err := r.file.Seek(0, 0); err != nil {
		r.logger.Error("failed to seek for wav header rewrite", "error", err)
	} else if err := writeRecorderWAVHeader(r.file, r.dataSize); err != nil {
		r.logger.Error("failed to rewrite wav header", "error", err)
	}
	r.file.Close()

	durationSecs = int(r.dataSize / 8000)
	r.logger.Info("conference recording stopped", "file", r.filePath, "duration_secs", durationSecs)
	return r.filePath, durationSecs
}

// FilePath returns the recording's destination path.
func (r *Recorder) FilePath() string { return r.filePath }

func writeRecorderWAVHeader(f *os.File, dataSize uint32) error {
	var hdr [wavHeaderSize]byte

	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], wavHeaderSize-8+dataSize)
	copy(hdr[8:12], "WAVE")

	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], wavFormatPCMU)
	binary.LittleEndian.PutUint16(hdr[22:24], 1)
	binary.LittleEndian.PutUint32(hdr[24:28], 8000)
	binary.LittleEndian.PutUint32(hdr[28:32], 8000)
	binary.LittleEndian.PutUint16(hdr[32:34], 1)
	binary.LittleEndian.PutUint16(hdr[34:36], 8)

	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], dataSize)

	_, err := f.Write(hdr[:])
	return err
}

// RecorderManager owns the one-Recorder-per-conference lifecycle, keyed
// by confno. Start moves the Conference to RecordingActive; Stop
// finalizes the file but does not change the Conference's recording
// state, which never returns to RecordingOff.
type RecorderManager struct {
	dataDir string
	logger  *slog.Logger

	mu        sync.Mutex
	recorders map[string]*Recorder
}

// NewRecorderManager constructs a manager holding dataDir. Start writes
// each recording to the file path its caller supplies.
func NewRecorderManager(dataDir string, logger *slog.Logger) *RecorderManager {
	return &RecorderManager{
		dataDir:   dataDir,
		logger:    logger.With("subsystem", "recorder-manager"),
		recorders: make(map[string]*Recorder),
	}
}

// Start begins recording conf if not already recording, returning the
// Recorder so the caller can feed it WriteSamples from the audio pump.
func (m *RecorderManager) Start(conf *Conference, filePath string) (*Recorder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.recorders[conf.Confno]; ok {
		return rec, nil
	}
	rec, err := NewRecorder(filePath, m.logger)
	if err != nil {
		return nil, err
	}
	m.recorders[conf.Confno] = rec
	conf.StartRecording(filePath)
	return rec, nil
}

// Stop finalizes and removes the recorder for confno, if any.
func (m *RecorderManager) Stop(confno string) error {
	m.mu.Lock()
	rec, ok := m.recorders[confno]
	if !ok {
		m.mu.Unlock()
		return ErrNoRecorder
	}
	delete(m.recorders, confno)
	m.mu.Unlock()

	rec.Stop()
	return nil
}
