// Package session coordinates one recording-and-transcription attempt: it
// owns the capture device and the service transport for the duration of the
// attempt and delivers results to a Sink. At most one attempt is active at a
// time; the state machine rejects anything else.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"voxrec/audio"
	"voxrec/encoder"
	"voxrec/log"
	"voxrec/transcriber"
)

type Mode int

const (
	ModeNone Mode = iota
	ModeLive
	ModeBatch
)

func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModeBatch:
		return "batch"
	default:
		return "none"
	}
}

type State int

const (
	StateIdle State = iota
	StateCapturing
	StateStreaming
	StateUploading
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateStreaming:
		return "streaming"
	case StateUploading:
		return "uploading"
	default:
		return "error"
	}
}

var (
	// ErrAlreadyActive rejects Start while an attempt is running.
	ErrAlreadyActive = errors.New("recording already active")
	// ErrCaptureUnavailable wraps capture acquisition failures.
	ErrCaptureUnavailable = errors.New("capture unavailable")
	// ErrTransport wraps live stream dial/send/receive failures.
	ErrTransport = errors.New("transcription transport error")
	// ErrTranscriptionFailed wraps batch request failures.
	ErrTranscriptionFailed = errors.New("transcription failed")
)

// Sink receives transcription results. Live partials arrive in receipt
// order, one call per service message; batch finals arrive exactly once per
// successful attempt.
type Sink interface {
	RecordLive(text string)
	RecordBatchFinal(text string)
}

type Config struct {
	Audio  audio.Context
	Device *audio.DeviceInfo
	Client transcriber.Client
	Sink   Sink

	// OnError is invoked for failures that happen after Start returned
	// (a live stream dying mid-attempt). Optional.
	OnError func(error)
}

// Manager drives the attempt state machine:
// Idle → Capturing → (Streaming | Uploading) → Idle, with Error reachable
// from any non-Idle state. Error is not sticky; the next Start clears it.
type Manager struct {
	cfg Config

	mu        sync.Mutex
	state     State
	mode      Mode
	attemptID uuid.UUID
	lastErr   error
	rec       *audio.Recorder
	live      *liveStream
	batch     *batchBuffer

	lastRecording []byte // encoded audio of the most recent batch attempt
}

func New(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Err returns the error that moved the machine into StateError, if any.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) AttemptID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attemptID.String()
}

// LastRecording returns the encoded audio of the most recent completed batch
// attempt, for export. Nil until one batch attempt has finished capturing.
func (m *Manager) LastRecording() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRecording
}

func captureConfig() audio.CaptureConfig {
	return audio.CaptureConfig{SampleRate: encoder.SampleRate, Channels: encoder.Channels}
}

// Start begins a new attempt. Rejected with ErrAlreadyActive unless the
// machine is Idle (or parked in Error from a previous attempt).
func (m *Manager) Start(ctx context.Context, mode Mode) error {
	if mode != ModeLive && mode != ModeBatch {
		return fmt.Errorf("unknown mode %q", mode)
	}

	m.mu.Lock()
	if m.state != StateIdle && m.state != StateError {
		m.mu.Unlock()
		return ErrAlreadyActive
	}
	m.state = StateCapturing
	m.mode = mode
	m.lastErr = nil
	m.attemptID = uuid.New()
	id := m.attemptID.String()
	m.mu.Unlock()

	log.AttemptStart(id, mode.String())

	var err error
	if mode == ModeLive {
		err = m.startLive(ctx)
	} else {
		err = m.startBatch()
	}
	if err != nil {
		log.AttemptEnd(id, mode.String(), err)
	}
	return err
}

func (m *Manager) startLive(ctx context.Context) error {
	ls := newLiveStream(m.cfg.Sink.RecordLive, m.streamFailed)

	rec, err := audio.Acquire(m.cfg.Audio, m.cfg.Device, captureConfig(), ls.Feed)
	if err != nil {
		return m.fail(fmt.Errorf("%w: %w", ErrCaptureUnavailable, err))
	}

	stream, err := m.cfg.Client.OpenStream(ctx)
	if err != nil {
		rec.Stop()
		return m.fail(fmt.Errorf("%w: %w", ErrTransport, err))
	}
	// Publish before rec.Start so a stream that dies immediately still hits
	// streamFailed with the resources it must release.
	m.mu.Lock()
	m.rec = rec
	m.live = ls
	m.state = StateStreaming
	m.mu.Unlock()
	ls.run(stream)

	if err := rec.Start(); err != nil {
		m.mu.Lock()
		owned := m.rec == rec
		if owned {
			m.rec, m.live = nil, nil
		}
		m.mu.Unlock()
		if !owned {
			// The stream already died and streamFailed cleaned up.
			return m.Err()
		}
		rec.Stop()
		ls.abort()
		return m.fail(fmt.Errorf("%w: %w", ErrCaptureUnavailable, err))
	}
	return nil
}

func (m *Manager) startBatch() error {
	bb, err := newBatchBuffer()
	if err != nil {
		return m.fail(fmt.Errorf("%w: %w", ErrTranscriptionFailed, err))
	}

	rec, err := audio.Acquire(m.cfg.Audio, m.cfg.Device, captureConfig(), bb.Feed)
	if err != nil {
		bb.abort()
		return m.fail(fmt.Errorf("%w: %w", ErrCaptureUnavailable, err))
	}
	if err := rec.Start(); err != nil {
		rec.Stop()
		bb.abort()
		return m.fail(fmt.Errorf("%w: %w", ErrCaptureUnavailable, err))
	}

	m.mu.Lock()
	m.rec = rec
	m.batch = bb
	m.state = StateUploading
	m.mu.Unlock()
	return nil
}

// Stop ends the active attempt. For live it closes the transport and returns
// immediately; for batch it uploads the buffered recording and suspends the
// caller until the final transcript (or failure) arrives. Stop on an idle
// machine is a no-op.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	state := m.state
	mode := m.mode
	id := m.attemptID.String()
	rec := m.rec
	ls := m.live
	bb := m.batch
	if rec == nil {
		// Nothing held: idle, errored, or another Stop already in flight.
		m.mu.Unlock()
		return nil
	}
	m.rec, m.live, m.batch = nil, nil, nil
	m.mu.Unlock()

	switch state {
	case StateStreaming:
		rec.Stop()
		stats := ls.stop()
		log.StreamMetrics(log.StreamMetricsData{
			ConnectMs:    stats.connectMs,
			TotalMs:      stats.totalMs,
			AudioS:       stats.audioSeconds(),
			SentChunks:   stats.sentChunks,
			SentKB:       float64(stats.sentBytes) / 1024,
			RecvMessages: stats.recvMessages,
			Partials:     stats.partials,
		})
		m.mu.Lock()
		m.state = StateIdle
		m.mode = ModeNone
		m.mu.Unlock()
		log.AttemptEnd(id, mode.String(), nil)
		return nil

	case StateUploading:
		err := m.finishBatch(ctx, rec, bb)
		log.AttemptEnd(id, mode.String(), err)
		return err

	default:
		// Idle, Error, or a Start still in flight: nothing to stop.
		return nil
	}
}

// finishBatch drains the recording, uploads it, and delivers the final text.
// Every exit, success or failure, ends the attempt for the log.
func (m *Manager) finishBatch(ctx context.Context, rec *audio.Recorder, bb *batchBuffer) error {
	rec.Stop()
	audioData, stats, err := bb.finish()
	if err != nil {
		return m.fail(fmt.Errorf("%w: %w", ErrTranscriptionFailed, err))
	}

	m.mu.Lock()
	m.lastRecording = audioData
	m.mu.Unlock()

	result, err := m.cfg.Client.Transcribe(ctx, audioData, "audio/flac")
	if err != nil {
		return m.fail(fmt.Errorf("%w: %w", ErrTranscriptionFailed, err))
	}

	// The final text is recorded exactly as the service returned it.
	m.cfg.Sink.RecordBatchFinal(result.Text)
	log.TranscriptionText(result.Text)
	log.BatchMetrics(log.BatchMetricsData{
		AudioLengthS:     stats.audioSeconds(),
		RawSizeKB:        float64(stats.rawBytes) / 1024,
		CompressedSizeKB: float64(len(audioData)) / 1024,
		CompressionPct:   stats.compressionPct(len(audioData)),
		EncodeTimeMs:     stats.encodeMs,
		TTFBMs:           float64(result.Metrics.TTFB.Milliseconds()),
		TotalTimeMs:      float64(result.Metrics.Total.Milliseconds()),
		ConnReused:       result.Metrics.ConnReused,
	})

	m.mu.Lock()
	m.state = StateIdle
	m.mode = ModeNone
	m.mu.Unlock()
	return nil
}

// fail releases nothing itself (callers clean up what they hold) and parks
// the machine in StateError with the given error.
func (m *Manager) fail(err error) error {
	m.mu.Lock()
	m.state = StateError
	m.lastErr = err
	m.mu.Unlock()
	log.Errorf("attempt failed: %v", err)
	return err
}

// streamFailed handles a live transport dying mid-attempt: release the
// device, drop the stream, park in Error, surface the failure once.
func (m *Manager) streamFailed(err error) {
	werr := fmt.Errorf("%w: %w", ErrTransport, err)

	m.mu.Lock()
	if m.state != StateStreaming {
		m.mu.Unlock()
		return
	}
	rec := m.rec
	ls := m.live
	id := m.attemptID.String()
	mode := m.mode
	m.rec, m.live = nil, nil
	m.state = StateError
	m.lastErr = werr
	m.mu.Unlock()

	if rec != nil {
		rec.Stop()
	}
	if ls != nil {
		ls.abort()
	}
	log.AttemptEnd(id, mode.String(), werr)
	if m.cfg.OnError != nil {
		m.cfg.OnError(werr)
	}
}
