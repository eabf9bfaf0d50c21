package audio

import (
	"errors"
	"strings"
	"sync"
)

const WAVHeaderSize = 44

// Capture boundary failures. Backends return wrapped platform errors;
// ClassifyAcquireError maps them onto these two kinds.
var (
	ErrPermissionDenied  = errors.New("microphone access denied")
	ErrDeviceUnavailable = errors.New("capture device unavailable")
)

// ClassifyAcquireError folds a backend acquire failure into one of the two
// capture error kinds, keeping the original error in the chain.
func ClassifyAcquireError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, kw := range []string{"denied", "permission", "not authorized", "unauthorized"} {
		if strings.Contains(msg, kw) {
			return errors.Join(ErrPermissionDenied, err)
		}
	}
	return errors.Join(ErrDeviceUnavailable, err)
}

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
}

// Recorder is the acquired audio source for one recording attempt. It owns
// the underlying capture device exclusively until Stop.
type Recorder struct {
	dev CaptureDevice

	mu      sync.Mutex
	stopped bool
}

// Acquire opens the capture device and registers the chunk callback. The
// platform microphone-in-use indicator lights up here, not at Start.
func Acquire(ctx Context, device *DeviceInfo, cfg CaptureConfig, cb DataCallback) (*Recorder, error) {
	dev, err := ctx.NewCapture(device, cfg)
	if err != nil {
		return nil, ClassifyAcquireError(err)
	}
	dev.SetCallback(cb)
	return &Recorder{dev: dev}, nil
}

func (r *Recorder) Start() error {
	if err := r.dev.Start(); err != nil {
		r.Stop()
		return ClassifyAcquireError(err)
	}
	return nil
}

// Stop halts chunk production and releases the device. Safe to call more
// than once and on every exit path, including after errors.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	r.dev.ClearCallback()
	r.dev.Stop()
	r.dev.Close()
}
