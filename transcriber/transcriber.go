// Package transcriber talks to the hosted speech-to-text service over its
// two transports: a one-shot batch upload and a live websocket stream.
package transcriber

import (
	"context"
	"net/http"
)

// Result is the outcome of one batch transcription request.
type Result struct {
	Text       string
	Confidence float64
	Duration   float64
	Metrics    *NetworkMetrics
	RateLimit  string // "remaining/limit" or empty
}

// Update is one message received on a live stream. An empty Transcript means
// the service has nothing yet; it is not an error.
type Update struct {
	Transcript string
	IsFinal    bool
}

// Stream is an open live-transcription connection. Send forwards raw audio
// bytes in production order; Recv blocks for the next service message.
type Stream interface {
	Send(ctx context.Context, chunk []byte) error
	Recv(ctx context.Context) (Update, error)
	Close() error
}

// Client is a speech service reachable over both transports.
type Client interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, contentType string) (*Result, error)
	OpenStream(ctx context.Context) (Stream, error)
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}
