package transcriber

import (
	"context"
	"io"
)

// FakeClient is a scripted speech service for tests and replay mode.
type FakeClient struct {
	BatchText string
	BatchErr  error
	Partials  []string
	DialErr   error
	// RecvErr, when set, is returned by Recv once the scripted partials are
	// exhausted, as if the connection dropped mid-stream.
	RecvErr error
}

func (f *FakeClient) Name() string { return "fake" }

func (f *FakeClient) Transcribe(_ context.Context, _ []byte, _ string) (*Result, error) {
	if f.BatchErr != nil {
		return nil, f.BatchErr
	}
	return &Result{Text: f.BatchText, Metrics: &NetworkMetrics{}}, nil
}

func (f *FakeClient) OpenStream(_ context.Context) (Stream, error) {
	if f.DialErr != nil {
		return nil, f.DialErr
	}
	return &fakeStream{partials: f.Partials, recvErr: f.RecvErr, closed: make(chan struct{})}, nil
}

type fakeStream struct {
	partials []string
	recvErr  error
	next     int
	closed   chan struct{}
}

func (s *fakeStream) Send(_ context.Context, _ []byte) error { return nil }

func (s *fakeStream) Recv(ctx context.Context) (Update, error) {
	if s.next < len(s.partials) {
		u := Update{Transcript: s.partials[s.next]}
		s.next++
		return u, nil
	}
	if s.recvErr != nil {
		return Update{}, s.recvErr
	}
	// Script exhausted: block until the stream is closed, like a quiet
	// microphone would.
	select {
	case <-s.closed:
		return Update{}, io.EOF
	case <-ctx.Done():
		return Update{}, ctx.Err()
	}
}

func (s *fakeStream) Close() error {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	return nil
}
