package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"voxrec/encoder"
	"voxrec/log"
	"voxrec/transcriber"
)

const (
	liveChunkMs    = 100
	liveChunkBytes = encoder.SampleRate * encoder.Channels * (encoder.BitsPerSample / 8) * liveChunkMs / 1000

	recvDrainTimeout = 2 * time.Second
)

type liveStats struct {
	connectMs    float64
	totalMs      float64
	sentChunks   int
	sentBytes    uint64
	recvMessages int
	partials     int
}

func (s liveStats) audioSeconds() float64 {
	return float64(s.sentBytes) / float64(encoder.SampleRate*encoder.Channels*(encoder.BitsPerSample/8))
}

// liveStream forwards capture chunks to an open transcriber.Stream in
// production order and delivers every non-empty transcript to onPartial in
// receipt order. One sender and one receiver goroutine; nothing is buffered
// client-side beyond the chunk being assembled.
type liveStream struct {
	stream    transcriber.Stream
	ctx       context.Context
	cancel    context.CancelFunc
	startedAt time.Time

	audioCh  chan []byte
	flushCh  chan struct{}
	sendDone chan struct{}
	recvDone chan struct{}

	feedMu  sync.Mutex
	feedBuf []byte

	stopped  atomic.Bool
	failOnce sync.Once

	onPartial func(string)
	onFail    func(error)

	statsMu sync.Mutex
	stats   liveStats
}

func newLiveStream(onPartial func(string), onFail func(error)) *liveStream {
	ctx, cancel := context.WithCancel(context.Background())
	return &liveStream{
		ctx:       ctx,
		cancel:    cancel,
		startedAt: time.Now(),
		audioCh:   make(chan []byte, 128),
		flushCh:   make(chan struct{}),
		sendDone:  make(chan struct{}),
		recvDone:  make(chan struct{}),
		onPartial: onPartial,
		onFail:    onFail,
	}
}

// run attaches the dialed stream and starts the pipeline. Chunks fed before
// run sit in audioCh and go out first.
func (ls *liveStream) run(stream transcriber.Stream) {
	ls.statsMu.Lock()
	ls.stats.connectMs = float64(time.Since(ls.startedAt).Milliseconds())
	ls.statsMu.Unlock()

	ls.stream = stream
	go ls.runSender()
	go ls.runReceiver()
}

// Feed is the capture callback. It groups arbitrary capture frames into
// fixed ~100ms chunks and queues them in production order.
func (ls *liveStream) Feed(pcm []byte, _ uint32) {
	if ls.stopped.Load() {
		return
	}

	ls.feedMu.Lock()
	ls.feedBuf = append(ls.feedBuf, pcm...)
	var chunks [][]byte
	for len(ls.feedBuf) >= liveChunkBytes {
		chunk := make([]byte, liveChunkBytes)
		copy(chunk, ls.feedBuf[:liveChunkBytes])
		ls.feedBuf = ls.feedBuf[liveChunkBytes:]
		chunks = append(chunks, chunk)
	}
	ls.feedMu.Unlock()

	for _, chunk := range chunks {
		select {
		case ls.audioCh <- chunk:
		case <-ls.ctx.Done():
			return
		}
	}
}

// stop flushes the partial tail chunk, closes the transport, and waits for
// the pipeline to drain. No partials are delivered after stop.
func (ls *liveStream) stop() liveStats {
	ls.stopped.Store(true)

	ls.feedMu.Lock()
	tail := ls.feedBuf
	ls.feedBuf = nil
	ls.feedMu.Unlock()
	if len(tail) > 0 {
		select {
		case ls.audioCh <- tail:
		case <-ls.ctx.Done():
		}
	}

	close(ls.flushCh)
	select {
	case <-ls.sendDone:
	case <-time.After(recvDrainTimeout):
		log.Warn("live sender drain timeout")
	}

	ls.stream.Close()
	ls.cancel()
	select {
	case <-ls.recvDone:
	case <-time.After(recvDrainTimeout):
		log.Warn("live receiver drain timeout")
	}

	ls.statsMu.Lock()
	ls.stats.totalMs = float64(time.Since(ls.startedAt).Milliseconds())
	stats := ls.stats
	ls.statsMu.Unlock()
	return stats
}

// abort tears the pipeline down without draining. Never blocks; safe to
// call from the pipeline's own goroutines via the failure path.
func (ls *liveStream) abort() {
	ls.stopped.Store(true)
	ls.cancel()
	if ls.stream != nil {
		ls.stream.Close()
	}
}

func (ls *liveStream) fail(err error) {
	ls.failOnce.Do(func() {
		ls.cancel()
		if ls.onFail != nil {
			ls.onFail(err)
		}
	})
}

func (ls *liveStream) runSender() {
	defer close(ls.sendDone)
	for {
		select {
		case chunk := <-ls.audioCh:
			if !ls.send(chunk) {
				return
			}
		case <-ls.flushCh:
			for {
				select {
				case chunk := <-ls.audioCh:
					if !ls.send(chunk) {
						return
					}
				default:
					return
				}
			}
		case <-ls.ctx.Done():
			return
		}
	}
}

func (ls *liveStream) send(chunk []byte) bool {
	if err := ls.stream.Send(ls.ctx, chunk); err != nil {
		if !ls.stopped.Load() {
			ls.fail(err)
		}
		return false
	}
	ls.statsMu.Lock()
	ls.stats.sentChunks++
	ls.stats.sentBytes += uint64(len(chunk))
	ls.statsMu.Unlock()
	return true
}

func (ls *liveStream) runReceiver() {
	defer close(ls.recvDone)
	for {
		update, err := ls.stream.Recv(ls.ctx)
		if err != nil {
			if ls.stopped.Load() || ls.ctx.Err() != nil {
				return
			}
			ls.fail(err)
			return
		}

		ls.statsMu.Lock()
		ls.stats.recvMessages++
		if update.Transcript != "" {
			ls.stats.partials++
		}
		ls.statsMu.Unlock()

		if update.Transcript == "" || ls.stopped.Load() {
			continue
		}
		ls.onPartial(update.Transcript)
	}
}
