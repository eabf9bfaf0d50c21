package session

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	"voxrec/encoder"
)

type batchStats struct {
	rawBytes uint64
	encodeMs float64
}

func (s batchStats) audioSeconds() float64 {
	return float64(s.rawBytes) / float64(encoder.SampleRate*encoder.Channels*(encoder.BitsPerSample/8))
}

func (s batchStats) compressionPct(encodedBytes int) float64 {
	if s.rawBytes == 0 {
		return 0
	}
	return (1.0 - float64(encodedBytes)/float64(s.rawBytes)) * 100
}

// batchBuffer accumulates capture chunks during a batch attempt and encodes
// them to FLAC concurrently, block by block, so that finish only has to
// flush the tail before the upload.
type batchBuffer struct {
	enc        *encoder.FlacEncoder
	blockCh    chan []int16
	encodeDone chan struct{}

	bufMu     sync.Mutex
	sampleBuf []int16
	stopped   atomic.Bool

	encMu  sync.Mutex
	encErr error
}

func newBatchBuffer() (*batchBuffer, error) {
	enc, err := encoder.NewFlac()
	if err != nil {
		return nil, err
	}

	bb := &batchBuffer{
		enc:        enc,
		blockCh:    make(chan []int16, 64),
		encodeDone: make(chan struct{}),
	}

	go func() {
		defer close(bb.encodeDone)
		for block := range bb.blockCh {
			start := time.Now()
			if err := bb.enc.EncodeBlock(block); err != nil {
				bb.encMu.Lock()
				if bb.encErr == nil {
					bb.encErr = err
				}
				bb.encMu.Unlock()
			}
			bb.enc.AddEncodeTime(time.Since(start))
		}
	}()

	return bb, nil
}

// abort discards the buffer after a failed start: the encode goroutine exits
// and the partial encoding is thrown away. Not valid after finish, or while a
// capture device is still feeding.
func (bb *batchBuffer) abort() {
	bb.stopped.Store(true)
	close(bb.blockCh)
	<-bb.encodeDone
}

// Feed is the capture callback. Chunks are split into encoder blocks and
// handed to the encode goroutine in production order.
func (bb *batchBuffer) Feed(pcm []byte, _ uint32) {
	if bb.stopped.Load() {
		return
	}

	bb.bufMu.Lock()
	for i := 0; i+1 < len(pcm); i += 2 {
		bb.sampleBuf = append(bb.sampleBuf, int16(binary.LittleEndian.Uint16(pcm[i:])))
	}
	var blocks [][]int16
	for len(bb.sampleBuf) >= encoder.BlockSize {
		block := make([]int16, encoder.BlockSize)
		copy(block, bb.sampleBuf[:encoder.BlockSize])
		bb.sampleBuf = bb.sampleBuf[encoder.BlockSize:]
		blocks = append(blocks, block)
	}
	bb.bufMu.Unlock()

	for _, block := range blocks {
		bb.blockCh <- block
	}
}

// finish flushes remaining samples, waits for encoding to complete, and
// returns the full encoded payload. Call only after the capture device has
// stopped producing.
func (bb *batchBuffer) finish() ([]byte, batchStats, error) {
	bb.stopped.Store(true)

	bb.bufMu.Lock()
	if len(bb.sampleBuf) > 0 {
		partial := make([]int16, len(bb.sampleBuf))
		copy(partial, bb.sampleBuf)
		bb.sampleBuf = nil
		bb.blockCh <- partial
	}
	bb.bufMu.Unlock()

	close(bb.blockCh)
	<-bb.encodeDone

	bb.encMu.Lock()
	encErr := bb.encErr
	bb.encMu.Unlock()
	if encErr != nil {
		return nil, batchStats{}, encErr
	}

	if err := bb.enc.Close(); err != nil {
		return nil, batchStats{}, err
	}

	stats := batchStats{
		rawBytes: bb.enc.TotalFrames() * 2,
		encodeMs: float64(bb.enc.EncodeTime().Milliseconds()),
	}
	return bb.enc.Bytes(), stats, nil
}
