package redis

import (
	"context"
	"errors"
	"log"
	"sync"

	"wallet-tracker/internal/model"
)

// BufferedWriter wraps a publisher with a circuit breaker. While the
// circuit is open, events are kept in a bounded local buffer and replayed
// once the circuit closes again.
type BufferedWriter struct {
	pub model.TradePublisher
	cb  *CircuitBreaker
	ctx context.Context

	mu     sync.Mutex
	buffer []model.TradeEvent
	maxBuf int

	OnBuffer func()          // a write was buffered
	OnFlush  func(count int) // buffered writes were replayed
}

var _ model.TradePublisher = (*BufferedWriter)(nil)

// NewBufferedWriter creates a BufferedWriter. ctx bounds replays triggered
// by circuit recovery. maxBufferSize <= 0 means 10000.
func NewBufferedWriter(ctx context.Context, pub model.TradePublisher, cb *CircuitBreaker, maxBufferSize int) *BufferedWriter {
	if maxBufferSize <= 0 {
		maxBufferSize = 10000
	}
	bw := &BufferedWriter{
		pub:    pub,
		cb:     cb,
		ctx:    ctx,
		buffer: make([]model.TradeEvent, 0, 64),
		maxBuf: maxBufferSize,
	}

	prev := cb.OnStateChange
	cb.OnStateChange = func(from, to State) {
		if prev != nil {
			prev(from, to)
		}
		if to == StateClosed {
			go bw.Flush(bw.ctx)
		}
	}
	return bw
}

// PublishTrade publishes through the circuit breaker. An open circuit
// buffers the event and returns nil; other failures are returned.
func (bw *BufferedWriter) PublishTrade(ctx context.Context, rec model.TradeRecord, stats model.Stats) error {
	err := bw.cb.Execute(func() error {
		return bw.pub.PublishTrade(ctx, rec, stats)
	})
	if errors.Is(err, ErrCircuitOpen) {
		bw.bufferWrite(model.TradeEvent{Record: rec, Stats: stats})
		return nil
	}
	return err
}

// Run publishes events from ch until ctx ends or ch is closed, then
// flushes anything still buffered.
func (bw *BufferedWriter) Run(ctx context.Context, ch <-chan model.TradeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := bw.PublishTrade(ctx, ev.Record, ev.Stats); err != nil {
				log.Printf("[redis] publish %s: %v", ev.Record.TxID, err)
			}
		}
	}
}

func (bw *BufferedWriter) bufferWrite(ev model.TradeEvent) {
	bw.mu.Lock()
	if len(bw.buffer) >= bw.maxBuf {
		bw.buffer = bw.buffer[1:]
	}
	bw.buffer = append(bw.buffer, ev)
	bw.mu.Unlock()

	if bw.OnBuffer != nil {
		bw.OnBuffer()
	}
}

// Flush replays buffered events in order. Events that fail again are
// put back at the front of the buffer.
func (bw *BufferedWriter) Flush(ctx context.Context) int {
	bw.mu.Lock()
	if len(bw.buffer) == 0 {
		bw.mu.Unlock()
		return 0
	}
	toFlush := bw.buffer
	bw.buffer = make([]model.TradeEvent, 0, 64)
	bw.mu.Unlock()

	flushed := 0
	for i, ev := range toFlush {
		if err := bw.pub.PublishTrade(ctx, ev.Record, ev.Stats); err != nil {
			log.Printf("[redis] flush stopped at %s: %v", ev.Record.TxID, err)
			bw.mu.Lock()
			bw.buffer = append(append([]model.TradeEvent{}, toFlush[i:]...), bw.buffer...)
			if over := len(bw.buffer) - bw.maxBuf; over > 0 {
				bw.buffer = bw.buffer[over:]
			}
			bw.mu.Unlock()
			break
		}
		flushed++
	}

	if flushed > 0 {
		log.Printf("[redis] flushed %d buffered writes", flushed)
		if bw.OnFlush != nil {
			bw.OnFlush(flushed)
		}
	}
	return flushed
}

// PendingCount returns the number of buffered writes.
func (bw *BufferedWriter) PendingCount() int {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return len(bw.buffer)
}
