// Package bus fans new ledger entries out from the polling cycle to the
// outbound sinks (redis, websocket feed, notifier).
package bus

import (
	"context"
	"log"
	"sync"

	"wallet-tracker/internal/model"
)

type subscriber struct {
	name string
	ch   chan model.TradeEvent
}

// FanOut broadcasts trade events from one input channel to N named output
// channels. If an output channel is full the event is dropped for that
// consumer so a slow sink never stalls the tracker.
type FanOut struct {
	in chan model.TradeEvent

	mu      sync.RWMutex
	outputs []subscriber
	bufSize int

	// OnDrop is called when an event is dropped for a subscriber.
	OnDrop func(subscriber string)
}

var _ model.TradePublisher = (*FanOut)(nil)

// New creates a FanOut. inputSize bounds how many events may queue before
// PublishTrade blocks; outputSize is the buffer of each subscriber.
func New(inputSize, outputSize int) *FanOut {
	return &FanOut{
		in:      make(chan model.TradeEvent, inputSize),
		bufSize: outputSize,
	}
}

// Subscribe creates and returns a new output channel. Subscribe before Run.
func (f *FanOut) Subscribe(name string) <-chan model.TradeEvent {
	ch := make(chan model.TradeEvent, f.bufSize)
	f.mu.Lock()
	f.outputs = append(f.outputs, subscriber{name: name, ch: ch})
	f.mu.Unlock()
	return ch
}

// PublishTrade queues an event for fan-out. It blocks only while the input
// buffer is full and returns ctx.Err() if ctx ends first.
func (f *FanOut) PublishTrade(ctx context.Context, rec model.TradeRecord, stats model.Stats) error {
	select {
	case f.in <- model.TradeEvent{Record: rec, Stats: stats}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run fans queued events out to all subscribers. On return every output
// channel is closed. Events still queued when ctx ends are delivered first.
func (f *FanOut) Run(ctx context.Context) {
	defer func() {
		f.mu.RLock()
		for _, s := range f.outputs {
			close(s.ch)
		}
		f.mu.RUnlock()
	}()

	for {
		select {
		case <-ctx.Done():
			f.drain()
			return
		case ev := <-f.in:
			f.dispatch(ev)
		}
	}
}

func (f *FanOut) drain() {
	for {
		select {
		case ev := <-f.in:
			f.dispatch(ev)
		default:
			return
		}
	}
}

func (f *FanOut) dispatch(ev model.TradeEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, s := range f.outputs {
		select {
		case s.ch <- ev:
		default:
			if f.OnDrop != nil {
				f.OnDrop(s.name)
			} else {
				log.Printf("[bus] %s channel full, dropping trade %s", s.name, ev.Record.TxID)
			}
		}
	}
}

// ChannelStat is the fill level of one subscriber channel.
type ChannelStat struct {
	Name string
	Len  int
	Cap  int
}

// ChannelStats reports saturation per subscriber.
func (f *FanOut) ChannelStats() []ChannelStat {
	f.mu.RLock()
	defer f.mu.RUnlock()
	stats := make([]ChannelStat, len(f.outputs))
	for i, s := range f.outputs {
		stats[i] = ChannelStat{Name: s.name, Len: len(s.ch), Cap: cap(s.ch)}
	}
	return stats
}
