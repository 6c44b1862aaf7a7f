package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tphakala/birdview/internal/logger"
)

// Config holds event bus configuration
type Config struct {
	BufferSize  int
	Workers     int
	DedupWindow time.Duration // zero disables failure deduplication
}

// DefaultConfig returns the default event bus configuration
func DefaultConfig() *Config {
	return &Config{
		BufferSize:  100,
		Workers:     2,
		DedupWindow: 15 * time.Minute,
	}
}

// EventBus provides asynchronous event processing with non-blocking publishing.
// A nil *EventBus accepts and discards every event.
type EventBus struct {
	eventChan chan DatasetEvent
	workers   int

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
	closed  bool
	mu      sync.Mutex

	consumers []Consumer
	dedup     *Deduplicator

	received   atomic.Uint64
	processed  atomic.Uint64
	dropped    atomic.Uint64
	consumerEr atomic.Uint64

	log logger.Logger
}

// New creates an event bus. Workers start with the first registered consumer.
func New(config *Config, log logger.Logger) *EventBus {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logger.Global().Module("events")
	}
	bufferSize := max(config.BufferSize, 1)

	ctx, cancel := context.WithCancel(context.Background())
	eb := &EventBus{
		eventChan: make(chan DatasetEvent, bufferSize),
		workers:   max(config.Workers, 1),
		ctx:       ctx,
		cancel:    cancel,
		dedup:     NewDeduplicator(config.DedupWindow),
		log:       log,
	}

	eb.log.Debug("Event bus initialized",
		logger.Int("buffer_size", bufferSize),
		logger.Int("workers", eb.workers))
	return eb
}

// RegisterConsumer adds a new event consumer
func (eb *EventBus) RegisterConsumer(consumer Consumer) error {
	if eb == nil {
		return fmt.Errorf("event bus not initialized")
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return fmt.Errorf("event bus is shut down")
	}
	for _, existing := range eb.consumers {
		if existing.Name() == consumer.Name() {
			return fmt.Errorf("consumer %s already registered", consumer.Name())
		}
	}

	eb.consumers = append(eb.consumers, consumer)
	eb.log.Info("Registered event consumer", logger.String("consumer", consumer.Name()))

	if !eb.running.Swap(true) {
		for id := range eb.workers {
			eb.wg.Go(func() { eb.worker(id) })
		}
	}
	return nil
}

// TryPublish attempts to publish an event without blocking.
// Returns true if the event was accepted, false if it was suppressed or dropped.
func (eb *EventBus) TryPublish(event DatasetEvent) bool {
	if eb == nil || !eb.running.Load() {
		return false
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if !eb.dedup.ShouldProcess(event) {
		return false
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.closed {
		return false
	}

	select {
	case eb.eventChan <- event:
		eb.received.Add(1)
		return true
	default:
		eb.dropped.Add(1)
		eb.log.Debug("Event dropped due to full buffer",
			logger.String("kind", string(event.Kind)),
			logger.String("habitat", event.Habitat))
		return false
	}
}

func (eb *EventBus) worker(id int) {
	log := eb.log.With(logger.Int("worker_id", id))
	for event := range eb.eventChan {
		eb.processEvent(event, log)
	}
}

// processEvent sends the event to all registered consumers
func (eb *EventBus) processEvent(event DatasetEvent, log logger.Logger) {
	eb.mu.Lock()
	consumers := make([]Consumer, len(eb.consumers))
	copy(consumers, eb.consumers)
	eb.mu.Unlock()

	for _, consumer := range consumers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					eb.consumerEr.Add(1)
					log.Error("Event consumer panicked",
						logger.String("consumer", consumer.Name()),
						logger.Any("panic", r),
						logger.String("kind", string(event.Kind)))
				}
			}()

			if err := consumer.ProcessEvent(eb.ctx, event); err != nil {
				eb.consumerEr.Add(1)
				log.Warn("Event consumer failed",
					logger.String("consumer", consumer.Name()),
					logger.String("kind", string(event.Kind)),
					logger.String("habitat", event.Habitat),
					logger.Error(err))
				return
			}
			eb.processed.Add(1)
		}()
	}
}

// Shutdown stops accepting events and waits for queued events to be delivered.
// When timeout passes first, in-flight consumers see their context cancelled.
func (eb *EventBus) Shutdown(timeout time.Duration) error {
	if eb == nil {
		return nil
	}

	eb.mu.Lock()
	if eb.closed {
		eb.mu.Unlock()
		return nil
	}
	eb.closed = true
	close(eb.eventChan)
	eb.mu.Unlock()

	defer eb.cancel()

	done := make(chan struct{})
	go func() {
		eb.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		eb.log.Debug("Event bus shutdown complete")
		return nil
	case <-time.After(timeout):
		eb.cancel()
		eb.log.Warn("Event bus shutdown timeout exceeded", logger.Duration("timeout", timeout))
		return fmt.Errorf("event bus shutdown timeout exceeded")
	}
}

// GetStats returns current event bus statistics
func (eb *EventBus) GetStats() Stats {
	if eb == nil {
		return Stats{}
	}
	return Stats{
		EventsReceived:   eb.received.Load(),
		EventsSuppressed: eb.dedup.Suppressed(),
		EventsProcessed:  eb.processed.Load(),
		EventsDropped:    eb.dropped.Load(),
		ConsumerErrors:   eb.consumerEr.Load(),
	}
}
