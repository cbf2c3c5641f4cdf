package activity

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/resilience"
)

// BatchPublisher is satisfied by *kafka.Producer.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

type PublisherConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	Breaker       resilience.CircuitBreakerConfig
}

// Publisher buffers events and ships them to Kafka in batches, flushing
// when a batch fills or the interval passes. Track never blocks: a full
// buffer drops the event. Publishing goes through a circuit breaker, and
// failed batches stay queued up to three batches' worth.
type Publisher struct {
	producer      BatchPublisher
	eventCh       chan Event
	batchSize     int
	flushInterval time.Duration
	breaker       *resilience.CircuitBreaker
	metrics       *metrics.Metrics
	logger        *slog.Logger

	pending []kafka.Event

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewPublisher(producer BatchPublisher, cfg PublisherConfig, m *metrics.Metrics) *Publisher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	userHook := cfg.Breaker.OnStateChange
	cfg.Breaker.OnStateChange = func(name string, from, to resilience.State) {
		m.BreakerState(name, int(to))
		if userHook != nil {
			userHook(name, from, to)
		}
	}
	return &Publisher{
		producer:      producer,
		eventCh:       make(chan Event, cfg.BufferSize),
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		breaker:       resilience.NewCircuitBreaker("activity-kafka", cfg.Breaker),
		metrics:       m,
		logger:        slog.Default().With("component", "activity-publisher"),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Track queues e for publishing.
func (p *Publisher) Track(e Event) {
	select {
	case <-p.stop:
		p.metrics.ActivityDropped()
		return
	default:
	}
	select {
	case p.eventCh <- e:
	default:
		p.metrics.ActivityDropped()
		p.logger.Warn("activity event dropped (buffer full)", "type", e.Type)
	}
}

// Start runs the batching loop until ctx is cancelled or Close is called.
func (p *Publisher) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	go p.run(ctx)
	p.logger.Info("activity publisher started",
		"buffer_size", cap(p.eventCh),
		"batch_size", p.batchSize,
		"flush_interval", p.flushInterval,
	)
}

func (p *Publisher) run(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case e := <-p.eventCh:
			p.pending = append(p.pending, toKafka(e))
			if len(p.pending) >= p.batchSize {
				p.flush(ctx)
			}
		case <-ticker.C:
			p.flush(ctx)
		case <-ctx.Done():
			p.shutdown()
			return
		case <-p.stop:
			p.shutdown()
			return
		}
	}
}

// shutdown drains what is buffered and makes one last attempt with a short
// deadline.
func (p *Publisher) shutdown() {
drain:
	for {
		select {
		case e := <-p.eventCh:
			p.pending = append(p.pending, toKafka(e))
		default:
			break drain
		}
	}
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.flush(flushCtx)
	if n := len(p.pending); n > 0 {
		p.logger.Warn("activity events lost at shutdown", "count", n)
	}
}

func (p *Publisher) flush(ctx context.Context) {
	if len(p.pending) == 0 {
		return
	}
	batch := p.pending
	err := p.breaker.Execute(func() error {
		return p.producer.PublishBatch(ctx, batch)
	})
	p.metrics.ActivityPublished(len(batch), err)
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			p.logger.Error("activity flush failed", "batch_size", len(batch), "error", err)
		}
		limit := p.batchSize * 3
		if len(p.pending) > limit {
			dropped := len(p.pending) - limit
			p.pending = p.pending[dropped:]
			for i := 0; i < dropped; i++ {
				p.metrics.ActivityDropped()
			}
			p.logger.Warn("activity backlog full, oldest events dropped", "dropped", dropped)
		}
		return
	}
	p.pending = nil
	p.logger.Debug("activity batch flushed", "events", len(batch))
}

// Close stops the loop and waits for the final flush.
func (p *Publisher) Close() {
	p.stopOnce.Do(func() { close(p.stop) })
	if p.started.Load() {
		<-p.done
	}
}

func toKafka(e Event) kafka.Event {
	return kafka.Event{Key: strconv.Itoa(e.PostID), Value: e}
}
