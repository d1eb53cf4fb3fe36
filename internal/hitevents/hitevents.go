// Package hitevents publishes cell lookup events to Kafka without blocking
// the request path.
package hitevents

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/hexgrid/internal/core/observability"
)

// Event describes one served lookup. Cell is empty for polygon coverages.
type Event struct {
	Op    string    `json:"op"`
	Cell  string    `json:"cell,omitempty"`
	Res   int       `json:"res"`
	Mode  string    `json:"mode,omitempty"`
	Cache string    `json:"cache,omitempty"`
	Cells int       `json:"cells"`
	TS    time.Time `json:"ts"`
}

// Sink accepts events; Publisher and Discard implement it.
type Sink interface {
	Publish(ev Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(Event) {}

type Publisher struct {
	topic   string
	log     *slog.Logger
	prod    sarama.AsyncProducer
	events  chan Event
	stopped chan struct{}
	errDone chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewPublisher(brokers []string, topic string, queueSize int, log *slog.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Flush.Frequency = 100 * time.Millisecond

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("hitevents: create async producer: %w", err)
	}
	return NewWithProducer(prod, topic, queueSize, log), nil
}

// NewWithProducer takes ownership of prod.
func NewWithProducer(prod sarama.AsyncProducer, topic string, queueSize int, log *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Publisher{
		topic:   topic,
		log:     log,
		prod:    prod,
		events:  make(chan Event, queueSize),
		stopped: make(chan struct{}),
		errDone: make(chan struct{}),
	}
	go p.pump()
	go p.drainErrors()
	return p
}

func (p *Publisher) pump() {
	defer close(p.stopped)
	for ev := range p.events {
		b, err := json.Marshal(ev)
		if err != nil {
			observability.IncEventDrop("marshal")
			p.log.Warn("lookup event marshal failed", "err", err)
			continue
		}
		msg := &sarama.ProducerMessage{Topic: p.topic, Value: sarama.ByteEncoder(b)}
		if ev.Cell != "" {
			msg.Key = sarama.StringEncoder(ev.Cell)
		}
		p.prod.Input() <- msg
	}
}

func (p *Publisher) drainErrors() {
	defer close(p.errDone)
	for err := range p.prod.Errors() {
		if err != nil {
			observability.IncEventDrop("producer")
			p.log.Warn("lookup event delivery failed", "err", err)
		}
	}
}

// Publish enqueues ev, dropping it when the queue is full or the publisher
// is closed.
func (p *Publisher) Publish(ev Event) {
	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		observability.IncEventDrop("closed")
		return
	}
	select {
	case p.events <- ev:
	default:
		observability.IncEventDrop("queue_full")
	}
}

// Close flushes queued events and closes the producer.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()

	<-p.stopped
	err := p.prod.Close()
	<-p.errDone
	if err != nil {
		return fmt.Errorf("hitevents: close producer: %w", err)
	}
	return nil
}
