// Package events publica en Kafka los cambios de estado de las reservas.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/rescuebox-api/internal/application/reservation"
)

var (
	_ reservation.EventPublisher = (*Producer)(nil)
	_ reservation.EventPublisher = NopPublisher{}
)

// ErrBufferFull el buffer interno está lleno; el evento se descarta.
var ErrBufferFull = errors.New("events: buffer lleno")

// ErrClosed el productor ya fue cerrado.
var ErrClosed = errors.New("events: productor cerrado")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer envía eventos a Kafka desde una goroutine propia; Publish nunca bloquea la petición.
type Producer struct {
	w        messageWriter
	producer string
	inbox    chan kafka.Message
	done     chan struct{}
	mu       sync.RWMutex
	closed   bool
}

// NewProducer construye el productor. buf es la capacidad del buffer en memoria.
func NewProducer(brokers []string, topic, producerName string, buf int) *Producer {
	return newProducer(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}, producerName, buf)
}

func newProducer(w messageWriter, producerName string, buf int) *Producer {
	if buf <= 0 {
		buf = 256
	}
	p := &Producer{
		w:        w,
		producer: producerName,
		inbox:    make(chan kafka.Message, buf),
		done:     make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *Producer) loop() {
	defer close(p.done)
	for m := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := p.w.WriteMessages(ctx, m); err != nil {
			log.Error().Err(err).Str("key", string(m.Key)).Msg("events: no se pudo escribir en kafka")
		}
		cancel()
	}
}

// Publish encola el evento con la reserva como clave (orden por reserva).
func (p *Producer) Publish(_ context.Context, ev reservation.Event) error {
	msg, err := p.encode(ev)
	if err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.inbox <- msg:
		return nil
	default:
		return ErrBufferFull
	}
}

func (p *Producer) encode(ev reservation.Event) (kafka.Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("events: payload: %w", err)
	}
	occurred := ev.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	id := strconv.FormatInt(ev.ReservationID, 10)
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     ev.Type,
		EventVersion:  1,
		OccurredAt:    occurred.UTC(),
		Producer:      p.producer,
		CorrelationID: id,
		Payload:       payload,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("events: envelope: %w", err)
	}
	return kafka.Message{
		Key:     []byte(id),
		Value:   value,
		Time:    occurred,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(ev.Type)}},
	}, nil
}

// Close deja de aceptar eventos, envía los pendientes y cierra el writer.
func (p *Producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.inbox)
	p.mu.Unlock()
	<-p.done
	return p.w.Close()
}

// NopPublisher descarta los eventos (Kafka deshabilitado).
type NopPublisher struct{}

// Publish no hace nada.
func (NopPublisher) Publish(context.Context, reservation.Event) error { return nil }
