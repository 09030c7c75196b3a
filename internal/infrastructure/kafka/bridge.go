// Package kafka conecta el Notifier local con un topic de Kafka: exporta cada cambio
// y re-publica localmente los cambios hechos por otras instancias.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-ledger/internal/application/notify"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// OriginKafka marca en el ctx las publicaciones que llegan desde el topic.
const OriginKafka = "kafka"

const pendingBuffer = 256

// Event es el mensaje publicado en el topic.
type Event struct {
	Topic    notify.Topic `json:"topic"`
	Instance string       `json:"instance"`
	At       time.Time    `json:"at"`
}

// MessageWriter lo que el puente necesita de *kafkago.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// MessageReader lo que el puente necesita de *kafkago.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

// Bridge puente bidireccional Notifier <-> Kafka.
type Bridge struct {
	instanceID string
	notifier   *notify.Notifier
	writer     MessageWriter
	reader     MessageReader
	log        *logger.Logger
	pending    chan notify.Topic
}

// NewBridge crea writer y reader contra los brokers configurados. Cada instancia
// consume con su propio group id para recibir todos los mensajes.
func NewBridge(cfg config.KafkaConfig, n *notify.Notifier, log *logger.Logger) *Bridge {
	instanceID := uuid.NewString()
	w := &kafkago.Writer{
		Addr:     kafkago.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafkago.LeastBytes{},
	}
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID + "-" + instanceID,
		StartOffset: kafkago.LastOffset,
	})
	return NewBridgeWith(instanceID, w, r, n, log)
}

// NewBridgeWith construye el puente con writer/reader dados (tests).
func NewBridgeWith(instanceID string, w MessageWriter, r MessageReader, n *notify.Notifier, log *logger.Logger) *Bridge {
	if log == nil {
		log = logger.Nop()
	}
	return &Bridge{
		instanceID: instanceID,
		notifier:   n,
		writer:     w,
		reader:     r,
		log:        log.Named("kafka-bridge"),
		pending:    make(chan notify.Topic, pendingBuffer),
	}
}

// InstanceID identificador de esta instancia en los mensajes.
func (b *Bridge) InstanceID() string { return b.instanceID }

// Run bloquea hasta que ctx termine. Las publicaciones locales se encolan sin
// bloquear al que publica; si la cola está llena el evento se descarta.
func (b *Bridge) Run(ctx context.Context) error {
	unsubscribe := b.notifier.SubscribeAll(b.enqueue)
	defer unsubscribe()
	defer func() {
		if err := b.writer.Close(); err != nil {
			b.log.Warn().Err(err).Msg("cerrar writer")
		}
		if err := b.reader.Close(); err != nil {
			b.log.Warn().Err(err).Msg("cerrar reader")
		}
	}()

	b.log.Info().Str("instance", b.instanceID).Msg("puente kafka iniciado")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.writeLoop(gctx) })
	g.Go(func() error { return b.readLoop(gctx) })
	err := g.Wait()
	b.log.Info().Msg("puente kafka detenido")
	return err
}

// enqueue handler del Notifier. Ignora lo que el propio puente re-publicó.
func (b *Bridge) enqueue(ctx context.Context, topic notify.Topic) error {
	if notify.OriginFrom(ctx) == OriginKafka {
		return nil
	}
	select {
	case b.pending <- topic:
		return nil
	default:
		return fmt.Errorf("cola de exportación llena, se descarta %s", topic)
	}
}

func (b *Bridge) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case topic := <-b.pending:
			payload, err := json.Marshal(Event{Topic: topic, Instance: b.instanceID, At: time.Now().UTC()})
			if err != nil {
				return fmt.Errorf("marshal event: %w", err)
			}
			err = b.writer.WriteMessages(ctx, kafkago.Message{Key: []byte(topic), Value: payload})
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				b.log.Error().Err(err).Str("topic", string(topic)).Msg("publicar evento en kafka")
			}
		}
	}
}

func (b *Bridge) readLoop(ctx context.Context) error {
	for {
		msg, err := b.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			b.log.Error().Err(err).Msg("leer mensaje de kafka")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		b.handle(ctx, msg)
	}
}

func (b *Bridge) handle(ctx context.Context, msg kafkago.Message) {
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		b.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("mensaje inválido")
		return
	}
	if ev.Instance == b.instanceID {
		return
	}
	if !ev.Topic.Valid() {
		b.log.Warn().Str("topic", string(ev.Topic)).Msg("tópico desconocido")
		return
	}
	b.notifier.Publish(notify.WithOrigin(ctx, OriginKafka), ev.Topic)
}
