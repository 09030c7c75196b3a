// Package notify implementa el punto de publicación/suscripción de cambios del inventario.
//
// Hay dos canales independientes (productos y movimientos) y ningún payload: los
// suscriptores vuelven a consultar el agregador al recibir la señal.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Topic canal de notificación.
type Topic string

// Canales disponibles.
const (
	ProductsChanged  Topic = "products_changed"
	MovementsChanged Topic = "movements_changed"
)

// Topics todos los canales, en orden estable.
var Topics = []Topic{ProductsChanged, MovementsChanged}

// Valid indica si t es un canal conocido.
func (t Topic) Valid() bool {
	return t == ProductsChanged || t == MovementsChanged
}

// Handler recibe la señal. Un error o un panic se registra y no corta la entrega a los demás.
type Handler func(ctx context.Context, topic Topic) error

type subscriber struct {
	id      uuid.UUID
	handler Handler
}

// Notifier entrega cada anuncio de forma síncrona a los suscriptores actuales,
// en orden de registro.
type Notifier struct {
	mu   sync.RWMutex
	subs map[Topic][]subscriber
	log  *logger.Logger
}

// New construye el notificador. log puede ser nil.
func New(log *logger.Logger) *Notifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{
		subs: make(map[Topic][]subscriber),
		log:  log.Named("notifier"),
	}
}

// Subscription se libera con Unsubscribe en el teardown del suscriptor.
type Subscription struct {
	id    uuid.UUID
	topic Topic
	n     *Notifier
	once  sync.Once
}

// ID identificador de la suscripción.
func (s *Subscription) ID() uuid.UUID { return s.id }

// Topic canal de la suscripción.
func (s *Subscription) Topic() Topic { return s.topic }

// Unsubscribe es idempotente y puede llamarse desde dentro del propio handler.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() { s.n.remove(s.topic, s.id) })
}

// Subscribe registra h en el canal topic.
func (n *Notifier) Subscribe(topic Topic, h Handler) *Subscription {
	id := uuid.New()
	n.mu.Lock()
	n.subs[topic] = append(n.subs[topic], subscriber{id: id, handler: h})
	n.mu.Unlock()

	n.log.Debug().Str("topic", string(topic)).Str("subscription", id.String()).Msg("suscripción registrada")
	return &Subscription{id: id, topic: topic, n: n}
}

// SubscribeAll registra h en todos los canales; las suscripciones se liberan juntas.
func (n *Notifier) SubscribeAll(h Handler) (unsubscribe func()) {
	subs := make([]*Subscription, 0, len(Topics))
	for _, t := range Topics {
		subs = append(subs, n.Subscribe(t, h))
	}
	return func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}
}

func (n *Notifier) remove(topic Topic, id uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	list := n.subs[topic]
	for i, s := range list {
		if s.id == id {
			// copia nueva: Publish puede estar iterando la anterior
			next := make([]subscriber, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			n.subs[topic] = next
			break
		}
	}
}

// Count suscriptores actuales del canal.
func (n *Notifier) Count(topic Topic) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[topic])
}

// Publish anuncia topic a los suscriptores registrados en el momento de la llamada.
// Devuelve cuántos handlers fallaron.
func (n *Notifier) Publish(ctx context.Context, topic Topic) int {
	n.mu.RLock()
	list := n.subs[topic]
	n.mu.RUnlock()

	failed := 0
	for _, s := range list {
		if err := n.deliver(ctx, topic, s); err != nil {
			failed++
			n.log.Error().Err(err).
				Str("topic", string(topic)).
				Str("subscription", s.id.String()).
				Msg("suscriptor falló al procesar el anuncio")
		}
	}
	return failed
}

func (n *Notifier) deliver(ctx context.Context, topic Topic, s subscriber) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic en suscriptor: %v", r)
		}
	}()
	return s.handler(ctx, topic)
}

type originKey struct{}

// WithOrigin marca el contexto de un anuncio con su procedencia (p. ej. "kafka").
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

// OriginFrom procedencia del anuncio; "" si es local.
func OriginFrom(ctx context.Context) string {
	s, _ := ctx.Value(originKey{}).(string)
	return s
}
