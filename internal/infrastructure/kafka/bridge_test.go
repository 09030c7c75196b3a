package kafka_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/notify"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/kafka"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafkago.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) written() []kafkago.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafkago.Message(nil), w.msgs...)
}

type fakeReader struct {
	in chan kafkago.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	select {
	case <-ctx.Done():
		return kafkago.Message{}, ctx.Err()
	case m := <-r.in:
		return m, nil
	}
}

func (r *fakeReader) Close() error { return nil }

func eventMessage(t *testing.T, topic notify.Topic, instance string) kafkago.Message {
	t.Helper()
	v, err := json.Marshal(kafka.Event{Topic: topic, Instance: instance, At: time.Now().UTC()})
	require.NoError(t, err)
	return kafkago.Message{Key: []byte(topic), Value: v}
}

func startBridge(t *testing.T, n *notify.Notifier) (*fakeWriter, *fakeReader, context.CancelFunc, <-chan error) {
	t.Helper()
	w := &fakeWriter{}
	r := &fakeReader{in: make(chan kafkago.Message, 4)}
	b := kafka.NewBridgeWith("local", w, r, n, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	// el puente se suscribe al arrancar
	require.Eventually(t, func() bool { return n.Count(notify.MovementsChanged) == 1 }, time.Second, 5*time.Millisecond)
	return w, r, cancel, done
}

func TestBridge_ExportaPublicacionesLocales(t *testing.T) {
	n := notify.New(nil)
	w, _, cancel, done := startBridge(t, n)

	n.Publish(context.Background(), notify.MovementsChanged)

	require.Eventually(t, func() bool { return len(w.written()) == 1 }, time.Second, 5*time.Millisecond)
	var ev kafka.Event
	require.NoError(t, json.Unmarshal(w.written()[0].Value, &ev))
	assert.Equal(t, notify.MovementsChanged, ev.Topic)
	assert.Equal(t, "local", ev.Instance)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 0, n.Count(notify.MovementsChanged), "se desuscribe al terminar")
}

func TestBridge_RepublicaRemotosSinEco(t *testing.T) {
	n := notify.New(nil)
	var received atomic.Int32
	n.Subscribe(notify.ProductsChanged, func(ctx context.Context, _ notify.Topic) error {
		if notify.OriginFrom(ctx) == kafka.OriginKafka {
			received.Add(1)
		}
		return nil
	})
	w, r, cancel, done := startBridge(t, n)
	defer func() {
		cancel()
		<-done
	}()

	r.in <- eventMessage(t, notify.ProductsChanged, "local") // propio: se ignora
	r.in <- eventMessage(t, notify.ProductsChanged, "otra-instancia")
	r.in <- kafkago.Message{Value: []byte("{no es json")}

	require.Eventually(t, func() bool { return received.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 1, received.Load())
	assert.Empty(t, w.written(), "lo recibido de kafka no se vuelve a exportar")
}
