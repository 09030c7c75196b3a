package http

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/jhoicas/stock-ledger/internal/application/notify"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const (
	eventsBuffer     = 16
	defaultKeepAlive = 15 * time.Second
)

// EventsHandler expone el Notifier como Server-Sent Events. Cada conexión es un
// suscriptor más; se desuscribe al cerrarse.
type EventsHandler struct {
	notifier  *notify.Notifier
	log       *logger.Logger
	keepAlive time.Duration
}

// NewEventsHandler construye el handler.
func NewEventsHandler(n *notify.Notifier, log *logger.Logger) *EventsHandler {
	return &EventsHandler{notifier: n, log: log, keepAlive: defaultKeepAlive}
}

// Stream godoc
// @Summary      Stream de cambios
// @Description  Emite "products_changed" y "movements_changed" cuando una mutación se confirma.
// @Tags         events
// @Produce      text/event-stream
// @Success      200
// @Router       /api/events [get]
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	events := make(chan notify.Topic, eventsBuffer)
	unsubscribe := h.notifier.SubscribeAll(func(_ context.Context, topic notify.Topic) error {
		select {
		case events <- topic:
			return nil
		default:
			return fmt.Errorf("cliente SSE lento, se descarta %s", topic)
		}
	})
	done := c.Context().Done()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()
		h.log.Debug().Msg("cliente SSE conectado")
		err := streamEvents(w, events, done, h.keepAlive)
		h.log.Debug().AnErr("reason", err).Msg("cliente SSE desconectado")
	}))
	return nil
}

// streamEvents escribe eventos hasta que el cliente se desconecta (falla el Flush)
// o el servidor se apaga.
func streamEvents(w *bufio.Writer, events <-chan notify.Topic, done <-chan struct{}, keepAlive time.Duration) error {
	if err := writeEvent(w, "ready"); err != nil {
		return err
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return nil
		case topic := <-events:
			if err := writeEvent(w, string(topic)); err != nil {
				return err
			}
		case <-ticker.C:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
}

func writeEvent(w *bufio.Writer, name string) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: {\"topic\":%q}\n\n", name, name); err != nil {
		return err
	}
	return w.Flush()
}
