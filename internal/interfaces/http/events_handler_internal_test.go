package http

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/notify"
)

type connBuffer struct {
	buf    bytes.Buffer
	closed bool
}

func (b *connBuffer) Write(p []byte) (int, error) {
	if b.closed {
		return 0, errors.New("conexión cerrada")
	}
	return b.buf.Write(p)
}

func TestStreamEvents_EscribeYTerminaAlApagar(t *testing.T) {
	out := &connBuffer{}
	events := make(chan notify.Topic, 2)
	done := make(chan struct{})
	events <- notify.MovementsChanged

	result := make(chan error, 1)
	go func() { result <- streamEvents(bufio.NewWriter(out), events, done, time.Hour) }()

	require.Eventually(t, func() bool {
		return len(events) == 0
	}, time.Second, 5*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(done)
	require.NoError(t, <-result)

	body := out.buf.String()
	assert.True(t, strings.HasPrefix(body, "event: ready\n"))
	assert.Contains(t, body, "event: movements_changed\ndata: {\"topic\":\"movements_changed\"}\n\n")
}

func TestStreamEvents_ClienteDesconectado(t *testing.T) {
	out := &connBuffer{closed: true}
	err := streamEvents(bufio.NewWriter(out), nil, nil, time.Hour)
	assert.Error(t, err)
}

func TestDefaultWindow(t *testing.T) {
	from, to := defaultWindow(time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), to)
	// AddDate normaliza 31 de febrero a 2 de marzo
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), from)
}
