package transport

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kestrel-trading/matchengine/internal/clock"
	"github.com/kestrel-trading/matchengine/internal/engine"
	"github.com/kestrel-trading/matchengine/internal/sink"
)

func TestServer_EndToEndSubmitAndMatch(t *testing.T) {
	rec := sink.NewRecorder()
	eng := engine.New(rec, clock.New())

	srv, err := Listen("127.0.0.1:0", eng, zap.NewNop())
	require.NoError(t, err)
	defer srv.Close()

	go srv.Serve()

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	writer := bufio.NewWriter(conn)
	_, err = writer.WriteString("NEW_SELL 1 AAPL 100 10\n")
	require.NoError(t, err)
	_, err = writer.WriteString("NEW_BUY 2 AAPL 100 4\n")
	require.NoError(t, err)
	require.NoError(t, writer.Flush())

	require.Eventually(t, func() bool {
		return len(rec.Events()) >= 2
	}, time.Second, 5*time.Millisecond)

	events := rec.Events()
	assert.Equal(t, sink.KindOrderAdded, events[0].Kind)
	assert.Equal(t, sink.KindOrderExecuted, events[1].Kind)
}

func TestServer_MalformedCommandClosesOnlyThatConnection(t *testing.T) {
	rec := sink.NewRecorder()
	eng := engine.New(rec, clock.New())

	srv, err := Listen("127.0.0.1:0", eng, zap.NewNop())
	require.NoError(t, err)
	defer srv.Close()

	go srv.Serve()

	bad, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	_, err = bad.Write([]byte("GARBAGE\n"))
	require.NoError(t, err)

	buf := make([]byte, 1)
	bad.SetReadDeadline(time.Now().Add(time.Second))
	_, readErr := bad.Read(buf)
	assert.Error(t, readErr) // connection closed by the server

	good, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer good.Close()
	_, err = good.Write([]byte("NEW_BUY 1 AAPL 100 10\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(rec.Events()) >= 1
	}, time.Second, 5*time.Millisecond)
}
