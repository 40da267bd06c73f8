package sockio_test

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-transport/api"
	"github.com/momentics/hioload-transport/internal/concurrency"
	"github.com/momentics/hioload-transport/internal/sockio"
)

// tcpPair returns both ends of a loopback TCP connection.
func tcpPair(t *testing.T) (client, server net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
		close(accepted)
	}()
	client, err = net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	server = <-accepted
	require.NotNil(t, server)
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

func TestSender_GathersSegments(t *testing.T) {
	client, server := tcpPair(t)
	s := sockio.NewSender(nil, nil)

	data := api.NewSequence([]byte("hello "), []byte("gathered "), []byte("world"))
	n, err := s.Send(client, data).Wait()
	require.NoError(t, err)
	assert.EqualValues(t, data.Len(), n)

	got := make([]byte, data.Len())
	_, err = io.ReadFull(server, got)
	require.NoError(t, err)
	assert.Equal(t, "hello gathered world", string(got))

	require.True(t, s.Reset())
	n, err = s.Send(client, api.NewSequence([]byte("x"))).Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReceiver_ReadAndFIN(t *testing.T) {
	client, server := tcpPair(t)
	r := sockio.NewReceiver(nil, nil)

	_, err := client.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 16)
	n, err := r.Receive(server, buf).Wait()
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))

	require.NoError(t, client.Close())
	n, err = r.Receive(server, buf).Wait()
	require.NoError(t, err)
	assert.Zero(t, n, "FIN reads as zero bytes")
}

func TestReceiver_WaitForDataDoesNotConsume(t *testing.T) {
	client, server := tcpPair(t)
	r := sockio.NewReceiver(nil, concurrency.Goroutine)

	aw := r.WaitForData(server)
	time.Sleep(20 * time.Millisecond)
	st, err := aw.Status()
	require.NoError(t, err)
	if st == sockio.StatusCompleted {
		// platforms without a readiness probe complete at once
		_, err := aw.Result()
		require.NoError(t, err)
		return
	}

	_, err = client.Write([]byte("data"))
	require.NoError(t, err)
	_, err = aw.Wait()
	require.NoError(t, err)

	buf := make([]byte, 8)
	n, err := r.Receive(server, buf).Wait()
	require.NoError(t, err)
	assert.Equal(t, "data", string(buf[:n]))
}

func TestReceiver_Disposed(t *testing.T) {
	_, server := tcpPair(t)
	r := sockio.NewReceiver(nil, nil)
	r.Dispose()
	_, err := r.Receive(server, make([]byte, 1)).Wait()
	require.ErrorIs(t, err, api.ErrOperationDisposed)
}

func TestSender_Disposed(t *testing.T) {
	client, _ := tcpPair(t)
	s := sockio.NewSender(nil, nil)
	s.Dispose()
	_, err := s.Send(client, api.NewSequence([]byte("x"))).Wait()
	require.ErrorIs(t, err, api.ErrOperationDisposed)
	require.NotErrorIs(t, err, api.ErrBlockDisposed)
}

func TestSenderPool_Reuse(t *testing.T) {
	var parked []func()
	manual := api.SchedulerFunc(func(fn func()) { parked = append(parked, fn) })
	p := sockio.NewSenderPool(2, nil, manual)

	s := p.Rent()
	p.Return(s)
	assert.Equal(t, 1, p.Idle())
	assert.Same(t, s, p.Rent())

	client, _ := tcpPair(t)
	aw := s.Send(client, api.NewSequence([]byte("x")))
	require.True(t, s.InFlight())
	p.Return(s)
	assert.Zero(t, p.Idle(), "in-flight sender is not kept")

	parked[0]()
	_, err := aw.Wait()
	require.NoError(t, err)

	p.Close()
	p.Return(sockio.NewSender(nil, nil))
	assert.Zero(t, p.Idle())
}

func TestShutdownBoth(t *testing.T) {
	client, server := tcpPair(t)
	require.NoError(t, sockio.ShutdownBoth(client))

	require.NoError(t, server.SetReadDeadline(time.Now().Add(time.Second)))
	_, err := server.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)
}
