package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SNeC-Lab-PSU/LLMER/internal/config"
	"github.com/SNeC-Lab-PSU/LLMER/internal/protocol"
	"github.com/SNeC-Lab-PSU/LLMER/internal/telemetry"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// pipeDialer hands out queued connections and blocks once they run out.
type pipeDialer struct {
	mu    sync.Mutex
	conns chan net.Conn
	dials int
}

func (d *pipeDialer) dial(ctx context.Context, _ string, _ time.Duration) (io.ReadWriteCloser, error) {
	d.mu.Lock()
	d.dials++
	d.mu.Unlock()
	select {
	case conn := <-d.conns:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *pipeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Observability.ListenAddr = ""
	cfg.Backend.ReconnectDelay = 10 * time.Millisecond
	cfg.Loop.TickRate = 200
	return cfg
}

func quietLogger() telemetry.Logger {
	return telemetry.LoggerFunc(func(string, ...any) {})
}

func TestRuntimeRoundTrip(t *testing.T) {
	local, remote := net.Pipe()
	dialer := &pipeDialer{conns: make(chan net.Conn, 1)}
	dialer.conns <- local

	output := &syncBuffer{}
	input, requests := io.Pipe()
	rt, err := New(Config{
		Runtime: testConfig(),
		Logger:  quietLogger(),
		Input:   input,
		Output:  output,
		Dial:    dialer.dial,
	})
	require.NoError(t, err)

	type received struct {
		frames []protocol.Frame
		err    error
	}
	backend := make(chan received, 1)
	go func() {
		dec := protocol.NewDecoder(remote, protocol.FramingLength)
		var got []protocol.Frame
		for len(got) < 2 {
			frame, err := dec.Next()
			if err != nil {
				backend <- received{frames: got, err: err}
				return
			}
			got = append(got, frame)
		}
		reply, _ := protocol.Encode(protocol.KindText, []byte("I am a virtual agent."))
		end, _ := protocol.Encode(protocol.KindEnd, nil)
		_, err := remote.Write(append(reply, end...))
		backend <- received{frames: got, err: err}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	require.Eventually(t, rt.Channel.Connected, 3*time.Second, 5*time.Millisecond)
	go func() { _, _ = requests.Write([]byte("\nwho are you?\n")) }()

	select {
	case r := <-backend:
		require.NoError(t, r.err)
		require.Len(t, r.frames, 2)
		assert.Equal(t, protocol.RoleSystem, r.frames[0].Role)
		assert.Contains(t, r.frames[0].Text(), "commandType")
		assert.Equal(t, protocol.RoleUser, r.frames[1].Role)
		assert.Equal(t, "who are you?", r.frames[1].Text())
	case <-time.After(3 * time.Second):
		t.Fatal("backend never received the turn")
	}

	require.Eventually(t, func() bool {
		lines := rt.Voice.Lines()
		return len(lines) == 1 && lines[0] == "I am a virtual agent."
	}, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return rt.Status.Status().FramesReceived == 2
	}, 3*time.Second, 10*time.Millisecond)
	assert.True(t, rt.Status.Status().Connected)
	assert.NotEmpty(t, rt.Counters.Snapshot(), "fanout reaches the in-process counters")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("runtime did not stop")
	}
	remote.Close()
	requests.Close()
}

func TestRuntimeRedialsAfterDisconnect(t *testing.T) {
	first, firstRemote := net.Pipe()
	dialer := &pipeDialer{conns: make(chan net.Conn, 1)}
	dialer.conns <- first

	rt, err := New(Config{Runtime: testConfig(), Logger: quietLogger(), Output: io.Discard, Dial: dialer.dial})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	require.Eventually(t, rt.Channel.Connected, 3*time.Second, 5*time.Millisecond)
	firstRemote.Close()

	require.Eventually(t, func() bool { return dialer.count() >= 2 }, 3*time.Second, 5*time.Millisecond)
	assert.False(t, rt.Channel.Connected())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("runtime did not stop")
	}
}

func TestNewRejectsMissingSeed(t *testing.T) {
	cfg := testConfig()
	cfg.Scene.SeedFile = "/nonexistent/scene.yaml"
	_, err := New(Config{Runtime: cfg, Logger: quietLogger(), Output: io.Discard})
	require.Error(t, err)
}

func TestRunSurfacesStatusServerFailure(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	cfg := testConfig()
	cfg.Observability.ListenAddr = listener.Addr().String()
	dialer := &pipeDialer{conns: make(chan net.Conn)}
	rt, err := New(Config{Runtime: cfg, Logger: quietLogger(), Output: io.Discard, Dial: dialer.dial})
	require.NoError(t, err)

	select {
	case err := <-runAsync(rt):
		require.Error(t, err)
		var opErr *net.OpError
		assert.True(t, errors.As(err, &opErr), "expected a listen error, got %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("expected the runtime to fail on a busy port")
	}
}

func runAsync(rt *Runtime) <-chan error {
	done := make(chan error, 1)
	go func() { done <- rt.Run(context.Background()) }()
	return done
}
