package ember

import (
	"bufio"
	"bytes"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServerDefaults(t *testing.T) {
	s, err := NewServer(nil)
	require.NoError(t, err)
	assert.Equal(t, 8000, s.Config.ServerPort)
	assert.NotNil(t, s.Router)
	assert.NotNil(t, s.Logger)
}

func TestServerRouteRegistrationHelpers(t *testing.T) {
	s, err := NewServer(nil)
	require.NoError(t, err)

	noop := func(*Request, *Response) {}
	s.GET("/a", noop)
	s.POST("/b", noop)
	s.PUT("/c", noop)
	s.PATCH("/d", noop)
	s.DELETE("/e", noop)
	s.HEAD("/f", noop)

	routes := s.Router.Routes()
	assert.Len(t, routes, 6)
}

func TestServerUseRegistersGlobalMiddleware(t *testing.T) {
	s, err := NewServer(nil)
	require.NoError(t, err)

	called := false
	s.Use(func(req *Request, res *Response) { called = true })

	assert.Len(t, s.Router.Global(), 1)
	s.Router.Global()[0](&Request{}, &Response{})
	assert.True(t, called)
}

func TestNewServerWatchesConfigPathForLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ember.conf")
	require.NoError(t, os.WriteFile(path, []byte("log_level = info\n"), 0o644))

	var buf bytes.Buffer
	cfg := defaultConfig()
	cfg.ConfigPath = path
	s, err := NewServer(&cfg)
	require.NoError(t, err)
	s.Logger.Output = &buf
	defer s.Close()

	require.NotNil(t, s.cfgWatch)

	s.Logger.Debug("hidden")
	assert.Empty(t, buf.String())

	require.NoError(t, os.WriteFile(path, []byte("log_level = debug\n"), 0o644))

	assert.Eventually(t, func() bool {
		buf.Reset()
		s.Logger.Debug("now visible")
		return buf.Len() > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServerStartAndClose(t *testing.T) {
	cfg := defaultConfig()
	cfg.ServerPort = 0
	cfg.NumThreads = 1
	s, err := NewServer(&cfg)
	require.NoError(t, err)

	s.GET("/ping", func(req *Request, res *Response) {
		res.WriteString("pong")
	})

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	var addr net.Addr
	for i := 0; i < 100 && s.listener == nil; i++ {
		time.Sleep(5 * time.Millisecond)
	}
	require.NotNil(t, s.listener)
	addr = s.listener.Addr()

	conn, err := net.DialTimeout("tcp", addr.String(), time.Second)
	require.NoError(t, err)
	_, err = conn.Write([]byte("GET /ping HTTP/1.1\r\nHost: example.com\r\n\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	status, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, status, "200 OK")
	conn.Close()

	require.NoError(t, s.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Close")
	}
}
