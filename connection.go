package ember

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"syscall"

	"golang.org/x/net/netutil"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sys/unix"
)

// listenReusable opens a TCP listener on addr with SO_REUSEADDR set before
// bind, matching server_start's explicit setsockopt call: restarting the
// server promptly after a crash should not fail with "address already in
// use" while the previous socket drains.
func listenReusable(addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	return lc.Listen(context.Background(), "tcp", addr)
}

// connectionDriver runs the accept loop and dispatches each accepted
// connection to a bounded pool of workers. Concurrency is capped at
// Config.NumThreads by a semaphore; netutil.LimitListener is a backstop at
// the accept layer so a burst of connections queues in the kernel backlog
// rather than spawning unbounded goroutines ahead of the semaphore gate.
type connectionDriver struct {
	server *Server
	sem    *semaphore.Weighted
}

func newConnectionDriver(s *Server) *connectionDriver {
	threads := s.Config.NumThreads
	if threads <= 0 {
		threads = 1
	}
	return &connectionDriver{
		server: s,
		sem:    semaphore.NewWeighted(int64(threads)),
	}
}

// run accepts connections from ln until it is closed, dispatching each to a
// worker goroutine gated by the driver's semaphore. It returns nil when ln
// is closed deliberately (via Server.Close), or the first unexpected accept
// error otherwise.
func (d *connectionDriver) run(ln net.Listener) error {
	threads := d.server.Config.NumThreads
	if threads <= 0 {
		threads = 1
	}
	limited := netutil.LimitListener(ln, threads*4)

	ctx := context.Background()

	for {
		conn, err := limited.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			d.server.Logger.Errorf("accept: %v", err)
			return err
		}

		if err := d.sem.Acquire(ctx, 1); err != nil {
			conn.Close()
			continue
		}

		go func() {
			defer d.sem.Release(1)
			d.handle(conn)
		}()
	}
}

// handle runs one connection's entire lifecycle: optional TLS handshake,
// request parse, dispatch, response serialization, and close. At most one
// response is written per connection (none when the TLS handshake fails);
// keep-alive is not supported.
func (d *connectionDriver) handle(conn net.Conn) {
	defer conn.Close()

	s := d.server

	if s.tlsConfig != nil {
		tlsConn := tls.Server(conn, s.tlsConfig)
		if err := tlsConn.Handshake(); err != nil {
			s.Logger.Infof("TLS handshake failed from %s: %v", conn.RemoteAddr(), err)
			return
		}
		conn = tlsConn
	}

	req := s.pool.Request()
	defer s.pool.PutRequest(req)

	res := s.pool.Response()
	defer s.pool.PutResponse(res)
	res.coffer = s.coffer

	if addr := conn.RemoteAddr(); addr != nil {
		req.RemoteAddr = addr.String()
	}

	if err := parseRequest(conn, req); err != nil {
		s.Logger.Infof("parse error from %s: %v", req.RemoteAddr, err)
		res.Status = statusForError(err)
		writeResponse(conn, req.Method, res, s.Logger)
		return
	}

	s.Logger.Infof("%s %s", req.Method, req.Path)
	s.Logger.Debugf("body: %q", req.Body)

	match, err := s.Router.Match(req.Method, req.Path)
	if err != nil {
		res.Status = statusForError(err)
		runChain(s.Router.Global(), nil, func(*Request, *Response) {}, req, res)
		writeResponse(conn, req.Method, res, s.Logger)
		return
	}

	req.Params = match.Params

	local := match.Middlewares
	if match.CORS != nil {
		local = append([]Handler{CORSMiddleware(match.CORS)}, local...)
	}

	runChain(s.Router.Global(), local, match.Handler, req, res)
	writeResponse(conn, req.Method, res, s.Logger)
}

// statusForError maps a parser or router error to the status a preempted
// or default-error-path response should carry.
func statusForError(err error) int {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Status()
	}
	return 500
}

// writeResponse serializes res and writes it to conn, retrying a write
// that fails with a net.Error reporting Timeout(). Any other write error is
// logged; the connection is closed by the caller regardless.
func writeResponse(conn net.Conn, method string, res *Response, logger *Logger) {
	b := serialize(method, res)

	for len(b) > 0 {
		n, err := conn.Write(b)
		b = b[n:]
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			logger.Errorf("write to %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}
