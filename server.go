package ember

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/fsnotify/fsnotify"
)

// Server is the embeddable HTTP/1.1 server: an application constructs one,
// registers routes and middleware on its Router, and calls Start to accept
// connections until Close is called.
type Server struct {
	Router *Router
	Config *Config
	Logger *Logger

	pool   *pool
	coffer *coffer

	tlsConfig *tls.Config
	logFile   io.Closer
	cfgWatch  *fsnotify.Watcher

	listener net.Listener
	driver   *connectionDriver
}

// NewServer returns a Server configured from cfg. A nil cfg uses
// defaultConfig(). The returned Server's Router starts empty; register
// routes and global middleware on it before calling Start.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		d := defaultConfig()
		cfg = &d
	}

	var output io.Writer = os.Stderr
	var logFile io.Closer
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("ember: opening log file: %w", err)
		}
		output = f
		logFile = f
	}

	s := &Server{
		Router:  NewRouter(),
		Config:  cfg,
		Logger:  newLogger(output, "", cfg.LogLevel),
		pool:    newPool(),
		coffer:  newCoffer(32<<20, false),
		logFile: logFile,
	}

	if cfg.ConfigPath != "" {
		w, err := WatchLogLevel(cfg.ConfigPath, s.Logger)
		if err != nil {
			s.Logger.Errorf("watching config %s for log level reload: %v", cfg.ConfigPath, err)
		} else {
			s.cfgWatch = w
		}
	}

	return s, nil
}

// GET registers a GET route. See Router.Register for the full contract.
func (s *Server) GET(pattern string, h Handler, middlewares ...Handler) {
	s.Router.Register(pattern, h, []string{"GET"}, nil, middlewares...)
}

// POST registers a POST route.
func (s *Server) POST(pattern string, h Handler, middlewares ...Handler) {
	s.Router.Register(pattern, h, []string{"POST"}, nil, middlewares...)
}

// PUT registers a PUT route.
func (s *Server) PUT(pattern string, h Handler, middlewares ...Handler) {
	s.Router.Register(pattern, h, []string{"PUT"}, nil, middlewares...)
}

// PATCH registers a PATCH route.
func (s *Server) PATCH(pattern string, h Handler, middlewares ...Handler) {
	s.Router.Register(pattern, h, []string{"PATCH"}, nil, middlewares...)
}

// DELETE registers a DELETE route.
func (s *Server) DELETE(pattern string, h Handler, middlewares ...Handler) {
	s.Router.Register(pattern, h, []string{"DELETE"}, nil, middlewares...)
}

// HEAD registers a HEAD route.
func (s *Server) HEAD(pattern string, h Handler, middlewares ...Handler) {
	s.Router.Register(pattern, h, []string{"HEAD"}, nil, middlewares...)
}

// Handle registers pattern for every method listed, with an optional CORS
// descriptor, for callers that need more than one method per pattern (e.g.
// a route answering both GET and OPTIONS for a CORS preflight).
func (s *Server) Handle(pattern string, h Handler, methods []string, cors *CORSDescriptor, middlewares ...Handler) {
	s.Router.Register(pattern, h, methods, cors, middlewares...)
}

// Use registers a global middleware, run ahead of every route's local
// middlewares and handler, in registration order.
func (s *Server) Use(mw Handler) {
	s.Router.Use(mw)
}

// Start binds and listens on Config.ServerPort, then blocks accepting and
// serving connections until Close is called. If Config.TLSCertFile and
// Config.TLSKeyFile are both set, accepted connections are wrapped in a TLS
// server handshake before a worker parses the request. Start returns nil
// on a clean Close, or the error that caused the accept loop to stop.
func (s *Server) Start() error {
	if s.Config.TLSCertFile != "" && s.Config.TLSKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(s.Config.TLSCertFile, s.Config.TLSKeyFile)
		if err != nil {
			s.Logger.Errorf("loading TLS keypair: %v", err)
			return newError(StartupError, err.Error())
		}
		s.tlsConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	ln, err := listenReusable(fmt.Sprintf(":%d", s.Config.ServerPort))
	if err != nil {
		s.Logger.Errorf("listen: %v", err)
		return newError(StartupError, err.Error())
	}
	s.listener = ln

	s.driver = newConnectionDriver(s)
	s.Logger.Infof("listening on port %d", s.Config.ServerPort)
	return s.driver.run(ln)
}

// Close stops the accept loop and closes the listener. In-flight workers
// finish the request they are already handling; Close does not cancel
// them.
func (s *Server) Close() error {
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	if s.cfgWatch != nil {
		s.cfgWatch.Close()
	}
	if s.logFile != nil {
		s.logFile.Close()
	}
	return err
}
