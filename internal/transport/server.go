package transport

import (
	"bufio"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kestrel-trading/matchengine/internal/engine"
)

// Server accepts TCP connections and runs one long-lived worker goroutine
// per connection, each driving its own read/dispatch loop against a shared
// Engine. Accepted connections are never load-balanced across workers:
// commands from one connection are always processed in that connection's
// own arrival order, since a single worker owns it end to end.
type Server struct {
	listener net.Listener
	engine   *engine.Engine
	logger   *zap.Logger

	group  errgroup.Group
	connMu sync.Mutex
	conns  map[net.Conn]struct{}
}

// Listen opens addr and returns a Server ready to Serve.
func Listen(addr string, eng *engine.Engine, logger *zap.Logger) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: l,
		engine:   eng,
		logger:   logger,
		conns:    make(map[net.Conn]struct{}),
	}, nil
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve runs the accept loop, spawning a worker per connection, until
// Close is called (which causes Accept to return an error and the loop to
// exit cleanly).
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return s.group.Wait()
		}

		s.connMu.Lock()
		s.conns[conn] = struct{}{}
		s.connMu.Unlock()

		sessionID := uuid.New().String()
		s.group.Go(func() error {
			defer func() {
				s.connMu.Lock()
				delete(s.conns, conn)
				s.connMu.Unlock()
				conn.Close()
			}()
			s.serveConn(sessionID, conn)
			return nil
		})
	}
}

// serveConn is one connection's long-lived read/dispatch loop. It exits on
// EOF, a read error, or a malformed command — per spec, any of these
// terminates only this worker.
func (s *Server) serveConn(sessionID string, conn net.Conn) {
	s.logger.Info("connection accepted", zap.String("session_id", sessionID), zap.String("remote", conn.RemoteAddr().String()))
	defer s.logger.Info("connection closed", zap.String("session_id", sessionID))

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		cmd, err := ParseCommand(line)
		if err != nil {
			s.logger.Warn("malformed command, closing connection",
				zap.String("session_id", sessionID), zap.String("line", line), zap.Error(err))
			return
		}

		switch cmd.Type {
		case NewBuy, NewSell:
			s.engine.Submit(cmd.OrderID, cmd.Price, cmd.Count, cmd.Side(), cmd.Instrument)
		case Cancel:
			s.engine.Cancel(cmd.OrderID)
		}
	}
}

// Close stops accepting new connections and closes every connection
// currently being served, aggregating any close errors with multierr.
func (s *Server) Close() error {
	var err error
	err = multierr.Append(err, s.listener.Close())

	s.connMu.Lock()
	for conn := range s.conns {
		err = multierr.Append(err, conn.Close())
	}
	s.connMu.Unlock()

	return err
}
