package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"herald/internal/logging"
)

// Dispatcher handles one decoded request and produces exactly one response.
// Implementations must be safe for concurrent use; the server calls it from
// one goroutine per connection.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) Response
}

// Server accepts framed requests over a Unix domain socket.
type Server struct {
	path       string
	dispatcher Dispatcher
	logger     *slog.Logger
	listener   net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer binds the socket at the given path. A stale socket file left by
// a previous run is removed before binding.
func NewServer(ctx context.Context, path string, dispatcher Dispatcher, logger *slog.Logger) (*Server, error) {
	if dispatcher == nil {
		return nil, errors.New("ipc server requires a dispatcher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:       path,
		dispatcher: dispatcher,
		logger:     logging.NewComponentLogger(logger, "ipc"),
		listener:   listener,
		ctx:        serverCtx,
		cancel:     cancel,
	}, nil
}

// Path returns the bound socket path.
func (s *Server) Path() string {
	return s.path
}

// Serve starts accepting connections until the context is canceled or Close
// is called.
func (s *Server) Serve() {
	s.logger.Debug("ipc server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "clients may fail to connect"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				// Unblock pending reads when the server shuts down so an
				// idle client cannot stall Close. The short deadline lets
				// an in-flight response finish writing first.
				done := make(chan struct{})
				go func() {
					select {
					case <-s.ctx.Done():
						_ = c.SetDeadline(time.Now().Add(200 * time.Millisecond))
					case <-done:
					}
				}()
				s.handleConn(c)
				close(done)
			}(conn)
		}
	}()
}

// handleConn serves one connection: read a frame, decode, dispatch, answer,
// repeat until the peer disconnects. Requests on a connection are strictly
// sequential; each receives its response before the next frame is read.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	for {
		payload, err := ReadFrame(reader)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				return
			case errors.Is(err, ErrFrameTooLarge), errors.Is(err, ErrEmptyFrame):
				// Protocol error: answer, then drop the connection since
				// the stream position is no longer trustworthy.
				_ = s.writeResponse(conn, Errorf("invalid frame: %v", err))
				return
			default:
				s.logger.Debug("read frame failed", logging.Error(err))
				return
			}
		}

		req, err := DecodeRequest(payload)
		if err != nil {
			if writeErr := s.writeResponse(conn, Errorf("invalid message format: %v", err)); writeErr != nil {
				return
			}
			continue
		}

		resp := s.dispatcher.Dispatch(s.ctx, req)
		if err := s.writeResponse(conn, resp); err != nil {
			s.logger.Debug("write response failed", logging.Error(err))
			return
		}
	}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) error {
	payload, err := EncodeResponse(resp)
	if err != nil {
		// The response was built by us; an encode failure is a bug, but the
		// peer still gets an answer.
		payload, err = EncodeResponse(Errorf("internal encoding error"))
		if err != nil {
			return err
		}
	}
	return WriteFrame(conn, payload)
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale socket may block future starts"))
	}
}
