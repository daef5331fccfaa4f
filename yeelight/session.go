package yeelight

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultPort is the TCP port the Yeelight LAN protocol listens on.
const DefaultPort = "55443"

var (
	// ErrTimeout is returned by Send when no reply arrives within the
	// response timeout. The command is not retried; a reply arriving
	// later is discarded.
	ErrTimeout = errors.New("timed out waiting for device response")

	// ErrClosed is returned by Send when the session is closed, or dies,
	// while the reply is still pending.
	ErrClosed = errors.New("session closed")
)

// Session is a long-lived connection to one lamp.
//
// A session owns a single TCP socket. One goroutine (the reader) consumes
// the stream, correlating replies to in-flight commands by id and
// forwarding unsolicited notifications to the sink supplied at Open.
// Send may be called concurrently from any number of goroutines; frames
// are never interleaved on the wire.
type Session struct {
	conn          net.Conn
	notifications chan<- Notification
	log           *logrus.Logger
	timeout       time.Duration

	pending   map[uint64]chan *Response
	pendingMu sync.Mutex

	requestID atomic.Uint64

	// writeMu serializes the write+flush of one frame. It is never held
	// across the wait for the reply.
	writeMu sync.Mutex

	done      chan struct{}
	closeOnce sync.Once
	err       error
	errMu     sync.Mutex
}

// Open connects to the lamp at addr and starts the reader goroutine.
//
// If addr carries no port, the protocol default 55443 is appended.
// Notifications the device pushes are delivered on the notifications
// channel; when the channel is full the reader blocks, so a slow consumer
// delays parsing of subsequent replies. The caller owns the channel and
// must keep draining it (or Close the session) to avoid stalling the
// stream.
func Open(addr string, notifications chan<- Notification, opts ...Option) (*Session, error) {
	options := defaultOptions()
	applyOptions(options, opts)

	if !strings.Contains(addr, ":") {
		addr = net.JoinHostPort(addr, DefaultPort)
	}

	conn, err := net.DialTimeout("tcp", addr, options.dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	s := &Session{
		conn:          conn,
		notifications: notifications,
		log:           options.log,
		timeout:       options.timeout,
		pending:       make(map[uint64]chan *Response),
		done:          make(chan struct{}),
	}

	go s.readLoop()

	return s, nil
}

// Send issues a method call and waits for the device's reply.
//
// IDs are assigned sequentially starting at 1 and never reused within a
// session. The reply is matched by id, so concurrent senders may receive
// their replies in any order relative to submission. Returns ErrTimeout
// if no reply arrives within the response timeout (default 5s), ErrClosed
// if the session dies first, or the context error if ctx is canceled.
//
// A *Response carrying a device error is returned as-is with a nil error;
// callers check Response.Error.
func (s *Session) Send(ctx context.Context, m Method) (*Response, error) {
	select {
	case <-s.done:
		return nil, ErrClosed
	default:
	}

	id := s.requestID.Add(1)
	cmd := NewCommand(id, m)

	frame, err := EncodeCommand(cmd)
	if err != nil {
		return nil, err
	}

	// Register for correlation before the bytes can hit the wire, so a
	// fast reply always finds its entry. The timeout clock starts here.
	respCh := make(chan *Response, 1)
	s.pendingMu.Lock()
	s.pending[id] = respCh
	s.pendingMu.Unlock()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	if err := s.write(frame); err != nil {
		s.removePending(id)
		return nil, fmt.Errorf("failed to send %s: %w", m.Name(), err)
	}

	select {
	case resp, ok := <-respCh:
		if !ok {
			return nil, ErrClosed
		}
		return resp, nil
	case <-timer.C:
		s.removePending(id)
		return nil, ErrTimeout
	case <-ctx.Done():
		s.removePending(id)
		return nil, ctx.Err()
	}
}

// write sends one encoded frame. The lock covers exactly the write of the
// frame so concurrent senders never interleave bytes.
func (s *Session) write(frame []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.conn.Write(frame); err != nil {
		return err
	}
	return nil
}

// Close tears the session down: the socket is closed, the reader exits
// and every in-flight awaiter observes ErrClosed. Close is idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
		s.failPending()
	})
	return nil
}

// Done is closed when the session ends, whether by Close or because the
// socket died. Err reports why.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the read error that terminated the session, or nil after a
// clean Close (or while the session is still alive).
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// readLoop is the single consumer of the socket. It exits when the socket
// is closed or errors; it never writes and never touches the id counter.
func (s *Session) readLoop() {
	scanner := bufio.NewScanner(s.conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		msg, err := DecodeMessage(line)
		if err != nil {
			// Best-effort stream: log and keep reading.
			s.log.WithError(err).WithField("line", string(line)).
				Error("Discarding unparseable line from device")
			continue
		}

		switch m := msg.(type) {
		case *Response:
			s.dispatchResponse(m)
		case *Notification:
			// Blocking send: a full sink applies backpressure to the
			// whole stream. The select lets teardown win.
			select {
			case s.notifications <- *m:
			case <-s.done:
				return
			}
		}
	}

	if err := scanner.Err(); err != nil {
		select {
		case <-s.done:
			// Close shut the socket; the read error is the teardown itself.
		default:
			s.errMu.Lock()
			s.err = err
			s.errMu.Unlock()
		}
	}

	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
		s.failPending()
	})
}

// dispatchResponse hands a reply to its awaiter. A reply whose entry is
// gone arrived after the awaiter timed out; it is dropped silently.
func (s *Session) dispatchResponse(resp *Response) {
	s.pendingMu.Lock()
	ch, ok := s.pending[resp.ID]
	if ok {
		delete(s.pending, resp.ID)
	}
	s.pendingMu.Unlock()

	if ok {
		ch <- resp
	}
}

// removePending drops the correlation entry for id, if still present.
func (s *Session) removePending(id uint64) {
	s.pendingMu.Lock()
	delete(s.pending, id)
	s.pendingMu.Unlock()
}

// failPending closes every pending channel so blocked awaiters observe
// ErrClosed.
func (s *Session) failPending() {
	s.pendingMu.Lock()
	for id, ch := range s.pending {
		close(ch)
		delete(s.pending, id)
	}
	s.pendingMu.Unlock()
}
