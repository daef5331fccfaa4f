package testutil

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tj-smith47/yeelight-go/yeelight"
)

// MethodHandler produces the raw reply line (without terminator) for a
// received command. Return "" to stay silent.
type MethodHandler func(cmd yeelight.Command) string

// Lamp is a scripted Yeelight device listening on a real loopback TCP
// socket. Tests register per-method handlers, connect a session to
// Addr(), and inspect the commands the lamp received.
type Lamp struct {
	listener net.Listener

	mu       sync.Mutex
	handlers map[string]MethodHandler
	commands []yeelight.Command
	raw      []string
	conns    []net.Conn
	closed   bool
}

// NewLamp starts a lamp on an ephemeral loopback port.
func NewLamp() (*Lamp, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	l := &Lamp{
		listener: listener,
		handlers: make(map[string]MethodHandler),
	}

	go l.serve()
	return l, nil
}

// Addr returns the lamp's host:port.
func (l *Lamp) Addr() string {
	return l.listener.Addr().String()
}

// OnMethod registers a handler for a method. Without one, commands are
// acknowledged with {"id":N,"result":["ok"]}.
func (l *Lamp) OnMethod(method string, handler MethodHandler) *Lamp {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[method] = handler
	return l
}

// OnMethodResult registers a fixed success reply for a method.
func (l *Lamp) OnMethodResult(method string, result ...string) *Lamp {
	return l.OnMethod(method, func(cmd yeelight.Command) string {
		data, _ := json.Marshal(result)
		return fmt.Sprintf(`{"id":%d,"result":%s}`, cmd.ID, data)
	})
}

// OnMethodError registers a fixed error reply for a method.
func (l *Lamp) OnMethodError(method string, code int, message string) *Lamp {
	return l.OnMethod(method, func(cmd yeelight.Command) string {
		return fmt.Sprintf(`{"id":%d,"error":{"code":%d,"message":%q}}`, cmd.ID, code, message)
	})
}

// OnMethodSilent registers a handler that never replies, for exercising
// timeouts.
func (l *Lamp) OnMethodSilent(method string) *Lamp {
	return l.OnMethod(method, func(yeelight.Command) string { return "" })
}

// Notify pushes a raw line (a notification, or anything else) to every
// connected session, waiting briefly for the first connection so tests
// cannot race the accept loop.
func (l *Lamp) Notify(line string) {
	deadline := time.Now().Add(2 * time.Second)
	for {
		l.mu.Lock()
		conns := make([]net.Conn, len(l.conns))
		copy(conns, l.conns)
		l.mu.Unlock()

		if len(conns) > 0 || time.Now().After(deadline) {
			for _, conn := range conns {
				fmt.Fprintf(conn, "%s\r\n", line)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
}

// Commands returns every decoded command received so far.
func (l *Lamp) Commands() []yeelight.Command {
	l.mu.Lock()
	defer l.mu.Unlock()
	commands := make([]yeelight.Command, len(l.commands))
	copy(commands, l.commands)
	return commands
}

// Raw returns every received line that decoded as a command, verbatim,
// terminators stripped. Lines that are not valid commands are not kept.
func (l *Lamp) Raw() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	raw := make([]string, len(l.raw))
	copy(raw, l.raw)
	return raw
}

// CloseConns drops every connected session but keeps listening, to
// simulate the device going away.
func (l *Lamp) CloseConns() {
	l.mu.Lock()
	for _, conn := range l.conns {
		conn.Close()
	}
	l.conns = nil
	l.mu.Unlock()
}

// Close shuts the lamp down.
func (l *Lamp) Close() {
	l.mu.Lock()
	l.closed = true
	conns := l.conns
	l.conns = nil
	l.mu.Unlock()

	l.listener.Close()
	for _, conn := range conns {
		conn.Close()
	}
}

func (l *Lamp) serve() {
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			return
		}

		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			conn.Close()
			return
		}
		l.conns = append(l.conns, conn)
		l.mu.Unlock()

		go l.handleConn(conn)
	}
}

func (l *Lamp) handleConn(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()

		var cmd yeelight.Command
		if err := json.Unmarshal([]byte(line), &cmd); err != nil {
			continue
		}

		l.mu.Lock()
		l.raw = append(l.raw, line)
		l.commands = append(l.commands, cmd)
		handler := l.handlers[cmd.Method]
		l.mu.Unlock()

		reply := fmt.Sprintf(`{"id":%d,"result":["ok"]}`, cmd.ID)
		if handler != nil {
			reply = handler(cmd)
		}
		if reply != "" {
			fmt.Fprintf(conn, "%s\r\n", reply)
		}
	}
}
