package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// RPCError is a command failure reported by the backend. The code and
// message are opaque to this layer; they are logged and surfaced as-is.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Code, e.Message)
}

// ErrConnClosed is returned by Invoke after the connection has shut down.
var ErrConnClosed = fmt.Errorf("gateway: connection closed")

// rpcRequest is one outgoing JSON-RPC 2.0 frame.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      *int64 `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// rpcFrame is one incoming frame: a response (has an id) or a
// notification (has a method, no id).
type rpcFrame struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// Conn is a JSON-RPC 2.0 connection to the backend process, carrying both
// command invocations and push notifications over one byte stream.
//
// The backend cannot cancel work in flight: an expired context abandons the
// pending call here, and the late response is read and dropped when it
// eventually arrives.
type Conn struct {
	log    *logrus.Logger
	enc    *json.Encoder
	closer io.Closer
	hub    *Hub

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[int64]chan rpcFrame
	closed  bool

	nextID atomic.Int64
}

// NewConn wraps an established byte stream and starts its read loop.
func NewConn(rw io.ReadWriteCloser, log *logrus.Logger) *Conn {
	c := &Conn{
		log:     log,
		enc:     json.NewEncoder(rw),
		closer:  rw,
		hub:     NewHub(),
		pending: make(map[int64]chan rpcFrame),
	}
	go c.readLoop(json.NewDecoder(rw))
	return c
}

// DialSocket connects to a backend listening on a unix socket.
func DialSocket(path string, log *logrus.Logger) (*Conn, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("dialing backend socket %s: %w", path, err)
	}
	return NewConn(conn, log), nil
}

// stdioPipe adapts a child process's stdio to io.ReadWriteCloser.
type stdioPipe struct {
	io.Reader
	io.WriteCloser
	cmd *exec.Cmd
}

func (p *stdioPipe) Close() error {
	err := p.WriteCloser.Close()
	if werr := p.cmd.Wait(); err == nil {
		err = werr
	}
	return err
}

// SpawnBackend starts the backend executable and speaks JSON-RPC over its
// stdio, the same framing the backend uses on a socket.
func SpawnBackend(command string, args []string, log *logrus.Logger) (*Conn, error) {
	cmd := exec.Command(command, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("opening backend stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening backend stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting backend %s: %w", command, err)
	}

	log.WithField("command", command).Info("backend process started")
	return NewConn(&stdioPipe{Reader: stdout, WriteCloser: stdin, cmd: cmd}, log), nil
}

// Subscribe registers a handler for backend push notifications.
func (c *Conn) Subscribe(fn func(Event)) (cancel func()) {
	return c.hub.Subscribe(fn)
}

// Invoke executes one named command and decodes its result into result
// (which may be nil for commands without output).
func (c *Conn) Invoke(ctx context.Context, method string, params any, result any) error {
	id := c.nextID.Add(1)
	ch := make(chan rpcFrame, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	req := rpcRequest{JSONRPC: "2.0", ID: &id, Method: method, Params: params}

	c.writeMu.Lock()
	err := c.enc.Encode(req)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return fmt.Errorf("sending %s: %w", method, err)
	}

	select {
	case frame, ok := <-ch:
		if !ok {
			return ErrConnClosed
		}
		if frame.Error != nil {
			return frame.Error
		}
		if result == nil || len(frame.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(frame.Result, result); err != nil {
			return fmt.Errorf("decoding %s result: %w", method, err)
		}
		return nil

	case <-ctx.Done():
		// The backend will still answer eventually; readLoop drops
		// responses with no pending call.
		c.forget(id)
		return ctx.Err()
	}
}

// Close shuts the connection down and fails all pending calls.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	return c.closer.Close()
}

// forget drops the pending entry for an abandoned call.
func (c *Conn) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// readLoop decodes incoming frames, routing responses to their pending
// calls and fanning notifications out to subscribers.
func (c *Conn) readLoop(dec *json.Decoder) {
	for {
		var frame rpcFrame
		if err := dec.Decode(&frame); err != nil {
			if err != io.EOF {
				c.log.WithError(err).Error("decoding backend frame")
			}
			c.Close()
			return
		}

		if frame.ID == nil {
			if frame.Method == "" {
				c.log.Warn("dropping frame with neither id nor method")
				continue
			}
			c.hub.Publish(Event{Name: frame.Method, Payload: frame.Params})
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[*frame.ID]
		if ok {
			delete(c.pending, *frame.ID)
		}
		c.mu.Unlock()

		if !ok {
			// Response to an abandoned call.
			c.log.WithField("id", *frame.ID).Debug("dropping stale response")
			continue
		}
		ch <- frame
	}
}
