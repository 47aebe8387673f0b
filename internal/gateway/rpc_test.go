package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// fakeBackend services JSON-RPC frames on the far end of a net.Pipe.
type fakeBackend struct {
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder

	mu      sync.Mutex
	handler func(method string, params json.RawMessage) (any, *RPCError)
}

func newFakeBackend(t *testing.T) (*fakeBackend, *Conn) {
	t.Helper()

	client, server := net.Pipe()
	b := &fakeBackend{
		conn: server,
		enc:  json.NewEncoder(server),
		dec:  json.NewDecoder(server),
	}
	go b.serve()

	log := logrus.New()
	log.SetOutput(io.Discard)

	c := NewConn(client, log)
	t.Cleanup(func() {
		c.Close()
		server.Close()
	})
	return b, c
}

func (b *fakeBackend) setHandler(fn func(method string, params json.RawMessage) (any, *RPCError)) {
	b.mu.Lock()
	b.handler = fn
	b.mu.Unlock()
}

func (b *fakeBackend) serve() {
	for {
		var frame rpcFrame
		if err := b.dec.Decode(&frame); err != nil {
			return
		}
		b.mu.Lock()
		fn := b.handler
		b.mu.Unlock()

		var result any
		var rpcErr *RPCError
		if fn != nil {
			result, rpcErr = fn(frame.Method, frame.Params)
		}

		resp := map[string]any{"jsonrpc": "2.0", "id": *frame.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		if err := b.enc.Encode(resp); err != nil {
			return
		}
	}
}

func (b *fakeBackend) notify(method string, params any) error {
	return b.enc.Encode(map[string]any{"jsonrpc": "2.0", "method": method, "params": params})
}

func TestInvokeRoundTrip(t *testing.T) {
	b, c := newFakeBackend(t)
	b.setHandler(func(method string, params json.RawMessage) (any, *RPCError) {
		if method != "get_settings" {
			t.Errorf("method = %q, want get_settings", method)
		}
		return map[string]string{"theme": "dark"}, nil
	})

	var got map[string]string
	if err := c.Invoke(context.Background(), "get_settings", nil, &got); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got["theme"] != "dark" {
		t.Errorf("result = %v, want theme=dark", got)
	}
}

func TestInvokeBackendError(t *testing.T) {
	b, c := newFakeBackend(t)
	b.setHandler(func(string, json.RawMessage) (any, *RPCError) {
		return nil, &RPCError{Code: -32603, Message: "folder not found"}
	})

	err := c.Invoke(context.Background(), "move_to_trash", map[string]any{"email_ids": []int64{1}}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var rpcErr *RPCError
	if !asRPCError(err, &rpcErr) {
		t.Fatalf("error %T is not *RPCError", err)
	}
	if rpcErr.Message != "folder not found" {
		t.Errorf("message = %q", rpcErr.Message)
	}
}

func asRPCError(err error, target **RPCError) bool {
	e, ok := err.(*RPCError)
	if ok {
		*target = e
	}
	return ok
}

func TestNotificationsFanOut(t *testing.T) {
	b, c := newFakeBackend(t)

	got := make(chan Event, 2)
	cancel1 := c.Subscribe(func(ev Event) { got <- ev })
	defer cancel1()
	cancel2 := c.Subscribe(func(ev Event) { got <- ev })
	defer cancel2()

	if err := b.notify(EventSenderUpdated, "alice@example.com"); err != nil {
		t.Fatalf("notify: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case ev := <-got:
			if ev.Name != EventSenderUpdated {
				t.Errorf("event name = %q", ev.Name)
			}
			if addr := ev.SenderAddress(); addr != "alice@example.com" {
				t.Errorf("address = %q", addr)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for notification")
		}
	}
}

func TestInvokeContextAbandons(t *testing.T) {
	release := make(chan struct{})
	b, c := newFakeBackend(t)
	b.setHandler(func(string, json.RawMessage) (any, *RPCError) {
		<-release
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Invoke(ctx, "get_accounts", nil, nil)
	if err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}

	// The late response must be dropped without disturbing later calls.
	close(release)
	b.setHandler(func(string, json.RawMessage) (any, *RPCError) {
		return []any{}, nil
	})
	var out []any
	if err := c.Invoke(context.Background(), "get_accounts", nil, &out); err != nil {
		t.Fatalf("follow-up Invoke: %v", err)
	}
}
