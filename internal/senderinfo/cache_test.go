package senderinfo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ShashiSrinath/dueam/internal/gateway"
	"github.com/ShashiSrinath/dueam/internal/model"
	"github.com/ShashiSrinath/dueam/internal/senderinfo"
	"github.com/ShashiSrinath/dueam/tests/testutil"
)

func profile(address, name string) *model.Sender {
	return &model.Sender{Address: address, Name: &name}
}

func TestSenderCachesAndCoalesces(t *testing.T) {
	release := make(chan struct{})
	fake := &testutil.FakeGateway{
		SenderInfoFn: func(_ context.Context, address string) (*model.Sender, error) {
			<-release
			return profile(address, "Alice"), nil
		},
	}

	c := senderinfo.New(fake, nil, senderinfo.Options{})
	t.Cleanup(c.Close)

	var wg sync.WaitGroup
	results := make([]*model.Sender, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := c.Sender(context.Background(), "Alice@Example.com")
			if err != nil {
				t.Errorf("lookup %d: %v", i, err)
			}
			results[i] = s
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := fake.CallCount("get_sender_info"); n != 1 {
		t.Fatalf("concurrent lookups caused %d fetches, want 1", n)
	}
	for i, s := range results {
		if s == nil || s.Address != "alice@example.com" {
			t.Fatalf("lookup %d got %+v", i, s)
		}
	}

	// A later lookup inside the freshness window stays local.
	if _, err := c.Sender(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("cached lookup: %v", err)
	}
	if n := fake.CallCount("get_sender_info"); n != 1 {
		t.Fatalf("fresh entry re-fetched, %d calls", n)
	}
}

func TestRefreshBypassesFreshness(t *testing.T) {
	fake := &testutil.FakeGateway{
		SenderInfoFn: func(_ context.Context, address string) (*model.Sender, error) {
			return profile(address, "Old"), nil
		},
		RegenerateFn: func(_ context.Context, address string, manual bool) (*model.Sender, error) {
			if !manual {
				t.Error("user refresh must be marked manual")
			}
			return profile(address, "New"), nil
		},
	}

	c := senderinfo.New(fake, nil, senderinfo.Options{})
	t.Cleanup(c.Close)

	if _, err := c.Sender(context.Background(), "bob@example.com"); err != nil {
		t.Fatalf("seed lookup: %v", err)
	}
	s, err := c.Refresh(context.Background(), "bob@example.com", true)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if s.Name == nil || *s.Name != "New" {
		t.Fatalf("refresh served stale profile %+v", s)
	}

	// The refreshed value replaces the cached one.
	s, _ = c.Sender(context.Background(), "bob@example.com")
	if s.Name == nil || *s.Name != "New" {
		t.Fatal("cache still serves the pre-refresh profile")
	}
	if n := fake.CallCount("get_sender_info"); n != 1 {
		t.Fatalf("refresh did not update the cache in place, %d fetches", n)
	}
}

func TestSenderUpdatedEventRefetches(t *testing.T) {
	var mu sync.Mutex
	name := "Before"
	fake := &testutil.FakeGateway{
		SenderInfoFn: func(_ context.Context, address string) (*model.Sender, error) {
			mu.Lock()
			defer mu.Unlock()
			return profile(address, name), nil
		},
	}
	hub := gateway.NewHub()

	var updates []string
	var updatesMu sync.Mutex
	c := senderinfo.New(fake, hub, senderinfo.Options{
		OnUpdate: func(address string) {
			updatesMu.Lock()
			updates = append(updates, address)
			updatesMu.Unlock()
		},
	})
	t.Cleanup(c.Close)

	if _, err := c.Sender(context.Background(), "carol@example.com"); err != nil {
		t.Fatalf("seed lookup: %v", err)
	}

	mu.Lock()
	name = "After"
	mu.Unlock()
	hub.Publish(gateway.Event{Name: gateway.EventSenderUpdated, Payload: []byte(`"carol@example.com"`)})

	testutil.WaitFor(t, time.Second, func() bool {
		s, ok := c.Peek("carol@example.com")
		return ok && s != nil && s.Name != nil && *s.Name == "After"
	}, "event did not refresh the cached profile")

	updatesMu.Lock()
	defer updatesMu.Unlock()
	if len(updates) < 2 || updates[len(updates)-1] != "carol@example.com" {
		t.Fatalf("update hook calls: %v", updates)
	}
}
