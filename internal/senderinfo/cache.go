// Package senderinfo caches sender and domain enrichment profiles fetched
// through the gateway. Profiles are expensive to produce, so the cache
// coalesces concurrent lookups for the same address and serves entries
// until they go stale or the backend pushes a sender-updated event.
package senderinfo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ShashiSrinath/dueam/internal/gateway"
	"github.com/ShashiSrinath/dueam/internal/model"
)

// DefaultStaleAfter is how long a cached profile is trusted before a
// lookup re-fetches it.
const DefaultStaleAfter = time.Hour

type entry struct {
	sender    *model.Sender
	fetchedAt time.Time
}

type domainEntry struct {
	domain    *model.Domain
	fetchedAt time.Time
}

// Cache is a read-through cache over the gateway's sender and domain
// enrichment commands.
type Cache struct {
	gw         gateway.Gateway
	log        *logrus.Logger
	staleAfter time.Duration
	now        func() time.Time

	mu       sync.Mutex
	senders  map[string]entry
	domains  map[string]domainEntry
	inflight map[string]chan struct{}

	onUpdate     func(address string)
	cancelEvents func()
}

// Options configures a Cache. Zero values select defaults.
type Options struct {
	StaleAfter time.Duration
	Logger     *logrus.Logger

	// OnUpdate runs after an entry changes, with the affected address.
	OnUpdate func(address string)
}

// New creates a cache and subscribes it to sender-updated push events so
// backend-side enrichment refreshes invalidate local entries.
func New(gw gateway.Gateway, events gateway.EventSource, opts Options) *Cache {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	c := &Cache{
		gw:         gw,
		log:        opts.Logger,
		staleAfter: opts.StaleAfter,
		now:        time.Now,
		senders:    make(map[string]entry),
		domains:    make(map[string]domainEntry),
		inflight:   make(map[string]chan struct{}),
		onUpdate:   opts.OnUpdate,
	}
	if events != nil {
		c.cancelEvents = events.Subscribe(c.onEvent)
	}
	return c
}

// Close detaches the cache from the event channel.
func (c *Cache) Close() {
	if c.cancelEvents != nil {
		c.cancelEvents()
	}
}

// Sender returns the profile for address, fetching through the gateway
// when the cache has no fresh entry. Concurrent lookups for the same
// address share one fetch. A nil profile with nil error means the backend
// has no enrichment for this address yet.
func (c *Cache) Sender(ctx context.Context, address string) (*model.Sender, error) {
	address = normalize(address)
	if address == "" {
		return nil, nil
	}

	for {
		c.mu.Lock()
		if e, ok := c.senders[address]; ok && c.now().Sub(e.fetchedAt) < c.staleAfter {
			c.mu.Unlock()
			return e.sender, nil
		}
		if done, ok := c.inflight[address]; ok {
			c.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}
		done := make(chan struct{})
		c.inflight[address] = done
		c.mu.Unlock()

		sender, err := c.gw.GetSenderInfo(ctx, address)

		c.mu.Lock()
		delete(c.inflight, address)
		close(done)
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		c.senders[address] = entry{sender: sender, fetchedAt: c.now()}
		c.mu.Unlock()

		c.notify(address)
		return sender, nil
	}
}

// Refresh forces re-enrichment of address through the backend, bypassing
// freshness. manual marks a user-initiated request, which the backend
// weighs differently against enrichment quotas.
func (c *Cache) Refresh(ctx context.Context, address string, manual bool) (*model.Sender, error) {
	address = normalize(address)
	if address == "" {
		return nil, nil
	}

	sender, err := c.gw.RegenerateSenderInfo(ctx, address, manual)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.senders[address] = entry{sender: sender, fetchedAt: c.now()}
	c.mu.Unlock()

	c.notify(address)
	return sender, nil
}

// Update persists a user edit to a sender profile and refreshes the cache
// entry with it.
func (c *Cache) Update(ctx context.Context, s model.Sender) error {
	s.Address = normalize(s.Address)
	if err := c.gw.UpdateSenderInfo(ctx, s); err != nil {
		return err
	}

	c.mu.Lock()
	saved := s
	c.senders[s.Address] = entry{sender: &saved, fetchedAt: c.now()}
	c.mu.Unlock()

	c.notify(s.Address)
	return nil
}

// Domain returns the enrichment profile for a sending domain.
func (c *Cache) Domain(ctx context.Context, domain string) (*model.Domain, error) {
	domain = normalize(domain)
	if domain == "" {
		return nil, nil
	}

	c.mu.Lock()
	if e, ok := c.domains[domain]; ok && c.now().Sub(e.fetchedAt) < c.staleAfter {
		c.mu.Unlock()
		return e.domain, nil
	}
	c.mu.Unlock()

	d, err := c.gw.GetDomainInfo(ctx, domain)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.domains[domain] = domainEntry{domain: d, fetchedAt: c.now()}
	c.mu.Unlock()
	return d, nil
}

// Invalidate drops the cached entry for address so the next lookup hits
// the backend.
func (c *Cache) Invalidate(address string) {
	address = normalize(address)
	c.mu.Lock()
	delete(c.senders, address)
	c.mu.Unlock()
}

// Peek returns the cached profile without fetching. ok is false when no
// entry exists, fresh or stale.
func (c *Cache) Peek(address string) (sender *model.Sender, ok bool) {
	address = normalize(address)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.senders[address]
	return e.sender, ok
}

// onEvent refreshes the affected entry when the backend finishes a
// background enrichment.
func (c *Cache) onEvent(ev gateway.Event) {
	if ev.Name != gateway.EventSenderUpdated {
		return
	}
	address := normalize(ev.SenderAddress())
	if address == "" {
		return
	}

	c.Invalidate(address)
	go func() {
		if _, err := c.Sender(context.Background(), address); err != nil {
			c.log.WithError(err).WithField("address", address).
				Warn("re-fetching sender after update event")
		}
	}()
}

func (c *Cache) notify(address string) {
	if c.onUpdate != nil {
		c.onUpdate(address)
	}
}

func normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
