// Package settings mirrors the backend's key/value settings table with
// optimistic local writes.
package settings

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ShashiSrinath/dueam/internal/gateway"
)

// Well-known setting keys used by the client.
const (
	KeyTheme            = "theme"
	KeyAISummaries      = "ai_summaries_enabled"
	KeySignature        = "signature"
	KeyMarkReadOnOpen   = "mark_read_on_open"
	KeyNotificationsOn  = "notifications_enabled"
	KeyDefaultAccountID = "default_account_id"
)

// Settings holds the synced key/value map. Sets apply locally before the
// backend confirms and revert if it rejects.
type Settings struct {
	gw  gateway.Gateway
	log *logrus.Logger

	mu     sync.Mutex
	values map[string]string
	loaded bool

	subs    map[int]func()
	nextSub int
}

func New(gw gateway.Gateway, log *logrus.Logger) *Settings {
	if log == nil {
		log = logrus.New()
	}
	return &Settings{
		gw:     gw,
		log:    log,
		values: make(map[string]string),
		subs:   make(map[int]func()),
	}
}

// Load fetches the full settings map from the backend, replacing any local
// values.
func (s *Settings) Load(ctx context.Context) error {
	values, err := s.gw.GetSettings(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.values = make(map[string]string, len(values))
	for k, v := range values {
		s.values[k] = v
	}
	s.loaded = true
	s.mu.Unlock()

	s.notify()
	return nil
}

// Get returns the value for key and whether it is present.
func (s *Settings) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// GetDefault returns the value for key, or fallback when unset.
func (s *Settings) GetDefault(key, fallback string) string {
	if v, ok := s.Get(key); ok {
		return v
	}
	return fallback
}

// Bool interprets the value for key as a boolean flag.
func (s *Settings) Bool(key string, fallback bool) bool {
	v, ok := s.Get(key)
	if !ok {
		return fallback
	}
	return v == "true" || v == "1"
}

// All returns a copy of the current settings map.
func (s *Settings) All() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Set writes key optimistically and persists it through the backend. On
// rejection the previous value is restored and the error returned.
func (s *Settings) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	prev, had := s.values[key]
	s.values[key] = value
	s.mu.Unlock()
	s.notify()

	if err := s.gw.UpdateSetting(ctx, key, value); err != nil {
		s.mu.Lock()
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		s.mu.Unlock()
		s.notify()
		return err
	}
	return nil
}

// Subscribe registers fn to run after every settings change and returns a
// cancel function.
func (s *Settings) Subscribe(fn func()) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Settings) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
