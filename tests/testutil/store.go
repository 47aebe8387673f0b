package testutil

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ShashiSrinath/dueam/internal/localbackend"
)

// NewTestBackend creates an in-memory local backend with all migrations
// applied. It automatically closes the backend when the test completes.
func NewTestBackend(t *testing.T) *localbackend.Backend {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	b, err := localbackend.New(":memory:", log)
	if err != nil {
		t.Fatalf("creating test backend: %v", err)
	}

	t.Cleanup(func() {
		if err := b.Close(); err != nil {
			t.Errorf("closing test backend: %v", err)
		}
	})

	return b
}
