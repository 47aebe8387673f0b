package app

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ShashiSrinath/dueam/internal/mailstore"
	"github.com/ShashiSrinath/dueam/internal/settings"
	"github.com/ShashiSrinath/dueam/tests/testutil"
)

func newPaletteModel(t *testing.T) Model {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	fake := &testutil.FakeGateway{}
	st := mailstore.New(fake, nil, mailstore.Options{Logger: log})
	t.Cleanup(st.Close)

	return New(Deps{
		Store:    st,
		Gateway:  fake,
		Settings: settings.New(fake, log),
		Logger:   log,
	})
}

func TestPaletteDispatchesAPIKeyCommands(t *testing.T) {
	m := newPaletteModel(t)

	// The returned commands talk to the OS keyring, so only dispatch is
	// checked here.
	if cmd := m.executeCommand("apikey secret-123"); cmd == nil {
		t.Fatal("storing an api key should dispatch a command")
	}
	if cmd := m.executeCommand("apikey clear"); cmd == nil {
		t.Fatal("clearing the api key should dispatch a command")
	}
	if cmd := m.executeCommand("apikey"); cmd != nil {
		t.Fatal("bare apikey must be a no-op")
	}
}

func TestPaletteIgnoresUnknownCommands(t *testing.T) {
	m := newPaletteModel(t)

	if cmd := m.executeCommand("frobnicate"); cmd != nil {
		t.Fatal("unknown command should be dropped")
	}
	if cmd := m.executeCommand("   "); cmd != nil {
		t.Fatal("blank input should be dropped")
	}
}
