package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ShashiSrinath/dueam/internal/app"
	"github.com/ShashiSrinath/dueam/internal/credential"
	"github.com/ShashiSrinath/dueam/internal/gateway"
	"github.com/ShashiSrinath/dueam/internal/localbackend"
	"github.com/ShashiSrinath/dueam/internal/mailstore"
	"github.com/ShashiSrinath/dueam/internal/model"
	"github.com/ShashiSrinath/dueam/internal/senderinfo"
	"github.com/ShashiSrinath/dueam/internal/settings"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	configPath string
	logLevel   string
	demoMode   bool
	demoDBPath string
)

var rootCmd = &cobra.Command{
	Use:   "dueam",
	Short: "dueam - terminal mail client",
	Long:  "Dueam: a terminal mail client over a native sync backend, with local drafts, sender enrichment, and unified mailboxes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("dueam", Version)
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/dueam/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&demoMode, "demo", false, "run against a seeded local database instead of a backend")
	rootCmd.Flags().StringVar(&demoDBPath, "db", "", "database path for --demo (default ~/.local/share/dueam/demo.db)")
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	log, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	path := configPath
	if path == "" {
		path = model.DefaultConfigPath()
	}
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return err
	}

	gw, events, shutdown, err := connectBackend(cfg, log)
	if err != nil {
		return err
	}
	defer shutdown()

	store := mailstore.New(gw, events, mailstore.Options{
		PageSize:          cfg.Store.PageSize,
		ReconcileDebounce: time.Duration(cfg.Store.ReconcileDebounceMs) * time.Millisecond,
		AutosaveDebounce:  time.Duration(cfg.Store.AutosaveDebounceMs) * time.Millisecond,
		Logger:            log,
	})
	defer store.Close()

	senders := senderinfo.New(gw, events, senderinfo.Options{
		StaleAfter: time.Duration(cfg.Store.SenderStaleMinutes) * time.Minute,
		Logger:     log,
	})
	defer senders.Close()

	sets := settings.New(gw, log)

	program := tea.NewProgram(
		app.New(app.Deps{
			Store:    store,
			Gateway:  gw,
			Senders:  senders,
			Settings: sets,
			Logger:   log,
		}),
		tea.WithAltScreen(),
	)

	_, err = program.Run()
	return err
}

// connectBackend picks the gateway for this run: a seeded local database
// in demo mode, a unix socket when configured, or a spawned backend
// process speaking JSON over stdio.
func connectBackend(cfg *model.AppConfig, log *logrus.Logger) (gateway.Gateway, gateway.EventSource, func(), error) {
	if demoMode {
		dbPath := demoDBPath
		if dbPath == "" {
			dbPath = defaultDemoDBPath()
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, nil, nil, fmt.Errorf("creating data directory: %w", err)
		}
		backend, err := localbackend.New(dbPath, log)
		if err != nil {
			return nil, nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := backend.Seed(ctx); err != nil {
			backend.Close()
			return nil, nil, nil, fmt.Errorf("seeding demo data: %w", err)
		}
		return backend, backend, func() { backend.Close() }, nil
	}

	if cfg.Backend.Socket != "" {
		conn, err := gateway.DialSocket(cfg.Backend.Socket, log)
		if err != nil {
			return nil, nil, nil, err
		}
		return gateway.NewClient(conn), conn, func() { conn.Close() }, nil
	}

	if cfg.Backend.Command == "" {
		return nil, nil, nil, fmt.Errorf("no backend configured; set backend.command or backend.socket in %s, or use --demo", model.DefaultConfigPath())
	}

	args := cfg.Backend.Args
	if token, err := credential.Get(credential.KeyBackendToken); err == nil && token != "" {
		args = append(append([]string{}, args...), "--token", token)
	}
	conn, err := gateway.SpawnBackend(cfg.Backend.Command, args, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return gateway.NewClient(conn), conn, func() { conn.Close() }, nil
}

// newLogger builds a file-backed logger; stdout belongs to the TUI.
func newLogger() (*logrus.Logger, func(), error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q", logLevel)
	}
	log.SetLevel(level)

	dir := defaultStateDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.SetOutput(io.Discard)
		return log, func() {}, nil
	}
	f, err := os.OpenFile(filepath.Join(dir, "dueam.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.SetOutput(io.Discard)
		return log, func() {}, nil
	}
	log.SetOutput(f)
	return log, func() { f.Close() }, nil
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "state", "dueam")
}

func defaultDemoDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "demo.db"
	}
	return filepath.Join(home, ".local", "share", "dueam", "demo.db")
}
