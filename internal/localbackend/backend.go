// Package localbackend is an in-process implementation of the gateway
// command surface backed by a local SQLite database. It powers demo mode
// and integration tests, serving the same commands and push events the
// external backend daemon does, without any network protocol behind it.
package localbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/ShashiSrinath/dueam/internal/gateway"
	"github.com/ShashiSrinath/dueam/internal/model"
)

// Backend implements gateway.Gateway and gateway.EventSource over a local
// SQLite database.
type Backend struct {
	db  *sqlx.DB
	hub *gateway.Hub
	log *logrus.Logger
}

var (
	_ gateway.Gateway     = (*Backend)(nil)
	_ gateway.EventSource = (*Backend)(nil)
)

// New opens (or creates) a SQLite database at dbPath, enables WAL mode,
// and runs any pending schema migrations.
func New(dbPath string, log *logrus.Logger) (*Backend, error) {
	if log == nil {
		log = logrus.New()
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// One pooled connection only. SQLite serializes writers anyway, the
	// pragmas below are per-connection, and a :memory: path would give
	// every additional pooled connection its own empty database.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	b := &Backend{db: db, hub: gateway.NewHub(), log: log}
	if err := b.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return b, nil
}

// Close closes the underlying database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Subscribe registers a push-event handler.
func (b *Backend) Subscribe(fn func(gateway.Event)) (cancel func()) {
	return b.hub.Subscribe(fn)
}

// emit publishes a push event to all subscribers.
func (b *Backend) emit(name string, payload interface{}) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			b.log.WithError(err).WithField("event", name).Warn("encoding event payload")
			return
		}
		raw = data
	}
	b.hub.Publish(gateway.Event{Name: name, Payload: raw})
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (b *Backend) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := b.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = b.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := b.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// GetAccounts retrieves all configured accounts.
func (b *Backend) GetAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := b.db.QueryxContext(ctx,
		"SELECT id, kind, email, name, avatar_url, server FROM accounts ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var (
			a          model.Account
			kind       string
			serverJSON *string
		)
		if err := rows.Scan(&a.ID, &kind, &a.Email, &a.Name, &a.AvatarURL, &serverJSON); err != nil {
			return nil, fmt.Errorf("scanning account row: %w", err)
		}
		a.Kind = model.AccountKind(kind)
		if serverJSON != nil && *serverJSON != "" {
			var server model.ServerConfig
			if err := json.Unmarshal([]byte(*serverJSON), &server); err != nil {
				return nil, fmt.Errorf("unmarshaling server config: %w", err)
			}
			a.Server = &server
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

// GetFolders retrieves all folders of one account with live unread and
// total counts.
func (b *Backend) GetFolders(ctx context.Context, accountID int64) ([]model.Folder, error) {
	const query = `
		SELECT f.id, f.account_id, f.name, f.path, f.role,
			COUNT(e.id) AS total,
			COALESCE(SUM(CASE WHEN e.flags NOT LIKE '%"seen"%' THEN 1 ELSE 0 END), 0) AS unread
		FROM folders f
		LEFT JOIN emails e ON e.folder_id = f.id
		WHERE f.account_id = ?
		GROUP BY f.id
		ORDER BY f.id`

	rows, err := b.db.QueryxContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying folders: %w", err)
	}
	defer rows.Close()

	var folders []model.Folder
	for rows.Next() {
		var f model.Folder
		if err := rows.Scan(&f.ID, &f.AccountID, &f.Name, &f.Path, &f.Role,
			&f.TotalCount, &f.UnreadCount); err != nil {
			return nil, fmt.Errorf("scanning folder row: %w", err)
		}
		folders = append(folders, f)
	}

	return folders, rows.Err()
}

// GetUnifiedCounts computes aggregate counts per logical view across all
// accounts. Primary, spam, and others count unread messages; sent and
// drafts count items.
func (b *Backend) GetUnifiedCounts(ctx context.Context) (model.UnifiedCounts, error) {
	var counts model.UnifiedCounts

	const unreadByRole = `
		SELECT COALESCE(SUM(CASE WHEN e.flags NOT LIKE '%"seen"%' THEN 1 ELSE 0 END), 0)
		FROM emails e
		JOIN folders f ON f.id = e.folder_id
		WHERE f.role = ?`

	if err := b.db.GetContext(ctx, &counts.Primary, unreadByRole, model.RoleInbox); err != nil {
		return counts, fmt.Errorf("counting primary: %w", err)
	}
	if err := b.db.GetContext(ctx, &counts.Spam, unreadByRole, model.RoleSpam); err != nil {
		return counts, fmt.Errorf("counting spam: %w", err)
	}

	const totalByRole = `
		SELECT COUNT(*)
		FROM emails e
		JOIN folders f ON f.id = e.folder_id
		WHERE f.role = ?`

	if err := b.db.GetContext(ctx, &counts.Sent, totalByRole, model.RoleSent); err != nil {
		return counts, fmt.Errorf("counting sent: %w", err)
	}

	if err := b.db.GetContext(ctx, &counts.Drafts,
		"SELECT COUNT(*) FROM drafts"); err != nil {
		return counts, fmt.Errorf("counting drafts: %w", err)
	}

	const othersUnread = `
		SELECT COALESCE(SUM(CASE WHEN e.flags NOT LIKE '%"seen"%' THEN 1 ELSE 0 END), 0)
		FROM emails e
		JOIN folders f ON f.id = e.folder_id
		WHERE f.role = ''`
	if err := b.db.GetContext(ctx, &counts.Others, othersUnread); err != nil {
		return counts, fmt.Errorf("counting others: %w", err)
	}

	return counts, nil
}

// GetSettings retrieves the full settings map.
func (b *Backend) GetSettings(ctx context.Context) (map[string]string, error) {
	rows, err := b.db.QueryxContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning setting row: %w", err)
		}
		settings[k] = v
	}

	return settings, rows.Err()
}

// UpdateSetting writes one settings key.
func (b *Backend) UpdateSetting(ctx context.Context, key, value string) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("updating setting %q: %w", key, err)
	}
	return nil
}

// nowRFC3339 formats the current time the way the emails table stores
// dates.
func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
