package localbackend

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	kind       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	name       TEXT,
	avatar_url TEXT,
	server     TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS folders (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id   INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	name         TEXT NOT NULL,
	path         TEXT NOT NULL,
	role         TEXT NOT NULL DEFAULT '',
	UNIQUE(account_id, path)
);

CREATE TABLE IF NOT EXISTS emails (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id     INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	folder_id      INTEGER NOT NULL REFERENCES folders(id) ON DELETE CASCADE,
	remote_id      TEXT NOT NULL,
	message_id     TEXT,
	thread_id      TEXT,
	subject        TEXT,
	sender_name    TEXT,
	sender_address TEXT NOT NULL,
	recipient_to   TEXT,
	date           TEXT NOT NULL,
	flags          TEXT NOT NULL DEFAULT '[]',
	snippet        TEXT,
	summary        TEXT,
	has_attachments INTEGER NOT NULL DEFAULT 0,
	is_reply       INTEGER NOT NULL DEFAULT 0,
	is_forward     INTEGER NOT NULL DEFAULT 0,
	UNIQUE(folder_id, remote_id)
);

CREATE TABLE IF NOT EXISTS email_bodies (
	email_id  INTEGER PRIMARY KEY REFERENCES emails(id) ON DELETE CASCADE,
	body_text TEXT,
	body_html TEXT
);

CREATE TABLE IF NOT EXISTS drafts (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id    INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	to_address    TEXT,
	cc_address    TEXT,
	bcc_address   TEXT,
	subject       TEXT,
	body_html     TEXT,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attachments (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	email_id  INTEGER REFERENCES emails(id) ON DELETE CASCADE,
	draft_id  INTEGER REFERENCES drafts(id) ON DELETE CASCADE,
	filename  TEXT,
	mime_type TEXT,
	size      INTEGER NOT NULL DEFAULT 0,
	data      BLOB
);

CREATE TABLE IF NOT EXISTS senders (
	address          TEXT PRIMARY KEY,
	name             TEXT,
	avatar_url       TEXT,
	job_title        TEXT,
	company          TEXT,
	bio              TEXT,
	location         TEXT,
	github_handle    TEXT,
	linkedin_handle  TEXT,
	twitter_handle   TEXT,
	website_url      TEXT,
	is_verified      INTEGER NOT NULL DEFAULT 0,
	last_enriched_at DATETIME
);

CREATE TABLE IF NOT EXISTS domains (
	domain           TEXT PRIMARY KEY,
	name             TEXT,
	logo_url         TEXT,
	description      TEXT,
	website_url      TEXT,
	location         TEXT,
	headquarters     TEXT,
	last_enriched_at DATETIME
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_emails_list
	ON emails(folder_id, date DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_emails_account ON emails(account_id);
CREATE INDEX IF NOT EXISTS idx_emails_thread ON emails(thread_id);
CREATE INDEX IF NOT EXISTS idx_emails_sender ON emails(sender_address);
CREATE INDEX IF NOT EXISTS idx_folders_role ON folders(account_id, role);
CREATE INDEX IF NOT EXISTS idx_attachments_email ON attachments(email_id);
CREATE INDEX IF NOT EXISTS idx_attachments_draft ON attachments(draft_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_drafts_account_updated
	ON drafts(account_id, updated_at DESC);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
