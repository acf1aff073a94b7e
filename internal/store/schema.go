package store

const schemaVersion = "1"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (version TEXT PRIMARY KEY)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
        id TEXT PRIMARY KEY,
        taken_at TEXT NOT NULL,
        source TEXT NOT NULL,
        member_count INTEGER NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS members (
        snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
        position INTEGER NOT NULL,
        first TEXT NOT NULL,
        last TEXT NOT NULL,
        phone TEXT NOT NULL,
        address TEXT NOT NULL,
        town TEXT NOT NULL,
        state TEXT NOT NULL,
        postal_code TEXT NOT NULL,
        country TEXT NOT NULL,
        email TEXT NOT NULL,
        dues TEXT NOT NULL,
        dock TEXT NOT NULL,
        kayak TEXT NOT NULL,
        mooring TEXT NOT NULL,
        status TEXT NOT NULL,
        email_only INTEGER NOT NULL DEFAULT 0,
        PRIMARY KEY (snapshot_id, last, first)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_members_email ON members(email)`,
}
