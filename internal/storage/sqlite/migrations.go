package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Child rows carry a position column so list order survives a round trip.
const schema = `
CREATE TABLE IF NOT EXISTS tabs (
    code TEXT PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    bar TEXT NOT NULL DEFAULT '',
    mode TEXT NOT NULL DEFAULT 'split',
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS members (
    tab_code TEXT NOT NULL,
    id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    cash REAL NOT NULL DEFAULT 0,
    paid REAL NOT NULL DEFAULT 0,
    balance REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (tab_code, id),
    FOREIGN KEY (tab_code) REFERENCES tabs(code) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    tab_code TEXT NOT NULL,
    position INTEGER NOT NULL,
    item TEXT NOT NULL,
    value REAL NOT NULL,
    paid_by TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (tab_code) REFERENCES tabs(code) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS expense_consumers (
    expense_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    member_id TEXT NOT NULL,
    PRIMARY KEY (expense_id, position),
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS closures (
    id TEXT PRIMARY KEY,
    tab_code TEXT NOT NULL,
    position INTEGER NOT NULL,
    total REAL NOT NULL,
    winner TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (tab_code) REFERENCES tabs(code) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bars (
    name TEXT PRIMARY KEY,
    email TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tabs_name ON tabs(name);
CREATE INDEX IF NOT EXISTS idx_members_tab_code ON members(tab_code);
CREATE INDEX IF NOT EXISTS idx_expenses_tab_code ON expenses(tab_code);
CREATE INDEX IF NOT EXISTS idx_closures_tab_code ON closures(tab_code);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
