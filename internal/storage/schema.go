package storage

const schema = `
-- The 'notes' table stores each note and its hidden recall side.
CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    hidden_content TEXT NOT NULL DEFAULT '',
    hash TEXT NOT NULL DEFAULT '',
    source_id INTEGER,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,

    FOREIGN KEY(source_id) REFERENCES sources(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_user ON notes(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_notes_source_hash ON notes(source_id, hash);

-- Collection names are unique per user; imports look collections up by name.
CREATE TABLE IF NOT EXISTS collections (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at DATETIME NOT NULL,

    UNIQUE(user_id, name)
);

-- Notes and collections are many-to-many.
CREATE TABLE IF NOT EXISTS note_collections (
    note_id TEXT NOT NULL,
    collection_id TEXT NOT NULL,
    added_at DATETIME NOT NULL,

    PRIMARY KEY(note_id, collection_id),
    FOREIGN KEY(note_id) REFERENCES notes(id) ON DELETE CASCADE,
    FOREIGN KEY(collection_id) REFERENCES collections(id) ON DELETE CASCADE
);

-- The 'sources' table tracks where imported notes come from: a local directory,
-- a git repository or a spreadsheet.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    user_id TEXT NOT NULL,
    collection_id TEXT,
    last_scanned DATETIME,

    FOREIGN KEY(collection_id) REFERENCES collections(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS attempts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    note_id TEXT NOT NULL,
    collection_id TEXT NOT NULL DEFAULT '',
    correct INTEGER NOT NULL,
    answered_at DATETIME NOT NULL,

    FOREIGN KEY(note_id) REFERENCES notes(id) ON DELETE CASCADE
);

-- Memory state per note, updated from quiz attempts.
CREATE TABLE IF NOT EXISTS note_memory (
    note_id TEXT PRIMARY KEY,
    stability REAL NOT NULL DEFAULT 0,
    difficulty REAL NOT NULL DEFAULT 0,
    last_review DATETIME,
    due_at DATETIME NOT NULL,

    FOREIGN KEY(note_id) REFERENCES notes(id) ON DELETE CASCADE
);
`
