package history

const schema = `
-- Capture operations, one row per nlv capture/add run that reached the
-- merge engine.
CREATE TABLE IF NOT EXISTS captures (
    id TEXT PRIMARY KEY,
    note_path TEXT NOT NULL DEFAULT '',
    started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    added INTEGER NOT NULL DEFAULT 0 CHECK(added >= 0),
    skipped INTEGER NOT NULL DEFAULT 0 CHECK(skipped >= 0),
    dropped INTEGER NOT NULL DEFAULT 0 CHECK(dropped >= 0),
    model TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_captures_started_at ON captures(started_at);
`
