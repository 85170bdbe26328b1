package archive

const schema = `
CREATE TABLE IF NOT EXISTS items (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    collection   TEXT NOT NULL,
    external_id  TEXT NOT NULL,
    created_at   DATETIME,
    payload      TEXT NOT NULL DEFAULT '{}',
    archived_at  DATETIME NOT NULL,
    UNIQUE(collection, external_id)
);

CREATE INDEX IF NOT EXISTS idx_items_collection ON items(collection);
CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at);
CREATE INDEX IF NOT EXISTS idx_items_archived_at ON items(archived_at);
`
