package storage

const schema = `
-- The 'blobs' table holds opaque state documents keyed by name,
-- each overwritten wholesale on every write.
CREATE TABLE IF NOT EXISTS blobs (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at DATETIME NOT NULL
);

-- The 'reviews' table is an append-only history of grade events.
CREATE TABLE IF NOT EXISTS reviews (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_no INTEGER NOT NULL,
    day INTEGER NOT NULL,
    rating TEXT NOT NULL,
    interval INTEGER NOT NULL,
    reviewed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS reviews_day ON reviews(day);
`
