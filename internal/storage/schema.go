package storage

const schema = `
-- The 'saved_items' table is the learner's set of saved sentences.
CREATE TABLE IF NOT EXISTS saved_items (
    sentence_id INTEGER PRIMARY KEY,
    saved_at DATETIME NOT NULL
);

-- The 'review_cards' table stores the ladder state of each reviewed sentence.
CREATE TABLE IF NOT EXISTS review_cards (
    sentence_id INTEGER PRIMARY KEY,
    interval_rank INTEGER NOT NULL DEFAULT 0,
    next_review_at DATETIME NOT NULL,
    difficulty INTEGER NOT NULL DEFAULT 0,
    last_review DATETIME,

    FOREIGN KEY(sentence_id) REFERENCES saved_items(sentence_id) ON DELETE CASCADE
);

-- The 'review_logs' table records every review outcome.
CREATE TABLE IF NOT EXISTS review_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    sentence_id INTEGER NOT NULL,
    reviewed_at DATETIME NOT NULL,
    known INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_review_logs_sentence ON review_logs(sentence_id);

-- The 'sources' table tracks where the sentence corpus comes from, either a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local', -- 'local' or 'git'
    last_scanned DATETIME
);
`
