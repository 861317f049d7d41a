package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SessionMessageMatch is one search hit across stored sessions.
type SessionMessageMatch struct {
	SessionID    string
	SessionName  string
	MessageIndex int
	Role         string
	Content      string
	Preview      string
	Timestamp    time.Time
}

// SearchIndex is a SQLite FTS5 full-text index over session messages,
// kept in search.db next to the session files. Sessions are re-indexed
// whole on save; the index is derived data and can always be rebuilt.
type SearchIndex struct {
	db *sql.DB
}

// NewSearchIndex opens (or creates) the search database under dataDir.
func NewSearchIndex(dataDir string) (*SearchIndex, error) {
	dbPath := filepath.Join(dataDir, "search.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open search database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping search database: %w", err)
	}

	si := &SearchIndex{db: db}
	if err := si.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize search database: %w", err)
	}

	return si, nil
}

func (si *SearchIndex) initialize() error {
	schema := `
	CREATE VIRTUAL TABLE IF NOT EXISTS messages USING fts5(
		session_id UNINDEXED,
		session_name UNINDEXED,
		message_index UNINDEXED,
		role UNINDEXED,
		content,
		timestamp UNINDEXED
	);
	`
	_, err := si.db.Exec(schema)
	return err
}

// IndexSession replaces the indexed messages for one session. System
// messages (status/error banners) are not indexed.
func (si *SearchIndex) IndexSession(session *Session) error {
	tx, err := si.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE session_id = ?`, session.ID); err != nil {
		return fmt.Errorf("failed to clear session from index: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO messages (session_id, session_name, message_index, role, content, timestamp) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare index insert: %w", err)
	}
	defer stmt.Close()

	for i, msg := range session.Messages {
		if msg.Role == "system" {
			continue
		}
		if _, err := stmt.Exec(session.ID, session.Name, i, msg.Role, msg.Content, msg.Timestamp.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("failed to index message: %w", err)
		}
	}

	return tx.Commit()
}

// RemoveSession drops a deleted session's messages from the index.
func (si *SearchIndex) RemoveSession(sessionID string) error {
	_, err := si.db.Exec(`DELETE FROM messages WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to remove session from index: %w", err)
	}
	return nil
}

// Search runs a full-text query across all indexed messages, best matches
// first. The query is quoted per-term so user input cannot break the FTS
// query syntax.
func (si *SearchIndex) Search(query string) ([]SessionMessageMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SessionMessageMatch{}, nil
	}

	rows, err := si.db.Query(
		`SELECT session_id, session_name, message_index, role, content, timestamp
		 FROM messages WHERE messages MATCH ? ORDER BY rank`,
		ftsQuote(query),
	)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	var matches []SessionMessageMatch
	for rows.Next() {
		var m SessionMessageMatch
		var ts string
		if err := rows.Scan(&m.SessionID, &m.SessionName, &m.MessageIndex, &m.Role, &m.Content, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		m.Timestamp, _ = time.Parse(time.RFC3339, ts)
		m.Preview = makePreview(m.Content)
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// Close releases the underlying database handle.
func (si *SearchIndex) Close() error {
	return si.db.Close()
}

// ftsQuote turns free-form user input into a safe FTS5 query: each
// whitespace-separated term becomes a quoted string, AND-ed together.
func ftsQuote(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

func makePreview(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	// Truncate on rune boundaries so a multi-byte character is never split.
	if runes := []rune(content); len(runes) > 100 {
		return string(runes[:100]) + "..."
	}
	return content
}
