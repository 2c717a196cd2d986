package storage

import (
	"database/sql"
	"fmt"
	"time"
)

const defaultMaxVisits = 1000

// Visit represents a single visited page.
type Visit struct {
	ID        int64
	URL       string
	Title     string
	VisitedAt time.Time
}

// VisitStore records the global visit log. Unlike a tab's session history it
// is never truncated by navigation, only capped in size.
type VisitStore struct {
	db      *sql.DB
	maxSize int
}

// NewVisitStore creates a visit store using the given database. maxSize <= 0
// uses the default cap.
func NewVisitStore(db *DB, maxSize int) *VisitStore {
	if maxSize <= 0 {
		maxSize = defaultMaxVisits
	}
	return &VisitStore{db: db.Conn(), maxSize: maxSize}
}

// Record logs a visit. Revisiting the most recent URL only refreshes its
// timestamp and title.
func (vs *VisitStore) Record(url, title string) error {
	if url == "" {
		return nil
	}
	now := time.Now().UTC()

	var (
		lastID  int64
		lastURL string
	)
	err := vs.db.QueryRow(`SELECT id, url FROM visits ORDER BY visited_at DESC, id DESC LIMIT 1`).Scan(&lastID, &lastURL)
	switch {
	case err == nil && lastURL == url:
		_, err = vs.db.Exec(
			`UPDATE visits SET visited_at = ?, title = CASE WHEN ? = '' THEN title ELSE ? END WHERE id = ?`,
			now, title, title, lastID,
		)
		if err != nil {
			return fmt.Errorf("updating visit: %w", err)
		}
		return nil
	case err != nil && err != sql.ErrNoRows:
		return fmt.Errorf("reading last visit: %w", err)
	}

	if _, err := vs.db.Exec(`INSERT INTO visits (url, title, visited_at) VALUES (?, ?, ?)`, url, title, now); err != nil {
		return fmt.Errorf("recording visit: %w", err)
	}
	return vs.trim()
}

func (vs *VisitStore) trim() error {
	_, err := vs.db.Exec(
		`DELETE FROM visits WHERE id NOT IN (
			SELECT id FROM visits ORDER BY visited_at DESC, id DESC LIMIT ?
		)`,
		vs.maxSize,
	)
	if err != nil {
		return fmt.Errorf("trimming visits: %w", err)
	}
	return nil
}

// Recent returns up to n visits, newest first.
func (vs *VisitStore) Recent(n int) ([]Visit, error) {
	rows, err := vs.db.Query(
		`SELECT id, url, title, visited_at FROM visits ORDER BY visited_at DESC, id DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("listing visits: %w", err)
	}
	defer rows.Close()
	return scanVisits(rows)
}

// Search finds visits whose title or URL contains query, newest first.
func (vs *VisitStore) Search(query string) ([]Visit, error) {
	like := "%" + query + "%"
	rows, err := vs.db.Query(
		`SELECT id, url, title, visited_at FROM visits
		 WHERE title LIKE ? OR url LIKE ?
		 ORDER BY visited_at DESC, id DESC`,
		like, like,
	)
	if err != nil {
		return nil, fmt.Errorf("searching visits: %w", err)
	}
	defer rows.Close()
	return scanVisits(rows)
}

// Clear removes all visits.
func (vs *VisitStore) Clear() error {
	_, err := vs.db.Exec(`DELETE FROM visits`)
	return err
}

// Count returns the number of stored visits.
func (vs *VisitStore) Count() (int, error) {
	var n int
	err := vs.db.QueryRow(`SELECT COUNT(*) FROM visits`).Scan(&n)
	return n, err
}

func scanVisits(rows *sql.Rows) ([]Visit, error) {
	var out []Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.URL, &v.Title, &v.VisitedAt); err != nil {
			return nil, fmt.Errorf("scanning visit: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
