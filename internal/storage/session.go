package storage

import (
	"database/sql"
	"fmt"

	"github.com/vidyasagar/navsurf/internal/navigation"
)

// SavedTab is one tab of a persisted session.
type SavedTab struct {
	ID       string
	Position int
	Entries  []navigation.RestoreEntry
	Selected int
}

// SessionStore persists each tab's committed history so it can be restored
// with navigation.NewRestored.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a session store using the given database.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db.Conn()}
}

// SaveTab replaces the stored history of tab id.
func (ss *SessionStore) SaveTab(id string, position int, entries []navigation.RestoreEntry, selected int) error {
	tx, err := ss.db.Begin()
	if err != nil {
		return fmt.Errorf("saving tab %s: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO tabs (id, position, selected, updated_at) VALUES (?, ?, ?, datetime('now'))
		 ON CONFLICT(id) DO UPDATE SET position = excluded.position,
		   selected = excluded.selected, updated_at = excluded.updated_at`,
		id, position, selected,
	); err != nil {
		return fmt.Errorf("saving tab %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM tab_entries WHERE tab_id = ?`, id); err != nil {
		return fmt.Errorf("clearing entries of tab %s: %w", id, err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO tab_entries (tab_id, idx, url, referrer, title, transition, content_state)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("saving entries of tab %s: %w", id, err)
	}
	defer stmt.Close()
	for i, e := range entries {
		if _, err := stmt.Exec(id, i, e.URL, e.Referrer, e.Title, e.Transition.String(), e.ContentState); err != nil {
			return fmt.Errorf("saving entry %d of tab %s: %w", i, id, err)
		}
	}
	return tx.Commit()
}

// DeleteTab forgets a closed tab.
func (ss *SessionStore) DeleteTab(id string) error {
	tx, err := ss.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM tab_entries WHERE tab_id = ?`, id); err != nil {
		return fmt.Errorf("deleting tab %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM tabs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting tab %s: %w", id, err)
	}
	return tx.Commit()
}

// Clear removes every saved tab.
func (ss *SessionStore) Clear() error {
	if _, err := ss.db.Exec(`DELETE FROM tab_entries; DELETE FROM tabs`); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// LoadTabs returns the saved tabs ordered by position. Tabs without entries
// are skipped and the selected index is clamped to the stored entries.
func (ss *SessionStore) LoadTabs() ([]SavedTab, error) {
	rows, err := ss.db.Query(`SELECT id, position, selected FROM tabs ORDER BY position, updated_at`)
	if err != nil {
		return nil, fmt.Errorf("loading tabs: %w", err)
	}
	var tabs []SavedTab
	for rows.Next() {
		var t SavedTab
		if err := rows.Scan(&t.ID, &t.Position, &t.Selected); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning tab: %w", err)
		}
		tabs = append(tabs, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading tabs: %w", err)
	}

	out := tabs[:0]
	for _, t := range tabs {
		entries, err := ss.loadEntries(t.ID)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			continue
		}
		t.Entries = entries
		t.Selected = max(0, min(t.Selected, len(entries)-1))
		out = append(out, t)
	}
	return out, nil
}

func (ss *SessionStore) loadEntries(tabID string) ([]navigation.RestoreEntry, error) {
	rows, err := ss.db.Query(
		`SELECT url, referrer, title, transition, content_state FROM tab_entries
		 WHERE tab_id = ? ORDER BY idx`,
		tabID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading entries of tab %s: %w", tabID, err)
	}
	defer rows.Close()

	var entries []navigation.RestoreEntry
	for rows.Next() {
		var (
			e          navigation.RestoreEntry
			transition string
		)
		if err := rows.Scan(&e.URL, &e.Referrer, &e.Title, &transition, &e.ContentState); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		// Unknown names from older versions load as links.
		e.Transition, _ = navigation.ParseTransition(transition)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// EntriesFor snapshots a controller's committed history for SaveTab.
func EntriesFor(c *navigation.Controller) ([]navigation.RestoreEntry, int) {
	var out []navigation.RestoreEntry
	for _, e := range c.Entries() {
		out = append(out, navigation.RestoreEntry{
			URL:          e.URL,
			Referrer:     e.Referrer,
			Title:        e.Title,
			ContentState: e.ContentState,
			Transition:   e.Transition,
		})
	}
	return out, max(c.LastCommittedIndex(), 0)
}
