package storage

import (
	"encoding/json"
	"fmt"

	"github.com/banshee-data/tracksight/internal/tracking"
)

// SaveEntities replaces the stored entity states for a session.
func (db *DB) SaveEntities(sessionID string, states []tracking.EntityState) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := requireSession(tx, sessionID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM entity_states WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear entity states: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO entity_states (session_id, entity_id, state_json) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, st := range states {
		data, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("failed to encode entity %q: %w", st.ID, err)
		}
		if _, err := stmt.Exec(sessionID, st.ID, string(data)); err != nil {
			return fmt.Errorf("failed to insert entity %q: %w", st.ID, err)
		}
	}
	return tx.Commit()
}

// LoadEntities returns the stored entity states for a session, sorted by id.
func (db *DB) LoadEntities(sessionID string) ([]tracking.EntityState, error) {
	if err := requireSession(db, sessionID); err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT entity_id, state_json FROM entity_states WHERE session_id = ? ORDER BY entity_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []tracking.EntityState
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		var st tracking.EntityState
		if err := json.Unmarshal([]byte(data), &st); err != nil {
			return nil, fmt.Errorf("failed to decode entity %q: %w", id, err)
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

// RestoreInto loads a session's entities into store. It returns how many
// were restored; states the store rejects are skipped and reported.
func (db *DB) RestoreInto(store *tracking.EntityStore, sessionID string) (int, error) {
	states, err := db.LoadEntities(sessionID)
	if err != nil {
		return 0, err
	}
	n := 0
	var firstErr error
	for _, st := range states {
		if err := store.Restore(st); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		n++
	}
	return n, firstErr
}
