package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/banshee-data/tracksight/internal/neural"
)

// SaveWeights stores the corrector network parameters for a session,
// replacing any previous copy.
func (db *DB) SaveWeights(sessionID string, w neural.Weights) error {
	if err := requireSession(db, sessionID); err != nil {
		return err
	}
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	_, err = db.Exec(
		`INSERT INTO net_weights (session_id, weights_json) VALUES (?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET weights_json = excluded.weights_json`,
		sessionID, string(data),
	)
	return err
}

// LoadWeights returns the stored parameters. ok is false when the session
// ran without a network.
func (db *DB) LoadWeights(sessionID string) (w neural.Weights, ok bool, err error) {
	var data string
	err = db.QueryRow(`SELECT weights_json FROM net_weights WHERE session_id = ?`, sessionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return neural.Weights{}, false, nil
	}
	if err != nil {
		return neural.Weights{}, false, err
	}
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return neural.Weights{}, false, fmt.Errorf("failed to decode weights: %w", err)
	}
	return w, true, nil
}
