package storage

import (
	"fmt"

	"github.com/banshee-data/tracksight/internal/tracking"
)

// Selection is one recorded target choice.
type Selection struct {
	ID             int64
	SessionID      string
	Timestamp      float64 // Host seconds of the frame that produced it
	EntityID       string
	Classification tracking.Classification
	ThreatScore    int
	Distance       float64
	AngularOffset  float64
	Confidence     float64
	Predicted      tracking.Vec3
}

// RecordSelection stores the candidate chosen at host time ts.
func (db *DB) RecordSelection(sessionID string, ts float64, c tracking.TargetCandidate) error {
	if err := requireSession(db, sessionID); err != nil {
		return err
	}
	_, err := db.Exec(
		`INSERT INTO selections (
			session_id, ts, entity_id, classification, threat_score,
			distance, angular_offset, confidence,
			predicted_x, predicted_y, predicted_z
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, ts, c.Entity.ID, c.Entity.Classification.String(), c.Entity.ThreatScore,
		c.Distance, c.AngularOffset, c.Confidence,
		c.PredictedPosition.X, c.PredictedPosition.Y, c.PredictedPosition.Z,
	)
	if err != nil {
		return fmt.Errorf("failed to insert selection: %w", err)
	}
	return nil
}

// Selections returns a session's selections in time order.
func (db *DB) Selections(sessionID string) ([]Selection, error) {
	if err := requireSession(db, sessionID); err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT selection_id, session_id, ts, entity_id, classification, threat_score,
			distance, angular_offset, confidence,
			predicted_x, predicted_y, predicted_z
		FROM selections
		WHERE session_id = ?
		ORDER BY ts, selection_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Selection
	for rows.Next() {
		var s Selection
		var class string
		if err := rows.Scan(
			&s.ID, &s.SessionID, &s.Timestamp, &s.EntityID, &class, &s.ThreatScore,
			&s.Distance, &s.AngularOffset, &s.Confidence,
			&s.Predicted.X, &s.Predicted.Y, &s.Predicted.Z,
		); err != nil {
			return nil, err
		}
		c, err := tracking.ParseClassification(class)
		if err != nil {
			return nil, fmt.Errorf("selection %d: %w", s.ID, err)
		}
		s.Classification = c
		out = append(out, s)
	}
	return out, rows.Err()
}
