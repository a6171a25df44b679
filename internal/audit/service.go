// Package audit implements the append-only activity log. Entries are created
// by the domain services and never mutated or deleted afterwards.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hedoomy/backoffice/internal/shared"
)

// FieldChange captures a before/after pair for one field of an edit.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Entry represents a record stored in activity_logs.
type Entry struct {
	ID         int64                  `json:"id,omitempty"`
	Action     string                 `json:"action"`
	Details    string                 `json:"details"`
	Actor      shared.Actor           `json:"user"`
	Changes    map[string]FieldChange `json:"changes,omitempty"`
	OccurredAt time.Time              `json:"timestamp"`
}

// Recorder writes records into activity_logs.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder returns a new Recorder.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Record persists the log entry.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if r == nil {
		return errors.New("audit recorder not initialised")
	}
	if entry.Action == "" {
		return errors.New("audit entry requires action")
	}
	actorJSON, err := json.Marshal(entry.Actor)
	if err != nil {
		return err
	}
	var changesJSON []byte
	if entry.Changes != nil {
		changesJSON, err = json.Marshal(entry.Changes)
		if err != nil {
			return err
		}
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO activity_logs (action, details, actor, changes, occurred_at) VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))`,
		entry.Action, entry.Details, actorJSON, changesJSON, nullableTime(entry.OccurredAt))
	return err
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
