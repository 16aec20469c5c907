package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one admin-action audit record.
type Entry struct {
	ActorID    uuid.UUID
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	Metadata   map[string]any
}

// Recorder persists audit entries. Admin operations record what was done and
// by whom; the trail is append-only.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// PGRecorder writes audit entries to the audit_logs table. A nil pool is a
// no-op recorder, so tests and tools can skip auditing.
type PGRecorder struct {
	Pool *pgxpool.Pool
}

func (r *PGRecorder) Record(ctx context.Context, e Entry) error {
	if r == nil || r.Pool == nil {
		return nil
	}

	var metadata any
	if len(e.Metadata) > 0 {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
		metadata = json.RawMessage(raw)
	}

	_, err := r.Pool.Exec(ctx, `
		INSERT INTO audit_logs (actor_id, action, entity_type, entity_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		e.ActorID, e.Action, e.EntityType, e.EntityID, metadata)
	return err
}

// MemRecorder collects entries in memory for tests.
type MemRecorder struct {
	Entries []Entry
}

func (r *MemRecorder) Record(_ context.Context, e Entry) error {
	r.Entries = append(r.Entries, e)
	return nil
}
