package audit

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	dErrors "insurechain/pkg/domain-errors"
)

// PostgresStore persists audit events for deployments that need a durable
// compliance trail. Schema:
//
//	CREATE TABLE audit_events (
//	    id         UUID PRIMARY KEY,
//	    occurred_at TIMESTAMPTZ NOT NULL,
//	    actor      TEXT NOT NULL,
//	    action     TEXT NOT NULL,
//	    subject    TEXT NOT NULL,
//	    decision   TEXT NOT NULL DEFAULT '',
//	    reason     TEXT NOT NULL DEFAULT '',
//	    request_id TEXT NOT NULL DEFAULT ''
//	);
//	CREATE INDEX audit_events_actor_idx ON audit_events (actor, occurred_at);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	const q = `
		INSERT INTO audit_events (id, occurred_at, actor, action, subject, decision, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.ExecContext(ctx, q,
		uuid.New(), event.Timestamp, event.Actor, event.Action,
		event.Subject, event.Decision, event.Reason, event.RequestID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "append audit event")
	}
	return nil
}

func (s *PostgresStore) ListByActor(ctx context.Context, actor string) ([]Event, error) {
	const q = `
		SELECT occurred_at, actor, action, subject, decision, reason, request_id
		FROM audit_events
		WHERE actor = $1
		ORDER BY occurred_at`
	rows, err := s.db.QueryContext(ctx, q, actor)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list audit events")
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Timestamp, &e.Actor, &e.Action, &e.Subject, &e.Decision, &e.Reason, &e.RequestID); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan audit event")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "iterate audit events")
	}
	return out, nil
}
