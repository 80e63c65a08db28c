package timeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Mindburn-Labs/replayspine/pkg/projection"
)

// SQLStore implements Store over database/sql, against either
// Postgres (lib/pq) or SQLite (modernc.org/sqlite) — the caller wires
// up the driver and passes in an open *sql.DB.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an already-open database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS timeline_events (
	tuple_key TEXT PRIMARY KEY,
	seq INTEGER NOT NULL,
	slot INTEGER NOT NULL,
	signature TEXT NOT NULL,
	source_event_sequence INTEGER NOT NULL,
	source_event_name TEXT NOT NULL,
	task_pda TEXT,
	dispute_id TEXT,
	event_type TEXT NOT NULL,
	projection_hash TEXT NOT NULL,
	event_json TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS timeline_cursor (
	id INTEGER PRIMARY KEY,
	slot INTEGER NOT NULL,
	signature TEXT NOT NULL,
	event_name TEXT,
	trace_id TEXT,
	span_id TEXT
);
`

// Init creates the store's tables if they don't already exist.
func (s *SQLStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLStore) Append(ctx context.Context, records []Record) (AppendResult, error) {
	var res AppendResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AppendResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
		INSERT INTO timeline_events
			(tuple_key, seq, slot, signature, source_event_sequence, source_event_name,
			 task_pda, dispute_id, event_type, projection_hash, event_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (tuple_key) DO NOTHING
	`
	for _, r := range records {
		body, err := json.Marshal(r.Event)
		if err != nil {
			return AppendResult{}, fmt.Errorf("timeline: marshal event: %w", err)
		}
		disputeID := disputeIDFromPayload(r.Event.Payload)

		result, err := tx.ExecContext(ctx, q,
			tupleKey(r), r.Event.Seq, r.Event.Slot, r.Event.Signature,
			r.Event.SourceEventSequence, r.Event.SourceEventName,
			r.Event.TaskPda, disputeID, string(r.Event.Type), r.ProjectionHash, string(body),
		)
		if err != nil {
			return AppendResult{}, err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return AppendResult{}, err
		}
		if n == 0 {
			res.Duplicates++
			continue
		}
		res.Processed++
	}

	if err := tx.Commit(); err != nil {
		return AppendResult{}, err
	}
	return res, nil
}

func disputeIDFromPayload(payload map[string]interface{}) string {
	onchain, ok := payload["onchain"].(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := onchain["disputeId"].(string)
	return id
}

func (s *SQLStore) Query(ctx context.Context, q Query) ([]Record, error) {
	where := "WHERE 1=1"
	args := make([]interface{}, 0, 4)
	n := 0

	addArg := func(clause string, v interface{}) {
		n++
		where += fmt.Sprintf(" AND %s $%d", clause, n)
		args = append(args, v)
	}
	if q.TaskPda != "" {
		addArg("task_pda =", q.TaskPda)
	}
	if q.DisputePda != "" {
		addArg("dispute_id =", q.DisputePda)
	}
	if q.FromSlot != 0 {
		addArg("slot >=", q.FromSlot)
	}
	if q.HasToSlot {
		addArg("slot <=", q.ToSlot)
	}

	query := fmt.Sprintf(`
		SELECT event_json, projection_hash FROM timeline_events
		%s
		ORDER BY seq ASC, slot ASC, signature ASC
	`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]Record, 0)
	for rows.Next() {
		var eventJSON, hash string
		if err := rows.Scan(&eventJSON, &hash); err != nil {
			return nil, err
		}
		var ev projection.TimelineEvent
		if err := json.Unmarshal([]byte(eventJSON), &ev); err != nil {
			return nil, err
		}
		out = append(out, Record{Event: ev, ProjectionHash: hash})
	}
	return out, rows.Err()
}

func (s *SQLStore) GetCursor(ctx context.Context) (Cursor, error) {
	row := s.db.QueryRowContext(ctx, `SELECT slot, signature, event_name, trace_id, span_id FROM timeline_cursor WHERE id = 1`)
	var c Cursor
	var eventName, traceID, spanID sql.NullString
	err := row.Scan(&c.Slot, &c.Signature, &eventName, &traceID, &spanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cursor{}, ErrNotFound
		}
		return Cursor{}, err
	}
	c.EventName = eventName.String
	c.TraceID = traceID.String
	c.SpanID = spanID.String
	return c, nil
}

func (s *SQLStore) SetCursor(ctx context.Context, c Cursor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO timeline_cursor (id, slot, signature, event_name, trace_id, span_id)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			slot = EXCLUDED.slot, signature = EXCLUDED.signature,
			event_name = EXCLUDED.event_name, trace_id = EXCLUDED.trace_id, span_id = EXCLUDED.span_id
	`, c.Slot, c.Signature, c.EventName, c.TraceID, c.SpanID)
	return err
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
