package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const eventTable = "nudge_events"

// eventRepo implements EventRepo backed by SQLite and the global sequence counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *eventRepo) AppendNudgeEvent(ctx context.Context, data NudgeEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	fields := data.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(eventTable).
		Columns("sequence", "timestamp", "event", "nudge_type", "nudge_id", "tier", "fields").
		Values(seqNum, ts.UnixMilli(), data.Event, data.NudgeType, data.NudgeID, data.Tier, string(fieldsJSON)).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save nudge event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryNudgeEvents(ctx context.Context, opts QueryOpts) ([]NudgeEventRecord, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select("id", "sequence", "timestamp", "event", "nudge_type", "nudge_id", "tier", "fields").
		From(entsql.Table(eventTable)).
		OrderBy(entsql.Desc("sequence"))

	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}
	if opts.After > 0 {
		sel = sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		sel = sel.Where(entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		sel = sel.Where(entsql.GTE("timestamp", opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		sel = sel.Where(entsql.LTE("timestamp", opts.To.UnixMilli()))
	}
	if opts.Event != "" {
		sel = sel.Where(entsql.EQ("event", opts.Event))
	}
	if opts.Type != "" {
		sel = sel.Where(entsql.EQ("nudge_type", opts.Type))
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nudge events: %w", err)
	}
	defer rows.Close()

	var records []NudgeEventRecord
	for rows.Next() {
		var (
			rec        NudgeEventRecord
			tsMillis   int64
			fieldsJSON string
		)
		if err := rows.Scan(&rec.ID, &rec.Sequence, &tsMillis, &rec.Event,
			&rec.NudgeType, &rec.NudgeID, &rec.Tier, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("scan nudge event: %w", err)
		}
		rec.Timestamp = time.UnixMilli(tsMillis).UTC()
		if fieldsJSON != "" {
			// Malformed fields are dropped rather than failing the query.
			_ = json.Unmarshal([]byte(fieldsJSON), &rec.Fields)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nudge events: %w", err)
	}
	return records, nil
}

func (r *eventRepo) NudgeEventCounts(ctx context.Context) ([]NudgeEventCount, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("nudge_type", "event", entsql.Count("*")).
		From(entsql.Table(eventTable)).
		GroupBy("nudge_type", "event").
		OrderBy("nudge_type", "event").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nudge event counts: %w", err)
	}
	defer rows.Close()

	var counts []NudgeEventCount
	for rows.Next() {
		var c NudgeEventCount
		if err := rows.Scan(&c.NudgeType, &c.Event, &c.Count); err != nil {
			return nil, fmt.Errorf("scan nudge event count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nudge event counts: %w", err)
	}
	return counts, nil
}
