package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
	Event  string    // event name ("" = all)
	Type   string    // nudge type ("" = all)
}

// NudgeEventData captures one nudge lifecycle event.
type NudgeEventData struct {
	Event     string
	NudgeType string
	NudgeID   string
	Tier      string
	Timestamp time.Time // zero means now
	Fields    map[string]any
}

// NudgeEventRecord is a logged nudge event.
type NudgeEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	Event     string
	NudgeType string
	NudgeID   string
	Tier      string
	Fields    map[string]any
}

// NudgeEventCount is the number of events of one name for one nudge type.
type NudgeEventCount struct {
	NudgeType string
	Event     string
	Count     int
}

// EventRepo provides append and query access to the local event log.
type EventRepo interface {
	// AppendNudgeEvent records a nudge lifecycle event.
	AppendNudgeEvent(ctx context.Context, data NudgeEventData) error

	// QueryNudgeEvents returns events, newest first.
	QueryNudgeEvents(ctx context.Context, opts QueryOpts) ([]NudgeEventRecord, error)

	// NudgeEventCounts returns event counts grouped by nudge type and event.
	NudgeEventCounts(ctx context.Context) ([]NudgeEventCount, error)
}
