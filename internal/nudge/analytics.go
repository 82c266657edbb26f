package nudge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/nudgekit/internal/store"
	"go.uber.org/zap"
)

// EventName is a lifecycle transition reported to the tracker.
type EventName string

const (
	EventShown     EventName = "shown"
	EventDismissed EventName = "dismissed"
	EventConverted EventName = "converted"
)

// Event describes one lifecycle transition.
type Event struct {
	Name      EventName
	Type      TriggerType
	NudgeID   string
	Tier      Tier
	Timestamp time.Time
	// Fields carries the trigger context plus event-specific extras such as
	// "preempted".
	Fields map[string]any
}

// Tracker receives lifecycle events. The scheduler logs and otherwise
// ignores tracker errors and panics.
type Tracker interface {
	Track(ctx context.Context, ev Event) error
}

// TrackerFunc adapts a function to Tracker.
type TrackerFunc func(ctx context.Context, ev Event) error

func (f TrackerFunc) Track(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

type nopTracker struct{}

func (nopTracker) Track(context.Context, Event) error { return nil }

// MultiTracker fans an event out to every tracker, joining their errors.
func MultiTracker(trackers ...Tracker) Tracker {
	return multiTracker(trackers)
}

type multiTracker []Tracker

func (m multiTracker) Track(ctx context.Context, ev Event) error {
	var errs []error
	for _, t := range m {
		if t == nil {
			continue
		}
		if err := t.Track(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogTracker writes events to a zap logger.
type LogTracker struct {
	logger *zap.Logger
}

// NewLogTracker creates a LogTracker.
func NewLogTracker(logger *zap.Logger) *LogTracker {
	return &LogTracker{logger: logger}
}

func (l *LogTracker) Track(_ context.Context, ev Event) error {
	fields := []zap.Field{
		zap.String("event", string(ev.Name)),
		zap.String("type", string(ev.Type)),
		zap.String("nudge_id", ev.NudgeID),
		zap.Stringer("tier", ev.Tier),
	}
	if len(ev.Fields) > 0 {
		fields = append(fields, zap.Any("fields", ev.Fields))
	}
	l.logger.Info("nudge_interaction", fields...)
	return nil
}

// EventLogTracker appends events to the local event log.
type EventLogTracker struct {
	repo store.EventRepo
}

// NewEventLogTracker creates a tracker backed by repo.
func NewEventLogTracker(repo store.EventRepo) *EventLogTracker {
	return &EventLogTracker{repo: repo}
}

func (t *EventLogTracker) Track(ctx context.Context, ev Event) error {
	err := t.repo.AppendNudgeEvent(ctx, store.NudgeEventData{
		Event:     string(ev.Name),
		NudgeType: string(ev.Type),
		NudgeID:   ev.NudgeID,
		Tier:      ev.Tier.String(),
		Timestamp: ev.Timestamp,
		Fields:    ev.Fields,
	})
	if err != nil {
		return fmt.Errorf("append nudge event: %w", err)
	}
	return nil
}

// safeTrack calls tracker, converting a panic into an error.
func safeTrack(ctx context.Context, tracker Tracker, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tracker panic: %v", r)
		}
	}()
	return tracker.Track(ctx, ev)
}
