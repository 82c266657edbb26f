package nudge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

// HistoryKey is the storage key the history blob lives under.
const HistoryKey = "nudge_history"

// DefaultHistoryCap bounds the number of retained entries.
const DefaultHistoryCap = 100

// Storage is the persistence capability the history is written to.
type Storage interface {
	// Get returns the value stored under key. ok is false when the key is
	// absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// HistoryConfig configures a History.
type HistoryConfig struct {
	Key    string
	Cap    int
	Logger *zap.Logger
}

// DefaultHistoryConfig returns the default history settings.
func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Key:    HistoryKey,
		Cap:    DefaultHistoryCap,
		Logger: zap.NewNop(),
	}
}

// History is the bounded, persisted log of shown nudges. Oldest entries are
// evicted first. History is not safe for concurrent use; the Scheduler
// serializes access to the instance it owns.
type History struct {
	storage Storage
	key     string
	cap     int
	logger  *zap.Logger
	entries []HistoryEntry
}

// LoadHistory reads the persisted history. A missing key, a read error or a
// blob that does not parse as a history yields an empty history.
func LoadHistory(ctx context.Context, storage Storage, cfg HistoryConfig) *History {
	if cfg.Key == "" {
		cfg.Key = HistoryKey
	}
	if cfg.Cap <= 0 {
		cfg.Cap = DefaultHistoryCap
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	h := &History{
		storage: storage,
		key:     cfg.Key,
		cap:     cfg.Cap,
		logger:  cfg.Logger,
	}
	if storage == nil {
		return h
	}

	raw, ok, err := storage.Get(ctx, h.key)
	if err != nil {
		h.logger.Warn("Failed to load nudge history", zap.String("key", h.key), zap.Error(err))
		return h
	}
	if !ok || raw == "" {
		return h
	}

	entries, err := decodeHistory([]byte(raw))
	if err != nil {
		h.logger.Warn("Discarding unreadable nudge history", zap.String("key", h.key), zap.Error(err))
		return h
	}
	h.entries = truncate(entries, h.cap)
	return h
}

// Entries returns a copy of the entries, oldest first.
func (h *History) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Cap returns the retention bound.
func (h *History) Cap() int {
	return h.cap
}

// Append records e, evicts beyond the cap and persists. Write failures are
// logged; the in-memory history stays authoritative.
func (h *History) Append(ctx context.Context, e HistoryEntry) {
	h.entries = append(h.entries, e)
	h.entries = truncate(h.entries, h.cap)
	if err := h.persist(ctx); err != nil {
		h.logger.Warn("Failed to save nudge history", zap.String("key", h.key), zap.Error(err))
	}
}

// Resolve marks the entry for nudge id with outcome. It returns false when
// the entry was already resolved or is no longer retained.
func (h *History) Resolve(ctx context.Context, id string, outcome Outcome) bool {
	if id == "" {
		return false
	}
	for i := len(h.entries) - 1; i >= 0; i-- {
		e := &h.entries[i]
		if e.ID != id {
			continue
		}
		if e.Resolved() {
			return false
		}
		switch outcome {
		case OutcomeConverted:
			e.Converted = true
		case OutcomePreempted:
			e.Dismissed = true
			e.Preempted = true
		default:
			e.Dismissed = true
		}
		if err := h.persist(ctx); err != nil {
			h.logger.Warn("Failed to save nudge history", zap.String("key", h.key), zap.Error(err))
		}
		return true
	}
	return false
}

// Reset drops every entry and persists the empty history.
func (h *History) Reset(ctx context.Context) error {
	h.entries = nil
	return h.persist(ctx)
}

func (h *History) persist(ctx context.Context) error {
	if h.storage == nil {
		return nil
	}
	entries := h.entries
	if entries == nil {
		entries = []HistoryEntry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := h.storage.Set(ctx, h.key, string(b)); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

func truncate(entries []HistoryEntry, max int) []HistoryEntry {
	if len(entries) <= max {
		return entries
	}
	return append([]HistoryEntry(nil), entries[len(entries)-max:]...)
}

// wireEntry is the persisted shape. Timestamps are unix milliseconds.
type wireEntry struct {
	ID        string      `json:"id,omitempty"`
	Type      TriggerType `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Dismissed bool        `json:"dismissed"`
	Converted bool        `json:"converted"`
	Preempted bool        `json:"preempted,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEntry{
		ID:        e.ID,
		Type:      e.Type,
		Timestamp: e.Timestamp.UnixMilli(),
		Dismissed: e.Dismissed,
		Converted: e.Converted,
		Preempted: e.Preempted,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *HistoryEntry) UnmarshalJSON(b []byte) error {
	var w wireEntry
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*e = HistoryEntry{
		ID:        w.ID,
		Type:      w.Type,
		Timestamp: time.UnixMilli(w.Timestamp).UTC(),
		Dismissed: w.Dismissed,
		Converted: w.Converted,
		Preempted: w.Preempted,
	}
	return nil
}

var historySchema = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type":     "object",
		"required": []any{"type", "timestamp"},
		"properties": map[string]any{
			"id":        map[string]any{"type": "string"},
			"type":      map[string]any{"type": "string", "minLength": 1},
			"timestamp": map[string]any{"type": "number"},
			"dismissed": map[string]any{"type": "boolean"},
			"converted": map[string]any{"type": "boolean"},
			"preempted": map[string]any{"type": "boolean"},
		},
	},
}

var compiledHistorySchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	// Round-trip so the compiler sees plain JSON values.
	b, err := json.Marshal(historySchema)
	if err != nil {
		return nil, fmt.Errorf("marshal history schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse history schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	const url = "schema://nudge_history.json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	return c.Compile(url)
})

// decodeHistory validates and parses a persisted history blob.
func decodeHistory(raw []byte) ([]HistoryEntry, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	schema, err := compiledHistorySchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	var entries []HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return entries, nil
}
