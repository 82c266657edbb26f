package nudge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultDebounce is how long a trigger waits for a newer one before it
	// is evaluated.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultExitDelay is how long a resolved nudge keeps the slot while the
	// UI plays its exit animation.
	DefaultExitDelay = 300 * time.Millisecond
)

// Options configures a Scheduler. Zero values select defaults.
type Options struct {
	Catalog    *Catalog
	Storage    Storage
	HistoryKey string
	HistoryCap int
	Tracker    Tracker
	Clock      Clock
	Logger     *zap.Logger
	Tier       Tier
	Debounce   time.Duration
	ExitDelay  time.Duration
	// Location defines calendar days for the daily cap. Default: time.Local.
	Location *time.Location
}

// Scheduler decides whether, which and when a single nudge is shown. It owns
// the active-nudge slot and the history; one Scheduler serves one session.
//
// Every handler (Trigger, Dismiss, Convert and timer callbacks) runs under
// the scheduler's mutex, so state transitions never interleave.
type Scheduler struct {
	ctx       context.Context
	catalog   *Catalog
	history   *History
	tracker   Tracker
	clock     Clock
	logger    *zap.Logger
	debounce  time.Duration
	exitDelay time.Duration
	loc       *time.Location

	mu      sync.Mutex
	tier    Tier
	active  *ActiveNudge
	visible bool
	pending *Task
	exits   map[string]Timer
	subs    map[int]chan State
	nextSub int
	closed  bool
}

// New creates a Scheduler and loads its history from opts.Storage. ctx is
// used for storage and tracker calls made on behalf of the scheduler; its
// cancellation is ignored.
func New(ctx context.Context, opts Options) *Scheduler {
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.Tracker == nil {
		opts.Tracker = nopTracker{}
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.ExitDelay <= 0 {
		opts.ExitDelay = DefaultExitDelay
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	base := context.WithoutCancel(ctx)
	logger := opts.Logger.Named("nudge")
	history := LoadHistory(base, opts.Storage, HistoryConfig{
		Key:    opts.HistoryKey,
		Cap:    opts.HistoryCap,
		Logger: logger,
	})

	return &Scheduler{
		ctx:       base,
		catalog:   opts.Catalog,
		history:   history,
		tracker:   opts.Tracker,
		clock:     opts.Clock,
		logger:    logger,
		debounce:  opts.Debounce,
		exitDelay: opts.ExitDelay,
		loc:       opts.Location,
		tier:      opts.Tier,
		pending:   NewTask(opts.Clock),
		exits:     make(map[string]Timer),
		subs:      make(map[int]chan State),
	}
}

// Catalog returns the scheduler's catalog.
func (s *Scheduler) Catalog() *Catalog {
	return s.catalog
}

// SetTier updates the user's current tier. It applies to every evaluation
// that runs afterwards, including one already debouncing.
func (s *Scheduler) SetTier(t Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tier = t
}

// Tier returns the user's current tier.
func (s *Scheduler) Tier() Tier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tier
}

// Trigger requests that nudge t be shown. The request is evaluated after the
// debounce delay unless another Trigger call replaces it first; ineligible
// requests are dropped, not queued.
//
// Unknown trigger types are a programming error: they are reported through
// the logger's DPanic, which panics under a development logger.
func (s *Scheduler) Trigger(t TriggerType, payload Context) {
	if !s.catalog.Has(t) {
		s.logger.DPanic("Unknown nudge trigger", zap.String("type", string(t)))
		return
	}
	payload = copyContext(payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending.Arm(s.debounce, func() { s.fire(t, payload) })
}

// Check reports whether t could be shown right now. It has no side effects.
func (s *Scheduler) Check(t TriggerType) (Decision, error) {
	cfg, err := s.catalog.Lookup(t)
	if err != nil {
		return Decision{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evaluateLocked(cfg), nil
}

// Dismiss resolves the visible nudge as dismissed. It is a no-op when no
// unresolved nudge is active.
func (s *Scheduler) Dismiss() {
	s.resolve(OutcomeDismissed)
}

// Convert resolves the visible nudge as converted. The caller is expected to
// start the upgrade flow; the scheduler never does.
func (s *Scheduler) Convert() {
	s.resolve(OutcomeConverted)
}

// State returns a snapshot of the active slot.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Subscribe returns a channel receiving a State after every transition, and
// a function that unsubscribes and closes the channel. Sends never block: a
// subscriber whose buffer is full misses that state.
func (s *Scheduler) Subscribe(buf int) (<-chan State, func()) {
	if buf < 1 {
		buf = 1
	}
	ch := make(chan State, buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// History returns a copy of the retained history, oldest first.
func (s *Scheduler) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries()
}

// Stats summarizes the retained history.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeStats(s.history.entries, s.catalog.Types(), s.now())
}

// Close cancels the pending trigger and exit timers and closes subscriber
// channels. Triggers after Close are ignored. Close is idempotent.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.pending.Cancel()
	for id, t := range s.exits {
		t.Stop()
		delete(s.exits, id)
	}
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

// fire evaluates a debounced trigger.
func (s *Scheduler) fire(t TriggerType, payload Context) {
	var events []Event

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	cfg, err := s.catalog.Lookup(t)
	if err != nil {
		s.mu.Unlock()
		return
	}

	d := s.evaluateLocked(cfg)
	if !d.Eligible() {
		s.mu.Unlock()
		s.logger.Debug("Nudge suppressed",
			zap.String("type", string(t)),
			zap.String("reason", string(d.Reason)))
		return
	}

	now := s.now()
	if prev := s.active; prev != nil && !prev.resolved {
		// Replacing an unresolved nudge counts as dismissing it.
		prev.resolved = true
		s.history.Resolve(s.ctx, prev.ID, OutcomePreempted)
		events = append(events, s.eventLocked(EventDismissed, prev, now, map[string]any{"preempted": true}))
		s.logger.Debug("Nudge preempted",
			zap.String("type", string(prev.Config.Type)),
			zap.String("by", string(t)))
	}

	personalized, err := Personalize(cfg, payload)
	if err != nil {
		s.logger.Warn("Nudge personalization failed", zap.String("type", string(t)), zap.Error(err))
	}
	n := &ActiveNudge{
		ID:        uuid.NewString(),
		Config:    personalized,
		Context:   payload,
		Timestamp: now,
	}
	s.active = n
	s.visible = true
	s.history.Append(s.ctx, HistoryEntry{ID: n.ID, Type: t, Timestamp: now})
	events = append(events, s.eventLocked(EventShown, n, now, nil))
	s.publishLocked()
	s.mu.Unlock()

	s.logger.Info("Nudge shown", zap.String("type", string(t)), zap.String("id", n.ID))
	s.track(events...)
}

func (s *Scheduler) resolve(outcome Outcome) {
	s.mu.Lock()
	n := s.active
	if s.closed || n == nil || n.resolved {
		s.mu.Unlock()
		return
	}
	now := s.now()
	n.resolved = true
	s.visible = false
	s.history.Resolve(s.ctx, n.ID, outcome)

	name := EventDismissed
	if outcome == OutcomeConverted {
		name = EventConverted
	}
	ev := s.eventLocked(name, n, now, nil)

	id := n.ID
	s.exits[id] = s.clock.AfterFunc(s.exitDelay, func() { s.clearExited(id) })
	s.publishLocked()
	s.mu.Unlock()

	s.track(ev)
}

// clearExited empties the slot once a resolved nudge's exit delay elapses,
// unless a newer nudge has taken the slot in the meantime.
func (s *Scheduler) clearExited(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	delete(s.exits, id)
	if s.active == nil || s.active.ID != id {
		return
	}
	s.active = nil
	s.visible = false
	s.publishLocked()
}

func (s *Scheduler) evaluateLocked(cfg Config) Decision {
	return Evaluate(EvalInput{
		Config:  cfg,
		Tier:    s.tier,
		History: s.history.entries,
		Active:  s.active,
		Now:     s.now(),
	})
}

func (s *Scheduler) now() time.Time {
	return s.clock.Now().In(s.loc)
}

func (s *Scheduler) stateLocked() State {
	return State{Active: s.active.clone(), Visible: s.visible}
}

func (s *Scheduler) publishLocked() {
	st := s.stateLocked()
	for _, ch := range s.subs {
		select {
		case ch <- st:
		default:
		}
	}
}

func (s *Scheduler) eventLocked(name EventName, n *ActiveNudge, now time.Time, extra map[string]any) Event {
	fields := make(map[string]any, len(n.Context)+len(extra))
	for k, v := range n.Context {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	return Event{
		Name:      name,
		Type:      n.Config.Type,
		NudgeID:   n.ID,
		Tier:      s.tier,
		Timestamp: now,
		Fields:    fields,
	}
}

func (s *Scheduler) track(events ...Event) {
	for _, ev := range events {
		if err := safeTrack(s.ctx, s.tracker, ev); err != nil {
			s.logger.Warn("Nudge tracking failed",
				zap.String("event", string(ev.Name)),
				zap.String("type", string(ev.Type)),
				zap.Error(err))
		}
	}
}

func copyContext(c Context) Context {
	if c == nil {
		return nil
	}
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

type schedulerKey struct{}

// WithScheduler attaches s to ctx.
func WithScheduler(ctx context.Context, s *Scheduler) context.Context {
	return context.WithValue(ctx, schedulerKey{}, s)
}

// FromContext returns the scheduler attached to ctx, or nil.
func FromContext(ctx context.Context) *Scheduler {
	s, _ := ctx.Value(schedulerKey{}).(*Scheduler)
	return s
}
