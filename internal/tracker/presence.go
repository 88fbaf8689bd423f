package tracker

import (
	"studyd/internal/models"
	"studyd/internal/platform"
	"studyd/internal/providers"
	"studyd/internal/store"
	"studyd/internal/structures"
	"sync"
	"time"
)

type OpenSession struct {
	Identity int64
	Start    time.Time
	Source   models.SessionSource
}

type TrackerInterface interface {
	OnEvent(ev *platform.Event)
	OnPoll(roster *platform.Roster, ts time.Time)
	FinalizeAll(ts time.Time)
	OpenSessions() []OpenSession
	CallID() int64
}

// Tracker consumes live join/leave events plus periodic roster polls and
// maintains open-session state. All inputs are serialized through one mutex,
// so event processing and poll reconciliation never race per identity.
//
// Open sessions live in memory only; a crash loses at most the currently
// open, unflushed segments, bounded by the checkpoint interval.
type Tracker struct {
	mu      sync.Mutex
	conf    *structures.Config
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	store   store.AccumulationStoreInterface
	loc     *time.Location

	callID    int64
	open      map[int64]*OpenSession
	pending   map[int64][]models.Session
	accum     map[int64]int64
	qualified map[int64]bool
	lastFlush time.Time
}

func NewTracker(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, ledger store.AccumulationStoreInterface, loc *time.Location) TrackerInterface {
	return &Tracker{
		conf:      conf,
		logger:    logger,
		metrics:   metrics,
		store:     ledger,
		loc:       loc,
		open:      make(map[int64]*OpenSession),
		pending:   make(map[int64][]models.Session),
		accum:     make(map[int64]int64),
		qualified: make(map[int64]bool),
		lastFlush: time.Now(),
	}
}

func (t *Tracker) OnEvent(ev *platform.Event) {
	if ev == nil || ev.Identity == 0 || ev.Timestamp.IsZero() {
		t.logger.Warnf(providers.TypeTracker, "Dropping malformed presence event: %+v", ev)
		return
	}
	if !t.conf.Tracker.TrackSelf && ev.Identity == t.conf.Tracker.SelfID {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Kind {
	case platform.EventJoin:
		if _, ok := t.open[ev.Identity]; ok {
			return // duplicate join, idempotent
		}
		t.open[ev.Identity] = &OpenSession{Identity: ev.Identity, Start: ev.Timestamp, Source: models.SourceEvent}
		t.metrics.IncSessionsOpened(string(models.SourceEvent))
	case platform.EventLeave:
		sess, ok := t.open[ev.Identity]
		if !ok {
			return // spurious leave, ignore
		}
		delete(t.open, ev.Identity)
		t.closeSegment(sess.Identity, sess.Start, ev.Timestamp, models.SourceEvent)
		t.metrics.IncSessionsClosed(string(models.SourceEvent))
	default:
		t.logger.Warnf(providers.TypeTracker, "Dropping event of unexpected kind %q", ev.Kind)
	}
	t.metrics.SetOpenSessions(len(t.open))
}

// OnPoll reconciles open-session state against a roster snapshot. An open
// session whose identity is absent from the roster is closed at poll time; a
// roster member without an open session is opened at poll time. Both sides
// use the poll timestamp, so the error is bounded by the poll interval.
func (t *Tracker) OnPoll(roster *platform.Roster, ts time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if roster == nil {
		if t.callID != 0 {
			t.finalizeLocked(ts)
		}
		return
	}

	if t.callID != roster.CallID {
		if t.callID != 0 {
			t.finalizeLocked(ts)
		}
		t.callID = roster.CallID
		t.lastFlush = ts
		t.logger.Infof(providers.TypeTracker, "New room call id=%d; gating sessions under %s", roster.CallID, t.conf.Tracker.SessionMin)
	}

	// Checkpoint long-running open sessions so a crash loses at most one
	// flush interval.
	if len(t.open) > 0 && ts.Sub(t.lastFlush) >= t.conf.Tracker.FlushInterval {
		for _, sess := range t.open {
			if ts.After(sess.Start) {
				t.closeSegment(sess.Identity, sess.Start, ts, sess.Source)
				sess.Start = ts
			}
		}
		t.lastFlush = ts
		t.logger.Debugf(providers.TypeTracker, "Checkpointed %d open sessions", len(t.open))
	}

	current := make(map[int64]struct{}, len(roster.Members))
	for _, m := range roster.Members {
		if m.Identity == 0 {
			continue
		}
		if !t.conf.Tracker.TrackSelf && m.Identity == t.conf.Tracker.SelfID {
			continue
		}
		current[m.Identity] = struct{}{}
		if m.Username != "" || m.DisplayName != "" {
			if err := t.store.CacheUser(m.Identity, m.DisplayName, m.Username); err != nil {
				t.logger.Warnf(providers.TypeTracker, "User cache write failed for %d: %s", m.Identity, err)
			}
		}
	}

	// A roster member without an open session means we missed a join event.
	for uid := range current {
		if _, ok := t.open[uid]; !ok {
			t.open[uid] = &OpenSession{Identity: uid, Start: ts, Source: models.SourcePoll}
			t.metrics.IncSessionsOpened(string(models.SourcePoll))
		}
	}

	// An open session absent from the roster means we missed a leave event.
	for uid, sess := range t.open {
		if _, ok := current[uid]; !ok {
			delete(t.open, uid)
			t.closeSegment(sess.Identity, sess.Start, ts, models.SourcePoll)
			t.metrics.IncSessionsClosed(string(models.SourcePoll))
		}
	}

	t.metrics.SetOpenSessions(len(t.open))
}

// FinalizeAll closes every open session at ts and settles gate bookkeeping.
// Called when the call ends and on shutdown.
func (t *Tracker) FinalizeAll(ts time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finalizeLocked(ts)
}

func (t *Tracker) OpenSessions() []OpenSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]OpenSession, 0, len(t.open))
	for _, sess := range t.open {
		out = append(out, *sess)
	}
	return out
}

func (t *Tracker) CallID() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.callID
}

// closeSegment settles one closed segment against the minimum-session gate.
// Qualified identities flush immediately; sub-gate segments stay pending
// until the session total crosses the gate. Must hold t.mu.
func (t *Tracker) closeSegment(identity int64, start, end time.Time, source models.SessionSource) {
	if !end.After(start) {
		return
	}
	seg := models.Session{Identity: identity, Start: start, End: end, Source: source}
	dur := seg.Seconds()
	t.accum[identity] += dur

	if t.qualified[identity] {
		t.flush(seg, true)
		return
	}

	t.pending[identity] = append(t.pending[identity], seg)
	if time.Duration(t.accum[identity])*time.Second >= t.conf.Tracker.SessionMin {
		for _, p := range t.pending[identity] {
			t.flush(p, true)
		}
		t.pending[identity] = nil
		t.qualified[identity] = true
	}
}

// finalizeLocked flushes sub-gate pending segments as raw-only audit rows and
// resets per-call state. Must hold t.mu.
func (t *Tracker) finalizeLocked(ts time.Time) {
	for uid, sess := range t.open {
		delete(t.open, uid)
		t.closeSegment(sess.Identity, sess.Start, ts, sess.Source)
	}
	for uid, segs := range t.pending {
		if t.qualified[uid] {
			continue
		}
		for _, seg := range segs {
			t.flush(seg, false)
		}
	}
	t.open = make(map[int64]*OpenSession)
	t.pending = make(map[int64][]models.Session)
	t.accum = make(map[int64]int64)
	t.qualified = make(map[int64]bool)
	t.callID = 0
	t.metrics.SetOpenSessions(0)
	t.logger.Infof(providers.TypeTracker, "Call ended; settled all sessions at %s", ts.In(t.loc).Format(time.RFC3339))
}

func (t *Tracker) flush(seg models.Session, qualified bool) {
	if _, err := t.store.AddSpan(seg, qualified); err != nil {
		t.metrics.AddSecondsLost(float64(seg.Seconds()))
		t.logger.Errorf(providers.TypeTracker, "Lost %ds for identity %d (segment %s): %s",
			seg.Seconds(), seg.Identity, seg.Key(), err)
	}
}
