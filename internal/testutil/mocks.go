package testutil

import (
	"context"
	"strconv"
	"strings"
	"studyd/internal/models"
	"studyd/internal/platform"
	"studyd/internal/providers"
	"studyd/internal/store"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu          sync.Mutex
	Hydrations  map[string]int
	Posts       map[string]int
	Exports     map[string]int
	SecondsLost float64
	Open        int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Hydrations: make(map[string]int),
		Posts:      make(map[string]int),
		Exports:    make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncSessionsOpened(_ string)                       {}
func (m *MockMetrics) IncSessionsClosed(_ string)                       {}
func (m *MockMetrics) AddSecondsAccumulated(_ string, _ float64)        {}
func (m *MockMetrics) IncFlushRetries()                                 {}

func (m *MockMetrics) AddSecondsLost(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SecondsLost += seconds
}

func (m *MockMetrics) IncHydrations(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Hydrations[result]++
}

func (m *MockMetrics) IncPosts(trigger string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Posts[trigger]++
}

func (m *MockMetrics) IncExports(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Exports[result]++
}

func (m *MockMetrics) SetOpenSessions(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Open = count
}

// MockStore is an in-memory store.AccumulationStoreInterface. Day totals
// are keyed "date:identity"; the idempotency ledger mirrors the real one.
type MockStore struct {
	mu          sync.Mutex
	Raw         map[string]int64
	Ranked      map[string]int64
	Applied     map[string]bool
	Meta        map[string]string
	Users       map[int64]store.UserEntry
	Names       map[string]int64
	Compliments map[string]string
	Loc         *time.Location
	Anchor      time.Time
	AddSpanErr  error
	Spans       []SpanCall
}

type SpanCall struct {
	Session   models.Session
	Qualified bool
}

func NewMockStore(loc *time.Location, anchor time.Time) *MockStore {
	return &MockStore{
		Raw:         make(map[string]int64),
		Ranked:      make(map[string]int64),
		Applied:     make(map[string]bool),
		Meta:        make(map[string]string),
		Users:       make(map[int64]store.UserEntry),
		Names:       make(map[string]int64),
		Compliments: make(map[string]string),
		Loc:         loc,
		Anchor:      anchor,
	}
}

func dayKey(date string, id int64) string {
	return date + ":" + strconv.FormatInt(id, 10)
}

func (m *MockStore) AddSpan(sess models.Session, qualified bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Spans = append(m.Spans, SpanCall{Session: sess, Qualified: qualified})
	if m.AddSpanErr != nil {
		return false, m.AddSpanErr
	}
	if m.Applied[sess.Key()] {
		return false, nil
	}
	m.Applied[sess.Key()] = true
	for _, chunk := range models.SplitSpanByDay(sess.Start, sess.End, m.loc()) {
		key := dayKey(chunk.Date, sess.Identity)
		m.Raw[key] += chunk.Seconds
		if qualified {
			m.Ranked[key] += chunk.Seconds
		}
	}
	return true, nil
}

func (m *MockStore) loc() *time.Location {
	if m.Loc != nil {
		return m.Loc
	}
	return time.UTC
}

func (m *MockStore) PeriodTotals(startDate, endDate string) (map[int64]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]int64)
	for key, seconds := range m.Ranked {
		if seconds <= 0 {
			continue
		}
		parts := strings.SplitN(key, ":", 2)
		if parts[0] >= startDate && parts[0] <= endDate {
			id, _ := strconv.ParseInt(parts[1], 10, 64)
			out[id] += seconds
		}
	}
	return out, nil
}

func (m *MockStore) RawDayTotal(identity int64, date string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Raw[dayKey(date, identity)], nil
}

func (m *MockStore) GetMeta(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Meta[key], nil
}

func (m *MockStore) SetMeta(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Meta[key] = value
	return nil
}

func (m *MockStore) AnchorDate() (time.Time, error) {
	return m.Anchor, nil
}

func (m *MockStore) EnsureGroup(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.Meta["group_key"]
	m.Meta["group_key"] = key
	return prev != "" && prev != key, nil
}

func (m *MockStore) SessionVersion() (int64, error) {
	return 1, nil
}

func (m *MockStore) CacheUser(id int64, displayName, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users[id] = store.UserEntry{DisplayName: displayName, Username: username}
	if username != "" {
		m.Names[strings.ToLower(username)] = id
	}
	return nil
}

func (m *MockStore) LookupUser(id int64) (store.UserEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.Users[id]
	return entry, ok
}

func (m *MockStore) Usernames() (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.Names))
	for name, id := range m.Names {
		out[name] = id
	}
	return out, nil
}

func (m *MockStore) Compliment(period string, id int64) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.Compliments[period+"#"+strconv.FormatInt(id, 10)]
	return text, ok
}

func (m *MockStore) SaveCompliment(period string, id int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Compliments[period+"#"+strconv.FormatInt(id, 10)] = text
	return nil
}

func (m *MockStore) UsedCompliments(prefix string, id int64) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct{})
	suffix := "#" + strconv.FormatInt(id, 10)
	for key, text := range m.Compliments {
		if strings.HasPrefix(key, prefix) && strings.HasSuffix(key, suffix) {
			out[text] = struct{}{}
		}
	}
	return out, nil
}

func (m *MockStore) DaysBefore(cutoff string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{})
	var days []string
	for key := range m.Raw {
		date := strings.SplitN(key, ":", 2)[0]
		if date < cutoff {
			if _, ok := seen[date]; !ok {
				seen[date] = struct{}{}
				days = append(days, date)
			}
		}
	}
	return days, nil
}

func (m *MockStore) DayRows(date string) ([]store.DayRow, error) {
	return nil, nil
}

func (m *MockStore) PruneDay(date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.Raw {
		if strings.HasPrefix(key, date+":") {
			delete(m.Raw, key)
			delete(m.Ranked, key)
		}
	}
	return nil
}

func (m *MockStore) Close() error { return nil }

// MockSender implements platform.Sender and records outbound messages.
type MockSender struct {
	mu     sync.Mutex
	Sent   []*platform.OutboundMessage
	NextID int64
	Err    error
	Chat   int64
}

func (m *MockSender) Send(ctx context.Context, msg *platform.OutboundMessage) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.Sent = append(m.Sent, msg)
	m.NextID++
	return m.NextID, nil
}

func (m *MockSender) ChatID() int64 { return m.Chat }

func (m *MockSender) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// MockRosterPoller implements platform.RosterPoller.
type MockRosterPoller struct {
	mu      sync.Mutex
	Rosters []*platform.Roster
	Err     error
}

func (m *MockRosterPoller) Roster(ctx context.Context) (*platform.Roster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Rosters) == 0 {
		return nil, nil
	}
	r := m.Rosters[0]
	if len(m.Rosters) > 1 {
		m.Rosters = m.Rosters[1:]
	}
	return r, nil
}

// MockReferenceFetcher implements platform.ReferenceFetcher.
type MockReferenceFetcher struct {
	mu    sync.Mutex
	Ref   *platform.ReferenceMessage
	Err   error
	Calls int
}

func (m *MockReferenceFetcher) Reference(ctx context.Context) (*platform.ReferenceMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Ref, nil
}

// MockBoardService implements services.BoardServiceInterface via the Post
// and Window funcs; zero value records posts and returns empty windows.
type MockBoardService struct {
	mu      sync.Mutex
	PostErr error
	Posted  []PostCall
}

type PostCall struct {
	Ref     time.Time
	Trigger string
}

func (m *MockBoardService) Post(ctx context.Context, ref time.Time, trigger string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PostErr != nil {
		return m.PostErr
	}
	m.Posted = append(m.Posted, PostCall{Ref: ref, Trigger: trigger})
	return nil
}

func (m *MockBoardService) Window(kind models.WindowKind) (*models.LeaderboardWindow, error) {
	return &models.LeaderboardWindow{Kind: kind}, nil
}

func (m *MockBoardService) PostCalls() []PostCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PostCall, len(m.Posted))
	copy(out, m.Posted)
	return out
}
