package store

import (
	"database/sql"
	"fmt"
	"math/rand"
	"strconv"
	"studyd/internal/models"
	"studyd/internal/providers"
	"studyd/internal/structures"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DayRow struct {
	UserID int64 `json:"user_id"`
	Raw    int64 `json:"raw_seconds"`
	Ranked int64 `json:"ranked_seconds"`
}

type UserEntry struct {
	DisplayName string
	Username    string
}

type AccumulationStoreInterface interface {
	// AddSpan credits a closed session segment to the per-day ledger,
	// splitting at local midnight. The segment's idempotency key makes a
	// retried or replayed flush a no-op; applied reports whether this call
	// actually wrote anything.
	AddSpan(sess models.Session, qualified bool) (applied bool, err error)
	PeriodTotals(startDate, endDate string) (map[int64]int64, error)
	RawDayTotal(identity int64, date string) (int64, error)

	GetMeta(key string) (string, error)
	SetMeta(key, value string) error
	AnchorDate() (time.Time, error)
	EnsureGroup(key string) (reset bool, err error)
	SessionVersion() (int64, error)

	CacheUser(id int64, displayName, username string) error
	LookupUser(id int64) (UserEntry, bool)
	Usernames() (map[string]int64, error)

	Compliment(period string, id int64) (string, bool)
	SaveCompliment(period string, id int64, text string) error
	UsedCompliments(prefix string, id int64) (map[string]struct{}, error)

	DaysBefore(cutoff string) ([]string, error)
	DayRows(date string) ([]DayRow, error)
	PruneDay(date string) error

	Close() error
}

// AccumulationStore is the sqlite-backed per-identity, per-day seconds
// ledger. Writes are serialized by mu; sqlite WAL mode keeps readers cheap.
type AccumulationStore struct {
	mu      sync.Mutex
	db      *sql.DB
	conf    *structures.Config
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	loc     *time.Location
}

func NewAccumulationStore(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, loc *time.Location) (AccumulationStoreInterface, error) {
	db, err := sql.Open("sqlite3", conf.Storage.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	s := &AccumulationStore{db: db, conf: conf, logger: logger, metrics: metrics, loc: loc}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}
	return s, nil
}

func (s *AccumulationStore) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS seconds_totals (
			d TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			raw_seconds INTEGER NOT NULL DEFAULT 0,
			ranked_seconds INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (d, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS applied_sessions (
			session_key TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_cache (
			user_id INTEGER PRIMARY KEY,
			display_name TEXT,
			username TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS compliments_period (
			period TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			compliment TEXT NOT NULL,
			PRIMARY KEY (period, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS meta (k TEXT PRIMARY KEY, v TEXT)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *AccumulationStore) AddSpan(sess models.Session, qualified bool) (bool, error) {
	chunks := models.SplitSpanByDay(sess.Start, sess.End, s.loc)
	if len(chunks) == 0 {
		return false, nil
	}

	var lastErr error
	for attempt := 1; attempt <= s.conf.Storage.FlushRetries; attempt++ {
		applied, err := s.addSpanOnce(sess.Key(), sess.Identity, chunks, qualified)
		if err == nil {
			return applied, nil
		}
		lastErr = err
		s.metrics.IncFlushRetries()
		if attempt < s.conf.Storage.FlushRetries {
			delay := s.conf.Storage.FlushBackoff * time.Duration(1<<(attempt-1))
			delay += time.Duration(rand.Int63n(int64(s.conf.Storage.FlushBackoff)))
			s.logger.Warnf(providers.TypeTracker, "ledger write failed (attempt %d/%d): %s; retrying in %s",
				attempt, s.conf.Storage.FlushRetries, err, delay)
			time.Sleep(delay)
		}
	}
	return false, fmt.Errorf("ledger write exhausted retries: %w", lastErr)
}

func (s *AccumulationStore) addSpanOnce(key string, identity int64, chunks []models.DayChunk, qualified bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT OR IGNORE INTO applied_sessions(session_key, applied_at) VALUES(?, ?)`,
		key, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// Already applied; a replayed close event must not double-count.
		return false, tx.Commit()
	}

	for _, chunk := range chunks {
		ranked := int64(0)
		if qualified {
			ranked = chunk.Seconds
		}
		if _, err := tx.Exec(
			`INSERT INTO seconds_totals(d, user_id, raw_seconds, ranked_seconds) VALUES(?, ?, ?, ?)
			 ON CONFLICT(d, user_id) DO UPDATE SET
				raw_seconds = raw_seconds + excluded.raw_seconds,
				ranked_seconds = ranked_seconds + excluded.ranked_seconds`,
			chunk.Date, identity, chunk.Seconds, ranked,
		); err != nil {
			return false, err
		}
		s.metrics.AddSecondsAccumulated("raw", float64(chunk.Seconds))
		if qualified {
			s.metrics.AddSecondsAccumulated("ranked", float64(chunk.Seconds))
		}
	}

	return true, tx.Commit()
}

func (s *AccumulationStore) PeriodTotals(startDate, endDate string) (map[int64]int64, error) {
	rows, err := s.db.Query(
		`SELECT user_id, SUM(ranked_seconds) AS s FROM seconds_totals
		 WHERE d BETWEEN ? AND ? GROUP BY user_id HAVING s > 0`,
		startDate, endDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[int64]int64)
	for rows.Next() {
		var uid, secs int64
		if err := rows.Scan(&uid, &secs); err != nil {
			return nil, err
		}
		totals[uid] = secs
	}
	return totals, rows.Err()
}

func (s *AccumulationStore) RawDayTotal(identity int64, date string) (int64, error) {
	var secs int64
	err := s.db.QueryRow(
		`SELECT raw_seconds FROM seconds_totals WHERE d = ? AND user_id = ?`,
		date, identity,
	).Scan(&secs)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return secs, err
}

func (s *AccumulationStore) GetMeta(key string) (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT v FROM meta WHERE k = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

func (s *AccumulationStore) SetMeta(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO meta(k, v) VALUES(?, ?)`, key, value)
	return err
}

// AnchorDate returns the deployment anchor (day 1 of the board numbering),
// establishing it at today when missing.
func (s *AccumulationStore) AnchorDate() (time.Time, error) {
	v, err := s.GetMeta("anchor_date")
	if err != nil {
		return time.Time{}, err
	}
	if v != "" {
		if t, perr := time.ParseInLocation(models.DateLayout, v, s.loc); perr == nil {
			return t, nil
		}
	}
	today := time.Now().In(s.loc)
	anchor := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.loc)
	if err := s.SetMeta("anchor_date", anchor.Format(models.DateLayout)); err != nil {
		return time.Time{}, err
	}
	return anchor, nil
}

// EnsureGroup wipes all counters when the tracked room changed since the last
// run, re-anchors to today and bumps session_version so browser sessions of
// the external web surface get invalidated.
func (s *AccumulationStore) EnsureGroup(key string) (bool, error) {
	old, err := s.GetMeta("group_key")
	if err != nil {
		return false, err
	}
	if old == key {
		return false, nil
	}
	if old == "" {
		// First run: nothing to wipe, just record the room.
		today := time.Now().In(s.loc).Format(models.DateLayout)
		if err := s.SetMeta("group_key", key); err != nil {
			return false, err
		}
		return false, s.SetMeta("group_since", today)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM seconds_totals`,
		`DELETE FROM applied_sessions`,
		`DELETE FROM compliments_period`,
		`DELETE FROM meta WHERE k = 'anchor_date'`,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return false, err
		}
	}

	today := time.Now().In(s.loc).Format(models.DateLayout)
	version, _ := s.sessionVersionLocked()
	for k, v := range map[string]string{
		"group_key":       key,
		"group_since":     today,
		"anchor_date":     today,
		"session_version": strconv.FormatInt(version+1, 10),
	} {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(k, v) VALUES(?, ?)`, k, v); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	s.logger.Warnf(providers.TypeApp, "Detected new room %q: counters reset, anchor set to %s", key, today)
	return true, nil
}

func (s *AccumulationStore) SessionVersion() (int64, error) {
	return s.sessionVersionLocked()
}

func (s *AccumulationStore) sessionVersionLocked() (int64, error) {
	v, err := s.GetMeta("session_version")
	if err != nil {
		return 0, err
	}
	if v == "" {
		return 1, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 1, nil
	}
	return n, nil
}

func (s *AccumulationStore) CacheUser(id int64, displayName, username string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO user_cache(user_id, display_name, username) VALUES(?, ?, ?)`,
		id, displayName, username,
	)
	return err
}

func (s *AccumulationStore) LookupUser(id int64) (UserEntry, bool) {
	var e UserEntry
	err := s.db.QueryRow(
		`SELECT display_name, username FROM user_cache WHERE user_id = ?`, id,
	).Scan(&e.DisplayName, &e.Username)
	if err != nil {
		return UserEntry{}, false
	}
	return e, true
}

func (s *AccumulationStore) Usernames() (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT user_id, username FROM user_cache WHERE username != ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var id int64
		var uname string
		if err := rows.Scan(&id, &uname); err != nil {
			return nil, err
		}
		out[uname] = id
	}
	return out, rows.Err()
}

func (s *AccumulationStore) Compliment(period string, id int64) (string, bool) {
	var text string
	err := s.db.QueryRow(
		`SELECT compliment FROM compliments_period WHERE period = ? AND user_id = ?`,
		period, id,
	).Scan(&text)
	if err != nil {
		return "", false
	}
	return text, true
}

func (s *AccumulationStore) SaveCompliment(period string, id int64, text string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO compliments_period(period, user_id, compliment) VALUES(?, ?, ?)`,
		period, id, text,
	)
	return err
}

func (s *AccumulationStore) UsedCompliments(prefix string, id int64) (map[string]struct{}, error) {
	rows, err := s.db.Query(
		`SELECT compliment FROM compliments_period WHERE period LIKE ? AND user_id = ?`,
		prefix+"%", id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	used := make(map[string]struct{})
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		used[text] = struct{}{}
	}
	return used, rows.Err()
}

func (s *AccumulationStore) DaysBefore(cutoff string) ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT d FROM seconds_totals WHERE d < ? ORDER BY d`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (s *AccumulationStore) DayRows(date string) ([]DayRow, error) {
	rows, err := s.db.Query(
		`SELECT user_id, raw_seconds, ranked_seconds FROM seconds_totals WHERE d = ? ORDER BY user_id`,
		date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayRow
	for rows.Next() {
		var r DayRow
		if err := rows.Scan(&r.UserID, &r.Raw, &r.Ranked); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *AccumulationStore) PruneDay(date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM seconds_totals WHERE d = ?`, date)
	return err
}

func (s *AccumulationStore) Close() error {
	return s.db.Close()
}
