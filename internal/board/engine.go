package board

import (
	"fmt"
	"sort"
	"studyd/internal/models"
	"studyd/internal/providers"
	"studyd/internal/store"
	"studyd/internal/structures"
	"time"
)

const (
	weekBlockDays  = 7
	monthBlockDays = 30
)

type EngineInterface interface {
	Compute(kind models.WindowKind, ref time.Time) (*models.LeaderboardWindow, error)
	DayIndex(ref time.Time) (int, error)
}

// Engine derives ranked leaderboard windows from the accumulation ledger.
// Windows are fixed-length blocks counted from the group anchor date rather
// than calendar weeks and months, so "week 3" always means days 15..21 of
// the group's life.
type Engine struct {
	conf    *structures.Config
	logger  providers.Logger
	store   store.AccumulationStoreInterface
	aliases *AliasResolver
	loc     *time.Location
}

func NewEngine(conf *structures.Config, logger providers.Logger, ledger store.AccumulationStoreInterface, aliases *AliasResolver, loc *time.Location) EngineInterface {
	return &Engine{
		conf:    conf,
		logger:  logger,
		store:   ledger,
		aliases: aliases,
		loc:     loc,
	}
}

// DayIndex is the 1-based day number of ref within the group's life.
func (e *Engine) DayIndex(ref time.Time) (int, error) {
	anchor, err := e.store.AnchorDate()
	if err != nil {
		return 0, err
	}
	days := int(midnight(ref, e.loc).Sub(midnight(anchor, e.loc)).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return days, nil
}

// Compute builds one ranked window ending no later than ref's local day.
func (e *Engine) Compute(kind models.WindowKind, ref time.Time) (*models.LeaderboardWindow, error) {
	start, end, index, err := e.window(kind, ref)
	if err != nil {
		return nil, err
	}

	totals, err := e.store.PeriodTotals(start.Format(models.DateLayout), end.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("totals for %s window: %w", kind, err)
	}

	folded := make(map[int64]int64, len(totals))
	for id, seconds := range totals {
		folded[e.aliases.Canonical(id)] += seconds
	}

	entries := make([]models.Entry, 0, len(folded))
	for id, seconds := range folded {
		entries = append(entries, models.Entry{
			Identity: id,
			Label:    e.label(id),
			Seconds:  seconds,
			Minutes:  seconds / 60,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Seconds != entries[j].Seconds {
			return entries[i].Seconds > entries[j].Seconds
		}
		return entries[i].Identity < entries[j].Identity
	})

	// Competition ranking: ties share a rank, the next distinct total skips
	// past the tied block.
	for i := range entries {
		if i > 0 && entries[i].Seconds == entries[i-1].Seconds {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}

	if e.conf.Board.ShowMax > 0 && len(entries) > e.conf.Board.ShowMax {
		entries = entries[:e.conf.Board.ShowMax]
	}

	return &models.LeaderboardWindow{
		Kind:    kind,
		Start:   start,
		End:     end,
		Index:   index,
		Entries: entries,
	}, nil
}

// window computes the [start, end] local-day bounds and 1-based block index
// for a kind. The day window is simply ref's local day; week and month are
// anchor-based blocks clamped so the end never passes ref's day.
func (e *Engine) window(kind models.WindowKind, ref time.Time) (time.Time, time.Time, int, error) {
	day := midnight(ref, e.loc)
	if kind == models.WindowDay {
		idx, err := e.DayIndex(ref)
		if err != nil {
			return time.Time{}, time.Time{}, 0, err
		}
		return day, day, idx, nil
	}

	anchor, err := e.store.AnchorDate()
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	anchorDay := midnight(anchor, e.loc)

	blockLen := weekBlockDays
	if kind == models.WindowMonth {
		blockLen = monthBlockDays
	}

	elapsed := int(day.Sub(anchorDay).Hours() / 24)
	if elapsed < 0 {
		elapsed = 0
	}
	block := elapsed / blockLen

	start := anchorDay.AddDate(0, 0, block*blockLen)
	end := start.AddDate(0, 0, blockLen-1)
	if end.After(day) {
		end = day
	}
	return start, end, block + 1, nil
}

func (e *Engine) label(id int64) string {
	if label, ok := e.aliases.Label(id); ok {
		return label
	}
	if entry, ok := e.store.LookupUser(id); ok {
		if entry.Username != "" {
			return "@" + entry.Username
		}
		if entry.DisplayName != "" {
			return entry.DisplayName
		}
	}
	return fmt.Sprintf("id%d", id)
}

func midnight(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}
