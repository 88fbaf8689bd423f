package scheduler

import (
	"context"
	"os"
	"studyd/internal/glyphs"
	"studyd/internal/models"
	"studyd/internal/platform"
	"studyd/internal/providers"
	"studyd/internal/scheduler/interfaces"
	"studyd/internal/services"
	"studyd/internal/store"
	"studyd/internal/structures"
	"studyd/internal/tracker"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/roylee0704/gron"
	"go.uber.org/atomic"
)

// Scheduler drives every periodic concern: roster polls, glyph hydration
// and health, ledger archiving, and the posting cycle with its backfill and
// manual-trigger handling. All posting work is serialized through opsMu so
// backfill, daily and manual triggers can never interleave.
type Scheduler struct {
	config   *structures.Config
	logger   providers.Logger
	tracker  tracker.TrackerInterface
	poller   platform.RosterPoller
	resolver glyphs.ResolverInterface
	archiver *store.Archiver
	service  services.BoardServiceInterface
	loc      *time.Location
	cron     *gron.Cron

	opsMu         sync.Mutex
	state         models.SchedulerState
	manualPending atomic.Bool
}

func NewScheduler(config *structures.Config, logger providers.Logger, trk tracker.TrackerInterface, poller platform.RosterPoller, resolver glyphs.ResolverInterface, archiver *store.Archiver, service services.BoardServiceInterface, loc *time.Location) interfaces.SchedulerInterface {
	return &Scheduler{
		config:   config,
		logger:   logger,
		tracker:  trk,
		poller:   poller,
		resolver: resolver,
		archiver: archiver,
		service:  service,
		loc:      loc,
	}
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Tracker.PollInterval), func() {
		s.pollRoster()
	})

	s.cron.AddFunc(gron.Every(s.config.Glyphs.HydrateInterval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.Gateway.RequestTimeout)
		defer cancel()
		if err := s.resolver.Hydrate(ctx); err != nil {
			s.logger.Errorf(providers.TypeGlyphs, "Hydration failed: %s", err)
		}
	})

	if s.config.Glyphs.HealthInterval > 0 {
		s.cron.AddFunc(gron.Every(s.config.Glyphs.HealthInterval), func() {
			h := s.resolver.Health()
			s.logger.Infof(providers.TypeGlyphs, "Glyph health: premium=%d pinned=%d default=%d degraded=%t fingerprint=%s",
				h.Premium, h.Pinned, h.Default, h.Degraded, h.Fingerprint)
		})
	}

	if s.config.Storage.ArchiveInterval > 0 {
		s.cron.AddFunc(gron.Every(s.config.Storage.ArchiveInterval), func() {
			s.opsMu.Lock()
			defer s.opsMu.Unlock()
			s.archiver.Run()
		})
	}

	s.cron.AddFunc(gron.Every(s.config.Scheduler.CheckInterval), func() {
		s.checkPost(time.Now())
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) pollRoster() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Tracker.PollInterval)
	defer cancel()

	roster, err := s.poller.Roster(ctx)
	if err != nil {
		s.logger.Warnf(providers.TypeTracker, "Roster poll failed, keeping state: %s", err)
		return
	}
	s.tracker.OnPoll(roster, time.Now())
}

// Restore loads persisted posting state and computes the catch-up queue:
// every missed calendar day strictly between the last posted date and today,
// oldest first. Today itself is handled by the regular daily check.
func (s *Scheduler) Restore() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.state = models.SchedulerState{Version: models.SchedulerStateVersion}

	data, err := os.ReadFile(s.config.Scheduler.StatePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Infof(providers.TypeSched, "No posting state, starting fresh")
			return nil
		}
		return err
	}

	var state models.SchedulerState
	if err := json.Unmarshal(data, &state); err != nil || state.Version != models.SchedulerStateVersion {
		s.logger.Warnf(providers.TypeSched, "Posting state unreadable, starting fresh: %v", err)
		return nil
	}
	s.state = state

	s.state.Backfill = s.missedDays(time.Now())
	if len(s.state.Backfill) > 0 {
		s.logger.Infof(providers.TypeSched, "Backfill queue: %d missed days starting %s",
			len(s.state.Backfill), s.state.Backfill[0])
	}
	return nil
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()
	return s.persistLocked()
}

func (s *Scheduler) persistLocked() error {
	data, err := json.Marshal(&s.state)
	if err != nil {
		return err
	}
	if err := store.WriteFileAtomic(s.config.Scheduler.StatePath, data, 0644); err != nil {
		s.logger.Errorf(providers.TypeSched, "Persisting posting state failed: %s", err)
		return err
	}
	return nil
}

// TriggerManual requests an out-of-band post at the next check tick. Manual
// posts never advance the daily bookkeeping, so the scheduled post still
// happens.
func (s *Scheduler) TriggerManual() {
	s.manualPending.Store(true)
}

// checkPost is one pass of the posting state machine. Backfill drains
// first, then the daily post, then a pending manual trigger. A manual
// trigger coinciding with a due daily post collapses into it: exactly one
// message, counted as the daily one.
func (s *Scheduler) checkPost(now time.Time) {
	s.consumeManualFlag()

	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	for len(s.state.Backfill) > 0 {
		day := s.state.Backfill[0]
		if err := s.postDay(day, "backfill"); err != nil {
			s.logger.Errorf(providers.TypeSched, "Backfill post for %s failed, will retry: %s", day, err)
			return
		}
		s.state.Backfill = s.state.Backfill[1:]
		s.state.LastPostedDate = day
		_ = s.persistLocked()
	}

	local := now.In(s.loc)
	today := local.Format(models.DateLayout)
	dailyDue := s.state.LastPostedDate != today && !local.Before(s.postTime(local))

	if dailyDue {
		if err := s.service.Post(context.Background(), now, "daily"); err != nil {
			s.logger.Errorf(providers.TypeSched, "Daily post failed, will retry: %s", err)
			return
		}
		s.state.LastPostedDate = today
		_ = s.persistLocked()
		// A concurrent manual request is satisfied by this post.
		s.manualPending.Store(false)
		return
	}

	if s.manualPending.Swap(false) {
		if err := s.service.Post(context.Background(), now, "manual"); err != nil {
			s.logger.Errorf(providers.TypeSched, "Manual post failed: %s", err)
		}
	}
}

// consumeManualFlag picks up the drop-a-file trigger left by operators
// without shell access to the daemon.
func (s *Scheduler) consumeManualFlag() {
	path := s.config.Scheduler.ManualFlagPath
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := os.Remove(path); err != nil {
		s.logger.Warnf(providers.TypeSched, "Manual flag found but not removable: %s", err)
		return
	}
	s.logger.Infof(providers.TypeSched, "Manual post flag consumed")
	s.manualPending.Store(true)
}

// postDay posts the board as of a past day's scheduled post time.
func (s *Scheduler) postDay(day string, trigger string) error {
	d, err := time.ParseInLocation(models.DateLayout, day, s.loc)
	if err != nil {
		return err
	}
	ref := time.Date(d.Year(), d.Month(), d.Day(), s.config.Board.PostHour, s.config.Board.PostMinute, 0, 0, s.loc)
	return s.service.Post(context.Background(), ref, trigger)
}

func (s *Scheduler) postTime(local time.Time) time.Time {
	return time.Date(local.Year(), local.Month(), local.Day(), s.config.Board.PostHour, s.config.Board.PostMinute, 0, 0, s.loc)
}

// missedDays lists calendar days strictly after the last posted date and
// strictly before today, oldest first. Must hold opsMu.
func (s *Scheduler) missedDays(now time.Time) []string {
	if s.state.LastPostedDate == "" {
		return nil
	}
	last, err := time.ParseInLocation(models.DateLayout, s.state.LastPostedDate, s.loc)
	if err != nil {
		s.logger.Warnf(providers.TypeSched, "Last posted date %q unreadable, skipping backfill", s.state.LastPostedDate)
		return nil
	}

	today := now.In(s.loc).Format(models.DateLayout)
	var missed []string
	for d := last.AddDate(0, 0, 1); d.Format(models.DateLayout) < today; d = d.AddDate(0, 0, 1) {
		missed = append(missed, d.Format(models.DateLayout))
	}
	return missed
}
