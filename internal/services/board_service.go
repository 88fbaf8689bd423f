package services

import (
	"context"
	"fmt"
	"studyd/internal/board"
	"studyd/internal/export"
	"studyd/internal/models"
	"studyd/internal/platform"
	"studyd/internal/providers"
	"studyd/internal/structures"
	"time"
)

type BoardServiceInterface interface {
	// Post runs one full cycle: compute the three windows for ref, render,
	// send, export. trigger labels the cause for logs and metrics.
	Post(ctx context.Context, ref time.Time, trigger string) error
	Window(kind models.WindowKind) (*models.LeaderboardWindow, error)
}

type BoardService struct {
	conf      *structures.Config
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
	engine    board.EngineInterface
	publisher board.PublisherInterface
	export    export.ClientInterface
	sender    platform.Sender
	loc       *time.Location
}

func NewBoardService(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, engine board.EngineInterface, publisher board.PublisherInterface, exporter export.ClientInterface, sender platform.Sender, loc *time.Location) BoardServiceInterface {
	return &BoardService{
		conf:      conf,
		logger:    logger,
		metrics:   metrics,
		engine:    engine,
		publisher: publisher,
		export:    exporter,
		sender:    sender,
		loc:       loc,
	}
}

func (s *BoardService) Post(ctx context.Context, ref time.Time, trigger string) error {
	day, err := s.engine.Compute(models.WindowDay, ref)
	if err != nil {
		return fmt.Errorf("day window: %w", err)
	}
	week, err := s.engine.Compute(models.WindowWeek, ref)
	if err != nil {
		return fmt.Errorf("week window: %w", err)
	}
	month, err := s.engine.Compute(models.WindowMonth, ref)
	if err != nil {
		return fmt.Errorf("month window: %w", err)
	}
	index, err := s.engine.DayIndex(ref)
	if err != nil {
		return err
	}

	msg := s.publisher.Compose(day, week, month, index)
	id, err := s.publisher.Publish(ctx, msg)
	if err != nil {
		return err
	}

	s.metrics.IncPosts(trigger)
	s.logger.Infof(providers.TypeBoard, "Board posted for %s (trigger=%s, day=%d)",
		ref.In(s.loc).Format(models.DateLayout), trigger, index)

	s.export.Push(ctx, &export.Payload{
		PostedAt:  time.Now().UTC(),
		MessageID: id,
		ChatID:    s.sender.ChatID(),
		Boards:    []*models.LeaderboardWindow{day, week, month},
	})
	return nil
}

func (s *BoardService) Window(kind models.WindowKind) (*models.LeaderboardWindow, error) {
	return s.engine.Compute(kind, time.Now())
}
