package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/finsight-ai/finsight-backend/internal/model"
	"github.com/finsight-ai/finsight-backend/internal/repository"
)

// snapshotRunTimeout bounds one scheduled pass over every user.
const snapshotRunTimeout = 10 * time.Minute

// SnapshotService stores end-of-day portfolio valuations and serves their history.
type SnapshotService struct {
	snapshotRepo *repository.SnapshotRepository
	userRepo     *repository.UserRepository
	portfolio    *PortfolioService
	now          func() time.Time
	log          zerolog.Logger
}

// NewSnapshotService creates a new SnapshotService.
func NewSnapshotService(
	snapshotRepo *repository.SnapshotRepository,
	userRepo *repository.UserRepository,
	portfolio *PortfolioService,
	log zerolog.Logger,
) *SnapshotService {
	return &SnapshotService{
		snapshotRepo: snapshotRepo,
		userRepo:     userRepo,
		portfolio:    portfolio,
		now:          time.Now,
		log:          log.With().Str("component", "snapshots").Logger(),
	}
}

// CaptureForUser values the user's portfolio now and stores it as today's snapshot,
// replacing an earlier snapshot from the same day. A failed valuation stores nothing.
func (s *SnapshotService) CaptureForUser(ctx context.Context, userID string) (*model.PortfolioSnapshot, error) {
	result, err := s.portfolio.ComputePortfolio(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	snap := &model.PortfolioSnapshot{
		ID:           uuid.New().String(),
		UserID:       userID,
		Date:         time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Summary:      result.Summary,
		Positions:    result.Holdings,
		CalculatedAt: now.Truncate(time.Second),
	}

	if err := s.snapshotRepo.UpsertSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// CaptureAll snapshots every user holding at least one lot and returns how many
// snapshots were stored. A failure for one user is logged and does not stop the rest.
func (s *SnapshotService) CaptureAll(ctx context.Context) (int, error) {
	userIDs, err := s.userRepo.ListUserIDsWithHoldings(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	captured := 0
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return captured, err
		}
		if _, err := s.CaptureForUser(ctx, userID); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("snapshot failed")
			continue
		}
		captured++
	}

	s.log.Info().Int("captured", captured).Int("users", len(userIDs)).Msg("snapshot run complete")
	return captured, nil
}

// GetHistory returns the user's snapshots between start and end inclusive, oldest first.
func (s *SnapshotService) GetHistory(ctx context.Context, userID string, start, end time.Time) ([]model.PortfolioSnapshot, error) {
	history := []model.PortfolioSnapshot{}

	err := s.snapshotRepo.GetSnapshots(ctx, userID, start, end, func(snap model.PortfolioSnapshot) error {
		history = append(history, snap)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// Name identifies the snapshot job to the scheduler.
func (s *SnapshotService) Name() string {
	return "portfolio_snapshot"
}

// Run captures snapshots for every user. It is invoked by the scheduler.
func (s *SnapshotService) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotRunTimeout)
	defer cancel()

	_, err := s.CaptureAll(ctx)
	return err
}
