package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fitclub-ch/fitclub-server/internal/models"
)

func (s *DefaultService) Overview(ctx context.Context) (*models.AnalyticsOverview, error) {
	overview, err := s.repo.GetAnalyticsOverview(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting analytics overview: %w", err)
	}
	return overview, nil
}

func (s *DefaultService) AttendanceReport(ctx context.Context) ([]models.ClassAttendance, error) {
	rows, err := s.repo.GetAttendanceByClass(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting attendance report: %w", err)
	}
	return rows, nil
}

func (s *DefaultService) Leaderboard(ctx context.Context) ([]models.LeaderboardRow, error) {
	since := time.Now().UTC().Add(-s.leaderboardWindow)
	rows, err := s.repo.GetLeaderboard(ctx, since, s.leaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("error getting leaderboard: %w", err)
	}
	return rows, nil
}
