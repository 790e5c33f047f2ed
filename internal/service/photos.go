package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fitclub-ch/fitclub-server/internal/metrics"
	"github.com/fitclub-ch/fitclub-server/internal/models"
)

// ListPhotos returns public photos plus private photos the member holds an
// unexpired access grant for
func (s *DefaultService) ListPhotos(ctx context.Context, memberID string) (*models.PhotoListData, error) {
	photos, err := s.repo.ListVisiblePhotos(ctx, memberID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("error listing photos: %w", err)
	}

	return &models.PhotoListData{Photos: photos}, nil
}

// RedeemPhotoCode matches the supplied code case-insensitively against the
// private photos' access codes. A match grants the member time-limited
// visibility; a miss changes nothing.
func (s *DefaultService) RedeemPhotoCode(
	ctx context.Context,
	memberID string,
	req models.PhotoAccessRequest,
) (*models.PhotoAccessData, error) {
	count, err := s.repo.CountPhotosByAccessCode(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("error matching access code: %w", err)
	}
	if count == 0 {
		return nil, models.ErrInvalidCode
	}

	grant := &models.PhotoAccessGrant{
		MemberID:   memberID,
		AccessCode: strings.ToLower(req.Code),
		ExpiresAt:  time.Now().UTC().Add(s.photoGrantTTL),
	}
	if err := s.repo.GrantPhotoAccess(ctx, grant); err != nil {
		return nil, fmt.Errorf("error granting photo access: %w", err)
	}

	metrics.PhotoUnlocks.Inc()
	s.log.Info("photo access granted",
		slog.String("member_id", memberID),
		slog.Int("unlocked", count),
	)

	return &models.PhotoAccessData{
		Unlocked: count,
		Message:  fmt.Sprintf("Unlocked %d photos", count),
	}, nil
}
