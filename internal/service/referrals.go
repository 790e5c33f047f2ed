package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fitclub-ch/fitclub-server/internal/metrics"
	"github.com/fitclub-ch/fitclub-server/internal/models"
	"github.com/fitclub-ch/fitclub-server/internal/repository"
)

// Invite records a new referral in the invited state
func (s *DefaultService) Invite(
	ctx context.Context,
	referrerID string,
	req models.InviteRequest,
) (*models.Referral, error) {
	open, err := s.repo.HasOpenReferral(ctx, referrerID, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking open referrals: %w", err)
	}
	if open {
		return nil, models.ErrAlreadyInvited
	}

	referral := &models.Referral{
		ID:         uuid.New().String(),
		ReferrerID: referrerID,
		Name:       req.Name,
		Email:      req.Email,
		Status:     models.ReferralStatusInvited,
	}

	if err := s.repo.CreateReferral(ctx, referral); err != nil {
		return nil, fmt.Errorf("error creating referral: %w", err)
	}

	metrics.ReferralInvites.Inc()
	s.log.Info("referral invited",
		slog.String("referral_id", referral.ID),
		slog.String("referrer_id", referrerID),
	)

	return referral, nil
}

// AdvanceReferral moves a referral exactly one step along
// invited -> registered -> attended. Registering awards the referrer the
// configured bonus credits.
func (s *DefaultService) AdvanceReferral(
	ctx context.Context,
	referrerID string,
	referralID string,
	req models.AdvanceReferralRequest,
) (*models.Referral, error) {
	if models.ReferralRank(req.Status) < 0 {
		return nil, fmt.Errorf("%w: unknown referral status %q", models.ErrValidation, req.Status)
	}

	key := "referral:" + referralID
	if !s.locks.TryAcquire(key) {
		metrics.BusyRejections.Inc()
		return nil, models.ErrResourceBusy
	}
	defer s.locks.Release(key)

	referral, err := s.repo.GetReferral(ctx, referralID)
	if err != nil {
		return nil, fmt.Errorf("error getting referral: %w", err)
	}
	if referral == nil || referral.ReferrerID != referrerID {
		return nil, models.ErrReferralNotFound
	}

	if models.ReferralRank(req.Status) != models.ReferralRank(referral.Status)+1 {
		return nil, models.ErrStatusNotForward
	}

	// Registering pays the referrer; the award rides in the same repository
	// write as the status change so a failure commits neither.
	var award *repository.CreditAward
	if req.Status == models.ReferralStatusRegistered && s.referralBonus > 0 {
		award = &repository.CreditAward{
			MemberID:    referrerID,
			Amount:      s.referralBonus,
			Source:      models.LedgerSourceReferral,
			Description: fmt.Sprintf("Referral bonus: %s registered", referral.Name),
		}
	}

	if err := s.repo.UpdateReferralStatus(ctx, referralID, req.Status, award); err != nil {
		return nil, fmt.Errorf("error updating referral status: %w", err)
	}
	referral.Status = req.Status

	if award != nil {
		referrer, err := s.repo.GetMemberByID(ctx, referrerID)
		if err == nil && referrer != nil {
			go s.notifier.NotifyReferralRegistered(context.WithoutCancel(ctx), referrer, referral.Name, s.referralBonus)
		}
	}

	s.log.Info("referral advanced",
		slog.String("referral_id", referralID),
		slog.String("status", req.Status),
	)

	return referral, nil
}

// GetReferrals lists the member's referrals, newest-first
func (s *DefaultService) GetReferrals(ctx context.Context, referrerID string) (*models.ReferralListData, error) {
	referrals, err := s.repo.GetReferrals(ctx, referrerID)
	if err != nil {
		return nil, fmt.Errorf("error getting referrals: %w", err)
	}

	return &models.ReferralListData{Referrals: referrals}, nil
}
