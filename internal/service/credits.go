package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fitclub-ch/fitclub-server/internal/metrics"
	"github.com/fitclub-ch/fitclub-server/internal/models"
)

// GiftCredits transfers credits from the authenticated member to another
// member identified by email. The balance of both parties is serialized:
// a gift arriving while either balance has an action in flight is rejected
// rather than allowed to read stale state.
func (s *DefaultService) GiftCredits(
	ctx context.Context,
	senderID string,
	req models.GiftCreditsRequest,
) (*models.GiftData, error) {
	if req.Amount < 1 {
		return nil, fmt.Errorf("%w: amount must be at least 1", models.ErrValidation)
	}

	sender, err := s.repo.GetMemberByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("error getting sender: %w", err)
	}
	if sender == nil {
		return nil, models.ErrMemberNotFound
	}

	recipient, err := s.repo.GetMemberByEmail(ctx, req.RecipientEmail)
	if err != nil {
		return nil, fmt.Errorf("error getting recipient: %w", err)
	}
	if recipient == nil {
		return nil, models.ErrMemberNotFound
	}
	if recipient.ID == senderID {
		return nil, fmt.Errorf("%w: cannot gift credits to yourself", models.ErrValidation)
	}

	// Balance guard: cheap pre-check before taking the locks. The repository
	// re-checks against committed state inside its transaction.
	if sender.Credits < req.Amount {
		return nil, models.ErrInsufficientCredits
	}

	senderKey := "credits:" + senderID
	recipientKey := "credits:" + recipient.ID
	if !s.locks.TryAcquireAll(senderKey, recipientKey) {
		metrics.BusyRejections.Inc()
		return nil, models.ErrResourceBusy
	}
	defer s.locks.Release(senderKey, recipientKey)

	senderDesc := fmt.Sprintf("Gift to %s", recipient.Name)
	recipientDesc := fmt.Sprintf("Gift from %s", sender.Name)
	if req.Message != "" {
		senderDesc += ": " + req.Message
		recipientDesc += ": " + req.Message
	}

	result, err := s.repo.TransferCredits(ctx, senderID, recipient.ID, req.Amount, models.LedgerSourceGift, senderDesc, recipientDesc)
	if err != nil {
		return nil, err
	}

	metrics.GiftsSent.Inc()
	s.log.Info("credits gifted",
		slog.String("sender_id", senderID),
		slog.String("recipient_id", recipient.ID),
		slog.Int("amount", req.Amount),
	)

	go s.notifier.NotifyGiftReceived(context.WithoutCancel(ctx), recipient, req.Amount, sender.Name)

	return &models.GiftData{
		NewBalance:  result.NewBalance,
		Transaction: result.SenderEntry,
		Message:     fmt.Sprintf("Sent %d credits to %s", req.Amount, recipient.Name),
	}, nil
}

// GetCredits returns the member's balance and their ledger, newest-first
func (s *DefaultService) GetCredits(ctx context.Context, memberID string) (*models.CreditsData, error) {
	member, err := s.repo.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("error getting member: %w", err)
	}
	if member == nil {
		return nil, models.ErrMemberNotFound
	}

	ledger, err := s.repo.GetLedger(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("error getting ledger: %w", err)
	}

	return &models.CreditsData{
		Balance: member.Credits,
		Ledger:  ledger,
	}, nil
}
