package repository

import (
	"context"
	"time"

	"github.com/fitclub-ch/fitclub-server/internal/models"
)

// TransferResult reports the outcome of a credit transfer
type TransferResult struct {
	NewBalance     int
	SenderEntry    *models.LedgerEntry
	RecipientEntry *models.LedgerEntry
}

// CreditAward describes a ledger credit applied atomically with another
// write, so a failed award rolls the whole operation back
type CreditAward struct {
	MemberID    string
	Amount      int
	Source      string
	Description string
}

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// Member operations
	CreateMember(ctx context.Context, member *models.Member) error
	GetMemberByEmail(ctx context.Context, email string) (*models.Member, error)
	GetMemberByID(ctx context.Context, id string) (*models.Member, error)

	// Credit operations. Transfer and AddCredits write the balance and the
	// ledger entry atomically; a failure leaves both untouched.
	TransferCredits(ctx context.Context, senderID, recipientID string, amount int, source, senderDesc, recipientDesc string) (*TransferResult, error)
	AddCredits(ctx context.Context, memberID string, amount int, source, description string) (int, *models.LedgerEntry, error)
	GetLedger(ctx context.Context, memberID string) ([]models.LedgerEntry, error)

	// Referral operations. UpdateReferralStatus applies the optional award
	// in the same transaction as the status change: either both commit or
	// neither does.
	CreateReferral(ctx context.Context, referral *models.Referral) error
	GetReferral(ctx context.Context, id string) (*models.Referral, error)
	HasOpenReferral(ctx context.Context, referrerID, email string) (bool, error)
	UpdateReferralStatus(ctx context.Context, id, status string, award *CreditAward) error
	GetReferrals(ctx context.Context, referrerID string) ([]models.Referral, error)

	// Class and booking operations
	CreateClassSession(ctx context.Context, session *models.ClassSession) error
	GetClassSession(ctx context.Context, id string) (*models.ClassSession, error)
	ListUpcomingClasses(ctx context.Context) ([]models.ClassSession, error)
	BookClass(ctx context.Context, classID, memberID string) (*models.Booking, int, error)
	MarkAttendance(ctx context.Context, classID, memberID string, at time.Time) (*models.AttendanceRecord, error)
	GetAttendance(ctx context.Context, memberID string) ([]models.AttendanceRecord, error)
	CompletePastSessions(ctx context.Context, now time.Time) (int64, error)

	// Photo operations
	CreatePhoto(ctx context.Context, photo *models.Photo) error
	ListVisiblePhotos(ctx context.Context, memberID string, now time.Time) ([]models.Photo, error)
	CountPhotosByAccessCode(ctx context.Context, code string) (int, error)
	GrantPhotoAccess(ctx context.Context, grant *models.PhotoAccessGrant) error
	PurgeExpiredGrants(ctx context.Context, now time.Time) (int64, error)

	// Analytics operations
	GetAnalyticsOverview(ctx context.Context) (*models.AnalyticsOverview, error)
	GetAttendanceByClass(ctx context.Context) ([]models.ClassAttendance, error)
	GetLeaderboard(ctx context.Context, since time.Time, limit int) ([]models.LeaderboardRow, error)
}
