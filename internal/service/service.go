package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fitclub-ch/fitclub-server/internal/models"
	"github.com/fitclub-ch/fitclub-server/internal/notification"
	"github.com/fitclub-ch/fitclub-server/internal/repository"
	"github.com/fitclub-ch/fitclub-server/internal/service/reslock"
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthData, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthData, error)

	// Credits
	GiftCredits(ctx context.Context, senderID string, req models.GiftCreditsRequest) (*models.GiftData, error)
	GetCredits(ctx context.Context, memberID string) (*models.CreditsData, error)

	// Referrals
	Invite(ctx context.Context, referrerID string, req models.InviteRequest) (*models.Referral, error)
	AdvanceReferral(ctx context.Context, referrerID, referralID string, req models.AdvanceReferralRequest) (*models.Referral, error)
	GetReferrals(ctx context.Context, referrerID string) (*models.ReferralListData, error)

	// Classes
	ListClasses(ctx context.Context) (*models.ClassListData, error)
	BookClass(ctx context.Context, memberID, classID string) (*models.BookingData, error)
	CheckIn(ctx context.Context, memberID string, req models.CheckInRequest) (*models.CheckInData, error)
	GetAttendance(ctx context.Context, memberID string) (*models.AttendanceListData, error)

	// Photos
	ListPhotos(ctx context.Context, memberID string) (*models.PhotoListData, error)
	RedeemPhotoCode(ctx context.Context, memberID string, req models.PhotoAccessRequest) (*models.PhotoAccessData, error)

	// Analytics (admin only, enforced at the router)
	Overview(ctx context.Context) (*models.AnalyticsOverview, error)
	AttendanceReport(ctx context.Context) ([]models.ClassAttendance, error)
	Leaderboard(ctx context.Context) ([]models.LeaderboardRow, error)

	// Sweep runs the periodic maintenance pass
	Sweep(ctx context.Context, now time.Time) (completed, purged int64, err error)
}

// Options tunes club-level behaviour
type Options struct {
	JWTSecret            string
	TokenTTL             time.Duration
	ReferralBonusCredits int
	PhotoGrantTTL        time.Duration
	LeaderboardWindow    time.Duration
	LeaderboardLimit     int
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo     repository.Repository
	locks    *reslock.Keyed
	notifier notification.Notifier
	log      *slog.Logger

	jwtSecret     []byte
	tokenDuration time.Duration

	referralBonus     int
	photoGrantTTL     time.Duration
	leaderboardWindow time.Duration
	leaderboardLimit  int
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(
	repo repository.Repository,
	notifier notification.Notifier,
	log *slog.Logger,
	opts Options,
) *DefaultService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.ReferralBonusCredits <= 0 {
		opts.ReferralBonusCredits = 5
	}
	if opts.PhotoGrantTTL <= 0 {
		opts.PhotoGrantTTL = 24 * time.Hour
	}
	if opts.LeaderboardWindow <= 0 {
		opts.LeaderboardWindow = 30 * 24 * time.Hour
	}
	if opts.LeaderboardLimit <= 0 {
		opts.LeaderboardLimit = 10
	}

	return &DefaultService{
		repo:              repo,
		locks:             reslock.New(),
		notifier:          notifier,
		log:               log,
		jwtSecret:         []byte(opts.JWTSecret),
		tokenDuration:     opts.TokenTTL,
		referralBonus:     opts.ReferralBonusCredits,
		photoGrantTTL:     opts.PhotoGrantTTL,
		leaderboardWindow: opts.LeaderboardWindow,
		leaderboardLimit:  opts.LeaderboardLimit,
	}
}

// Authentication methods
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthData, error) {
	existing, err := s.repo.GetMemberByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking member existence: %w", err)
	}
	if existing != nil {
		return nil, models.ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	member := &models.Member{
		ID:       uuid.New().String(),
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashedPassword),
		Role:     models.RoleMember,
	}

	if err := s.repo.CreateMember(ctx, member); err != nil {
		return nil, fmt.Errorf("error creating member: %w", err)
	}

	s.log.Info("member signed up", slog.String("member_id", member.ID))

	return &models.AuthData{
		MemberID: member.ID,
		Email:    member.Email,
		Name:     member.Name,
		Role:     member.Role,
	}, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthData, error) {
	member, err := s.repo.GetMemberByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error getting member: %w", err)
	}
	if member == nil {
		return nil, models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.Password), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.generateJWT(member)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthData{
		MemberID:  member.ID,
		Email:     member.Email,
		Name:      member.Name,
		Role:      member.Role,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// Sweep completes past-dated upcoming sessions and removes expired photo
// access grants. The scheduler calls it on an interval.
func (s *DefaultService) Sweep(ctx context.Context, now time.Time) (int64, int64, error) {
	completed, err := s.repo.CompletePastSessions(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("error completing past sessions: %w", err)
	}

	purged, err := s.repo.PurgeExpiredGrants(ctx, now)
	if err != nil {
		return completed, 0, fmt.Errorf("error purging expired grants: %w", err)
	}

	return completed, purged, nil
}

// Helper methods
func (s *DefaultService) generateJWT(member *models.Member) (string, error) {
	expirationTime := time.Now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub":  member.ID,
		"role": member.Role,
		"exp":  expirationTime.Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
