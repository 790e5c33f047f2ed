package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fitclub-ch/fitclub-server/internal/models"
)

// MemoryRepository implements Repository with in-process state. It backs the
// hermetic test suite and the demo storage driver, which mirrors the
// mock-data mode the dashboard pages were originally built against.
type MemoryRepository struct {
	mu         sync.Mutex
	members    map[string]*models.Member
	ledger     []models.LedgerEntry
	referrals  map[string]*models.Referral
	sessions   map[string]*models.ClassSession
	bookings   map[string]*models.Booking // keyed by classID+"/"+memberID
	attendance []models.AttendanceRecord
	photos     []models.Photo
	grants     map[string]*models.PhotoAccessGrant // keyed by memberID+"/"+code
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		members:   make(map[string]*models.Member),
		referrals: make(map[string]*models.Referral),
		sessions:  make(map[string]*models.ClassSession),
		bookings:  make(map[string]*models.Booking),
		grants:    make(map[string]*models.PhotoAccessGrant),
	}
}

// Member repository methods
func (r *MemoryRepository) CreateMember(_ context.Context, member *models.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now

	clone := *member
	r.members[member.ID] = &clone
	return nil
}

func (r *MemoryRepository) GetMemberByEmail(_ context.Context, email string) (*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.members {
		if strings.EqualFold(m.Email, email) {
			clone := *m
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetMemberByID(_ context.Context, id string) (*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[id]
	if !ok {
		return nil, nil
	}
	clone := *m
	return &clone, nil
}

// Credit repository methods
func (r *MemoryRepository) TransferCredits(
	_ context.Context,
	senderID string,
	recipientID string,
	amount int,
	source string,
	senderDesc string,
	recipientDesc string,
) (*TransferResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sender, ok := r.members[senderID]
	if !ok {
		return nil, models.ErrMemberNotFound
	}
	recipient, ok := r.members[recipientID]
	if !ok {
		return nil, models.ErrMemberNotFound
	}

	if sender.Credits < amount {
		return nil, models.ErrInsufficientCredits
	}

	now := time.Now().UTC()
	sender.Credits -= amount
	sender.UpdatedAt = now
	recipient.Credits += amount
	recipient.UpdatedAt = now

	senderEntry := models.LedgerEntry{
		ID:          uuid.New().String(),
		MemberID:    senderID,
		Kind:        models.LedgerKindSpent,
		Source:      source,
		Amount:      amount,
		Description: senderDesc,
		CreatedAt:   now,
	}
	recipientEntry := models.LedgerEntry{
		ID:          uuid.New().String(),
		MemberID:    recipientID,
		Kind:        models.LedgerKindEarned,
		Source:      source,
		Amount:      amount,
		Description: recipientDesc,
		CreatedAt:   now,
	}
	r.ledger = append(r.ledger, senderEntry, recipientEntry)

	return &TransferResult{
		NewBalance:     sender.Credits,
		SenderEntry:    &senderEntry,
		RecipientEntry: &recipientEntry,
	}, nil
}

func (r *MemoryRepository) AddCredits(
	_ context.Context,
	memberID string,
	amount int,
	source string,
	description string,
) (int, *models.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	member, ok := r.members[memberID]
	if !ok {
		return 0, nil, models.ErrMemberNotFound
	}

	now := time.Now().UTC()
	member.Credits += amount
	member.UpdatedAt = now

	entry := models.LedgerEntry{
		ID:          uuid.New().String(),
		MemberID:    memberID,
		Kind:        models.LedgerKindEarned,
		Source:      source,
		Amount:      amount,
		Description: description,
		CreatedAt:   now,
	}
	r.ledger = append(r.ledger, entry)

	return member.Credits, &entry, nil
}

func (r *MemoryRepository) GetLedger(_ context.Context, memberID string) ([]models.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []models.LedgerEntry
	// Appended in time order, so walk backwards for newest-first.
	for i := len(r.ledger) - 1; i >= 0; i-- {
		if r.ledger[i].MemberID == memberID {
			entries = append(entries, r.ledger[i])
		}
	}
	return entries, nil
}

// Referral repository methods
func (r *MemoryRepository) CreateReferral(_ context.Context, referral *models.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if referral.ID == "" {
		referral.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	referral.InvitedAt = now
	referral.UpdatedAt = now

	clone := *referral
	r.referrals[referral.ID] = &clone
	return nil
}

func (r *MemoryRepository) GetReferral(_ context.Context, id string) (*models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, ok := r.referrals[id]
	if !ok {
		return nil, nil
	}
	clone := *ref
	return &clone, nil
}

func (r *MemoryRepository) HasOpenReferral(_ context.Context, referrerID, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ref := range r.referrals {
		if ref.ReferrerID == referrerID &&
			strings.EqualFold(ref.Email, email) &&
			ref.Status == models.ReferralStatusInvited {
			return true, nil
		}
	}
	return false, nil
}

// UpdateReferralStatus advances the referral and applies the optional award
// under one lock hold. All checks run before any mutation so a failure
// changes nothing.
func (r *MemoryRepository) UpdateReferralStatus(_ context.Context, id, status string, award *CreditAward) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, ok := r.referrals[id]
	if !ok {
		return models.ErrReferralNotFound
	}

	var awardee *models.Member
	if award != nil {
		awardee, ok = r.members[award.MemberID]
		if !ok {
			return models.ErrMemberNotFound
		}
	}

	now := time.Now().UTC()
	ref.Status = status
	ref.UpdatedAt = now

	if award != nil {
		awardee.Credits += award.Amount
		awardee.UpdatedAt = now
		r.ledger = append(r.ledger, models.LedgerEntry{
			ID:          uuid.New().String(),
			MemberID:    award.MemberID,
			Kind:        models.LedgerKindEarned,
			Source:      award.Source,
			Amount:      award.Amount,
			Description: award.Description,
			CreatedAt:   now,
		})
	}

	return nil
}

func (r *MemoryRepository) GetReferrals(_ context.Context, referrerID string) ([]models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var referrals []models.Referral
	for _, ref := range r.referrals {
		if ref.ReferrerID == referrerID {
			referrals = append(referrals, *ref)
		}
	}
	sort.Slice(referrals, func(i, j int) bool {
		if referrals[i].InvitedAt.Equal(referrals[j].InvitedAt) {
			return referrals[i].ID < referrals[j].ID
		}
		return referrals[i].InvitedAt.After(referrals[j].InvitedAt)
	})
	return referrals, nil
}

// Class repository methods
func (r *MemoryRepository) CreateClassSession(_ context.Context, session *models.ClassSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.Status == "" {
		session.Status = models.SessionStatusUpcoming
	}
	session.CreatedAt = time.Now().UTC()

	clone := *session
	r.sessions[session.ID] = &clone
	return nil
}

func (r *MemoryRepository) GetClassSession(_ context.Context, id string) (*models.ClassSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	clone := *s
	return &clone, nil
}

func (r *MemoryRepository) ListUpcomingClasses(_ context.Context) ([]models.ClassSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sessions []models.ClassSession
	for _, s := range r.sessions {
		if s.Status == models.SessionStatusUpcoming {
			sessions = append(sessions, *s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartsAt.Before(sessions[j].StartsAt)
	})
	return sessions, nil
}

func (r *MemoryRepository) BookClass(_ context.Context, classID, memberID string) (*models.Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[classID]
	if !ok {
		return nil, 0, models.ErrClassNotFound
	}
	if session.Status != models.SessionStatusUpcoming {
		return nil, 0, models.ErrClassNotUpcoming
	}
	if session.Registered >= session.Capacity {
		return nil, 0, models.ErrNoCapacity
	}
	if _, booked := r.bookings[classID+"/"+memberID]; booked {
		return nil, 0, models.ErrAlreadyBooked
	}

	member, ok := r.members[memberID]
	if !ok {
		return nil, 0, models.ErrMemberNotFound
	}
	if member.Credits < session.CreditCost {
		return nil, 0, models.ErrInsufficientCredits
	}

	// All checks passed; mutate in one step so a rejected booking leaves
	// nothing behind.
	now := time.Now().UTC()
	member.Credits -= session.CreditCost
	member.UpdatedAt = now
	session.Registered++

	r.ledger = append(r.ledger, models.LedgerEntry{
		ID:          uuid.New().String(),
		MemberID:    memberID,
		Kind:        models.LedgerKindSpent,
		Source:      models.LedgerSourceBooking,
		Amount:      session.CreditCost,
		Description: "Booked " + session.Name,
		CreatedAt:   now,
	})

	booking := &models.Booking{
		ID:        uuid.New().String(),
		ClassID:   classID,
		MemberID:  memberID,
		Status:    models.BookingStatusBooked,
		CreatedAt: now,
	}
	clone := *booking
	r.bookings[classID+"/"+memberID] = &clone

	return booking, member.Credits, nil
}

func (r *MemoryRepository) MarkAttendance(
	_ context.Context,
	classID string,
	memberID string,
	at time.Time,
) (*models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[classID+"/"+memberID]
	if !ok {
		return nil, models.ErrBookingNotFound
	}
	if booking.Status == models.BookingStatusAttended {
		return nil, models.ErrAlreadyCheckedIn
	}

	session, ok := r.sessions[classID]
	if !ok {
		return nil, models.ErrClassNotFound
	}

	booking.Status = models.BookingStatusAttended

	record := models.AttendanceRecord{
		ID:          uuid.New().String(),
		ClassID:     classID,
		MemberID:    memberID,
		ClassName:   session.Name,
		CheckedInAt: at,
	}
	r.attendance = append(r.attendance, record)

	return &record, nil
}

func (r *MemoryRepository) GetAttendance(_ context.Context, memberID string) ([]models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var records []models.AttendanceRecord
	for i := len(r.attendance) - 1; i >= 0; i-- {
		if r.attendance[i].MemberID == memberID {
			records = append(records, r.attendance[i])
		}
	}
	return records, nil
}

func (r *MemoryRepository) CompletePastSessions(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, s := range r.sessions {
		if s.Status == models.SessionStatusUpcoming && s.StartsAt.Before(now) {
			s.Status = models.SessionStatusCompleted
			n++
		}
	}
	return n, nil
}

// Photo repository methods
func (r *MemoryRepository) CreatePhoto(_ context.Context, photo *models.Photo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if photo.ID == "" {
		photo.ID = uuid.New().String()
	}
	r.photos = append(r.photos, *photo)
	return nil
}

func (r *MemoryRepository) ListVisiblePhotos(_ context.Context, memberID string, now time.Time) ([]models.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var photos []models.Photo
	for _, p := range r.photos {
		if p.IsPublic || r.hasGrantLocked(memberID, p.AccessCode, now) {
			photos = append(photos, p)
		}
	}
	sort.Slice(photos, func(i, j int) bool {
		if photos[i].TakenAt.Equal(photos[j].TakenAt) {
			return photos[i].ID < photos[j].ID
		}
		return photos[i].TakenAt.After(photos[j].TakenAt)
	})
	return photos, nil
}

func (r *MemoryRepository) hasGrantLocked(memberID, accessCode string, now time.Time) bool {
	grant, ok := r.grants[memberID+"/"+strings.ToLower(accessCode)]
	return ok && grant.ExpiresAt.After(now)
}

func (r *MemoryRepository) CountPhotosByAccessCode(_ context.Context, code string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, p := range r.photos {
		if !p.IsPublic && strings.EqualFold(p.AccessCode, code) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) GrantPhotoAccess(_ context.Context, grant *models.PhotoAccessGrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now().UTC()
	}
	clone := *grant
	r.grants[grant.MemberID+"/"+grant.AccessCode] = &clone
	return nil
}

func (r *MemoryRepository) PurgeExpiredGrants(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for key, grant := range r.grants {
		if !grant.ExpiresAt.After(now) {
			delete(r.grants, key)
			n++
		}
	}
	return n, nil
}

// Analytics repository methods
func (r *MemoryRepository) GetAnalyticsOverview(_ context.Context) (*models.AnalyticsOverview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	overview := &models.AnalyticsOverview{
		Members:  len(r.members),
		CheckIns: len(r.attendance),
	}
	for _, m := range r.members {
		overview.CreditsTotal += m.Credits
	}
	for _, e := range r.ledger {
		if e.Kind == models.LedgerKindSpent && e.Source == models.LedgerSourceGift {
			overview.GiftsSent++
		}
	}

	var fill float64
	var counted int
	for _, s := range r.sessions {
		if s.Capacity > 0 {
			fill += float64(s.Registered) / float64(s.Capacity)
			counted++
		}
	}
	if counted > 0 {
		overview.BookingFillRate = fill / float64(counted)
	}

	return overview, nil
}

func (r *MemoryRepository) GetAttendanceByClass(_ context.Context) ([]models.ClassAttendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	attended := make(map[string]int)
	for _, a := range r.attendance {
		attended[a.ClassID]++
	}

	var rows []models.ClassAttendance
	for _, s := range r.sessions {
		rows = append(rows, models.ClassAttendance{
			ClassID:   s.ID,
			ClassName: s.Name,
			StartsAt:  s.StartsAt,
			Attended:  attended[s.ID],
			Capacity:  s.Capacity,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].StartsAt.After(rows[j].StartsAt)
	})
	return rows, nil
}

func (r *MemoryRepository) GetLeaderboard(_ context.Context, since time.Time, limit int) ([]models.LeaderboardRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int)
	for _, a := range r.attendance {
		if !a.CheckedInAt.Before(since) {
			counts[a.MemberID]++
		}
	}

	var rows []models.LeaderboardRow
	for memberID, n := range counts {
		name := ""
		if m, ok := r.members[memberID]; ok {
			name = m.Name
		}
		rows = append(rows, models.LeaderboardRow{MemberID: memberID, Name: name, CheckIns: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CheckIns == rows[j].CheckIns {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].CheckIns > rows[j].CheckIns
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
