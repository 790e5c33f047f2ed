package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fitclub-ch/fitclub-server/internal/models"
)

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// Member repository methods
func (r *PostgresRepository) CreateMember(ctx context.Context, member *models.Member) error {
	query := `
		INSERT INTO members (id, email, name, password, role, credits, telegram_chat_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if member.ID == "" {
		member.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		member.ID, member.Email, member.Name, member.Password, member.Role,
		member.Credits, member.TelegramChatID, member.CreatedAt, member.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	query := `SELECT * FROM members WHERE LOWER(email) = LOWER($1)`

	var member models.Member
	err := r.db.GetContext(ctx, &member, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Member not found
		}
		return nil, err
	}

	return &member, nil
}

func (r *PostgresRepository) GetMemberByID(ctx context.Context, id string) (*models.Member, error) {
	query := `SELECT * FROM members WHERE id = $1`

	var member models.Member
	err := r.db.GetContext(ctx, &member, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &member, nil
}

// Credit repository methods

// TransferCredits moves credits between two members and writes one ledger
// entry per side in a single transaction. Balance rows are locked in a fixed
// order so two opposing transfers cannot deadlock.
func (r *PostgresRepository) TransferCredits(
	ctx context.Context,
	senderID string,
	recipientID string,
	amount int,
	source string,
	senderDesc string,
	recipientDesc string,
) (*TransferResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	first, second := senderID, recipientID
	if second < first {
		first, second = second, first
	}

	balances := map[string]int{}
	for _, id := range []string{first, second} {
		var balance int
		err = tx.QueryRowContext(ctx,
			`SELECT credits FROM members WHERE id = $1 FOR UPDATE`, id).Scan(&balance)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = models.ErrMemberNotFound
			}
			return nil, err
		}
		balances[id] = balance
	}

	if balances[senderID] < amount {
		err = models.ErrInsufficientCredits
		return nil, err
	}

	now := time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`UPDATE members SET credits = credits - $1, updated_at = $2 WHERE id = $3`,
		amount, now, senderID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE members SET credits = credits + $1, updated_at = $2 WHERE id = $3`,
		amount, now, recipientID)
	if err != nil {
		return nil, err
	}

	senderEntry := &models.LedgerEntry{
		ID:          uuid.New().String(),
		MemberID:    senderID,
		Kind:        models.LedgerKindSpent,
		Source:      source,
		Amount:      amount,
		Description: senderDesc,
		CreatedAt:   now,
	}
	recipientEntry := &models.LedgerEntry{
		ID:          uuid.New().String(),
		MemberID:    recipientID,
		Kind:        models.LedgerKindEarned,
		Source:      source,
		Amount:      amount,
		Description: recipientDesc,
		CreatedAt:   now,
	}

	for _, entry := range []*models.LedgerEntry{senderEntry, recipientEntry} {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ledger_entries (id, member_id, kind, source, amount, description, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			entry.ID, entry.MemberID, entry.Kind, entry.Source, entry.Amount, entry.Description, entry.CreatedAt)
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &TransferResult{
		NewBalance:     balances[senderID] - amount,
		SenderEntry:    senderEntry,
		RecipientEntry: recipientEntry,
	}, nil
}

func (r *PostgresRepository) AddCredits(
	ctx context.Context,
	memberID string,
	amount int,
	source string,
	description string,
) (int, *models.LedgerEntry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, nil, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	now := time.Now().UTC()

	var newBalance int
	err = tx.QueryRowContext(ctx,
		`UPDATE members SET credits = credits + $1, updated_at = $2 WHERE id = $3 RETURNING credits`,
		amount, now, memberID).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = models.ErrMemberNotFound
		}
		return 0, nil, err
	}

	entry := &models.LedgerEntry{
		ID:          uuid.New().String(),
		MemberID:    memberID,
		Kind:        models.LedgerKindEarned,
		Source:      source,
		Amount:      amount,
		Description: description,
		CreatedAt:   now,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (id, member_id, kind, source, amount, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.MemberID, entry.Kind, entry.Source, entry.Amount, entry.Description, entry.CreatedAt)
	if err != nil {
		return 0, nil, err
	}

	if err = tx.Commit(); err != nil {
		return 0, nil, err
	}

	return newBalance, entry, nil
}

func (r *PostgresRepository) GetLedger(ctx context.Context, memberID string) ([]models.LedgerEntry, error) {
	query := `SELECT * FROM ledger_entries WHERE member_id = $1 ORDER BY created_at DESC, id`

	var entries []models.LedgerEntry
	err := r.db.SelectContext(ctx, &entries, query, memberID)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Referral repository methods
func (r *PostgresRepository) CreateReferral(ctx context.Context, referral *models.Referral) error {
	query := `
		INSERT INTO referrals (id, referrer_id, name, email, status, invited_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if referral.ID == "" {
		referral.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	referral.InvitedAt = now
	referral.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		referral.ID, referral.ReferrerID, referral.Name, referral.Email,
		referral.Status, referral.InvitedAt, referral.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetReferral(ctx context.Context, id string) (*models.Referral, error) {
	query := `SELECT * FROM referrals WHERE id = $1`

	var referral models.Referral
	err := r.db.GetContext(ctx, &referral, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &referral, nil
}

func (r *PostgresRepository) HasOpenReferral(ctx context.Context, referrerID, email string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM referrals
			WHERE referrer_id = $1 AND LOWER(email) = LOWER($2) AND status = $3
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, referrerID, email, models.ReferralStatusInvited)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// UpdateReferralStatus advances the referral and, when an award is given,
// credits the referrer in the same transaction. A failed award leaves the
// status untouched.
func (r *PostgresRepository) UpdateReferralStatus(ctx context.Context, id, status string, award *CreditAward) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	now := time.Now().UTC()

	result, err := tx.ExecContext(ctx,
		`UPDATE referrals SET status = $1, updated_at = $2 WHERE id = $3`,
		status, now, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		err = models.ErrReferralNotFound
		return err
	}

	if award != nil {
		var balance int
		err = tx.QueryRowContext(ctx,
			`UPDATE members SET credits = credits + $1, updated_at = $2 WHERE id = $3 RETURNING credits`,
			award.Amount, now, award.MemberID).Scan(&balance)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = models.ErrMemberNotFound
			}
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO ledger_entries (id, member_id, kind, source, amount, description, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New().String(), award.MemberID, models.LedgerKindEarned,
			award.Source, award.Amount, award.Description, now)
		if err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *PostgresRepository) GetReferrals(ctx context.Context, referrerID string) ([]models.Referral, error) {
	query := `SELECT * FROM referrals WHERE referrer_id = $1 ORDER BY invited_at DESC, id`

	var referrals []models.Referral
	err := r.db.SelectContext(ctx, &referrals, query, referrerID)
	if err != nil {
		return nil, err
	}

	return referrals, nil
}

// Class repository methods
func (r *PostgresRepository) CreateClassSession(ctx context.Context, session *models.ClassSession) error {
	query := `
		INSERT INTO class_sessions
			(id, name, trainer, starts_at, location, capacity, registered, credit_cost, status, check_in_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.Status == "" {
		session.Status = models.SessionStatusUpcoming
	}
	session.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.Name, session.Trainer, session.StartsAt, session.Location,
		session.Capacity, session.Registered, session.CreditCost, session.Status,
		session.CheckInCode, session.CreatedAt)

	return err
}

func (r *PostgresRepository) GetClassSession(ctx context.Context, id string) (*models.ClassSession, error) {
	query := `SELECT * FROM class_sessions WHERE id = $1`

	var session models.ClassSession
	err := r.db.GetContext(ctx, &session, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &session, nil
}

func (r *PostgresRepository) ListUpcomingClasses(ctx context.Context) ([]models.ClassSession, error) {
	query := `SELECT * FROM class_sessions WHERE status = $1 ORDER BY starts_at ASC`

	var sessions []models.ClassSession
	err := r.db.SelectContext(ctx, &sessions, query, models.SessionStatusUpcoming)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

// BookClass reserves a spot and debits the session's credit cost in one
// transaction. The session row is locked first so capacity and the member's
// balance are both checked against committed state.
func (r *PostgresRepository) BookClass(ctx context.Context, classID, memberID string) (*models.Booking, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	var session models.ClassSession
	err = tx.GetContext(ctx, &session,
		`SELECT * FROM class_sessions WHERE id = $1 FOR UPDATE`, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = models.ErrClassNotFound
		}
		return nil, 0, err
	}

	if session.Status != models.SessionStatusUpcoming {
		err = models.ErrClassNotUpcoming
		return nil, 0, err
	}
	if session.Registered >= session.Capacity {
		err = models.ErrNoCapacity
		return nil, 0, err
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bookings WHERE class_id = $1 AND member_id = $2)`,
		classID, memberID).Scan(&exists)
	if err != nil {
		return nil, 0, err
	}
	if exists {
		err = models.ErrAlreadyBooked
		return nil, 0, err
	}

	var balance int
	err = tx.QueryRowContext(ctx,
		`SELECT credits FROM members WHERE id = $1 FOR UPDATE`, memberID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = models.ErrMemberNotFound
		}
		return nil, 0, err
	}
	if balance < session.CreditCost {
		err = models.ErrInsufficientCredits
		return nil, 0, err
	}

	now := time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`UPDATE members SET credits = credits - $1, updated_at = $2 WHERE id = $3`,
		session.CreditCost, now, memberID)
	if err != nil {
		return nil, 0, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (id, member_id, kind, source, amount, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New().String(), memberID, models.LedgerKindSpent, models.LedgerSourceBooking,
		session.CreditCost, "Booked "+session.Name, now)
	if err != nil {
		return nil, 0, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE class_sessions SET registered = registered + 1 WHERE id = $1`, classID)
	if err != nil {
		return nil, 0, err
	}

	booking := &models.Booking{
		ID:        uuid.New().String(),
		ClassID:   classID,
		MemberID:  memberID,
		Status:    models.BookingStatusBooked,
		CreatedAt: now,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (id, class_id, member_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		booking.ID, booking.ClassID, booking.MemberID, booking.Status, booking.CreatedAt)
	if err != nil {
		return nil, 0, err
	}

	if err = tx.Commit(); err != nil {
		return nil, 0, err
	}

	return booking, balance - session.CreditCost, nil
}

func (r *PostgresRepository) MarkAttendance(
	ctx context.Context,
	classID string,
	memberID string,
	at time.Time,
) (*models.AttendanceRecord, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	var booking models.Booking
	err = tx.GetContext(ctx, &booking,
		`SELECT * FROM bookings WHERE class_id = $1 AND member_id = $2 FOR UPDATE`,
		classID, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = models.ErrBookingNotFound
		}
		return nil, err
	}

	if booking.Status == models.BookingStatusAttended {
		err = models.ErrAlreadyCheckedIn
		return nil, err
	}

	var className string
	err = tx.QueryRowContext(ctx,
		`SELECT name FROM class_sessions WHERE id = $1`, classID).Scan(&className)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE bookings SET status = $1 WHERE id = $2`,
		models.BookingStatusAttended, booking.ID)
	if err != nil {
		return nil, err
	}

	record := &models.AttendanceRecord{
		ID:          uuid.New().String(),
		ClassID:     classID,
		MemberID:    memberID,
		ClassName:   className,
		CheckedInAt: at,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO attendance_records (id, class_id, member_id, class_name, checked_in_at)
		VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.ClassID, record.MemberID, record.ClassName, record.CheckedInAt)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return record, nil
}

func (r *PostgresRepository) GetAttendance(ctx context.Context, memberID string) ([]models.AttendanceRecord, error) {
	query := `SELECT * FROM attendance_records WHERE member_id = $1 ORDER BY checked_in_at DESC, id`

	var records []models.AttendanceRecord
	err := r.db.SelectContext(ctx, &records, query, memberID)
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *PostgresRepository) CompletePastSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE class_sessions SET status = $1 WHERE status = $2 AND starts_at < $3`,
		models.SessionStatusCompleted, models.SessionStatusUpcoming, now)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// Photo repository methods
func (r *PostgresRepository) CreatePhoto(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (id, url, class_name, trainer, taken_at, is_public, access_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if photo.ID == "" {
		photo.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx, query,
		photo.ID, photo.URL, photo.ClassName, photo.Trainer,
		photo.TakenAt, photo.IsPublic, photo.AccessCode)

	return err
}

func (r *PostgresRepository) ListVisiblePhotos(ctx context.Context, memberID string, now time.Time) ([]models.Photo, error) {
	query := `
		SELECT p.* FROM photos p
		WHERE p.is_public
		   OR EXISTS (
			SELECT 1 FROM photo_access_grants g
			WHERE g.member_id = $1
			  AND g.access_code = LOWER(p.access_code)
			  AND g.expires_at > $2
		   )
		ORDER BY p.taken_at DESC, p.id
	`

	var photos []models.Photo
	err := r.db.SelectContext(ctx, &photos, query, memberID, now)
	if err != nil {
		return nil, err
	}

	return photos, nil
}

func (r *PostgresRepository) CountPhotosByAccessCode(ctx context.Context, code string) (int, error) {
	query := `SELECT COUNT(*) FROM photos WHERE NOT is_public AND LOWER(access_code) = LOWER($1)`

	var count int
	err := r.db.GetContext(ctx, &count, query, code)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *PostgresRepository) GrantPhotoAccess(ctx context.Context, grant *models.PhotoAccessGrant) error {
	query := `
		INSERT INTO photo_access_grants (member_id, access_code, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (member_id, access_code)
		DO UPDATE SET expires_at = EXCLUDED.expires_at
	`

	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		grant.MemberID, grant.AccessCode, grant.ExpiresAt, grant.CreatedAt)

	return err
}

func (r *PostgresRepository) PurgeExpiredGrants(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM photo_access_grants WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// Analytics repository methods
func (r *PostgresRepository) GetAnalyticsOverview(ctx context.Context) (*models.AnalyticsOverview, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM members) AS members,
			(SELECT COALESCE(SUM(credits), 0) FROM members) AS credits_total,
			(SELECT COUNT(*) FROM ledger_entries WHERE kind = 'spent' AND source = 'gift') AS gifts_sent,
			(SELECT COUNT(*) FROM attendance_records) AS check_ins,
			(SELECT COALESCE(AVG(registered::float / NULLIF(capacity, 0)), 0) FROM class_sessions) AS booking_fill_rate
	`

	var overview models.AnalyticsOverview
	err := r.db.GetContext(ctx, &overview, query)
	if err != nil {
		return nil, err
	}

	return &overview, nil
}

func (r *PostgresRepository) GetAttendanceByClass(ctx context.Context) ([]models.ClassAttendance, error) {
	query := `
		SELECT c.id AS class_id, c.name AS class_name, c.starts_at, c.capacity,
		       COUNT(a.id) AS attended
		FROM class_sessions c
		LEFT JOIN attendance_records a ON a.class_id = c.id
		GROUP BY c.id, c.name, c.starts_at, c.capacity
		ORDER BY c.starts_at DESC
	`

	var rows []models.ClassAttendance
	err := r.db.SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *PostgresRepository) GetLeaderboard(ctx context.Context, since time.Time, limit int) ([]models.LeaderboardRow, error) {
	query := `
		SELECT m.id AS member_id, m.name, COUNT(a.id) AS check_ins
		FROM members m
		JOIN attendance_records a ON a.member_id = m.id
		WHERE a.checked_in_at >= $1
		GROUP BY m.id, m.name
		ORDER BY check_ins DESC, m.name
		LIMIT $2
	`

	var rows []models.LeaderboardRow
	err := r.db.SelectContext(ctx, &rows, query, since, limit)
	if err != nil {
		return nil, err
	}

	return rows, nil
}
