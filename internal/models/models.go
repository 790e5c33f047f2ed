package models

import (
	"time"
)

// Member roles
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Ledger entry kinds
const (
	LedgerKindEarned = "earned"
	LedgerKindSpent  = "spent"
)

// Ledger entry sources. Analytics aggregates group by source, so it must
// never be derived from the display description.
const (
	LedgerSourceGift       = "gift"
	LedgerSourceBooking    = "booking"
	LedgerSourceReferral   = "referral"
	LedgerSourceAdjustment = "adjustment"
)

// Referral statuses, ordered. Transitions only move forward.
const (
	ReferralStatusInvited    = "invited"
	ReferralStatusRegistered = "registered"
	ReferralStatusAttended   = "attended"
)

// Class session statuses
const (
	SessionStatusUpcoming  = "upcoming"
	SessionStatusCompleted = "completed"
)

// Booking statuses
const (
	BookingStatusBooked   = "booked"
	BookingStatusAttended = "attended"
)

// Member represents a registered club member
type Member struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	Name           string    `db:"name" json:"name"`
	Password       string    `db:"password" json:"-"` // Password hash, not returned in JSON
	Role           string    `db:"role" json:"role"`
	Credits        int       `db:"credits" json:"credits"`
	TelegramChatID *int64    `db:"telegram_chat_id" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// LedgerEntry is an immutable record of a balance-affecting event.
// Entries are append-only and listed newest-first.
type LedgerEntry struct {
	ID          string    `db:"id" json:"id"`
	MemberID    string    `db:"member_id" json:"memberId"`
	Kind        string    `db:"kind" json:"kind"`
	Source      string    `db:"source" json:"source"`
	Amount      int       `db:"amount" json:"amount"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Referral tracks an invitee brought in by a member. Status is monotonic:
// invited -> registered -> attended.
type Referral struct {
	ID         string    `db:"id" json:"id"`
	ReferrerID string    `db:"referrer_id" json:"referrerId"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	Status     string    `db:"status" json:"status"`
	InvitedAt  time.Time `db:"invited_at" json:"invitedAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// ClassSession is a scheduled class. The check-in code is validated
// server-side only and never serialized into responses.
type ClassSession struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Trainer     string    `db:"trainer" json:"trainer"`
	StartsAt    time.Time `db:"starts_at" json:"startsAt"`
	Location    string    `db:"location" json:"location"`
	Capacity    int       `db:"capacity" json:"capacity"`
	Registered  int       `db:"registered" json:"registered"`
	CreditCost  int       `db:"credit_cost" json:"creditCost"`
	Status      string    `db:"status" json:"status"`
	CheckInCode string    `db:"check_in_code" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Booking links a member to a class session
type Booking struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"classId"`
	MemberID  string    `db:"member_id" json:"memberId"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// AttendanceRecord is appended when a member checks in to a booked session
type AttendanceRecord struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"classId"`
	MemberID    string    `db:"member_id" json:"memberId"`
	ClassName   string    `db:"class_name" json:"className"`
	CheckedInAt time.Time `db:"checked_in_at" json:"checkedInAt"`
}

// Photo belongs to the class gallery. Private photos carry an access code
// that is matched server-side; the code itself never leaves the server.
type Photo struct {
	ID         string    `db:"id" json:"id"`
	URL        string    `db:"url" json:"url"`
	ClassName  string    `db:"class_name" json:"className"`
	Trainer    string    `db:"trainer" json:"trainer"`
	TakenAt    time.Time `db:"taken_at" json:"takenAt"`
	IsPublic   bool      `db:"is_public" json:"isPublic"`
	AccessCode string    `db:"access_code" json:"-"`
}

// PhotoAccessGrant gives a member time-limited visibility of the private
// photos behind one access code
type PhotoAccessGrant struct {
	MemberID   string    `db:"member_id" json:"memberId"`
	AccessCode string    `db:"access_code" json:"-"` // stored lowercased
	ExpiresAt  time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// AnalyticsOverview aggregates club-wide counters for the admin dashboard
type AnalyticsOverview struct {
	Members         int     `db:"members" json:"members"`
	CreditsTotal    int     `db:"credits_total" json:"creditsTotal"`
	GiftsSent       int     `db:"gifts_sent" json:"giftsSent"`
	CheckIns        int     `db:"check_ins" json:"checkIns"`
	BookingFillRate float64 `db:"booking_fill_rate" json:"bookingFillRate"`
}

// ClassAttendance is one row of the per-class attendance report
type ClassAttendance struct {
	ClassID   string    `db:"class_id" json:"classId"`
	ClassName string    `db:"class_name" json:"className"`
	StartsAt  time.Time `db:"starts_at" json:"startsAt"`
	Attended  int       `db:"attended" json:"attended"`
	Capacity  int       `db:"capacity" json:"capacity"`
}

// LeaderboardRow ranks a member by recent attendance
type LeaderboardRow struct {
	MemberID string `db:"member_id" json:"memberId"`
	Name     string `db:"name" json:"name"`
	CheckIns int    `db:"check_ins" json:"checkIns"`
}

// ReferralRank returns the position a status occupies in the forward-only
// chain, or -1 for an unknown status.
func ReferralRank(status string) int {
	switch status {
	case ReferralStatusInvited:
		return 0
	case ReferralStatusRegistered:
		return 1
	case ReferralStatusAttended:
		return 2
	default:
		return -1
	}
}
