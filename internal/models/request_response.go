package models

// Request models
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GiftCreditsRequest struct {
	RecipientEmail string `json:"recipientEmail" binding:"required,email"`
	Amount         int    `json:"amount" binding:"required"`
	Message        string `json:"message"`
}

type InviteRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type AdvanceReferralRequest struct {
	Status string `json:"status" binding:"required"`
}

type CheckInRequest struct {
	ClassID string `json:"classId" binding:"required"`
	Code    string `json:"code" binding:"required"`
}

type PhotoAccessRequest struct {
	Code string `json:"code" binding:"required"`
}

// Envelope is the uniform response wrapper for every endpoint
type Envelope struct {
	OK    bool      `json:"ok"`
	Data  any       `json:"data,omitempty"`
	Error *APIError `json:"error,omitempty"`
}

// APIError carries a machine-readable code plus one human-readable message,
// which the client surfaces as its transient feedback banner
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	CodeValidation          = "VALIDATION"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeNoCapacity          = "NO_CAPACITY"
	CodeConflict            = "CONFLICT"
	CodeInternal            = "INTERNAL"
)

// Response payloads (wrapped in Envelope.Data)
type AuthData struct {
	MemberID  string `json:"memberId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type CreditsData struct {
	Balance int           `json:"balance"`
	Ledger  []LedgerEntry `json:"ledger"`
}

type GiftData struct {
	NewBalance  int          `json:"newBalance"`
	Transaction *LedgerEntry `json:"transaction"`
	Message     string       `json:"message"`
}

type ReferralListData struct {
	Referrals []Referral `json:"referrals"`
}

type ClassListData struct {
	Classes []ClassSession `json:"classes"`
}

type BookingData struct {
	Booking    *Booking `json:"booking"`
	NewBalance int      `json:"newBalance"`
	Message    string   `json:"message"`
}

type CheckInData struct {
	Attendance *AttendanceRecord `json:"attendance"`
	Message    string            `json:"message"`
}

type AttendanceListData struct {
	Records []AttendanceRecord `json:"records"`
}

type PhotoListData struct {
	Photos []Photo `json:"photos"`
}

type PhotoAccessData struct {
	Unlocked int    `json:"unlocked"`
	Message  string `json:"message"`
}
