package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fitclub-ch/fitclub-server/internal/models"
	"github.com/fitclub-ch/fitclub-server/internal/service"
)

// Handler wires the service into Gin routes
type Handler struct {
	svc service.Service
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

// SetupRoutes registers all routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.Envelope{OK: true, Data: gin.H{"status": "ok"}})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	api.POST("/auth/signup", h.SignUp)
	api.POST("/auth/login", h.Login)

	authed := api.Group("", AuthMiddleware())
	{
		authed.GET("/credits", h.GetCredits)
		authed.POST("/credits/gift", h.GiftCredits)

		authed.GET("/referrals", h.GetReferrals)
		authed.POST("/referrals/invite", h.Invite)
		authed.POST("/referrals/:id/advance", h.AdvanceReferral)

		authed.GET("/classes", h.ListClasses)
		authed.POST("/classes/:id/book", h.BookClass)
		authed.POST("/checkin", h.CheckIn)
		authed.GET("/attendance", h.GetAttendance)

		authed.GET("/photos", h.ListPhotos)
		authed.POST("/photos/access", h.RedeemPhotoCode)

		analytics := authed.Group("/analytics", AdminOnly())
		{
			analytics.GET("/overview", h.AnalyticsOverview)
			analytics.GET("/attendance", h.AnalyticsAttendance)
			analytics.GET("/leaderboard", h.AnalyticsLeaderboard)
		}
	}
}

// Auth handlers
func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	data, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, data)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	data, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, data)
}

// Credit handlers
func (h *Handler) GetCredits(c *gin.Context) {
	data, err := h.svc.GetCredits(c.Request.Context(), c.GetString("memberId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, data)
}

func (h *Handler) GiftCredits(c *gin.Context) {
	var req models.GiftCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	data, err := h.svc.GiftCredits(c.Request.Context(), c.GetString("memberId"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, data)
}

// Referral handlers
func (h *Handler) GetReferrals(c *gin.Context) {
	data, err := h.svc.GetReferrals(c.Request.Context(), c.GetString("memberId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, data)
}

func (h *Handler) Invite(c *gin.Context) {
	var req models.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	referral, err := h.svc.Invite(c.Request.Context(), c.GetString("memberId"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, referral)
}

func (h *Handler) AdvanceReferral(c *gin.Context) {
	var req models.AdvanceReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	referral, err := h.svc.AdvanceReferral(c.Request.Context(), c.GetString("memberId"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, referral)
}

// Class handlers
func (h *Handler) ListClasses(c *gin.Context) {
	data, err := h.svc.ListClasses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, data)
}

func (h *Handler) BookClass(c *gin.Context) {
	data, err := h.svc.BookClass(c.Request.Context(), c.GetString("memberId"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, data)
}

func (h *Handler) CheckIn(c *gin.Context) {
	var req models.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	data, err := h.svc.CheckIn(c.Request.Context(), c.GetString("memberId"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, data)
}

func (h *Handler) GetAttendance(c *gin.Context) {
	data, err := h.svc.GetAttendance(c.Request.Context(), c.GetString("memberId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, data)
}

// Photo handlers
func (h *Handler) ListPhotos(c *gin.Context) {
	data, err := h.svc.ListPhotos(c.Request.Context(), c.GetString("memberId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, data)
}

func (h *Handler) RedeemPhotoCode(c *gin.Context) {
	var req models.PhotoAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	data, err := h.svc.RedeemPhotoCode(c.Request.Context(), c.GetString("memberId"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, data)
}

// Analytics handlers
func (h *Handler) AnalyticsOverview(c *gin.Context) {
	data, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, data)
}

func (h *Handler) AnalyticsAttendance(c *gin.Context) {
	data, err := h.svc.AttendanceReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, data)
}

func (h *Handler) AnalyticsLeaderboard(c *gin.Context) {
	data, err := h.svc.Leaderboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, data)
}

// Response helpers
func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, models.Envelope{OK: true, Data: data})
}

func respondValidation(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.Envelope{
		OK:    false,
		Error: &models.APIError{Code: models.CodeValidation, Message: err.Error()},
	})
}

// respondError maps service errors onto the uniform envelope. Every error
// carries exactly one human-readable message for the client's feedback
// banner.
func respondError(c *gin.Context, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, models.ErrValidation):
		status, code = http.StatusBadRequest, models.CodeValidation

	case errors.Is(err, models.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, models.CodeUnauthorized

	case errors.Is(err, models.ErrForbidden):
		status, code = http.StatusForbidden, models.CodeForbidden

	case errors.Is(err, models.ErrMemberNotFound),
		errors.Is(err, models.ErrClassNotFound),
		errors.Is(err, models.ErrReferralNotFound),
		errors.Is(err, models.ErrBookingNotFound),
		errors.Is(err, models.ErrInvalidCode):
		status, code = http.StatusNotFound, models.CodeNotFound

	case errors.Is(err, models.ErrInsufficientCredits):
		status, code = http.StatusConflict, models.CodeInsufficientBalance

	case errors.Is(err, models.ErrNoCapacity):
		status, code = http.StatusConflict, models.CodeNoCapacity

	case errors.Is(err, models.ErrEmailTaken),
		errors.Is(err, models.ErrAlreadyBooked),
		errors.Is(err, models.ErrAlreadyInvited),
		errors.Is(err, models.ErrAlreadyCheckedIn),
		errors.Is(err, models.ErrClassNotUpcoming),
		errors.Is(err, models.ErrStatusNotForward),
		errors.Is(err, models.ErrResourceBusy):
		status, code = http.StatusConflict, models.CodeConflict

	default:
		status, code = http.StatusInternalServerError, models.CodeInternal
		err = errors.New("internal server error")
	}

	c.JSON(status, models.Envelope{
		OK:    false,
		Error: &models.APIError{Code: code, Message: err.Error()},
	})
}
