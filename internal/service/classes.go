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

// ListClasses returns upcoming sessions ordered by start time
func (s *DefaultService) ListClasses(ctx context.Context) (*models.ClassListData, error) {
	classes, err := s.repo.ListUpcomingClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing classes: %w", err)
	}

	return &models.ClassListData{Classes: classes}, nil
}

// BookClass reserves a spot on an upcoming session and debits its credit
// cost. The member's balance and the session's capacity are serialized so
// a double-submitted booking cannot overdraw either.
func (s *DefaultService) BookClass(ctx context.Context, memberID, classID string) (*models.BookingData, error) {
	creditsKey := "credits:" + memberID
	classKey := "class:" + classID
	if !s.locks.TryAcquireAll(creditsKey, classKey) {
		metrics.BusyRejections.Inc()
		return nil, models.ErrResourceBusy
	}
	defer s.locks.Release(creditsKey, classKey)

	booking, newBalance, err := s.repo.BookClass(ctx, classID, memberID)
	if err != nil {
		return nil, err
	}

	s.log.Info("class booked",
		slog.String("class_id", classID),
		slog.String("member_id", memberID),
	)

	return &models.BookingData{
		Booking:    booking,
		NewBalance: newBalance,
		Message:    "Booking confirmed",
	}, nil
}

// CheckIn validates the supplied code against the session's check-in code
// and, on a match, marks the member's booking attended and appends one
// attendance record stamped with server time. The code comparison is
// case-insensitive and happens only here, server-side.
func (s *DefaultService) CheckIn(
	ctx context.Context,
	memberID string,
	req models.CheckInRequest,
) (*models.CheckInData, error) {
	session, err := s.repo.GetClassSession(ctx, req.ClassID)
	if err != nil {
		return nil, fmt.Errorf("error getting class: %w", err)
	}
	if session == nil {
		return nil, models.ErrClassNotFound
	}

	if session.Status != models.SessionStatusUpcoming {
		return nil, models.ErrClassNotUpcoming
	}

	if !strings.EqualFold(req.Code, session.CheckInCode) {
		return nil, models.ErrInvalidCode
	}

	key := "checkin:" + req.ClassID + "/" + memberID
	if !s.locks.TryAcquire(key) {
		metrics.BusyRejections.Inc()
		return nil, models.ErrResourceBusy
	}
	defer s.locks.Release(key)

	record, err := s.repo.MarkAttendance(ctx, req.ClassID, memberID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	metrics.CheckIns.Inc()
	s.log.Info("member checked in",
		slog.String("class_id", req.ClassID),
		slog.String("member_id", memberID),
	)

	return &models.CheckInData{
		Attendance: record,
		Message:    fmt.Sprintf("Checked in to %s", session.Name),
	}, nil
}

// GetAttendance lists the member's attendance records, newest-first
func (s *DefaultService) GetAttendance(ctx context.Context, memberID string) (*models.AttendanceListData, error) {
	records, err := s.repo.GetAttendance(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("error getting attendance: %w", err)
	}

	return &models.AttendanceListData{Records: records}, nil
}
