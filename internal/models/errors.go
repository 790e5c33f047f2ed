package models

import "errors"

var (
	ErrEmailTaken          = errors.New("member with this email already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrMemberNotFound      = errors.New("member not found")
	ErrClassNotFound       = errors.New("class not found")
	ErrReferralNotFound    = errors.New("referral not found")
	ErrBookingNotFound     = errors.New("no booking for this class")
	ErrInvalidCode         = errors.New("invalid code")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrNoCapacity          = errors.New("class is full")
	ErrAlreadyBooked       = errors.New("already booked for this class")
	ErrAlreadyInvited      = errors.New("an open invite already exists for this email")
	ErrAlreadyCheckedIn    = errors.New("already checked in")
	ErrClassNotUpcoming    = errors.New("class is not upcoming")
	ErrStatusNotForward    = errors.New("referral status can only move forward")
	ErrResourceBusy        = errors.New("another action on this resource is still in flight")
	ErrValidation          = errors.New("validation error")
	ErrForbidden           = errors.New("insufficient permissions")
)
