package app

import "errors"

var (
	ErrForbidden       = errors.New("forbidden")
	ErrNotParticipant  = errors.New("sender is not a conversation participant")
	ErrNotReviewer     = errors.New("user is not an assigned reviewer")
	ErrInviteNotActive = errors.New("invite is no longer pending")
	ErrInviteExpired   = errors.New("invite expired")
	ErrInviteEmail     = errors.New("invite was sent to a different email")
	ErrNoObjectStore   = errors.New("object storage not configured")
	ErrRateLimited     = errors.New("too many requests")

	ErrTitleRequired   = errors.New("title required")
	ErrContentRequired = errors.New("message content required")
)
