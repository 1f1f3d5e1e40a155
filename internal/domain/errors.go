package domain

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotPending = errors.New("session is not pending")
	ErrSessionEmpty      = errors.New("session has no items")
	ErrForbidden         = errors.New("requester is not the session creator")

	ErrInvalidTravelDuration = errors.New("travel_ms must be a positive integer")
	ErrInvalidPriority       = errors.New("priority must be a positive integer")
)
