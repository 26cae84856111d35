package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionCompleted is returned when input arrives for a finished session.
var ErrSessionCompleted = errors.New("session already completed")

// ErrSessionExpired is returned when a session outlived its allowed duration.
var ErrSessionExpired = errors.New("session expired")

// ErrMessageLimit is returned when a session exceeds its message budget.
var ErrMessageLimit = errors.New("message limit reached")

// ErrInvalidSeed is returned when start-up search criteria are malformed.
var ErrInvalidSeed = errors.New("invalid search criteria")

// ErrInvalidStep is returned when a persisted state names an unknown step.
var ErrInvalidStep = errors.New("invalid step")
