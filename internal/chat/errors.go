package chat

import "errors"

// Error taxonomy shared by the REST and socket adapters. Services wrap
// these sentinels; adapters map them to status codes or error events.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrValidation       = errors.New("invalid request")
)
