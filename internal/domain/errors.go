package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidPrompt       = errors.New("invalid prompt")
	ErrProviderFailure     = errors.New("provider failure")
	ErrDecode              = errors.New("image decode failed")
	ErrInvalidCaptionState = errors.New("active caption index out of range")
	ErrSessionState        = errors.New("edit session not accepting operations")
)
