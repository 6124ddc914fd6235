package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrOwnerReference    = errors.New("ownership must reference exactly one of person or organization")
	ErrInvalidTransition = errors.New("invalid review transition")
	ErrInvalidReason     = errors.New("rejection reason not recognized")
	ErrMissingDwelling   = errors.New("confirmation requires a dwelling")
)
