package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrDuplicateID   = errors.New("duplicate identifier")
	ErrUnknownID     = errors.New("unknown identifier")
	ErrArityMismatch = errors.New("arity mismatch")
	ErrSortMismatch  = errors.New("sort mismatch")
	ErrNotAVariable  = errors.New("not a variable")
	ErrBadLevel      = errors.New("belief level below zero")
	ErrInvalidConfig = errors.New("invalid configuration")
)
