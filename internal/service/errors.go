package service

import (
	"errors"

	"github.com/sharonlnl728/content-audit-platform/internal/model"
)

var (
	// ErrInvalidIdentity means the caller could not be identified. It is
	// checked before any cache, scorer or ledger work.
	ErrInvalidIdentity = model.ErrInvalidIdentity
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("audit record not found")
	ErrForbidden       = errors.New("audit record belongs to another user")
	ErrInvalidState    = errors.New("audit record is not awaiting review")
	// ErrUpstream wraps failures of the AI scorer.
	ErrUpstream = errors.New("upstream scoring failed")
)
