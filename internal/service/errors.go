package service

import "errors"

// Sentinel errors shared across services. Handlers map these onto error
// codes and HTTP statuses.
var (
	ErrNotFound              = errors.New("resource not found")
	ErrForbidden             = errors.New("resource belongs to another user")
	ErrInvalidState          = errors.New("session state does not allow this action")
	ErrSessionTimeout        = errors.New("session deadline has passed")
	ErrUnknownQuestion       = errors.New("question is not part of this session")
	ErrInsufficientQuestions = errors.New("not enough questions to assemble paper")
	ErrPaperNotFound         = errors.New("paper not found")
	ErrPaperInactive         = errors.New("paper is not active")
	ErrNotTerminal           = errors.New("session is not finished yet")
	ErrDependencyExists      = errors.New("resource still has dependents")
	ErrDuplicateRequest      = errors.New("duplicate request inside dedup window")
)
