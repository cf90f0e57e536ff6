package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// AuthorizationError represents a failed status, role or permission gate.
// Reason names the gate that denied, in user-facing language.
type AuthorizationError struct {
	Action Action
	Reason string
}

func (e AuthorizationError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("authorization denied: %s", e.Reason)
	}
	return fmt.Sprintf("authorization denied for %s: %s", e.Action, e.Reason)
}

// Is enables errors.Is matching on AuthorizationError.
func (e AuthorizationError) Is(target error) bool {
	_, ok := target.(AuthorizationError)
	if ok {
		return true
	}
	_, ok = target.(*AuthorizationError)
	return ok
}

// ValidationError represents malformed input, rejected before any I/O.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	if e.Message == "" {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is enables errors.Is matching on ValidationError.
func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

// ConflictError represents a concurrent write detected by the optimistic
// revision check. The only retryable kind.
type ConflictError struct {
	Resource string
}

func (e ConflictError) Error() string {
	if e.Resource == "" {
		return "conflicting concurrent update"
	}
	return fmt.Sprintf("conflicting concurrent update on %s", e.Resource)
}

// Is enables errors.Is matching on ConflictError.
func (e ConflictError) Is(target error) bool {
	_, ok := target.(ConflictError)
	if ok {
		return true
	}
	_, ok = target.(*ConflictError)
	return ok
}

// UnavailableError represents a collaborator failure: the identity
// directory, the key vault or the notification transport.
type UnavailableError struct {
	Collaborator string
	Err          error
}

func (e UnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s unavailable", e.Collaborator)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Collaborator, e.Err)
}

func (e UnavailableError) Unwrap() error { return e.Err }

// Is enables errors.Is matching on UnavailableError.
func (e UnavailableError) Is(target error) bool {
	_, ok := target.(UnavailableError)
	if ok {
		return true
	}
	_, ok = target.(*UnavailableError)
	return ok
}

// Sentinel errors for errors.Is matching.
var (
	ErrNotFound    = NotFoundError{}
	ErrDenied      = AuthorizationError{}
	ErrValidation  = ValidationError{}
	ErrConflict    = ConflictError{}
	ErrUnavailable = UnavailableError{}
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsAuthorization(err error) bool { return errors.Is(err, ErrDenied) }

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
