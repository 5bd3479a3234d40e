package domain

import "errors"

// Kind classifies domain errors so adapters can decide how to answer.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindUnauthorized
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is a domain error with a stable code.
type Error struct {
	Kind Kind
	Code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, msg: msg}
}

// Domain errors.
var (
	ErrEventNotFound         = newError(KindNotFound, "event_not_found", "event not found")
	ErrRoleNotFound          = newError(KindNotFound, "role_not_found", "role not found")
	ErrParticipationNotFound = newError(KindNotFound, "participation_not_found", "participation not found")
	ErrAlreadyRegistered     = newError(KindConflict, "already_registered", "already registered for this role")
	ErrNotAdmin              = newError(KindUnauthorized, "not_admin", "only administrators can perform this action")
	ErrNotOwner              = newError(KindUnauthorized, "not_owner", "participation belongs to someone else")
	ErrActorMissing          = newError(KindValidation, "actor_missing", "actor identity is missing")
	ErrInvalidTime           = newError(KindValidation, "invalid_time", "time must be HH:MM (24h)")
	ErrInvalidRoleName       = newError(KindValidation, "invalid_role_name", "role name is empty")
	ErrUnexpectedSelection   = newError(KindValidation, "unexpected_selection", "selection does not match the dialogue step")
)

// Code returns the code of the domain error wrapped in err, or "".
func Code(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// KindOf returns the kind of the domain error wrapped in err.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
