package apperror

import (
	"errors"
)

// Sentinel errors for the broad failure classes. HTTP handlers map these
// to status codes; services attach a machine-readable kind and a
// human-readable message through AppError.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal error")
)

// Machine-readable error kinds. This is a closed set: every error a
// client can receive carries exactly one of these.
const (
	KindValidation    = "validation_error"
	KindUnauthorized  = "unauthorized"
	KindNotFound      = "not_found"
	KindInternal      = "internal_error"
	KindUserNotFound  = "user_not_found"
	KindAlreadyOnTeam = "user_already_on_team"
	KindNotOnTeam     = "user_not_on_team"
	KindDuplicateName = "duplicate_team_name"
	KindInvalidCode   = "invalid_code"
	KindTeamFull      = "team_full"
	KindCodeExhausted = "code_generation_exhausted"
	KindProfileExists = "profile_exists"
	KindNotLeader     = "not_leader"
	KindBadDocument   = "invalid_document"
)

type AppError struct {
	Err     error  // sentinel class
	Kind    string // machine-readable kind
	Message string // human-readable message
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(class error, kind, message string) *AppError {
	return &AppError{Err: class, Kind: kind, Message: message}
}

func Validation(message string) *AppError {
	return New(ErrValidation, KindValidation, message)
}

func Unauthorized(message string) *AppError {
	return New(ErrUnauthorized, KindUnauthorized, message)
}

func Forbidden(kind, message string) *AppError {
	return New(ErrForbidden, kind, message)
}

func NotFound(kind, message string) *AppError {
	return New(ErrNotFound, kind, message)
}

func Conflict(kind, message string) *AppError {
	return New(ErrConflict, kind, message)
}

func Internal(kind, message string) *AppError {
	return New(ErrInternal, kind, message)
}
