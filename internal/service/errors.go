package service

import "fmt"

// AuthErrorKind classifies identity-provider failures.
type AuthErrorKind string

const (
	AuthInvalidCredentials AuthErrorKind = "invalid_credentials"
	AuthEmailInUse         AuthErrorKind = "email_in_use"
	AuthWeakPassword       AuthErrorKind = "weak_password"
	AuthNetworkError       AuthErrorKind = "network_error"
	AuthUnknown            AuthErrorKind = "unknown"
)

// AuthError is a failed identity operation.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// NewAuthError builds an AuthError with a formatted message.
func NewAuthError(kind AuthErrorKind, format string, args ...any) *AuthError {
	return &AuthError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// StoreErrorKind classifies document-store failures.
type StoreErrorKind string

const (
	StoreNotFound         StoreErrorKind = "not_found"
	StorePermissionDenied StoreErrorKind = "permission_denied"
	StoreNetworkError     StoreErrorKind = "network_error"
	StoreUnknown          StoreErrorKind = "unknown"
)

// StoreError is a failed remote task-store operation.
type StoreError struct {
	Kind    StoreErrorKind
	Message string
}

func (e *StoreError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// NewStoreError builds a StoreError with a formatted message.
func NewStoreError(kind StoreErrorKind, format string, args ...any) *StoreError {
	return &StoreError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ProfileWarning signals that an account was created but the secondary
// display-name update failed. The account stands; callers should surface
// this as a non-fatal warning, not roll back the registration.
type ProfileWarning struct {
	Err error
}

func (w *ProfileWarning) Error() string {
	return fmt.Sprintf("account created, but display name was not saved: %v", w.Err)
}

func (w *ProfileWarning) Unwrap() error { return w.Err }
