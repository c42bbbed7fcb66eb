package common

import (
	"errors"
	"fmt"
)

var (
	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// service specific errors
	ErrorInternal = errors.New("internal error")
)

// Kind is the closed set of authentication failure categories. Boundary
// layers translate a Kind to a protocol status; nothing else is exposed.
type Kind int

const (
	KindInternal Kind = iota
	KindWeakPassword
	KindDuplicateSubject
	KindInvalidCredentials
	KindInvalidToken
	KindTokenExpired
	KindInvalidOrRevokedToken
	KindPrincipalNotFound

	kindCount
)

// Kinds lists every Kind, in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := KindInternal; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindWeakPassword:
		return "weak_password"
	case KindDuplicateSubject:
		return "duplicate_subject"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindInvalidToken:
		return "invalid_token"
	case KindTokenExpired:
		return "token_expired"
	case KindInvalidOrRevokedToken:
		return "invalid_or_revoked_token"
	case KindPrincipalNotFound:
		return "principal_not_found"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// AuthError carries a Kind and an optional human readable reason
// (the failed password rule, for example).
type AuthError struct {
	Kind   Kind
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Reason
}

// Is matches any *AuthError of the same Kind, so errors.Is(err, ErrWeakPassword)
// holds for every WeakPassword reason.
func (e *AuthError) Is(target error) bool {
	var t *AuthError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrWeakPassword          = &AuthError{Kind: KindWeakPassword}
	ErrDuplicateSubject      = &AuthError{Kind: KindDuplicateSubject}
	ErrInvalidCredentials    = &AuthError{Kind: KindInvalidCredentials}
	ErrInvalidToken          = &AuthError{Kind: KindInvalidToken}
	ErrTokenExpired          = &AuthError{Kind: KindTokenExpired}
	ErrInvalidOrRevokedToken = &AuthError{Kind: KindInvalidOrRevokedToken}
	ErrPrincipalNotFound     = &AuthError{Kind: KindPrincipalNotFound}
)

// WeakPassword builds a KindWeakPassword error naming the first failed rule.
func WeakPassword(reason string) error {
	return &AuthError{Kind: KindWeakPassword, Reason: reason}
}

// KindOf extracts the Kind of err. Anything outside the taxonomy,
// including nil, is KindInternal.
func KindOf(err error) Kind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}
