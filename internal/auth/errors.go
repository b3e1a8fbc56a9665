package auth

import "errors"

var (
	ErrNotFound           = errors.New("auth: user not found")
	ErrAlreadyExists      = errors.New("auth: user already exists")
	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrTicketInvalid      = errors.New("auth: reset ticket invalid")
	ErrTicketExpired      = errors.New("auth: reset ticket expired")
	ErrMailSend           = errors.New("auth: reset mail delivery failed")
	ErrAdminImmutable     = errors.New("auth: admin account cannot be removed")
)

// ErrInvalidToken indicates the session token failed verification.
// Malformed, forged and expired tokens are deliberately not distinguished
// to callers; the route guard turns all of them into a login redirect.
var ErrInvalidToken = errors.New("invalid token")
