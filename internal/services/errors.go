package services

import "errors"

var (
	// ErrEmailExists is returned when registering with an already-used email.
	ErrEmailExists = errors.New("email already exists")
	// ErrUserNotFound is returned when no user matches the identity key.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken is returned for malformed, forged or unresolvable tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenReuse is returned when a consumed refresh token is presented
	// again. All of the user's sessions are revoked before this surfaces.
	ErrTokenReuse = errors.New("refresh token reuse detected")
	// ErrPostNotFound is returned when a post id does not resolve.
	ErrPostNotFound = errors.New("post not found")
	// ErrNotOwner is returned when a user mutates a resource they do not own.
	ErrNotOwner = errors.New("not the resource owner")
)
