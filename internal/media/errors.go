package media

import "errors"

var (
	// ErrAlreadyConnected means Connect was called twice on one session.
	ErrAlreadyConnected = errors.New("media session already connected")

	// ErrTokenExpired means the access token expired before the session
	// could connect.
	ErrTokenExpired = errors.New("media access token expired")

	// ErrMalformedToken means the access token could not be parsed.
	ErrMalformedToken = errors.New("malformed media access token")
)
