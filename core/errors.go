package core

import "errors"

var (
	// ErrInvalidEmail is returned when an email is syntactically unusable.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidInput is returned when a required field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrChallengeInvalid is returned when no unconsumed, unexpired challenge
	// matches the presented (email, code) pair.
	ErrChallengeInvalid = errors.New("invalid or expired code")

	// ErrDeliveryFailed is returned when the notifier could not deliver the
	// code. The challenge row persists, so the caller may retry by requesting
	// a fresh code.
	ErrDeliveryFailed = errors.New("code delivery failed")

	// ErrStoreFailed is the opaque persistence failure surfaced to callers.
	// Storage details never leak past the service boundary.
	ErrStoreFailed = errors.New("store operation failed")

	// ErrUploadFailed is returned when the image host rejects an upload.
	ErrUploadFailed = errors.New("image upload failed")

	// ErrRateLimited is returned when too many codes were requested for one
	// email inside the current window.
	ErrRateLimited = errors.New("too many requests")
)
