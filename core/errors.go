package core

import "errors"

var (
	// ErrConfiguration is returned when required setup is missing at construction
	ErrConfiguration = errors.New("invalid configuration")

	// ErrIssuance is returned when challenge creation fails (retryable by caller)
	ErrIssuance = errors.New("challenge issuance failed")

	// ErrDuplicateChallenge is returned when a challenge identifier is already registered
	ErrDuplicateChallenge = errors.New("duplicate challenge identifier")

	// ErrChallengeNotFound is returned when a challenge does not exist or has expired
	ErrChallengeNotFound = errors.New("challenge not found or expired")

	// ErrMalformedResponse is returned when a wallet response violates the consent schema
	ErrMalformedResponse = errors.New("malformed login consent response")

	// ErrVerificationFailed is returned when a response signature is invalid (terminal)
	ErrVerificationFailed = errors.New("signature verification failed")

	// ErrVerificationUnavailable is returned when the verification backend is
	// unreachable. Retryable; must never be conflated with a denial.
	ErrVerificationUnavailable = errors.New("verification backend unavailable")
)
