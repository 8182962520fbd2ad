package verusconnect

import "errors"

var (
	// ErrConfiguration is returned when neither ServerURL nor the
	// GetChallenge/GetResult pair is provided
	ErrConfiguration = errors.New("verus-connect: provide either ServerURL or GetChallenge and GetResult")

	// ErrCancelled is returned when a login or send attempt is cancelled,
	// either explicitly or by starting a newer attempt
	ErrCancelled = errors.New("operation cancelled")

	// ErrPollTimeout is returned when polling gives up without a result.
	// Distinct from ErrLoginFailed so a UI can suggest "try again" rather
	// than "access denied".
	ErrPollTimeout = errors.New("polling timed out")

	// ErrLoginFailed is returned when the backend reports a terminal
	// failure for the challenge
	ErrLoginFailed = errors.New("login failed")

	// ErrExtensionRequired is returned when send is attempted without the
	// wallet extension
	ErrExtensionRequired = errors.New("send requires the wallet extension")

	// ErrUnsafeDeepLink is returned when a delivery URI carries a scheme
	// outside the wallet allowlist
	ErrUnsafeDeepLink = errors.New("blocked unsafe deep link scheme")
)
