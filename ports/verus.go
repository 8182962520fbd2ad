package ports

import (
	"context"

	"github.com/Fried333/verus-connect/core"
)

// VerusClient is the capability interface over the external identity
// verification backend. Absence of a real backend is a configuration error
// at startup, not a lazily-discovered nil.
type VerusClient interface {
	// CreateLoginRequest builds and signs a login consent request for the
	// challenge and returns the wallet-addressable deep link URI.
	CreateLoginRequest(ctx context.Context, challenge *core.Challenge) (string, error)

	// VerifyLoginResponse checks the wallet's signature over the response.
	// A false return means the signature is invalid (denial); a non-nil
	// error means the backend could not be reached (retryable).
	VerifyLoginResponse(ctx context.Context, response *core.SignedResponse) (bool, error)

	// ResolveFriendlyName looks up the human-friendly name for an
	// i-address. Best-effort; callers fall back to the raw address.
	ResolveFriendlyName(ctx context.Context, iAddress string) (string, error)
}
