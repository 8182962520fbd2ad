package verusconnect

import (
	"context"
	"regexp"
	"time"
)

// Environment classifies where a login is being attempted, which picks the
// delivery path for the challenge URI.
type Environment string

const (
	// EnvironmentExtension means the wallet extension provider is present
	EnvironmentExtension Environment = "extension"

	// EnvironmentMobile means a mobile browser: deliver via deep link
	EnvironmentMobile Environment = "mobile"

	// EnvironmentDesktop means a generic browser: deliver via scannable code
	EnvironmentDesktop Environment = "desktop"
)

// DefaultProviderGrace is how long Resolve waits for a late provider-ready
// signal before falling back to user-agent classification.
const DefaultProviderGrace = 500 * time.Millisecond

var mobileUA = regexp.MustCompile(`(?i)Android|iPhone|iPad|iPod|webOS|BlackBerry|Opera Mini|IEMobile`)

// Resolver classifies the execution context. Precedence is fixed:
// extension > mobile > desktop, because an extension, when present, is
// always the lowest-friction path.
type Resolver struct {
	// Probe returns the injected provider, or nil when absent
	Probe func() Provider

	// Ready is signalled once by the host shell when a provider finishes
	// initializing after page load. Optional.
	Ready <-chan struct{}

	// UserAgent is the browser user agent used for mobile classification
	UserAgent string
}

// Detect classifies synchronously from what is known right now
func (r Resolver) Detect() Environment {
	if r.Probe != nil && r.Probe() != nil {
		return EnvironmentExtension
	}
	if mobileUA.MatchString(r.UserAgent) {
		return EnvironmentMobile
	}
	return EnvironmentDesktop
}

// Resolve classifies the environment, waiting up to grace for a provider
// that has not announced itself yet. The wait is bounded and happens only
// when no provider is immediately detected.
func (r Resolver) Resolve(ctx context.Context, grace time.Duration) Environment {
	env := r.Detect()
	if env == EnvironmentExtension || r.Ready == nil || grace <= 0 {
		return env
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-r.Ready:
		if r.Probe != nil && r.Probe() != nil {
			return EnvironmentExtension
		}
	case <-timer.C:
	case <-ctx.Done():
	}
	return r.Detect()
}
