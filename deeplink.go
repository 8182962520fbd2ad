package verusconnect

import (
	"fmt"
	"strings"
)

// allowedSchemes are the deep link schemes a wallet may be handed.
// Everything else (javascript:, data:, ...) is rejected.
var allowedSchemes = []string{"verus", "vrsc", "i5jtwbp6zymeay9llnraglgjqgdrffsau4"}

// ValidateDeepLink checks that uri uses an allowed wallet scheme
func ValidateDeepLink(uri string) error {
	scheme, _, found := strings.Cut(uri, "://")
	if !found {
		return fmt.Errorf("%w: %q", ErrUnsafeDeepLink, uri)
	}
	scheme = strings.ToLower(scheme)
	for _, allowed := range allowedSchemes {
		if scheme == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnsafeDeepLink, scheme)
}

// AndroidIntentURL builds an intent:// fallback for Android browsers where
// the plain deep link does not trigger the wallet app.
func AndroidIntentURL(uri string) string {
	scheme, rest, found := strings.Cut(uri, "://")
	if !found {
		return uri
	}
	return fmt.Sprintf("intent://%s#Intent;scheme=%s;end", rest, scheme)
}
