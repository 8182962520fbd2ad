package ports

import (
	"context"

	"github.com/Fried333/verus-connect/core"
)

// EventPublisher notifies the rest of the application about verified logins
type EventPublisher interface {
	PublishLoginVerified(ctx context.Context, login *core.VerifiedLogin) error
}
