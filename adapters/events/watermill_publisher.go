package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/Fried333/verus-connect/core"
	"github.com/Fried333/verus-connect/ports"
)

// LoginVerifiedTopic is the topic verified logins are published to
const LoginVerifiedTopic = "verusconnect.login.verified"

// LoginVerifiedEvent is the payload published when a wallet response
// passes verification
type LoginVerifiedEvent struct {
	ChallengeID  string `json:"challenge_id"`
	IAddress     string `json:"i_address"`
	FriendlyName string `json:"friendly_name"`
}

// WatermillPublisher implements the EventPublisher port using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     LoginVerifiedTopic,
	}
}

// PublishLoginVerified publishes a login-verified event
func (p *WatermillPublisher) PublishLoginVerified(ctx context.Context, login *core.VerifiedLogin) error {
	event := LoginVerifiedEvent{
		ChallengeID:  login.ChallengeID,
		IAddress:     login.IAddress,
		FriendlyName: login.FriendlyName,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher discards events; used by hosts that run without a broker
type NopPublisher struct{}

// PublishLoginVerified does nothing
func (NopPublisher) PublishLoginVerified(ctx context.Context, login *core.VerifiedLogin) error {
	return nil
}
