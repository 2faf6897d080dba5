package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/schoolbook/schoolbook/ports"
)

const (
	// LoginTopic carries session issuance events.
	LoginTopic = "schoolbook.login"
	// LogoutTopic carries session revocation events.
	LogoutTopic = "schoolbook.logout"
)

// AuthEvent is the payload published on login and logout.
type AuthEvent struct {
	IdentityID int64  `json:"identity_id"`
	TokenID    string `json:"token_id"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher wraps a Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a session issuance event.
func (p *WatermillPublisher) PublishLogin(ctx context.Context, identityID int64, tokenID string) error {
	return p.publish(LoginTopic, identityID, tokenID)
}

// PublishLogout publishes a session revocation event.
func (p *WatermillPublisher) PublishLogout(ctx context.Context, identityID int64, tokenID string) error {
	return p.publish(LogoutTopic, identityID, tokenID)
}

func (p *WatermillPublisher) publish(topic string, identityID int64, tokenID string) error {
	payload, err := json.Marshal(AuthEvent{IdentityID: identityID, TokenID: tokenID})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(tokenID, payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
