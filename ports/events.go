package ports

import "context"

// EventPublisher publishes auth events to notify other instances.
// Publishing is best effort: a publish failure never fails the operation
// that triggered it.
type EventPublisher interface {
	PublishLogin(ctx context.Context, identityID int64, tokenID string) error
	PublishLogout(ctx context.Context, identityID int64, tokenID string) error
}
