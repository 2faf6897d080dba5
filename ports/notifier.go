package ports

import "context"

// Notifier delivers a one-time code to the user's declared email address.
// Delivery is awaited: the request flow does not report success until the
// notifier has either delivered or failed.
type Notifier interface {
	SendOTP(ctx context.Context, email, code string) error
}
