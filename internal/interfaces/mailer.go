package interfaces

import "context"

// Mailer sends query-fulfillment notifications.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
