// Package mailx provides the outbound email transport used for
// verification codes. The Sender interface keeps the delivery mechanism
// swappable so development and tests can run without an SMTP relay.
package mailx

import "context"

// Sender delivers a single plain-text email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
