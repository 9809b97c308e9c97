package mailx

import (
	"context"

	"github.com/twineproject/twine/pkg/slogx"
)

// LogSender writes the message to the structured log instead of sending
// it anywhere. Only for development and end-to-end tests, where the
// logged body is how the verification code gets back to the operator.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	slogx.FromContext(ctx).Info("mail dispatched",
		"driver", "log",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
