package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/twineproject/twine/pkg/mailx"
	"github.com/twineproject/twine/pkg/slogx"
)

var ErrDeliveryFailed = errors.New("email delivery failed")

const otpMailSubject = "Your Twine Verification Code"

const otpMailTemplate = `Hello,

Your verification code is: {{.Code}}

It expires in {{.Minutes}} minutes. If you did not request this code you
can safely ignore this email.

The Twine Team
`

// NotifyService renders the verification email and hands it to the
// configured mail transport. Delivery is a single attempt; failures are
// surfaced to the caller, never retried here.
type NotifyService struct {
	Mailer mailx.Sender
}

var otpTmpl = template.Must(template.New("otp").Parse(otpMailTemplate))

// SendOtp delivers a verification code to the address. validityMinutes is
// only used for the message text.
func (s *NotifyService) SendOtp(ctx context.Context, email, code string, validityMinutes int) error {
	log := slogx.FromContext(ctx)

	var body strings.Builder
	err := otpTmpl.Execute(&body, struct {
		Code    string
		Minutes int
	}{Code: code, Minutes: validityMinutes})
	if err != nil {
		log.Error("failed to render otp mail template", slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	if err := s.Mailer.Send(ctx, email, otpMailSubject, body.String()); err != nil {
		log.Warn("otp mail dispatch failed",
			slog.String("email", email),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	return nil
}
