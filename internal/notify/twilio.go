// Package notify delivers fire-and-forget user notifications.
//
// This file implements the Twilio SMS sink.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/InnerCurrent/serene/internal/models"
)

// smsSender abstracts the Twilio REST call for testing.
type smsSender interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioOpts holds configuration options for the Twilio SMS sink.
type TwilioOpts struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

// TwilioOption defines a configuration option for the Twilio SMS sink.
type TwilioOption func(*TwilioOpts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) TwilioOption {
	return func(o *TwilioOpts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) TwilioOption {
	return func(o *TwilioOpts) { o.AuthToken = token }
}

// WithFromNumber sets the sending phone number.
func WithFromNumber(from string) TwilioOption {
	return func(o *TwilioOpts) { o.From = from }
}

// WithToNumber sets the user's phone number.
func WithToNumber(to string) TwilioOption {
	return func(o *TwilioOpts) { o.To = to }
}

// TwilioNotifier sends notifications as SMS messages to the user's phone.
type TwilioNotifier struct {
	sender smsSender
	from   string
	to     string
}

// NewTwilioNotifier creates an SMS sink, falling back to the
// TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER, and
// SERENE_NOTIFY_NUMBER environment variables for unset options.
func NewTwilioNotifier(opts ...TwilioOption) (*TwilioNotifier, error) {
	var cfg TwilioOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.From == "" {
		cfg.From = os.Getenv("TWILIO_FROM_NUMBER")
	}
	if cfg.To == "" {
		cfg.To = os.Getenv("SERENE_NOTIFY_NUMBER")
	}
	slog.Debug("Twilio notifier config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"From_set", cfg.From != "",
		"To_set", cfg.To != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.From == "" || cfg.To == "" {
		return nil, fmt.Errorf("from and to numbers must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioNotifier{sender: client.Api, from: cfg.From, to: cfg.To}, nil
}

func (t *TwilioNotifier) Notify(ctx context.Context, n models.Notification) error {
	body := n.Title
	if n.Description != "" {
		body = fmt.Sprintf("%s: %s", n.Title, n.Description)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(t.to)
	params.SetFrom(t.from)
	params.SetBody(body)

	if _, err := t.sender.CreateMessage(params); err != nil {
		slog.Error("Twilio notification failed", "error", err, "title", n.Title)
		return fmt.Errorf("failed to send notification SMS: %w", err)
	}
	slog.Debug("Twilio notification sent", "title", n.Title)
	return nil
}
