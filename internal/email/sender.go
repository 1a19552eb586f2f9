// Package email delivers lifecycle notification emails over SMTP.
package email

import "context"

// Update is one rendered lifecycle notification.
type Update struct {
	To        string
	Event     string
	RequestID string
	Heading   string
	Body      string
	CTALabel  string
	CTAURL    string
}

// Sender delivers notification emails.
type Sender interface {
	SendLifecycleUpdate(ctx context.Context, update Update) error
}

// NopSender drops every email. Used when delivery is disabled.
type NopSender struct{}

// SendLifecycleUpdate discards the update.
func (NopSender) SendLifecycleUpdate(ctx context.Context, update Update) error { return nil }
