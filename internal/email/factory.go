package email

import (
	"github.com/thimothe-das/fixeo-sub001/platform/config"
)

// NewSender returns the configured delivery backend. When email is disabled
// the nop sender keeps the worker functional without SMTP credentials.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NopSender{}, nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}
