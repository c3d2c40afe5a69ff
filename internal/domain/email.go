package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to []string, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// TagStatusAlertEmailData holds data for the tag status alert email.
type TagStatusAlertEmailData struct {
	EPC        string
	Status     Status
	Location   string
	DeviceID   string
	ReaderID   string
	OccurredAt time.Time
}

// AlertStatuses are the statuses that trigger a status alert.
var AlertStatuses = []Status{StatusLost, StatusDamaged}

// IsAlertStatus reports whether s triggers a status alert.
func IsAlertStatus(s Status) bool {
	for _, a := range AlertStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// AlertService notifies operators about tags that entered an alert status.
type AlertService interface {
	NotifyStatus(ctx context.Context, tag *Tag) error
}
