package services

import (
	"context"
	"fmt"
	"log/slog"

	"rfidtags/internal/domain"
)

const tagStatusAlertTemplate = "tag_status_alert"

type alertService struct {
	mailer     domain.Mailer
	renderer   domain.EmailTemplateRenderer
	recipients []string
	logger     *slog.Logger
}

// NewAlertService returns an AlertService that emails recipients when a tag
// enters an alert status. With no recipients every notification is a no-op.
func NewAlertService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, recipients []string, logger *slog.Logger) domain.AlertService {
	return &alertService{mailer: mailer, renderer: renderer, recipients: recipients, logger: logger}
}

func (s *alertService) NotifyStatus(ctx context.Context, tag *domain.Tag) error {
	if tag == nil || !domain.IsAlertStatus(tag.Status) || len(s.recipients) == 0 {
		return nil
	}
	data := &domain.TagStatusAlertEmailData{
		EPC:        tag.EPC,
		Status:     tag.Status,
		Location:   deref(tag.Location),
		DeviceID:   deref(tag.DeviceID),
		ReaderID:   deref(tag.ReaderID),
		OccurredAt: tag.UpdatedAt,
	}
	subject, htmlBody, textBody, err := s.renderer.Render(tagStatusAlertTemplate, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", tagStatusAlertTemplate, err)
	}
	if err := s.mailer.Send(ctx, s.recipients, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send status alert: %w", err)
	}
	s.logger.InfoContext(ctx, "status alert sent", "epc", tag.EPC, "status", tag.Status, "recipients", len(s.recipients))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
