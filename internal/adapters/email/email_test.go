package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfidtags/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestRender_TagStatusAlert(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	data := &domain.TagStatusAlertEmailData{
		EPC:        "E200<1>",
		Status:     domain.StatusLost,
		Location:   "Dock 4",
		OccurredAt: time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC),
	}
	subject, html, text, err := r.Render("tag_status_alert", data)
	require.NoError(t, err)

	assert.Equal(t, "[RFID] Tag E200<1> marked Lost", subject)
	assert.Contains(t, html, "E200&lt;1&gt;")
	assert.Contains(t, text, "Location:  Dock 4")
	assert.Contains(t, text, "Device:    -")
	assert.Contains(t, text, "2025-06-01 08:30:00 UTC")
}

func TestRender_UnknownTemplate(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	_, _, _, err = r.Render("missing", nil)
	assert.Error(t, err)
}

func TestSESMailer_Send(t *testing.T) {
	client := &fakeSES{}
	m := newSESMailer(client, MailerConfig{FromAddress: "alerts@example.com", FromName: "RFID"}, discardLogger())

	err := m.Send(context.Background(), []string{"ops@example.com"}, "subj", "<p>hi</p>", "")
	require.NoError(t, err)

	require.NotNil(t, client.input)
	assert.Equal(t, "RFID <alerts@example.com>", aws.ToString(client.input.Source))
	assert.Equal(t, []string{"ops@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "subj", aws.ToString(client.input.Message.Subject.Data))
	require.NotNil(t, client.input.Message.Body.Html)
	assert.Nil(t, client.input.Message.Body.Text)
}

func TestSESMailer_SendError(t *testing.T) {
	client := &fakeSES{err: errors.New("throttled")}
	m := newSESMailer(client, MailerConfig{FromAddress: "alerts@example.com"}, discardLogger())

	err := m.Send(context.Background(), []string{"ops@example.com"}, "s", "", "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
	assert.Equal(t, "alerts@example.com", aws.ToString(client.input.Source))
}

func TestNewMailer_Providers(t *testing.T) {
	assert.IsType(t, &noopMailer{}, NewMailer(MailerConfig{Provider: "noop"}, discardLogger()))
	assert.IsType(t, &noopMailer{}, NewMailer(MailerConfig{Provider: "smtp"}, discardLogger()))
	assert.IsType(t, &sesMailer{}, NewMailer(MailerConfig{Provider: "ses", SES: SESConfig{Region: "eu-west-1"}}, discardLogger()))
}
