package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/doitnow-api/config"
	"github.com/oksasatya/doitnow-api/internal/application"
	mailtpl "github.com/oksasatya/doitnow-api/pkg/mailer/templates"
)

type capturePublisher struct {
	published [][]byte
	err       error
}

func (p *capturePublisher) PublishJSON(_ context.Context, v any) error {
	if p.err != nil {
		return p.err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.published = append(p.published, b)
	return nil
}

func TestQueueOTPSender_PublishesTemplateJob(t *testing.T) {
	pub := &capturePublisher{}
	s := NewQueueOTPSender(pub, &config.Config{AppName: "DoItNow"}, nil)

	err := s.SendOTP(context.Background(), application.OTPMessage{
		Email:     "ana@example.com",
		Name:      "Ana Diaz",
		Code:      "123456",
		ExpiresAt: time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC),
		IP:        "203.0.113.7",
	})
	require.NoError(t, err)
	require.Len(t, pub.published, 1)

	var job EmailJob
	require.NoError(t, json.Unmarshal(pub.published[0], &job))
	assert.Equal(t, "ana@example.com", job.To)
	assert.Equal(t, mailtpl.OTPCode, job.Template)
	assert.False(t, job.Ready())
	assert.Equal(t, "123456", job.Data["Code"])
	assert.Equal(t, "Ana Diaz", job.Data["Name"])
	assert.Equal(t, "DoItNow", job.Data["AppName"])
	assert.Equal(t, "203.0.113.7", job.Data["IP"])
	assert.Equal(t, "2026-01-01T00:05:00Z", job.Data["ExpiresAt"])
}

func TestQueueOTPSender_PublishFailure(t *testing.T) {
	pub := &capturePublisher{err: errors.New("channel closed")}
	s := NewQueueOTPSender(pub, nil, nil)

	err := s.SendOTP(context.Background(), application.OTPMessage{Email: "ana@example.com", Code: "1"})
	assert.ErrorContains(t, err, "channel closed")
}

func TestEmailJobReady(t *testing.T) {
	assert.True(t, EmailJob{Subject: "s", Text: "t"}.Ready())
	assert.False(t, EmailJob{Subject: "s"}.Ready())
}

func TestMailgunRequiresConfig(t *testing.T) {
	err := NewMailgun("", "", "").Send(context.Background(), "a@b.c", "s", "t", "")
	assert.Error(t, err)
}

func TestEmailJobHelpers(t *testing.T) {
	job := EmailJob{To: "ana@example.com", Template: mailtpl.OTPCode}
	EnsureRecipient(&job)
	assert.Equal(t, "ana@example.com", job.Data["Email"])
	assert.Equal(t, "ana@example.com", job.Data["RecipientEmail"])
	assert.Equal(t, "Your verification code", SubjectFor(job))
	assert.Equal(t, "Notification", SubjectFor(EmailJob{}))
}
