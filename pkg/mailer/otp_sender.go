package mailer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/doitnow-api/config"
	"github.com/oksasatya/doitnow-api/internal/application"
	mailtpl "github.com/oksasatya/doitnow-api/pkg/mailer/templates"
)

// JSONPublisher puts a JSON document on the email queue.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, v any) error
}

// QueueOTPSender hands OTP emails to the email worker through the broker.
type QueueOTPSender struct {
	Pub JSONPublisher
	Cfg *config.Config
	Geo mailtpl.GeoResolver
}

func NewQueueOTPSender(pub JSONPublisher, cfg *config.Config, geo mailtpl.GeoResolver) *QueueOTPSender {
	return &QueueOTPSender{Pub: pub, Cfg: cfg, Geo: geo}
}

func (s *QueueOTPSender) SendOTP(ctx context.Context, msg application.OTPMessage) error {
	data := mailtpl.NewOTPCodeData(s.Cfg, msg.Name, msg.Email, msg.Code,
		mailtpl.WithExpiresAt(msg.ExpiresAt),
		mailtpl.WithIP(msg.IP),
		mailtpl.WithUserAgent(msg.UserAgent),
		mailtpl.WithGeoFromIP(ctx, s.Geo, msg.IP),
	)
	job := EmailJob{To: msg.Email, Template: mailtpl.OTPCode, Data: data}
	if err := s.Pub.PublishJSON(ctx, job); err != nil {
		return fmt.Errorf("publish otp email: %w", err)
	}
	return nil
}

// LogOTPSender writes the code to the log instead of sending mail.
// Used when MAIL_SEND_ENABLED=false.
type LogOTPSender struct {
	Logger *logrus.Logger
}

func (s LogOTPSender) SendOTP(_ context.Context, msg application.OTPMessage) error {
	s.Logger.WithFields(logrus.Fields{
		"email":      msg.Email,
		"code":       msg.Code,
		"expires_at": msg.ExpiresAt,
	}).Info("mail disabled, otp not sent")
	return nil
}
