package mailer

import (
	"fmt"
	"strings"

	mailtpl "github.com/oksasatya/doitnow-api/pkg/mailer/templates"
)

// EmailJob is the JSON payload put on the email queue.
// Either Subject/Text/HTML are set directly, or Template and Data are
// rendered by the worker.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "otp_code"
	Data     map[string]any `json:"data,omitempty"`
}

// Ready reports whether the job carries a body that can be sent as is.
func (j EmailJob) Ready() bool {
	return j.Subject != "" && (j.Text != "" || j.HTML != "")
}

// SubjectFor returns a fallback subject for a job whose template rendered none.
func SubjectFor(job EmailJob) string {
	typ := job.Template
	if job.Data != nil {
		if v, ok := job.Data["Type"]; ok && fmt.Sprintf("%v", v) != "" {
			typ = fmt.Sprintf("%v", v)
		}
	}
	switch strings.ToLower(typ) {
	case mailtpl.OTPCode:
		return "Your verification code"
	default:
		return "Notification"
	}
}

// EnsureRecipient fills Email and RecipientEmail from To when the
// producer left them out.
func EnsureRecipient(job *EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}
