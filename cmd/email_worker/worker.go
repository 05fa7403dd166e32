package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/doitnow-api/pkg/helpers"
	"github.com/oksasatya/doitnow-api/pkg/mailer"
	mailtpl "github.com/oksasatya/doitnow-api/pkg/mailer/templates"
)

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRetry
	outcomeDrop
)

type worker struct {
	Sender   mailer.Sender
	Resolver mailtpl.GeoResolver
	Logger   *logrus.Logger
	Timeout  time.Duration
}

// Handle decodes, renders and sends one queued email.
// Malformed or unrenderable jobs are dropped; send failures are retried.
func (w *worker) Handle(ctx context.Context, body []byte) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.Logger.WithError(err).Warn("bad email message")
		return outcomeDrop
	}
	if job.To == "" {
		w.Logger.Warn("email message without recipient")
		return outcomeDrop
	}

	mailer.EnsureRecipient(&job)
	helpers.LocalizeTimesIfPossible(ctx, w.Resolver, job.Data)
	w.fillLocation(ctx, job.Data)

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			w.Logger.WithError(err).WithField("template", job.Template).Warn("render failed")
			return outcomeDrop
		}
		subject, text, html = s, t, h
	}
	if subject == "" {
		subject = mailer.SubjectFor(job)
	}

	timeout := w.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := w.Sender.Send(c, job.To, subject, text, html); err != nil {
		w.Logger.WithError(err).WithField("to", job.To).Warn("send failed")
		return outcomeRetry
	}
	w.Logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("email sent")
	return outcomeAck
}

func (w *worker) fillLocation(ctx context.Context, data map[string]any) {
	if w.Resolver == nil || data == nil {
		return
	}
	if loc, ok := data["Location"]; ok && fmt.Sprintf("%v", loc) != "" {
		return
	}
	ip, ok := data["IP"]
	if !ok || fmt.Sprintf("%v", ip) == "" {
		return
	}
	if g, err := w.Resolver.Lookup(ctx, fmt.Sprintf("%v", ip)); err == nil {
		data["Location"] = mailtpl.FormatGeo(g)
	}
}
