package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

type TemplateRecipient struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type TemplateRequest struct {
	Template   string                 `json:"template" binding:"required"`
	Recipients []TemplateRecipient    `json:"recipients" binding:"required,min=1,dive"`
	Variables  map[string]interface{} `json:"variables"`
}

type ChannelTally struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

type RecipientResult struct {
	Recipient string `json:"recipient"`
	SMS       *bool  `json:"sms,omitempty"`
	Email     *bool  `json:"email,omitempty"`
	Error     string `json:"error,omitempty"`
}

type TemplateResults struct {
	Total   int               `json:"total"`
	SMS     ChannelTally      `json:"sms"`
	Email   ChannelTally      `json:"email"`
	Details []RecipientResult `json:"details"`
}

// TemplateService sends named templates to batches of recipients on behalf of partner systems.
type TemplateService struct {
	channels *Channels
	log      *logrus.Logger
}

func NewTemplateService(channels *Channels, log *logrus.Logger) *TemplateService {
	return &TemplateService{channels: channels, log: log}
}

// Templates lists the names accepted by Send, sorted.
func (s *TemplateService) Templates() []string {
	out := make([]string, 0, len(externalTemplates))
	for name := range externalTemplates {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Send tallies every recipient independently; one failed delivery never aborts the batch.
func (s *TemplateService) Send(ctx context.Context, req TemplateRequest) (*TemplateResults, error) {
	tmpl, ok := externalTemplates[strings.ToLower(req.Template)]
	if !ok {
		return nil, ErrUnknownTemplate
	}
	res := &TemplateResults{Total: len(req.Recipients), Details: make([]RecipientResult, 0, len(req.Recipients))}
	meta := delivery{Template: req.Template}

	for _, r := range req.Recipients {
		vars := make(map[string]interface{}, len(req.Variables)+1)
		for k, v := range req.Variables {
			vars[k] = v
		}
		if r.Name != "" {
			vars["Name"] = r.Name
		}
		detail := RecipientResult{Recipient: firstNonEmpty(r.Name, r.Phone, r.Email)}
		msg, err := tmpl.Render(vars)
		if err != nil {
			detail.Error = fmt.Sprintf("render: %v", err)
			res.Details = append(res.Details, detail)
			continue
		}
		if r.Phone == "" && r.Email == "" {
			detail.Error = "aucun téléphone ni email"
		}
		if r.Phone != "" {
			sent := s.channels.SendSMS(ctx, r.Phone, msg.SMS, meta) == nil
			detail.SMS = &sent
			tally(&res.SMS, sent)
		}
		if r.Email != "" {
			sent := s.channels.SendEmail(ctx, r.Email, msg.Subject, msg.HTML, meta) == nil
			detail.Email = &sent
			tally(&res.Email, sent)
		}
		res.Details = append(res.Details, detail)
	}
	s.log.WithFields(logrus.Fields{
		"template":     req.Template,
		"total":        res.Total,
		"sms_sent":     res.SMS.Sent,
		"sms_failed":   res.SMS.Failed,
		"email_sent":   res.Email.Sent,
		"email_failed": res.Email.Failed,
	}).Info("template batch sent")
	return res, nil
}

func tally(t *ChannelTally, ok bool) {
	if ok {
		t.Sent++
	} else {
		t.Failed++
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
