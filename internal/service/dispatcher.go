package service

import (
	"context"
	"errors"
	"fmt"

	"zalama/internal/docstore"
	"zalama/internal/domain"
	"zalama/internal/models"
	"zalama/internal/repository"
	"zalama/pkg/email"
	"zalama/pkg/phone"
	"zalama/pkg/sms"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type AdvanceReader interface {
	GetByID(ctx context.Context, id uint) (*models.SalaryAdvanceRequest, error)
}

type TransactionReader interface {
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
}

// MessageLogger keeps a trace of every delivery attempt.
type MessageLogger interface {
	Insert(ctx context.Context, l *docstore.MessageLog) error
}

// DispatchResult tells which channels delivered. Each flag is independent.
type DispatchResult struct {
	Event     string            `json:"event"`
	EntityID  uint              `json:"entity_id"`
	Recipient string            `json:"recipient"`
	SMS       bool              `json:"sms"`
	Email     bool              `json:"email"`
	Push      bool              `json:"push"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// recipient is the contact data needed to reach one person.
type recipient struct {
	Name     string
	Phone    string
	Email    string
	FCMToken string
}

// Channels sends a rendered message over SMS, email and push and logs each attempt.
// It is shared by the dispatcher, external templates and marketing campaigns.
type Channels struct {
	sms    sms.Sender
	email  email.Sender
	push   PushSender
	logs   MessageLogger
	region string
	log    *logrus.Logger
}

func NewChannels(smsSender sms.Sender, emailSender email.Sender, push PushSender, logs MessageLogger, region string, log *logrus.Logger) *Channels {
	if region == "" {
		region = "GN"
	}
	return &Channels{sms: smsSender, email: emailSender, push: push, logs: logs, region: region, log: log}
}

// delivery identifies a message for the message log.
type delivery struct {
	Event      string
	Template   string
	CampaignID string
}

func (c *Channels) SendSMS(ctx context.Context, to, body string, d delivery) error {
	if c.sms == nil {
		return sms.ErrNotConfigured
	}
	number, err := phone.Normalize(to, c.region)
	if err != nil {
		c.record(ctx, domain.ChannelSMS, to, d, "", err)
		return err
	}
	id, err := c.sms.Send(ctx, []string{number}, body)
	c.record(ctx, domain.ChannelSMS, number, d, id, err)
	return err
}

func (c *Channels) SendEmail(ctx context.Context, to, subject, html string, d delivery) error {
	if c.email == nil {
		return email.ErrNotConfigured
	}
	id, err := c.email.Send(ctx, email.Message{To: []string{to}, Subject: subject, HTML: html})
	c.record(ctx, domain.ChannelEmail, to, d, id, err)
	return err
}

func (c *Channels) SendPush(ctx context.Context, token, title, body string, data map[string]interface{}, d delivery) error {
	if c.push == nil {
		return errors.New("push not configured")
	}
	err := c.push.SendToDevice(ctx, token, d.Event, title, body, data)
	c.record(ctx, domain.ChannelPush, "device", d, "", err)
	return err
}

func (c *Channels) record(ctx context.Context, channel, to string, d delivery, providerID string, sendErr error) {
	if sendErr != nil {
		c.log.WithFields(logrus.Fields{"channel": channel, "recipient": to, "event": d.Event, "template": d.Template}).
			Warnf("delivery failed: %v", sendErr)
	}
	if c.logs == nil {
		return
	}
	entry := &docstore.MessageLog{
		Channel:    channel,
		Recipient:  to,
		Event:      d.Event,
		Template:   d.Template,
		CampaignID: d.CampaignID,
		Success:    sendErr == nil,
		ProviderID: providerID,
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
	}
	if err := c.logs.Insert(ctx, entry); err != nil {
		c.log.WithField("channel", channel).Warnf("message log insert: %v", err)
	}
}

// Dispatcher renders the fixed message of a lifecycle event and sends it to the employee concerned.
type Dispatcher struct {
	advances     AdvanceReader
	transactions TransactionReader
	channels     *Channels
	feeRate      decimal.Decimal
	log          *logrus.Logger
}

func NewDispatcher(advances AdvanceReader, transactions TransactionReader, channels *Channels, feeRate decimal.Decimal, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{advances: advances, transactions: transactions, channels: channels, feeRate: feeRate, log: log}
}

// Dispatch sends event for entityID: an advance request id for request_received, approval and
// rejection, a transaction id for payment_success and payment_failure. A failing channel never
// prevents the others; the result reports each one.
func (d *Dispatcher) Dispatch(ctx context.Context, event string, entityID uint) (*DispatchResult, error) {
	tmpl, ok := eventTemplates[event]
	if !ok {
		return nil, ErrUnknownEvent
	}
	to, vars, err := d.resolve(ctx, event, entityID)
	if err != nil {
		return nil, err
	}
	if to.Phone == "" && to.Email == "" && to.FCMToken == "" {
		return nil, ErrNoRecipient
	}
	msg, err := tmpl.Render(vars)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", event, err)
	}

	res := &DispatchResult{Event: event, EntityID: entityID, Recipient: to.Name, Errors: map[string]string{}}
	meta := delivery{Event: event}
	if to.Phone != "" {
		if err := d.channels.SendSMS(ctx, to.Phone, msg.SMS, meta); err != nil {
			res.Errors[domain.ChannelSMS] = err.Error()
		} else {
			res.SMS = true
		}
	}
	if to.Email != "" {
		if err := d.channels.SendEmail(ctx, to.Email, msg.Subject, msg.HTML, meta); err != nil {
			res.Errors[domain.ChannelEmail] = err.Error()
		} else {
			res.Email = true
		}
	}
	if to.FCMToken != "" {
		data := map[string]interface{}{"entity_id": entityID}
		if err := d.channels.SendPush(ctx, to.FCMToken, msg.Title, msg.SMS, data, meta); err != nil {
			res.Errors[domain.ChannelPush] = err.Error()
		} else {
			res.Push = true
		}
	}
	d.log.WithFields(logrus.Fields{"event": event, "entity_id": entityID, "sms": res.SMS, "email": res.Email, "push": res.Push}).
		Info("notification dispatched")
	return res, nil
}

func (d *Dispatcher) resolve(ctx context.Context, event string, entityID uint) (recipient, map[string]interface{}, error) {
	switch event {
	case domain.EventRequestReceived, domain.EventApproval, domain.EventRejection:
		a, err := d.advances.GetByID(ctx, entityID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return recipient{}, nil, ErrAdvanceNotFound
			}
			return recipient{}, nil, err
		}
		if a.Employee == nil {
			return recipient{}, nil, ErrEmployeeNotFound
		}
		to := employeeRecipient(a.Employee)
		return to, map[string]interface{}{
			"Name":   to.Name,
			"Amount": a.MontantDemande,
			"Reason": a.MotifRejet,
		}, nil
	default:
		tx, err := d.transactions.GetByID(ctx, entityID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return recipient{}, nil, ErrTransactionNotFound
			}
			return recipient{}, nil, err
		}
		if tx.Employee == nil {
			return recipient{}, nil, ErrEmployeeNotFound
		}
		split := domain.ComputeFees(tx.Montant, d.feeRate)
		to := employeeRecipient(tx.Employee)
		ref := tx.NumeroReception
		if ref == "" {
			ref = tx.PayID
		}
		return to, map[string]interface{}{
			"Name":      to.Name,
			"Amount":    tx.Montant,
			"Net":       split.EmployeeNet,
			"Fee":       split.Fee,
			"Reference": ref,
		}, nil
	}
}

func employeeRecipient(e *models.Employee) recipient {
	return recipient{Name: e.FullName(), Phone: e.Telephone, Email: e.Email, FCMToken: e.FCMToken}
}
