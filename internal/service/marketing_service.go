package service

import (
	"context"
	"errors"
	"strings"

	"zalama/internal/docstore"
	"zalama/internal/domain"
	"zalama/internal/models"

	"github.com/sirupsen/logrus"
)

// ErrCampaignsUnavailable is returned when no document store is configured.
var ErrCampaignsUnavailable = errors.New("campaign store not configured")

type CampaignStore interface {
	Insert(ctx context.Context, c *docstore.Campaign) error
	List(ctx context.Context, limit, offset int64) ([]docstore.Campaign, error)
}

type PartnerAudience interface {
	ListActiveByPartner(ctx context.Context, partnerID uint) ([]models.Employee, error)
}

type MarketingSMSRequest struct {
	Message    string   `json:"message" binding:"required"`
	Recipients []string `json:"recipients"`
	PartnerID  uint     `json:"partenaire_id"`
}

type MarketingEmailRequest struct {
	Subject    string   `json:"subject" binding:"required"`
	HTML       string   `json:"html" binding:"required"`
	Recipients []string `json:"recipients"`
	PartnerID  uint     `json:"partenaire_id"`
}

// MarketingService sends SMS and email blasts and records each one as a campaign.
type MarketingService struct {
	channels  *Channels
	audience  PartnerAudience
	campaigns CampaignStore
	log       *logrus.Logger
}

func NewMarketingService(channels *Channels, audience PartnerAudience, campaigns CampaignStore, log *logrus.Logger) *MarketingService {
	return &MarketingService{channels: channels, audience: audience, campaigns: campaigns, log: log}
}

func (s *MarketingService) SendSMS(ctx context.Context, req MarketingSMSRequest, createdBy uint) (*docstore.Campaign, error) {
	to, err := s.resolve(ctx, req.Recipients, req.PartnerID, func(e models.Employee) string { return e.Telephone })
	if err != nil {
		return nil, err
	}
	c := s.newCampaign(domain.ChannelSMS, "", req.Message, req.PartnerID, createdBy, len(to))
	meta := delivery{Template: "marketing", CampaignID: c.ID.Hex()}
	for _, n := range to {
		if s.channels.SendSMS(ctx, n, req.Message, meta) == nil {
			c.Sent++
		} else {
			c.Failed++
		}
	}
	s.save(ctx, c)
	return c, nil
}

func (s *MarketingService) SendEmail(ctx context.Context, req MarketingEmailRequest, createdBy uint) (*docstore.Campaign, error) {
	to, err := s.resolve(ctx, req.Recipients, req.PartnerID, func(e models.Employee) string { return e.Email })
	if err != nil {
		return nil, err
	}
	c := s.newCampaign(domain.ChannelEmail, req.Subject, req.HTML, req.PartnerID, createdBy, len(to))
	meta := delivery{Template: "marketing", CampaignID: c.ID.Hex()}
	for _, addr := range to {
		if s.channels.SendEmail(ctx, addr, req.Subject, req.HTML, meta) == nil {
			c.Sent++
		} else {
			c.Failed++
		}
	}
	s.save(ctx, c)
	return c, nil
}

func (s *MarketingService) List(ctx context.Context, limit, offset int64) ([]docstore.Campaign, error) {
	if s.campaigns == nil {
		return nil, ErrCampaignsUnavailable
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.campaigns.List(ctx, limit, offset)
}

// resolve merges explicit recipients with the partner's active employees, without duplicates.
func (s *MarketingService) resolve(ctx context.Context, explicit []string, partnerID uint, contact func(models.Employee) string) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, r := range explicit {
		add(r)
	}
	if partnerID != 0 {
		list, err := s.audience.ListActiveByPartner(ctx, partnerID)
		if err != nil {
			return nil, err
		}
		for _, e := range list {
			add(contact(e))
		}
	}
	if len(out) == 0 {
		return nil, ErrNoRecipient
	}
	return out, nil
}

func (s *MarketingService) newCampaign(channel, subject, message string, partnerID, createdBy uint, n int) *docstore.Campaign {
	c := &docstore.Campaign{
		Channel:    channel,
		Subject:    subject,
		Message:    message,
		PartnerID:  partnerID,
		Recipients: n,
		CreatedBy:  createdBy,
	}
	c.ID = docstore.NewID()
	return c
}

func (s *MarketingService) save(ctx context.Context, c *docstore.Campaign) {
	s.log.WithFields(logrus.Fields{"campaign": c.ID.Hex(), "channel": c.Channel, "sent": c.Sent, "failed": c.Failed}).
		Info("campaign sent")
	if s.campaigns == nil {
		return
	}
	if err := s.campaigns.Insert(ctx, c); err != nil {
		s.log.WithField("campaign", c.ID.Hex()).Warnf("store campaign: %v", err)
	}
}
