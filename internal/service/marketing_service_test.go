package service

import (
	"context"
	"errors"
	"testing"

	"zalama/internal/domain"
	"zalama/internal/models"
)

func marketingFixture(s *fakeSMS, e *fakeEmail, campaigns *memCampaigns) *MarketingService {
	employees := newMemEmployees(
		models.Employee{ID: 1, PartnerID: 2, Telephone: "622123456", Email: "a@example.com", Actif: true},
		models.Employee{ID: 2, PartnerID: 2, Telephone: "623456789", Actif: true},
		models.Employee{ID: 3, PartnerID: 2, Telephone: "624000000", Actif: false},
		models.Employee{ID: 4, PartnerID: 9, Telephone: "625000000", Actif: true},
	)
	var store CampaignStore
	if campaigns != nil {
		store = campaigns
	}
	return NewMarketingService(testChannels(s, e, nil), employees, store, quietLogger())
}

func TestMarketingSMSMergesAudience(t *testing.T) {
	s, campaigns := &fakeSMS{}, &memCampaigns{}
	svc := marketingFixture(s, &fakeEmail{}, campaigns)

	c, err := svc.SendSMS(context.Background(), MarketingSMSRequest{
		Message:    "Nouveau: avances en 5 minutes",
		Recipients: []string{"622123456", " 628111111 "},
		PartnerID:  2,
	}, 1)
	if err != nil {
		t.Fatalf("SendSMS: %v", err)
	}
	// 622123456 appears twice, the inactive and foreign employees are skipped.
	if c.Recipients != 3 || c.Sent != 3 || c.Failed != 0 {
		t.Errorf("campaign = %+v", c)
	}
	if c.Channel != domain.ChannelSMS || c.CreatedBy != 1 {
		t.Errorf("campaign = %+v", c)
	}
	if len(campaigns.rows) != 1 || campaigns.rows[0].ID != c.ID {
		t.Errorf("stored campaigns = %+v", campaigns.rows)
	}
}

func TestMarketingEmailCountsFailures(t *testing.T) {
	e := &fakeEmail{err: errors.New("resend 422")}
	svc := marketingFixture(&fakeSMS{}, e, nil)
	c, err := svc.SendEmail(context.Background(), MarketingEmailRequest{Subject: "Promo", HTML: "<p>Hi</p>", PartnerID: 2}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if c.Recipients != 1 || c.Failed != 1 {
		t.Errorf("campaign = %+v", c)
	}
}

func TestMarketingWithoutRecipients(t *testing.T) {
	svc := marketingFixture(&fakeSMS{}, &fakeEmail{}, nil)
	if _, err := svc.SendSMS(context.Background(), MarketingSMSRequest{Message: "x"}, 1); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.List(context.Background(), 10, 0); !errors.Is(err, ErrCampaignsUnavailable) {
		t.Fatalf("list without store: %v", err)
	}
}
