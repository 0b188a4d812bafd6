package service

import (
	"context"
	"encoding/json"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// PushSender delivers a mobile push notification to one device token.
type PushSender interface {
	SendToDevice(ctx context.Context, token, notifType, title, body string, data map[string]interface{}) error
}

// FCMService sends push notifications to the employee mobile app via Firebase Cloud Messaging.
type FCMService struct {
	client *messaging.Client
	log    *logrus.Logger
}

// NewFCMService returns nil when Firebase is not configured or cannot start.
func NewFCMService(serviceAccountPath string, log *logrus.Logger) *FCMService {
	if serviceAccountPath == "" {
		return nil
	}
	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		log.WithField("provider", "fcm").Errorf("init firebase app: %v", err)
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.WithField("provider", "fcm").Errorf("messaging client: %v", err)
		return nil
	}
	return &FCMService{client: client, log: log}
}

// SendToDevice converts data values to strings, as FCM requires, and sends one message.
func (s *FCMService) SendToDevice(ctx context.Context, token, notifType, title, body string, data map[string]interface{}) error {
	if s == nil || token == "" {
		return nil
	}
	payload := map[string]string{"type": notifType}
	for k, v := range data {
		switch val := v.(type) {
		case string:
			payload[k] = val
		case uint, int, int64:
			payload[k] = fmt.Sprintf("%d", val)
		default:
			b, _ := json.Marshal(v)
			payload[k] = string(b)
		}
	}
	msg := &messaging.Message{
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         payload,
		Token:        token,
		Android: &messaging.AndroidConfig{
			Priority:     "high",
			Notification: &messaging.AndroidNotification{Sound: "default"},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{Aps: &messaging.Aps{Sound: "default"}},
		},
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		s.log.WithFields(logrus.Fields{"provider": "fcm", "type": notifType}).Warnf("send: %v", err)
		return err
	}
	return nil
}
