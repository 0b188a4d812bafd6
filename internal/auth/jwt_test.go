package auth

import (
	"testing"
	"time"

	"zalama/config"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "s3cret", AccessExpiry: time.Hour, Issuer: "zalama-admin"}
	tok, err := GenerateAccessToken(cfg, 7, "admin@zalama.gn", "ADMIN")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseAccessToken(cfg, tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 7 || claims.Role != "ADMIN" || claims.Email != "admin@zalama.gn" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "s3cret", AccessExpiry: time.Hour, Issuer: "zalama-admin"}
	other := &config.JWTConfig{AccessSecret: "other", AccessExpiry: time.Hour, Issuer: "zalama-admin"}
	tok, _ := GenerateAccessToken(other, 1, "x", "ADMIN")
	if _, err := ParseAccessToken(cfg, tok); err != ErrInvalidToken {
		t.Errorf("wrong secret accepted: %v", err)
	}

	expired := &config.JWTConfig{AccessSecret: "s3cret", AccessExpiry: -time.Minute, Issuer: "zalama-admin"}
	tok, _ = GenerateAccessToken(expired, 1, "x", "ADMIN")
	if _, err := ParseAccessToken(cfg, tok); err != ErrInvalidToken {
		t.Errorf("expired token accepted: %v", err)
	}

	if _, err := ParseAccessToken(cfg, "garbage"); err != ErrInvalidToken {
		t.Errorf("garbage accepted: %v", err)
	}
}
