package auth

import (
	"errors"
	"strconv"
	"time"

	"zalama/config"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims of a dashboard or mobile session. The subject repeats the user id.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateAccessToken(cfg *config.JWTConfig, userID uint, email, role string) (string, error) {
	now := time.Now()
	c := &Claims{UserID: userID, Email: email, Role: role}
	c.Subject = strconv.FormatUint(uint64(userID), 10)
	c.Issuer = cfg.Issuer
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(cfg.AccessExpiry))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(cfg.AccessSecret))
}

// ParseAccessToken accepts HS256 tokens of this issuer carrying an expiry.
func ParseAccessToken(cfg *config.JWTConfig, raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c,
		func(*jwt.Token) (interface{}, error) { return []byte(cfg.AccessSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || c.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return &c, nil
}
