package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	pkgerrors "github.com/mkravch/kinofav/pkg/errors"
)

const TokenTTL = 30 * time.Minute

// Claims is the resolved identity carried by a bearer token.
type Claims struct {
	Login  string
	UserID int64
}

// TokenService issues and validates HS256 bearer tokens. The secret is
// loaded once at startup and never changes afterwards.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: TokenTTL}
}

func (s *TokenService) Issue(login string, userID int64) (string, error) {
	jti, err := randomTokenID()
	if err != nil {
		return "", fmt.Errorf("failed to generate token id: %w", err)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     login,
		"user_id": userID,
		"exp":     time.Now().Add(s.ttl).Unix(),
		"jti":     jti,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) Validate(tokenStr string) (Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, pkgerrors.ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, pkgerrors.ErrInvalidToken
	}
	login, ok := mapClaims["sub"].(string)
	if !ok || login == "" {
		return Claims{}, pkgerrors.ErrInvalidToken
	}
	userID, ok := mapClaims["user_id"].(float64)
	if !ok {
		return Claims{}, pkgerrors.ErrInvalidToken
	}

	return Claims{Login: login, UserID: int64(userID)}, nil
}

// randomTokenID mints the jti claim, a 32-byte url-safe random string.
func randomTokenID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
