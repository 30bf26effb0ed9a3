package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"crowddeck/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService is the seam to the excluded account system: it issues and
// validates presenter tokens and the session-scoped channel tokens that open
// the realtime channel. Anything richer (orgs, roles) lives outside.
type AuthService struct {
	presenterUsername string
	presenterPassword string
	jwtSecret         []byte
}

// NewAuthService creates a new auth service.
func NewAuthService(username, password, secret string) *AuthService {
	return &AuthService{
		presenterUsername: username,
		presenterPassword: password,
		jwtSecret:         []byte(secret),
	}
}

// Login validates presenter credentials and returns a token.
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if username != s.presenterUsername || password != s.presenterPassword {
		return nil, ErrInvalidCredentials
	}

	presenterID := "pr_" + uuid.New().String()[:8]

	claims := &model.PresenterClaims{
		PresenterID: presenterID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(72 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{Token: tokenString, PresenterID: presenterID}, nil
}

// ValidatePresenterToken validates a presenter JWT and returns its claims.
func (s *AuthService) ValidatePresenterToken(tokenString string) (*model.PresenterClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.PresenterClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.PresenterClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateChannelToken creates a session-scoped token for a participant's
// realtime channel.
func (s *AuthService) GenerateChannelToken(sessionID, participantID string) (string, error) {
	claims := &model.ParticipantClaims{
		SessionID:     sessionID,
		ParticipantID: participantID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateChannelToken validates a participant channel JWT.
func (s *AuthService) ValidateChannelToken(tokenString string) (*model.ParticipantClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.ParticipantClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.ParticipantClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
