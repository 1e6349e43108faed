// auth/service.go

// Package auth turns directory binds into console sessions. A login verifies
// the credentials against the active backend, persists a session, and hands
// the caller a signed token that the session middleware resolves on every
// request.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/asinfra/adconsole/errors"
	logger "github.com/asinfra/adconsole/logging"
	"github.com/asinfra/adconsole/model"
	"github.com/asinfra/adconsole/storage"
)

type Service struct {
	sessions SessionStore
	backend  *storage.Active
	ttl      time.Duration
	secret   []byte
}

// NewService wires the session layer. The signing secret has no default; an
// empty one is a configuration error.
func NewService(sessions SessionStore, backend *storage.Active, ttl time.Duration, secret string) (*Service, error) {
	if secret == "" {
		return nil, apperrors.NewInvalidInput("required", "auth.jwtSecret")
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Service{
		sessions: sessions,
		backend:  backend,
		ttl:      ttl,
		secret:   []byte(secret),
	}, nil
}

// Login verifies the credentials with a directory bind and opens a session.
// The returned token is the only artifact the client ever holds; the
// password is not retained in any form.
func (s *Service) Login(ctx context.Context, username, password string) (string, *model.Session, error) {
	if err := s.backend.Store().VerifyCredentials(ctx, username, password); err != nil {
		logger.Warn("Login rejected", zap.String("username", username))
		return "", nil, err
	}

	now := time.Now().UTC()
	session := &model.Session{
		ID:        uuid.NewString(),
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return "", nil, fmt.Errorf("failed to save session: %w", err)
	}

	claims := jwt.StandardClaims{
		Id:        session.ID,
		Subject:   username,
		IssuedAt:  now.Unix(),
		ExpiresAt: session.ExpiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	logger.Info("Session opened",
		zap.String("username", username),
		zap.String("sessionID", session.ID))
	return token, session, nil
}

// Resolve validates a token and returns the live session behind it.
func (s *Service) Resolve(ctx context.Context, tokenString string) (*model.Session, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.ErrInvalidCredentials
	}

	session, err := s.sessions.Get(ctx, claims.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, apperrors.ErrSessionNotFound
	}
	if session.Expired(time.Now().UTC()) {
		s.sessions.Delete(ctx, session.ID)
		return nil, apperrors.ErrSessionNotFound
	}
	return session, nil
}

// Logout closes the session behind a token. Logging out twice surfaces the
// session-not-found sentinel from the second call.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	session, err := s.Resolve(ctx, tokenString)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	logger.Info("Session closed",
		zap.String("username", session.Username),
		zap.String("sessionID", session.ID))
	return nil
}
