// Package services contains server-side business logic. This file implements
// AuthService, which handles registration, login, refresh-token rotation and
// logout on top of the token codec, the password hasher and the refresh
// token ledger.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/myplanner/internal/common"
	"github.com/dmitrijs2005/myplanner/internal/dbx"
	"github.com/dmitrijs2005/myplanner/internal/logging"
	"github.com/dmitrijs2005/myplanner/internal/server/auth"
	"github.com/dmitrijs2005/myplanner/internal/server/credentials"
	"github.com/dmitrijs2005/myplanner/internal/server/ledger"
	"github.com/dmitrijs2005/myplanner/internal/server/models"
	"github.com/dmitrijs2005/myplanner/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SettingsInitializer creates the default per-principal state after
// registration.
type SettingsInitializer interface {
	InitDefaults(ctx context.Context, subject string) error
}

type AuthService struct {
	tx       dbx.TxRunner
	stores   repomanager.AuthStores
	codec    *auth.Codec
	hasher   *credentials.Hasher
	ledger   *ledger.Ledger
	settings SettingsInitializer
	logger   logging.Logger
}

// NewAuthService wires the flow. settings may be nil.
func NewAuthService(tx dbx.TxRunner, stores repomanager.AuthStores, codec *auth.Codec, hasher *credentials.Hasher,
	l *ledger.Ledger, settings SettingsInitializer, logger logging.Logger) *AuthService {
	return &AuthService{
		tx:       tx,
		stores:   stores,
		codec:    codec,
		hasher:   hasher,
		ledger:   l,
		settings: settings,
		logger:   logger.With("module", "auth_service"),
	}
}

// Register creates a principal and returns its id.
func (s *AuthService) Register(ctx context.Context, subject, password string) (string, error) {
	if subject == "" {
		return "", s.fail(ctx, "register", common.ErrInvalidCredentials)
	}
	if err := credentials.ValidatePasswordStrength(password); err != nil {
		return "", s.fail(ctx, "register", err)
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return "", s.fail(ctx, "register", err)
	}

	p, err := s.stores.Users(s.tx.Conn()).Create(ctx, &models.Principal{Subject: subject, PasswordHash: hash})
	if err != nil {
		return "", s.fail(ctx, "register", err)
	}

	if s.settings != nil {
		if err := s.settings.InitDefaults(ctx, subject); err != nil {
			s.logger.Warn(ctx, "default settings not created", "subject", subject, "error", err)
		}
	}

	s.logger.Info(ctx, "principal registered", "principal_id", p.ID)
	return p.ID, nil
}

// Login checks the credentials and issues a token pair. Unknown subjects
// and wrong passwords fail the same way and take the same time.
func (s *AuthService) Login(ctx context.Context, subject, password string) (*TokenPair, error) {
	p, err := s.stores.Users(s.tx.Conn()).GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.EqualizeTiming(password)
			return nil, s.fail(ctx, "login", common.ErrInvalidCredentials)
		}
		return nil, s.fail(ctx, "login", err)
	}

	if !s.hasher.VerifyPassword(password, p.PasswordHash) {
		return nil, s.fail(ctx, "login", common.ErrInvalidCredentials)
	}

	pair, err := s.issue(p.Subject)
	if err != nil {
		return nil, s.fail(ctx, "login", err)
	}

	if _, err := s.ledger.CreateToken(ctx, pair.RefreshToken, p.ID, time.Time{}); err != nil {
		return nil, s.fail(ctx, "login", err)
	}

	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. The old token is
// retired in the same step; presenting it again fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	valid, err := s.ledger.IsTokenValid(ctx, refreshToken)
	if err != nil {
		return nil, s.fail(ctx, "refresh", err)
	}
	if !valid {
		return nil, s.fail(ctx, "refresh", common.ErrInvalidOrRevokedToken)
	}

	claims, err := s.codec.VerifyToken(refreshToken, auth.TokenRefresh)
	if err != nil {
		s.logger.Debug(ctx, "refresh token rejected by codec", "kind", common.KindOf(err).String())
		return nil, s.fail(ctx, "refresh", common.ErrInvalidToken)
	}

	p, err := s.stores.Users(s.tx.Conn()).GetBySubject(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, s.fail(ctx, "refresh", common.ErrPrincipalNotFound)
		}
		return nil, s.fail(ctx, "refresh", err)
	}

	pair, err := s.issue(p.Subject)
	if err != nil {
		return nil, s.fail(ctx, "refresh", err)
	}

	if _, err := s.ledger.RotateToken(ctx, refreshToken, pair.RefreshToken, p.ID); err != nil {
		return nil, s.fail(ctx, "refresh", err)
	}

	return pair, nil
}

// Logout revokes one refresh token. Unknown and already revoked tokens
// are not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if _, err := s.ledger.RevokeToken(ctx, refreshToken); err != nil {
		return s.fail(ctx, "logout", err)
	}
	return nil
}

// LogoutAll revokes every active refresh token of subject and returns how
// many were revoked.
func (s *AuthService) LogoutAll(ctx context.Context, subject string) (int64, error) {
	p, err := s.stores.Users(s.tx.Conn()).GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, nil
		}
		return 0, s.fail(ctx, "logout_all", err)
	}

	n, err := s.ledger.RevokeAllOf(ctx, p.ID)
	if err != nil {
		return 0, s.fail(ctx, "logout_all", err)
	}
	s.logger.Info(ctx, "sessions revoked", "principal_id", p.ID, "count", n)
	return n, nil
}

// CurrentSubject resolves the subject of an access token.
func (s *AuthService) CurrentSubject(ctx context.Context, accessToken string) (string, error) {
	claims, err := s.codec.VerifyToken(accessToken, auth.TokenAccess)
	if err != nil {
		return "", s.fail(ctx, "current_subject", err)
	}
	return claims.Subject, nil
}

// AccessTTLSeconds is reported to clients as expires_in.
func (s *AuthService) AccessTTLSeconds() int64 {
	return int64(s.codec.AccessTTL().Seconds())
}

// RefreshTTLSeconds is the max-age of the refresh cookie.
func (s *AuthService) RefreshTTLSeconds() int {
	return int(s.codec.RefreshTTL().Seconds())
}

func (s *AuthService) issue(subject string) (*TokenPair, error) {
	access, err := s.codec.CreateAccessToken(subject, 0)
	if err != nil {
		return nil, fmt.Errorf("error creating access token: %w", err)
	}
	refresh, err := s.codec.CreateRefreshToken(subject)
	if err != nil {
		return nil, fmt.Errorf("error creating refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// fail logs err with its kind and hands it back. Expected outcomes go to
// Warn, anything outside the taxonomy to Error.
func (s *AuthService) fail(ctx context.Context, op string, err error) error {
	kind := common.KindOf(err)
	if kind == common.KindInternal {
		s.logger.Error(ctx, "authentication error", "op", op, "kind", kind.String(), "error", err)
		return err
	}
	s.logger.Warn(ctx, "authentication failed", "op", op, "kind", kind.String())
	return err
}
