package formtoken

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"
)

const keyInfo = "webformular form token v1"

type claims struct {
	Form string `json:"form"`
	jwtlib.RegisteredClaims
}

// Service issues and verifies single-use anti-forgery tokens scoped to a form.
type Service struct {
	repo Repository
	key  []byte
	ttl  time.Duration
	now  func() time.Time
	log  *zap.Logger
}

func NewService(repo Repository, secret string, ttl time.Duration, log *zap.Logger) (*Service, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, key: key, ttl: ttl, now: time.Now, log: log}, nil
}

// DeriveKey expands the configured secret into a dedicated HMAC key so the
// same secret can also sign operator tokens.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive form token key: %w", err)
	}
	return key, nil
}

// Issue returns a fresh token for formID.
func (s *Service) Issue(formID string) (string, error) {
	if formID == "" {
		return "", ErrEmptyFormID
	}
	now := s.now()
	c := claims{
		Form: formID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(s.key)
}

// Verify reports whether token is valid for formID and spends it. A token
// verifies at most once.
func (s *Service) Verify(ctx context.Context, token, formID string) bool {
	err := s.consume(ctx, token, formID)
	if err == nil {
		return true
	}
	if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenReused) {
		s.log.Debug("form token rejected", zap.String("form", formID), zap.Error(err))
	} else {
		s.log.Error("form token verification failed", zap.String("form", formID), zap.Error(err))
	}
	return false
}

func (s *Service) consume(ctx context.Context, token, formID string) error {
	if token == "" || formID == "" {
		return ErrInvalidToken
	}

	parsed, err := jwtlib.ParseWithClaims(token, &claims{}, func(t *jwtlib.Token) (any, error) {
		return s.key, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || c.Form != formID || c.ID == "" {
		return ErrInvalidToken
	}

	first, err := s.repo.Consume(ctx, &Use{
		JTI:       c.ID,
		FormID:    formID,
		ExpiresAt: c.ExpiresAt.Time,
		UsedAt:    s.now(),
	})
	if err != nil {
		return fmt.Errorf("consume form token: %w", err)
	}
	if !first {
		return ErrTokenReused
	}
	return nil
}

// Cleanup removes spent-token records whose tokens have expired anyway.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}
