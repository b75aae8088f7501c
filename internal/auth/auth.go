// Package auth implements signup/login with bcrypt password hashing and
// HS256 JWT session tokens, plus the HTTP middleware that guards the API.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/enriquecapellan/ai-qualifier-be/internal/apperr"
	"github.com/enriquecapellan/ai-qualifier-be/internal/model"
	"github.com/enriquecapellan/ai-qualifier-be/internal/store"
)

const bcryptCost = 10

// Claims is the JWT payload carried by both access and refresh tokens.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Session is the result of a successful signup or login.
type Session struct {
	User         model.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

// Service issues and verifies credentials.
type Service struct {
	store      store.Store
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService creates an auth Service.
func NewService(st store.Store, secret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		store:      st,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Signup registers a new account and returns a fresh session.
func (s *Service) Signup(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.BadRequest("email and password are required")
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, eris.Wrap(err, "auth: check existing user")
	}
	if existing != nil {
		return nil, apperr.Conflict("user with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, eris.Wrap(err, "auth: hash password")
	}

	user, err := s.store.CreateUser(ctx, email, string(hash), "user")
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.KindConflict, err, "user with this email already exists")
		}
		return nil, eris.Wrap(err, "auth: create user")
	}

	zap.L().Info("user signed up", zap.String("user_id", user.ID))
	return s.newSession(user)
}

// Login verifies credentials and returns a fresh session. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, eris.Wrap(err, "auth: load user")
	}
	if user == nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	return s.newSession(user)
}

// Me returns the account behind a verified token subject.
func (s *Service) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, eris.Wrap(err, "auth: load user")
	}
	if user == nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	return user, nil
}

func (s *Service) newSession(user *model.User) (*Session, error) {
	access, err := s.sign(user, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(user, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &Session{User: *user, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) sign(user *model.User, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", eris.Wrap(err, "auth: sign token")
	}
	return signed, nil
}

// Verify parses and validates a token string, returning its claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, eris.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	return claims, nil
}
