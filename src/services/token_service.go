package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/repositories"
)

const (
	tokenIssuer = "eventdesk"

	// ScopeSession marks browser session cookies
	ScopeSession = "session"
	// ScopeAPI marks bearer tokens issued by the JSON API
	ScopeAPI = "api"
)

// Claims are the JWT claims used for sessions and API tokens.
// The subject is the user id; API tokens carry their stored record id as jti.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies session and API tokens
type TokenService struct {
	secret     []byte
	sessionTTL time.Duration
	apiTTL     time.Duration
	tokens     repositories.TokenRepository
	users      repositories.UserRepository
	now        func() time.Time
}

// NewTokenService creates a token service signing with secret
func NewTokenService(secret string, sessionTTL, apiTTL time.Duration, tokens repositories.TokenRepository, users repositories.UserRepository) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		apiTTL:     apiTTL,
		tokens:     tokens,
		users:      users,
		now:        time.Now,
	}
}

func (s *TokenService) sign(userID int64, scope, jti string, expiresAt time.Time) (string, error) {
	now := s.now()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(userID, 10),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) parse(tokenString, scope string) (*Claims, int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, 0, ErrTokenInvalid
	}
	if claims.Scope != scope {
		return nil, 0, ErrTokenInvalid
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, 0, ErrTokenInvalid
	}
	return claims, userID, nil
}

func (s *TokenService) loadUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to load token user: %w", err)
	}
	return user, nil
}

// IssueSession returns a signed session token for user and its expiry
func (s *TokenService) IssueSession(user *models.User) (string, time.Time, error) {
	expiresAt := s.now().Add(s.sessionTTL)
	token, err := s.sign(user.ID, ScopeSession, "", expiresAt)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseSession verifies a session token and loads its user.
// Deleted users invalidate their sessions.
func (s *TokenService) ParseSession(ctx context.Context, tokenString string) (*models.User, error) {
	_, userID, err := s.parse(tokenString, ScopeSession)
	if err != nil {
		return nil, err
	}
	return s.loadUser(ctx, userID)
}

// IssueAPIToken stores a token record for user and returns the signed bearer token
func (s *TokenService) IssueAPIToken(ctx context.Context, user *models.User) (string, *models.APIToken, error) {
	record := &models.APIToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.apiTTL),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return "", nil, fmt.Errorf("failed to store api token: %w", err)
	}

	token, err := s.sign(user.ID, ScopeAPI, record.ID.String(), record.ExpiresAt)
	if err != nil {
		return "", nil, err
	}
	return token, record, nil
}

// AuthenticateAPIToken verifies a bearer token against its stored record
func (s *TokenService) AuthenticateAPIToken(ctx context.Context, tokenString string) (*models.User, *models.APIToken, error) {
	claims, userID, err := s.parse(tokenString, ScopeAPI)
	if err != nil {
		return nil, nil, err
	}
	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, nil, ErrTokenInvalid
	}

	record, err := s.tokens.GetByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, ErrTokenRevoked
		}
		return nil, nil, fmt.Errorf("failed to load api token: %w", err)
	}
	now := s.now()
	if record.UserID != userID || record.IsExpired(now) {
		return nil, nil, ErrTokenRevoked
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.tokens.Touch(ctx, record.ID, now); err != nil {
		return nil, nil, err
	}
	return user, record, nil
}

// Revoke deletes a token record so the bearer token stops working
func (s *TokenService) Revoke(ctx context.Context, tokenID uuid.UUID) error {
	if err := s.tokens.Delete(ctx, tokenID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to revoke api token: %w", err)
	}
	return nil
}

// PurgeExpired removes expired token records
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now())
}
