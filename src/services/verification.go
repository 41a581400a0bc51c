package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/repositories"
)

// URLSigner signs a path together with an expiry timestamp
type URLSigner struct {
	key []byte
}

// NewURLSigner creates a signer using key
func NewURLSigner(key string) URLSigner {
	return URLSigner{key: []byte(key)}
}

func (s URLSigner) mac(path string, expires int64) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(path + "?expires=" + strconv.FormatInt(expires, 10)))
	return h.Sum(nil)
}

// Sign returns the hex signature of path valid until expires
func (s URLSigner) Sign(path string, expires time.Time) string {
	return hex.EncodeToString(s.mac(path, expires.Unix()))
}

// Valid reports whether signature matches path and expires is not in the past
func (s URLSigner) Valid(path, expires, signature string, now time.Time) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	if !hmac.Equal(sig, s.mac(path, exp)) {
		return false
	}
	return now.Unix() <= exp
}

// EmailHash is the hash embedded in verification links
func EmailHash(email string) string {
	sum := sha1.Sum([]byte(email))
	return hex.EncodeToString(sum[:])
}

// VerificationService issues and checks signed email verification links
type VerificationService struct {
	users  repositories.UserRepository
	signer URLSigner
	mailer Mailer
	appURL string
	ttl    time.Duration
	now    func() time.Time
}

// NewVerificationService creates a verification service
func NewVerificationService(users repositories.UserRepository, signer URLSigner, mailer Mailer, appURL string, ttl time.Duration) *VerificationService {
	return &VerificationService{
		users:  users,
		signer: signer,
		mailer: mailer,
		appURL: strings.TrimRight(appURL, "/"),
		ttl:    ttl,
		now:    time.Now,
	}
}

func verifyPath(rawID, hash string) string {
	return "/api/email/verify/" + rawID + "/" + hash
}

// URL returns a signed verification link for user
func (s *VerificationService) URL(user *models.User) string {
	path := verifyPath(strconv.FormatInt(user.ID, 10), EmailHash(user.Email))
	expires := s.now().Add(s.ttl)

	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires.Unix(), 10))
	q.Set("signature", s.signer.Sign(path, expires))
	return s.appURL + path + "?" + q.Encode()
}

// Send emails a fresh verification link to user
func (s *VerificationService) Send(ctx context.Context, user *models.User) error {
	if err := s.mailer.SendVerificationEmail(ctx, user.Email, user.Name, s.URL(user), int(s.ttl.Minutes())); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// Verify checks a verification link and marks the email verified.
// It reports whether the email had already been verified.
func (s *VerificationService) Verify(ctx context.Context, rawID, hash, expires, signature string) (bool, error) {
	if !s.signer.Valid(verifyPath(rawID, hash), expires, signature, s.now()) {
		return false, ErrInvalidSignature
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return false, ErrUserNotFound
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("failed to load user: %w", err)
	}

	if !hmac.Equal([]byte(hash), []byte(EmailHash(user.Email))) {
		return false, ErrInvalidVerificationLink
	}
	if user.HasVerifiedEmail() {
		return true, nil
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID, s.now()); err != nil {
		return false, fmt.Errorf("failed to mark email verified: %w", err)
	}
	return false, nil
}
