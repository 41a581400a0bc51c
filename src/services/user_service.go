package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/khabaroff/eventdesk/src/logging"
	"github.com/khabaroff/eventdesk/src/metrics"
	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/repositories"
	"github.com/rs/zerolog"
)

// UserInput is the submitted user form. Password fields are never echoed back.
type UserInput struct {
	Name                 string `form:"name" json:"name" validate:"required,max=255"`
	Email                string `form:"email" json:"email" validate:"required,email,max=255"`
	Password             string `form:"password" json:"password"`
	PasswordConfirmation string `form:"password_confirmation" json:"password_confirmation"`
	IsAdmin              string `form:"is_admin" json:"-" validate:"flag"`
}

func (in *UserInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.IsAdmin = strings.TrimSpace(in.IsAdmin)
}

func (in UserInput) old() map[string]string {
	return map[string]string{
		"name":     in.Name,
		"email":    in.Email,
		"is_admin": in.IsAdmin,
	}
}

// Tracker receives product analytics events
type Tracker interface {
	TrackEvent(ctx context.Context, distinctID, event string, properties map[string]interface{})
}

// RequireAdmin allows only authenticated administrators
func RequireAdmin(caller *models.User) error {
	if caller == nil || !caller.IsAdmin {
		return ErrForbidden
	}
	return nil
}

func distinctID(userID int64) string {
	return "user_" + strconv.FormatInt(userID, 10)
}

// UserService implements the administrative user workflow and self-service account changes
type UserService struct {
	users     repositories.UserRepository
	hasher    *PasswordHasher
	validator *Validator
	tracker   Tracker
	metrics   metrics.Recorder
	logger    zerolog.Logger
}

// NewUserService creates a user service
func NewUserService(users repositories.UserRepository, hasher *PasswordHasher, validator *Validator) *UserService {
	return &UserService{
		users:     users,
		hasher:    hasher,
		validator: validator,
		tracker:   &AnalyticsService{},
		metrics:   metrics.Nop{},
		logger:    logging.NewLogger("users"),
	}
}

// WithTracker sets the analytics tracker
func (s *UserService) WithTracker(t Tracker) *UserService {
	s.tracker = t
	return s
}

// WithMetrics sets the metrics recorder
func (s *UserService) WithMetrics(m metrics.Recorder) *UserService {
	s.metrics = m
	return s
}

func (s *UserService) find(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return user, nil
}

func (s *UserService) observe(operation string, err error) {
	outcome := "success"
	var verr *ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		outcome = "invalid"
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrCannotDeleteSelf):
		outcome = "refused"
	case errors.Is(err, ErrUserNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	s.metrics.RecordUserOperation(operation, outcome)
}

// List returns every account in insertion order. Any authenticated caller may list.
func (s *UserService) List(ctx context.Context, caller *models.User) ([]models.User, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Get returns a single account for editing
func (s *UserService) Get(ctx context.Context, caller *models.User, id int64) (*models.User, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

// Create validates the input and stores a new account
func (s *UserService) Create(ctx context.Context, caller *models.User, in UserInput) (user *models.User, err error) {
	defer func() { s.observe("create", err) }()

	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}

	user, err = s.create(ctx, in, true)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("caller_id", caller.ID).
		Int64("user_id", user.ID).
		Bool("is_admin", user.IsAdmin).
		Msg("User created")
	s.tracker.TrackEvent(ctx, distinctID(caller.ID), "user_created", map[string]interface{}{
		"user_id":  user.ID,
		"is_admin": user.IsAdmin,
	})
	return user, nil
}

// Register creates a non-admin account for a self-registering visitor
func (s *UserService) Register(ctx context.Context, in UserInput) (user *models.User, err error) {
	defer func() { s.observe("register", err) }()

	in.IsAdmin = ""
	user, err = s.create(ctx, in, false)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("User registered")
	s.tracker.TrackEvent(ctx, distinctID(user.ID), "user_registered", nil)
	return user, nil
}

func (s *UserService) create(ctx context.Context, in UserInput, allowAdmin bool) (*models.User, error) {
	in.normalize()
	verr := newValidationError(in.old())

	s.validator.Struct(in, verr)
	if !verr.Has("email") {
		taken, err := s.users.EmailTaken(ctx, in.Email, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			verr.Add("email", msgTaken("email"))
		}
	}
	s.validator.Password(in.Password, in.PasswordConfirmation, true, verr)
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	isAdmin, _ := ParseFlag(in.IsAdmin)
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		IsAdmin:      allowAdmin && isAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			verr.Add("email", msgTaken("email"))
			return nil, verr
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Update rewrites name, email and admin flag; the password hash changes only
// when a new confirmed password is supplied
func (s *UserService) Update(ctx context.Context, caller *models.User, id int64, in UserInput) (user *models.User, err error) {
	defer func() { s.observe("update", err) }()

	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	user, err = s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.apply(ctx, user, in, true); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("caller_id", caller.ID).
		Int64("user_id", user.ID).
		Bool("is_admin", user.IsAdmin).
		Msg("User updated")
	s.tracker.TrackEvent(ctx, distinctID(caller.ID), "user_updated", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, nil
}

// UpdateProfile lets a caller change their own name, email and password.
// The admin flag is never touched.
func (s *UserService) UpdateProfile(ctx context.Context, caller *models.User, in UserInput) (user *models.User, err error) {
	defer func() { s.observe("update_profile", err) }()

	if caller == nil {
		return nil, ErrUnauthenticated
	}
	user, err = s.find(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	in.IsAdmin = ""
	if err := s.apply(ctx, user, in, false); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("Profile updated")
	return user, nil
}

func (s *UserService) apply(ctx context.Context, user *models.User, in UserInput, setAdmin bool) error {
	in.normalize()
	verr := newValidationError(in.old())

	s.validator.Struct(in, verr)
	if !verr.Has("email") {
		taken, err := s.users.EmailTaken(ctx, in.Email, user.ID)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			verr.Add("email", msgTaken("email"))
		}
	}
	s.validator.Password(in.Password, in.PasswordConfirmation, false, verr)
	if err := verr.errOrNil(); err != nil {
		return err
	}

	user.Name = in.Name
	user.Email = in.Email
	if setAdmin {
		user.IsAdmin, _ = ParseFlag(in.IsAdmin)
	}
	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateEmail):
			verr.Add("email", msgTaken("email"))
			return verr
		case errors.Is(err, repositories.ErrNotFound):
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Delete removes an account other than the caller's own
func (s *UserService) Delete(ctx context.Context, caller *models.User, id int64) (err error) {
	defer func() { s.observe("delete", err) }()

	if err := RequireAdmin(caller); err != nil {
		return err
	}
	target, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if target.ID == caller.ID {
		return ErrCannotDeleteSelf
	}

	if err := s.users.Delete(ctx, target.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info().
		Int64("caller_id", caller.ID).
		Int64("user_id", target.ID).
		Msg("User deleted")
	s.tracker.TrackEvent(ctx, distinctID(caller.ID), "user_deleted", map[string]interface{}{
		"user_id": target.ID,
	})
	return nil
}

// EnsureAdmin creates the first administrator when none exists.
// It returns the created user, or nil when nothing was done.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, nil
	}

	hasAdmins, err := s.users.HasAdmins(ctx)
	if err != nil {
		return nil, err
	}
	if hasAdmins {
		return nil, nil
	}

	if name == "" {
		name = "Admin"
	}
	user, err := s.create(ctx, UserInput{
		Name:                 name,
		Email:                email,
		Password:             password,
		PasswordConfirmation: password,
		IsAdmin:              "1",
	}, true)
	if err != nil {
		return nil, fmt.Errorf("failed to seed admin user: %w", err)
	}

	// The seeded admin has no inbox to verify from
	verifiedAt := time.Now()
	if err := s.users.MarkEmailVerified(ctx, user.ID, verifiedAt); err != nil {
		return nil, fmt.Errorf("failed to verify admin email: %w", err)
	}
	user.EmailVerifiedAt = &verifiedAt

	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("Admin user created")
	return user, nil
}
