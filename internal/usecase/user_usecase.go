package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/iho/bankledger/internal/domain"
)

// DefaultResetTokenTTL is how long a password reset token stays valid.
const DefaultResetTokenTTL = time.Hour

// ResetNotifier delivers password reset tokens to their owner.
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, user *domain.User, token string, expiresAt time.Time) error
}

// LogResetNotifier writes reset tokens to the log. Meant for development.
type LogResetNotifier struct {
	Logger zerolog.Logger
}

// NotifyPasswordReset logs the token at debug level.
func (n LogResetNotifier) NotifyPasswordReset(_ context.Context, user *domain.User, token string, expiresAt time.Time) error {
	n.Logger.Debug().
		Str("user_id", user.ID).
		Str("reset_token", token).
		Time("expires_at", expiresAt).
		Msg("password reset token issued")
	return nil
}

// UserUseCase handles signup, login and user administration.
type UserUseCase struct {
	userRepo     UserRepository
	idGen        IDGenerator
	notifier     ResetNotifier
	passwordCost int
	resetTTL     time.Duration
	logger       zerolog.Logger
	now          func() time.Time
}

// UserOption configures optional UserUseCase collaborators.
type UserOption func(*UserUseCase)

// WithPasswordCost sets the bcrypt cost.
func WithPasswordCost(cost int) UserOption {
	return func(uc *UserUseCase) { uc.passwordCost = cost }
}

// WithResetNotifier sets how reset tokens are delivered.
func WithResetNotifier(n ResetNotifier) UserOption {
	return func(uc *UserUseCase) {
		if n != nil {
			uc.notifier = n
		}
	}
}

// WithResetTokenTTL sets the reset token lifetime.
func WithResetTokenTTL(ttl time.Duration) UserOption {
	return func(uc *UserUseCase) {
		if ttl > 0 {
			uc.resetTTL = ttl
		}
	}
}

// WithUserLogger sets the user logger.
func WithUserLogger(l zerolog.Logger) UserOption {
	return func(uc *UserUseCase) { uc.logger = l }
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(userRepo UserRepository, idGen IDGenerator, opts ...UserOption) *UserUseCase {
	uc := &UserUseCase{
		userRepo:     userRepo,
		idGen:        idGen,
		passwordCost: bcrypt.DefaultCost,
		resetTTL:     DefaultResetTokenTTL,
		logger:       zerolog.Nop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	if uc.notifier == nil {
		uc.notifier = LogResetNotifier{Logger: uc.logger}
	}
	return uc
}

// CreateUserInput represents input for creating a user.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// Signup registers a viewer.
func (uc *UserUseCase) Signup(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	input.Role = string(domain.RoleViewer)
	return uc.CreateUser(ctx, input)
}

// CreateUser registers a user with the given role, viewer when empty.
func (uc *UserUseCase) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if err := domain.ValidateUserFields(domain.UserFields{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	}); err != nil {
		return nil, err
	}

	role := domain.RoleViewer
	if strings.TrimSpace(input.Role) != "" {
		r, err := domain.ParseRole(input.Role)
		if err != nil {
			return nil, err
		}
		role = r
	}

	email := domain.NormalizeEmail(input.Email)
	if _, err := uc.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := uc.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	user := &domain.User{
		ID:           uc.idGen.Generate(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	uc.logger.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("user created")
	return user.Sanitized(), nil
}

// EnsureAdmin creates an admin with the given credentials unless the email
// is already registered.
func (uc *UserUseCase) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	existing, err := uc.userRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err == nil {
		return existing.Sanitized(), nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	return uc.CreateUser(ctx, CreateUserInput{
		Email:    email,
		Name:     "Administrator",
		Password: password,
		Role:     string(domain.RoleAdmin),
	})
}

// AuthenticateInput represents login credentials.
type AuthenticateInput struct {
	Email    string
	Password string
}

// Authenticate checks credentials. Unknown emails and wrong passwords both
// yield domain.ErrInvalidCredentials.
func (uc *UserUseCase) Authenticate(ctx context.Context, input AuthenticateInput) (*domain.User, error) {
	user, err := uc.userRepo.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.Active {
		return nil, domain.ErrUserInactive
	}

	return user.Sanitized(), nil
}

// ForgotPassword issues a reset token for email and hands it to the
// notifier. Unknown or inactive emails succeed silently.
func (uc *UserUseCase) ForgotPassword(ctx context.Context, email string) error {
	user, err := uc.userRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if !user.Active {
		return nil
	}

	token := uuid.NewString()
	now := uc.now().UTC()
	expires := now.Add(uc.resetTTL)

	user.ResetTokenHash = hashResetToken(token)
	user.ResetExpiresAt = &expires
	user.UpdatedAt = now

	if _, err := uc.userRepo.Update(ctx, user); err != nil {
		return err
	}

	return uc.notifier.NotifyPasswordReset(ctx, user.Sanitized(), token, expires)
}

// ResetPasswordInput represents a password reset.
type ResetPasswordInput struct {
	Token    string
	Password string
}

// ResetPassword replaces the password of the user holding token. A token
// works once.
func (uc *UserUseCase) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if strings.TrimSpace(input.Token) == "" {
		return domain.ErrInvalidResetToken
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return err
	}

	user, err := uc.userRepo.GetByResetTokenHash(ctx, hashResetToken(input.Token))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidResetToken
		}
		return err
	}

	now := uc.now().UTC()
	if user.ResetExpiresAt == nil || !now.Before(*user.ResetExpiresAt) {
		return domain.ErrInvalidResetToken
	}

	hash, err := uc.hashPassword(input.Password)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.ResetTokenHash = ""
	user.ResetExpiresAt = nil
	user.UpdatedAt = now

	if _, err := uc.userRepo.Update(ctx, user); err != nil {
		return err
	}

	uc.logger.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}

// GetUser retrieves a user by ID.
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// UserPage is one page of users with the overall total.
type UserPage struct {
	Users       []*domain.User
	Total       int
	CurrentPage int
	PageSize    int
}

// ListUsers lists users oldest first. page is 1-based.
func (uc *UserUseCase) ListUsers(ctx context.Context, page, pageSize int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	limit, _ := domain.ValidatePagination(pageSize, 0)

	total, err := uc.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	users, err := uc.userRepo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	for i, u := range users {
		users[i] = u.Sanitized()
	}

	return &UserPage{Users: users, Total: total, CurrentPage: page, PageSize: limit}, nil
}

// UpdateUserInput represents an admin change to a user. Nil fields are
// left untouched.
type UpdateUserInput struct {
	ID     string
	Name   *string
	Role   *string
	Active *bool
}

// UpdateUser changes the name, role or active flag of a user.
func (uc *UserUseCase) UpdateUser(ctx context.Context, input UpdateUserInput) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	var fields []domain.FieldError
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if len(name) < 3 || len(name) > 100 {
			fields = append(fields, domain.FieldError{Field: "name", Message: "must be between 3 and 100 characters"})
		}
		user.Name = name
	}
	if input.Role != nil {
		role, err := domain.ParseRole(*input.Role)
		if err != nil {
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				return nil, err
			}
			fields = append(fields, verr.Fields...)
		}
		user.Role = role
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}
	if input.Active != nil {
		user.Active = *input.Active
	}

	user.UpdatedAt = uc.now().UTC()

	updated, err := uc.userRepo.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	uc.logger.Info().Str("user_id", updated.ID).Str("role", string(updated.Role)).Bool("active", updated.Active).Msg("user updated")
	return updated.Sanitized(), nil
}

// DeleteUser removes a user. Accounts they owned keep existing without an
// owner.
func (uc *UserUseCase) DeleteUser(ctx context.Context, id string) error {
	if err := uc.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	uc.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

func (uc *UserUseCase) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}
