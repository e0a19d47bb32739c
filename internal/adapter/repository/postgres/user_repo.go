package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/postgres/generated"
)

// UserRepository implements usecase.UserRepository.
type UserRepository struct {
	queries *generated.Queries
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return newUserRepository(pool)
}

func newUserRepository(db generated.DBTX) *UserRepository {
	return &UserRepository{queries: generated.New(db)}
}

// Create inserts a new user. A taken email yields domain.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	err := mapError(r.queries.CreateUser(ctx, generated.CreateUserParams{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		Active:       user.Active,
		CreatedAt:    timeToPgTimestamptz(user.CreatedAt),
		UpdatedAt:    timeToPgTimestamptz(user.UpdatedAt),
	}))
	if errors.Is(err, domain.ErrConflict) {
		return domain.ErrEmailTaken
	}
	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row, err := r.queries.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return rowToUser(row), nil
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return rowToUser(row), nil
}

// GetByResetTokenHash retrieves the user holding a pending reset token.
func (r *UserRepository) GetByResetTokenHash(ctx context.Context, hash string) (*domain.User, error) {
	if hash == "" {
		return nil, domain.ErrUserNotFound
	}
	row, err := r.queries.GetUserByResetTokenHash(ctx, pgtype.Text{String: hash, Valid: true})
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return rowToUser(row), nil
}

// Update stores the mutable fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	row, err := r.queries.UpdateUser(ctx, generated.UpdateUserParams{
		ID:             user.ID,
		Name:           user.Name,
		PasswordHash:   user.PasswordHash,
		Role:           string(user.Role),
		Active:         user.Active,
		ResetTokenHash: textFilter(user.ResetTokenHash),
		ResetExpiresAt: optionalTime(user.ResetExpiresAt),
		UpdatedAt:      timeToPgTimestamptz(user.UpdatedAt),
	})
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return rowToUser(row), nil
}

// Delete removes a user. Owned accounts lose their owner.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	affected, err := r.queries.DeleteUser(ctx, id)
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// List lists users oldest first.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	rows, err := r.queries.ListUsers(ctx, generated.ListUsersParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	users := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, rowToUser(row))
	}
	return users, nil
}

// Count counts every user.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	count, err := r.queries.CountUsers(ctx)
	if err != nil {
		return 0, mapError(err)
	}
	return int(count), nil
}

func rowToUser(row generated.User) *domain.User {
	return &domain.User{
		ID:             row.ID,
		Email:          row.Email,
		Name:           row.Name,
		PasswordHash:   row.PasswordHash,
		Role:           domain.Role(row.Role),
		Active:         row.Active,
		ResetTokenHash: row.ResetTokenHash.String,
		ResetExpiresAt: optionalTimeFromPg(row.ResetExpiresAt),
		CreatedAt:      row.CreatedAt.Time.UTC(),
		UpdatedAt:      row.UpdatedAt.Time.UTC(),
	}
}
