package memory

import (
	"context"
	"sort"

	"github.com/iho/bankledger/internal/domain"
)

// UserRepository implements usecase.UserRepository. Writes are visible
// immediately; users are not part of ledger transactions.
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create stores a new user. A taken ID or email yields domain.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	s := r.store
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return domain.ErrConflict
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}

	s.users[user.ID] = copyUser(user)
	return nil
}

// GetByID retrieves a user.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s := r.store
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(u), nil
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

// GetByResetTokenHash retrieves the user holding a pending reset token.
func (r *UserRepository) GetByResetTokenHash(ctx context.Context, hash string) (*domain.User, error) {
	if hash == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.find(func(u *domain.User) bool { return u.ResetTokenHash == hash })
}

func (r *UserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	s := r.store
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// Update replaces the mutable fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	s := r.store
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	stored, ok := s.users[user.ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	updated := copyUser(user)
	updated.Email = stored.Email
	updated.CreatedAt = stored.CreatedAt
	s.users[user.ID] = updated
	return copyUser(updated), nil
}

// Delete removes a user and detaches the accounts it owned.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.usersMu.Lock()
	if _, ok := s.users[id]; !ok {
		s.usersMu.Unlock()
		return domain.ErrUserNotFound
	}
	delete(s.users, id)
	s.usersMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	for iban, a := range s.accounts {
		if a.OwnerID != nil && *a.OwnerID == id {
			c := copyAccount(a)
			c.OwnerID = nil
			s.accounts[iban] = c
		}
	}
	return nil
}

// List lists users oldest first.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	s := r.store
	s.usersMu.RLock()
	users := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, copyUser(u))
	}
	s.usersMu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	if offset >= len(users) {
		return []*domain.User{}, nil
	}
	end := offset + limit
	if end > len(users) {
		end = len(users)
	}
	return users[offset:end], nil
}

// Count counts every user.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	s := r.store
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()
	return len(s.users), nil
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	if u.ResetExpiresAt != nil {
		at := *u.ResetExpiresAt
		c.ResetExpiresAt = &at
	}
	return &c
}
