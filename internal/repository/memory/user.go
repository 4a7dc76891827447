package memory

import (
	"context"
	"strings"

	"github.com/patrolops/patrol-backend-go/internal/domain/user"
)

type userRepository struct {
	*Store
}

func NewUserRepository(s *Store) user.UserRepository {
	return &userRepository{Store: s}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	defer r.lock(ctx)()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (r *userRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	defer r.lock(ctx)()

	u, ok := r.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, newUser user.User) (user.User, error) {
	defer r.lock(ctx)()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, newUser.Email) {
			return user.User{}, user.ErrUserEmailExists
		}
	}

	now := r.now()
	newUser.ID = newID()
	newUser.CreatedAt, newUser.UpdatedAt = now, now
	r.users[newUser.ID] = newUser
	return newUser, nil
}
