package memory

import (
	"context"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo usuarios en memoria, indexados por email.
type UserRepo struct {
	access accessFunc
}

func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	return r.access(ctx, func(st *state) error {
		if _, ok := st.users[u.Email]; ok {
			return domain.ErrDuplicate
		}
		st.users[u.Email] = *u
		return nil
	})
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var out *entity.User
	err := r.access(ctx, func(st *state) error {
		if u, ok := st.users[email]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}
