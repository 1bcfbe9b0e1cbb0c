package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

var ErrUserNotFound = errors.New("user not found")

type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*AdminUser, error) {
	user := new(AdminUser)
	err := r.db.NewSelect().
		Model(user).
		Where("username = ?", username).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *Repository) Create(ctx context.Context, user *AdminUser) error {
	_, err := r.db.NewInsert().Model(user).Exec(ctx)
	return err
}
