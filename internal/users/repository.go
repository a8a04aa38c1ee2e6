package users

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	TouchLastLoggedIn(ctx context.Context, userID int64) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) TouchLastLoggedIn(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Model(&User{}).
		Where("user_id = ?", userID).
		Update("last_logged_in", time.Now().UTC()).Error
}
