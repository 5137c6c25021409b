package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// FindActiveTitulares returns every active user holding the titular role;
	// they are the recipients of "aprobacion_solicitada" notifications.
	FindActiveTitulares(ctx context.Context) ([]model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindActiveTitulares(ctx context.Context) ([]model.User, error) {
	var users []model.User
	// Roles is a jsonb array; a LIKE over its serialized form keeps the
	// query portable between postgres and the sqlite test driver.
	err := GetDB(ctx, r.db).
		Where("estado = ?", model.UserActivo).
		Where("CAST(roles AS TEXT) LIKE ?", "%\""+model.RoleTitular+"\"%").
		Find(&users).Error
	return users, err
}
