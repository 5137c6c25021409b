package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, notif *model.Notification) error
	ListByUsuario(ctx context.Context, usuarioID uuid.UUID, tipo string, limit int) ([]model.Notification, error)
	CountByUsuarioAndTipo(ctx context.Context, usuarioID uuid.UUID, tipo string) (int64, error)
	// DeleteOne removes a single notification owned by the user. Returns
	// false when it does not exist or belongs to someone else.
	DeleteOne(ctx context.Context, usuarioID, id uuid.UUID) (bool, error)
	// DeleteByUsuario removes all of a user's notifications, optionally
	// restricted to one tipo. Returns the number removed.
	DeleteByUsuario(ctx context.Context, usuarioID uuid.UUID, tipo string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notif *model.Notification) error {
	return GetDB(ctx, r.db).Create(notif).Error
}

func (r *notificationRepository) ListByUsuario(ctx context.Context, usuarioID uuid.UUID, tipo string, limit int) ([]model.Notification, error) {
	query := GetDB(ctx, r.db).Where("usuario_id = ?", usuarioID)
	if tipo != "" {
		query = query.Where("tipo = ?", tipo)
	}
	var notifs []model.Notification
	err := query.Order("fecha_creacion DESC").Limit(limit).Find(&notifs).Error
	return notifs, err
}

func (r *notificationRepository) CountByUsuarioAndTipo(ctx context.Context, usuarioID uuid.UUID, tipo string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("usuario_id = ? AND tipo = ?", usuarioID, tipo).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) DeleteOne(ctx context.Context, usuarioID, id uuid.UUID) (bool, error) {
	res := GetDB(ctx, r.db).
		Where("id = ? AND usuario_id = ?", id, usuarioID).
		Delete(&model.Notification{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *notificationRepository) DeleteByUsuario(ctx context.Context, usuarioID uuid.UUID, tipo string) (int64, error) {
	query := GetDB(ctx, r.db).Where("usuario_id = ?", usuarioID)
	if tipo != "" {
		query = query.Where("tipo = ?", tipo)
	}
	res := query.Delete(&model.Notification{})
	return res.RowsAffected, res.Error
}
