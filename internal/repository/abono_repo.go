package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AbonoRepository interface {
	Create(ctx context.Context, abono *model.Abono) error
	ListByProyecto(ctx context.Context, proyectoID uuid.UUID) ([]model.Abono, error)
	FindBySolicitud(ctx context.Context, solicitudID uuid.UUID) (*model.Abono, error)
}

type abonoRepository struct {
	db *gorm.DB
}

func NewAbonoRepository(db *gorm.DB) AbonoRepository {
	return &abonoRepository{db: db}
}

func (r *abonoRepository) Create(ctx context.Context, abono *model.Abono) error {
	return GetDB(ctx, r.db).Create(abono).Error
}

func (r *abonoRepository) ListByProyecto(ctx context.Context, proyectoID uuid.UUID) ([]model.Abono, error) {
	var abonos []model.Abono
	err := GetDB(ctx, r.db).
		Preload("SolicitadoPor").
		Preload("AprobadoPor").
		Where("proyecto_id = ?", proyectoID).
		Order("aprobado_en DESC").
		Find(&abonos).Error
	return abonos, err
}

func (r *abonoRepository) FindBySolicitud(ctx context.Context, solicitudID uuid.UUID) (*model.Abono, error) {
	var abono model.Abono
	if err := GetDB(ctx, r.db).First(&abono, "solicitud_id = ?", solicitudID).Error; err != nil {
		return nil, err
	}
	return &abono, nil
}
