package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	Create(ctx context.Context, proyecto *model.Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	FindByIDWithParticipantes(ctx context.Context, id uuid.UUID) (*model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
	ListByParticipante(ctx context.Context, usuarioID uuid.UUID) ([]model.Project, error)
	// IncrementSaldoAbonado applies a relative increment so concurrent abonos
	// on the same project all land. saldo_pendiente is recomputed in the same
	// UPDATE; the project rev is untouched (increments are commutative).
	IncrementSaldoAbonado(ctx context.Context, id uuid.UUID, monto decimal.Decimal) error
	// SetEstado atomically sets the lifecycle state. Callers are responsible
	// for having validated the transition inside the surrounding transaction.
	SetEstado(ctx context.Context, id uuid.UUID, estado string) error
	// UpdateFields applies a direct field edit and bumps rev by one.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	ReplaceParticipantes(ctx context.Context, id uuid.UUID, participantes []model.Participante) error
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, proyecto *model.Project) error {
	return GetDB(ctx, r.db).Create(proyecto).Error
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var proyecto model.Project
	if err := GetDB(ctx, r.db).First(&proyecto, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &proyecto, nil
}

func (r *projectRepository) FindByIDWithParticipantes(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var proyecto model.Project
	err := GetDB(ctx, r.db).
		Preload("Participantes").
		Preload("Participantes.Usuario").
		First(&proyecto, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &proyecto, nil
}

func (r *projectRepository) List(ctx context.Context) ([]model.Project, error) {
	var proyectos []model.Project
	err := GetDB(ctx, r.db).
		Preload("Participantes").
		Preload("Participantes.Usuario").
		Order("fecha_creacion DESC").
		Find(&proyectos).Error
	return proyectos, err
}

func (r *projectRepository) ListByParticipante(ctx context.Context, usuarioID uuid.UUID) ([]model.Project, error) {
	var proyectos []model.Project
	err := GetDB(ctx, r.db).
		Preload("Participantes").
		Preload("Participantes.Usuario").
		Where("id IN (?)", GetDB(ctx, r.db).
			Model(&model.Participante{}).
			Select("proyecto_id").
			Where("usuario_id = ?", usuarioID)).
		Order("fecha_creacion DESC").
		Find(&proyectos).Error
	return proyectos, err
}

func (r *projectRepository) IncrementSaldoAbonado(ctx context.Context, id uuid.UUID, monto decimal.Decimal) error {
	res := GetDB(ctx, r.db).Model(&model.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"saldo_abonado":   gorm.Expr("saldo_abonado + ?", monto),
			"saldo_pendiente": gorm.Expr("presupuesto_aprox - (saldo_abonado + ?)", monto),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *projectRepository) SetEstado(ctx context.Context, id uuid.UUID, estado string) error {
	res := GetDB(ctx, r.db).Model(&model.Project{}).
		Where("id = ?", id).
		Update("estado", estado)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *projectRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["rev"] = gorm.Expr("rev + 1")
	if _, ok := fields["presupuesto_aprox"]; ok {
		updates["saldo_pendiente"] = gorm.Expr("? - saldo_abonado", fields["presupuesto_aprox"])
	}
	res := GetDB(ctx, r.db).Model(&model.Project{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *projectRepository) ReplaceParticipantes(ctx context.Context, id uuid.UUID, participantes []model.Participante) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("proyecto_id = ?", id).Delete(&model.Participante{}).Error; err != nil {
		return err
	}
	for i := range participantes {
		participantes[i].ProyectoID = id
	}
	if len(participantes) == 0 {
		return nil
	}
	return db.Create(&participantes).Error
}
