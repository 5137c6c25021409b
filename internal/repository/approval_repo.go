package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SolicitudFilter narrows List results. A zero filter returns everything.
type SolicitudFilter struct {
	SolicitanteID *uuid.UUID
	Estado        string
	Tipo          string
	ProyectoID    *uuid.UUID
	Codigo        string // substring match on the human code
	Limit         int    // 0 means no limit
	Offset        int
}

type ApprovalRepository interface {
	Create(ctx context.Context, solicitud *model.ApprovalRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error)
	List(ctx context.Context, filter SolicitudFilter) ([]model.ApprovalRequest, error)
	// MarkDecided transitions a PENDIENTE solicitud to a terminal state with
	// its decision fields in one compare-and-set statement. Returns false when
	// the solicitud was no longer pending (a concurrent caller won the race).
	MarkDecided(ctx context.Context, id uuid.UUID, estado string, decididaPor uuid.UUID, decididaEn time.Time, comentario string) (bool, error)
	// MarkCancelled transitions a PENDIENTE solicitud to CANCELADA. No
	// decision fields are recorded on this path.
	MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error)
	AppendEvent(ctx context.Context, event *model.ApprovalEvent) error
	// FindPendingCambioEstado returns the pending terminal-state solicitud
	// blocking edits on a project, or nil when the project is not blocked.
	FindPendingCambioEstado(ctx context.Context, proyectoID uuid.UUID) (*model.ApprovalRequest, error)
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) Create(ctx context.Context, solicitud *model.ApprovalRequest) error {
	return GetDB(ctx, r.db).Create(solicitud).Error
}

func (r *approvalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	var solicitud model.ApprovalRequest
	if err := GetDB(ctx, r.db).First(&solicitud, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &solicitud, nil
}

func (r *approvalRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	var solicitud model.ApprovalRequest
	err := GetDB(ctx, r.db).
		Preload("Proyecto").
		Preload("Solicitante").
		Preload("DecididaPor").
		Preload("Historial", func(db *gorm.DB) *gorm.DB { return db.Order("en ASC") }).
		First(&solicitud, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &solicitud, nil
}

func (r *approvalRepository) List(ctx context.Context, filter SolicitudFilter) ([]model.ApprovalRequest, error) {
	query := GetDB(ctx, r.db).
		Preload("Proyecto").
		Preload("Solicitante").
		Preload("DecididaPor")

	if filter.SolicitanteID != nil {
		query = query.Where("solicitante_id = ?", *filter.SolicitanteID)
	}
	if filter.Estado != "" {
		query = query.Where("estado = ?", filter.Estado)
	}
	if filter.Tipo != "" {
		query = query.Where("tipo = ?", filter.Tipo)
	}
	if filter.ProyectoID != nil {
		query = query.Where("proyecto_id = ?", *filter.ProyectoID)
	}
	if filter.Codigo != "" {
		query = query.Where("codigo LIKE ?", "%"+filter.Codigo+"%")
	}

	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	var solicitudes []model.ApprovalRequest
	if err := query.Order("created_at DESC").Find(&solicitudes).Error; err != nil {
		return nil, err
	}
	return solicitudes, nil
}

func (r *approvalRepository) MarkDecided(ctx context.Context, id uuid.UUID, estado string, decididaPor uuid.UUID, decididaEn time.Time, comentario string) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.ApprovalRequest{}).
		Where("id = ? AND estado = ?", id, model.SolicitudPendiente).
		Updates(map[string]interface{}{
			"estado":              estado,
			"decidida_por_id":     decididaPor,
			"decidida_en":         decididaEn,
			"comentario_decision": comentario,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *approvalRepository) MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.ApprovalRequest{}).
		Where("id = ? AND estado = ?", id, model.SolicitudPendiente).
		Update("estado", model.SolicitudCancelada)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *approvalRepository) AppendEvent(ctx context.Context, event *model.ApprovalEvent) error {
	return GetDB(ctx, r.db).Create(event).Error
}

func (r *approvalRepository) FindPendingCambioEstado(ctx context.Context, proyectoID uuid.UUID) (*model.ApprovalRequest, error) {
	var solicitudes []model.ApprovalRequest
	err := GetDB(ctx, r.db).
		Where("proyecto_id = ? AND tipo = ? AND estado = ?",
			proyectoID, model.SolicitudCambioEstado, model.SolicitudPendiente).
		Order("created_at ASC").
		Find(&solicitudes).Error
	if err != nil {
		return nil, err
	}
	// The payload union lives in a jsonb column, so the nuevoEstado check
	// happens here rather than in SQL.
	for i := range solicitudes {
		ce := solicitudes[i].Payload.CambioEstado
		if ce != nil && model.EstadoTerminal(ce.NuevoEstado) {
			return &solicitudes[i], nil
		}
	}
	return nil, nil
}
