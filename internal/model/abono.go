package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Abono is the payment ledger row written as the side effect of an approved
// ABONO solicitud. Append-only: never updated or deleted. The unique index on
// SolicitudID guarantees at most one abono per solicitud even under retries.
type Abono struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProyectoID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"proyecto_id"`
	Proyecto     *Project        `gorm:"foreignKey:ProyectoID" json:"proyecto,omitempty"`
	Monto        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"monto"`
	Metodo       string          `gorm:"type:varchar(100)" json:"metodo"`
	Nota         string          `gorm:"type:text" json:"nota"`
	EvidenciaURL string          `gorm:"type:text" json:"evidencia_url"`

	SolicitadoPorID uuid.UUID `gorm:"type:uuid;not null" json:"solicitado_por_id"`
	SolicitadoPor   *User     `gorm:"foreignKey:SolicitadoPorID" json:"solicitado_por,omitempty"`
	AprobadoPorID   uuid.UUID `gorm:"type:uuid;not null" json:"aprobado_por_id"`
	AprobadoPor     *User     `gorm:"foreignKey:AprobadoPorID" json:"aprobado_por,omitempty"`

	SolicitadoEn time.Time `gorm:"not null" json:"solicitado_en"`
	AprobadoEn   time.Time `gorm:"not null" json:"aprobado_en"`

	SolicitudID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"solicitud_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (a *Abono) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
