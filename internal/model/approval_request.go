package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Solicitud tipo constants
const (
	SolicitudAbono        = "ABONO"
	SolicitudCambioEstado = "CAMBIO_ESTADO"
)

// Solicitud estado constants. PENDIENTE is the only non-terminal state;
// CONFLICTO is reached when a CAMBIO_ESTADO approval detects that the project
// was edited after the solicitud was filed.
const (
	SolicitudPendiente = "PENDIENTE"
	SolicitudAprobada  = "APROBADA"
	SolicitudRechazada = "RECHAZADA"
	SolicitudCancelada = "CANCELADA"
	SolicitudConflicto = "CONFLICTO"
)

// Historial accion constants
const (
	AccionCreada    = "CREADA"
	AccionAprobada  = "APROBADA"
	AccionRechazada = "RECHAZADA"
	AccionCancelada = "CANCELADA"
	AccionConflicto = "CONFLICTO"
)

// MarcaAutoAprobado prefixes the decision comment when a titular approves
// their own solicitud. Audit/display only.
const MarcaAutoAprobado = "[AUTOAPROBADO]"

// AbonoPayload carries an ABONO solicitud's data.
type AbonoPayload struct {
	Monto        decimal.Decimal `json:"monto"`
	Metodo       string          `json:"metodo"`
	Nota         string          `json:"nota"`
	EvidenciaURL string          `json:"evidenciaUrl"`
}

// CambioEstadoPayload carries a CAMBIO_ESTADO solicitud's data. NuevoEstado
// is restricted to the terminal project states.
type CambioEstadoPayload struct {
	NuevoEstado string `json:"nuevoEstado"`
	Motivo      string `json:"motivo"`
}

// SolicitudPayload is the tagged union keyed by ApprovalRequest.Tipo: exactly
// one branch is set, matching the tipo. Stored as a single jsonb column.
type SolicitudPayload struct {
	Abono        *AbonoPayload        `json:"abono,omitempty"`
	CambioEstado *CambioEstadoPayload `json:"cambioEstado,omitempty"`
}

func (p SolicitudPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *SolicitudPayload) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = SolicitudPayload{}
		return nil
	default:
		return fmt.Errorf("unsupported payload column type %T", value)
	}
}

// ApprovalRequest is the solicitud de aprobación: a pending or resolved
// financial/lifecycle change on a project. Once in a terminal state the
// record is immutable except for reads.
type ApprovalRequest struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Codigo        string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"codigo"` // "S-0001"
	ProyectoID    uuid.UUID `gorm:"type:uuid;not null;index" json:"proyecto_id"`
	Proyecto      *Project  `gorm:"foreignKey:ProyectoID" json:"proyecto,omitempty"`
	Tipo          string    `gorm:"type:varchar(20);not null;index" json:"tipo"`
	Estado        string    `gorm:"type:varchar(20);not null;default:'PENDIENTE';index" json:"estado"`
	SolicitanteID uuid.UUID `gorm:"type:uuid;not null;index" json:"solicitante_id"`
	Solicitante   *User     `gorm:"foreignKey:SolicitanteID" json:"solicitante,omitempty"`
	SolicitadaEn  time.Time `gorm:"not null" json:"solicitada_en"`

	DecididaPorID      *uuid.UUID `gorm:"type:uuid" json:"decidida_por_id"`
	DecididaPor        *User      `gorm:"foreignKey:DecididaPorID" json:"decidida_por,omitempty"`
	DecididaEn         *time.Time `json:"decidida_en"`
	ComentarioDecision string     `gorm:"type:text" json:"comentario_decision"`

	// Project rev at creation time; checked against the live rev when a
	// CAMBIO_ESTADO solicitud is approved.
	RevProyectoBase int64 `gorm:"not null;default:1" json:"rev_proyecto_base"`

	Payload   SolicitudPayload `gorm:"type:jsonb;not null" json:"payload"`
	Historial []ApprovalEvent  `gorm:"foreignKey:SolicitudID;constraint:OnDelete:CASCADE" json:"historial"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *ApprovalRequest) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// EsAutoAprobacion reports whether the decider is the original requester.
func (s *ApprovalRequest) EsAutoAprobacion(actorID uuid.UUID) bool {
	return s.SolicitanteID == actorID
}

// ApprovalEvent is one append-only history entry; every state transition of a
// solicitud writes exactly one.
type ApprovalEvent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SolicitudID uuid.UUID `gorm:"type:uuid;not null;index" json:"solicitud_id"`
	Accion      string    `gorm:"type:varchar(20);not null" json:"accion"`
	PorID       uuid.UUID `gorm:"type:uuid;not null" json:"por_id"`
	Por         *User     `gorm:"foreignKey:PorID" json:"por,omitempty"`
	Nota        string    `gorm:"type:text" json:"nota"`
	En          time.Time `gorm:"not null;index" json:"en"`
}

func (e *ApprovalEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
