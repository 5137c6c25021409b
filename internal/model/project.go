package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Project estado constants
const (
	ProyectoEnCurso    = "En Curso"
	ProyectoFinalizado = "Finalizado"
	ProyectoPausado    = "Pausado"
	ProyectoCancelado  = "Cancelado"
)

// EstadoTerminal reports whether estado ends the project lifecycle. Terminal
// transitions only happen through an approved CAMBIO_ESTADO solicitud.
func EstadoTerminal(estado string) bool {
	return estado == ProyectoFinalizado || estado == ProyectoCancelado
}

// ParticipantType constants
const (
	ParticipanteCliente     = "cliente"
	ParticipanteResponsable = "responsable"
)

// Project is the construction project ledger document. saldo_abonado is only
// ever mutated by the atomic increment in ProjectRepository; saldo_pendiente
// is derived from presupuesto_aprox - saldo_abonado on every persist. rev
// counts direct field edits and anchors the optimistic check on
// CAMBIO_ESTADO approvals.
type Project struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CodigoProyecto   string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"codigo_proyecto"` // "P-0001"
	Nombre           string          `gorm:"type:varchar(255);not null" json:"nombre"`
	Descripcion      string          `gorm:"type:text" json:"descripcion"`
	Direccion        string          `gorm:"type:text" json:"direccion"`
	PresupuestoAprox decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"presupuesto_aprox"`
	SaldoAbonado     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"saldo_abonado"`
	SaldoPendiente   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"saldo_pendiente"`
	FechaInicio      time.Time       `json:"fecha_inicio"`
	Estado           string          `gorm:"type:varchar(20);not null;default:'En Curso';index" json:"estado"`
	Rev              int64           `gorm:"not null;default:1" json:"rev"`
	Participantes    []Participante  `gorm:"foreignKey:ProyectoID;constraint:OnDelete:CASCADE" json:"participantes"`
	FechaCreacion    time.Time       `gorm:"autoCreateTime" json:"fecha_creacion"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps the derived balance consistent on full-document persists.
// Expression updates (the atomic increment path) recompute it inside the same
// UPDATE statement instead.
func (p *Project) BeforeSave(tx *gorm.DB) error {
	p.SaldoPendiente = p.PresupuestoAprox.Sub(p.SaldoAbonado)
	return nil
}

// Participante links a user to a project for chat fan-out and access control.
type Participante struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProyectoID       uuid.UUID `gorm:"type:uuid;not null;index" json:"proyecto_id"`
	UsuarioID        uuid.UUID `gorm:"type:uuid;not null;index" json:"usuario_id"`
	Usuario          *User     `gorm:"foreignKey:UsuarioID" json:"usuario,omitempty"`
	TipoParticipante string    `gorm:"type:varchar(20);not null" json:"tipo_participante"` // cliente, responsable
	Observaciones    string    `gorm:"type:text" json:"observaciones"`
}

func (p *Participante) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
