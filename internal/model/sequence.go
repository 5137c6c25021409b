package model

// Sequence name constants
const (
	SeqSolicitudAprobacion = "solicitud_aprobacion"
	SeqProyecto            = "proyecto"
)

// SequenceCounter backs the gapless human-readable codes ("S-0001",
// "P-0001"). One row per named sequence, mutated only by an atomic
// increment-and-return statement.
type SequenceCounter struct {
	Nombre string `gorm:"type:varchar(50);primaryKey" json:"nombre"`
	Seq    int64  `gorm:"not null;default:0" json:"seq"`
}

func (SequenceCounter) TableName() string { return "sequence_counters" }
