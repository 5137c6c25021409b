package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification tipo constants
const (
	NotifChatMensaje          = "chat_mensaje"
	NotifAprobacionSolicitada = "aprobacion_solicitada"
	NotifAprobacionResuelta   = "aprobacion_resuelta"
)

// Notification is a lightweight per-user event. Reading a notification
// deletes it; there is no read/unread flag.
type Notification struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UsuarioID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_notif_usuario_fecha,priority:1" json:"id_usuario"`
	ProyectoID    *uuid.UUID `gorm:"type:uuid" json:"id_proyecto"`
	Tipo          string     `gorm:"type:varchar(40);not null;index" json:"tipo"`
	Titulo        string     `gorm:"type:varchar(120);not null" json:"titulo"`
	Mensaje       string     `gorm:"type:varchar(300);not null" json:"mensaje"`
	FechaCreacion time.Time  `gorm:"autoCreateTime;index:idx_notif_usuario_fecha,priority:2" json:"fecha_creacion"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
