package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role constants carried in JWT claims and in User.Roles
const (
	RoleAdmin       = "admin"
	RoleTitular     = "titular"
	RoleColaborador = "colaborador"
	RoleCliente     = "cliente"
)

// User estado constants
const (
	UserActivo   = "activo"
	UserInactivo = "inactivo"
)

// RoleList stores a user's roles as a JSON array column so the same model
// migrates on postgres and on the sqlite test driver.
type RoleList []string

func (r RoleList) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *RoleList) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	case nil:
		*r = nil
		return nil
	default:
		return fmt.Errorf("unsupported roles column type %T", value)
	}
}

func (r RoleList) Contains(role string) bool {
	for _, have := range r {
		if have == role {
			return true
		}
	}
	return false
}

// User is the platform directory entry. Authentication happens upstream of
// this service; the table exists for participant references and for the
// titular notification fan-out.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Nombres        string    `gorm:"type:varchar(255);not null" json:"nombres"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Telefono       string    `gorm:"type:varchar(20)" json:"telefono"`
	Estado         string    `gorm:"type:varchar(20);not null;default:'activo'" json:"estado"` // activo, inactivo
	Roles          RoleList  `gorm:"type:jsonb;not null" json:"roles"`
	UsuarioSistema string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"usuario_sistema"`
	FechaRegistro  time.Time `gorm:"autoCreateTime" json:"fecha_registro"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Actor is the normalized authenticated identity produced once by the auth
// middleware. Services depend only on this type, never on raw claims.
type Actor struct {
	ID    uuid.UUID
	Roles RoleList
}

func (a Actor) EsTitular() bool     { return a.Roles.Contains(RoleTitular) }
func (a Actor) EsColaborador() bool { return a.Roles.Contains(RoleColaborador) }
