package repository

import (
	"testing"

	"backend/internal/database"
	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory sqlite database with the production
// schema. A single connection keeps every statement on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

func seedUser(t *testing.T, db *gorm.DB, nombre string, roles ...string) *model.User {
	t.Helper()
	user := &model.User{
		Nombres:        nombre,
		Email:          nombre + "@constructora.test",
		Estado:         model.UserActivo,
		Roles:          model.RoleList(roles),
		UsuarioSistema: nombre,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedProject(t *testing.T, db *gorm.DB, codigo string, presupuesto int64) *model.Project {
	t.Helper()
	proyecto := &model.Project{
		CodigoProyecto:   codigo,
		Nombre:           "Obra " + codigo,
		PresupuestoAprox: decimal.NewFromInt(presupuesto),
		SaldoAbonado:     decimal.Zero,
		Estado:           model.ProyectoEnCurso,
		Rev:              1,
	}
	require.NoError(t, db.Create(proyecto).Error)
	return proyecto
}

func seedSolicitud(t *testing.T, db *gorm.DB, codigo string, proyectoID, solicitanteID uuid.UUID, tipo string, payload model.SolicitudPayload) *model.ApprovalRequest {
	t.Helper()
	solicitud := &model.ApprovalRequest{
		Codigo:          codigo,
		ProyectoID:      proyectoID,
		Tipo:            tipo,
		Estado:          model.SolicitudPendiente,
		SolicitanteID:   solicitanteID,
		RevProyectoBase: 1,
		Payload:         payload,
	}
	require.NoError(t, db.Create(solicitud).Error)
	return solicitud
}

func abonoPayload(monto int64) model.SolicitudPayload {
	return model.SolicitudPayload{Abono: &model.AbonoPayload{
		Monto:  decimal.NewFromInt(monto),
		Metodo: "transferencia",
	}}
}

func cambioEstadoPayload(nuevoEstado string) model.SolicitudPayload {
	return model.SolicitudPayload{CambioEstado: &model.CambioEstadoPayload{
		NuevoEstado: nuevoEstado,
		Motivo:      "obra entregada",
	}}
}
