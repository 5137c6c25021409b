package service

import (
	"context"
	"sync"
	"testing"

	"backend/internal/database"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// notifierRecorder captures notifications instead of persisting them.
type notifierRecorder struct {
	mu     sync.Mutex
	inputs []NotificationInput
}

func (r *notifierRecorder) Notify(_ context.Context, input NotificationInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, input)
	return nil
}

func (r *notifierRecorder) byTipo(tipo string) []NotificationInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []NotificationInput
	for _, input := range r.inputs {
		if input.Tipo == tipo {
			out = append(out, input)
		}
	}
	return out
}

func (r *notifierRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = nil
}

type publishedEvent struct {
	Event string
	Data  interface{}
}

type publisherRecorder struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *publisherRecorder) Publish(event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{Event: event, Data: data})
}

func (r *publisherRecorder) named(event string) []publishedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []publishedEvent
	for _, e := range r.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// testEnv wires the full service stack over an in-memory database with three
// seeded users, one per platform role.
type testEnv struct {
	db        *gorm.DB
	approvals ApprovalService
	projects  ProjectService
	notifier  *notifierRecorder
	publisher *publisherRecorder

	titular     model.Actor
	colaborador model.Actor
	cliente     model.Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	txm := repository.NewTransactionManager(db)
	approvalRepo := repository.NewApprovalRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	abonoRepo := repository.NewAbonoRepository(db)
	userRepo := repository.NewUserRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)

	notifier := &notifierRecorder{}
	publisher := &publisherRecorder{}

	env := &testEnv{
		db:        db,
		notifier:  notifier,
		publisher: publisher,
		approvals: NewApprovalService(txm, approvalRepo, projectRepo, abonoRepo, userRepo, sequenceRepo, notifier, publisher),
		projects:  NewProjectService(txm, projectRepo, approvalRepo, abonoRepo, sequenceRepo),
	}

	env.titular = env.seedActor(t, "titular1", model.RoleTitular)
	env.colaborador = env.seedActor(t, "colab1", model.RoleColaborador)
	env.cliente = env.seedActor(t, "cliente1", model.RoleCliente)
	return env
}

func (e *testEnv) seedActor(t *testing.T, nombre string, roles ...string) model.Actor {
	t.Helper()
	user := &model.User{
		Nombres:        nombre,
		Email:          nombre + "@constructora.test",
		Estado:         model.UserActivo,
		Roles:          model.RoleList(roles),
		UsuarioSistema: nombre,
	}
	require.NoError(t, e.db.Create(user).Error)
	return model.Actor{ID: user.ID, Roles: user.Roles}
}

func (e *testEnv) crearProyecto(t *testing.T, presupuesto int64) *model.Project {
	t.Helper()
	proyecto, err := e.projects.Create(context.Background(), CrearProyectoRequest{
		Nombre:           "Obra de prueba",
		PresupuestoAprox: decimal.NewFromInt(presupuesto),
	})
	require.NoError(t, err)
	return proyecto
}

func (e *testEnv) crearAbono(t *testing.T, actor model.Actor, proyecto *model.Project, monto int64) *model.ApprovalRequest {
	t.Helper()
	solicitud, err := e.approvals.Create(context.Background(), actor, CrearSolicitudRequest{
		ProyectoID: proyecto.ID.String(),
		Tipo:       model.SolicitudAbono,
		Payload: SolicitudPayloadDTO{Abono: &AbonoPayloadDTO{
			Monto:  decimal.NewFromInt(monto),
			Metodo: "transferencia",
		}},
	})
	require.NoError(t, err)
	return solicitud
}

func (e *testEnv) crearCambioEstado(t *testing.T, actor model.Actor, proyecto *model.Project, nuevoEstado string) *model.ApprovalRequest {
	t.Helper()
	solicitud, err := e.approvals.Create(context.Background(), actor, CrearSolicitudRequest{
		ProyectoID: proyecto.ID.String(),
		Tipo:       model.SolicitudCambioEstado,
		Payload: SolicitudPayloadDTO{CambioEstado: &CambioEstadoPayloadDTO{
			NuevoEstado: nuevoEstado,
			Motivo:      "fin de obra",
		}},
	})
	require.NoError(t, err)
	return solicitud
}

func (e *testEnv) proyectoActual(t *testing.T, id interface{}) *model.Project {
	t.Helper()
	var proyecto model.Project
	require.NoError(t, e.db.First(&proyecto, "id = ?", id).Error)
	return &proyecto
}
