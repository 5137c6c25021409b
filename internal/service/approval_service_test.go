package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCrearSolicitudAbono(t *testing.T) {
	env := newTestEnv(t)
	proyecto := env.crearProyecto(t, 1000)

	solicitud := env.crearAbono(t, env.colaborador, proyecto, 400)

	assert.Equal(t, "S-0001", solicitud.Codigo)
	assert.Equal(t, model.SolicitudPendiente, solicitud.Estado)
	assert.Equal(t, env.colaborador.ID, solicitud.SolicitanteID)
	assert.Equal(t, proyecto.Rev, solicitud.RevProyectoBase)
	require.NotNil(t, solicitud.Payload.Abono)
	assert.True(t, solicitud.Payload.Abono.Monto.Equal(decimal.NewFromInt(400)))
	require.Len(t, solicitud.Historial, 1)
	assert.Equal(t, model.AccionCreada, solicitud.Historial[0].Accion)

	segunda := env.crearAbono(t, env.colaborador, proyecto, 100)
	assert.Equal(t, "S-0002", segunda.Codigo)
}

func TestCrearSolicitudNotificaTitulares(t *testing.T) {
	env := newTestEnv(t)
	proyecto := env.crearProyecto(t, 1000)
	env.notifier.reset()

	env.crearAbono(t, env.colaborador, proyecto, 400)

	avisos := env.notifier.byTipo(model.NotifAprobacionSolicitada)
	require.Len(t, avisos, 1, "un aviso por titular activo")
	assert.Equal(t, env.titular.ID, avisos[0].UsuarioID)
	assert.Contains(t, avisos[0].Mensaje, "S-0001")
}

func TestCrearSolicitudValidaciones(t *testing.T) {
	env := newTestEnv(t)
	proyecto := env.crearProyecto(t, 1000)
	ctx := context.Background()

	cases := []struct {
		name    string
		actor   model.Actor
		req     CrearSolicitudRequest
		wantErr error
	}{
		{
			name:  "cliente no puede crear",
			actor: env.cliente,
			req: CrearSolicitudRequest{
				ProyectoID: proyecto.ID.String(),
				Tipo:       model.SolicitudAbono,
				Payload:    SolicitudPayloadDTO{Abono: &AbonoPayloadDTO{Monto: decimal.NewFromInt(10)}},
			},
			wantErr: ErrForbidden,
		},
		{
			name:  "tipo desconocido",
			actor: env.colaborador,
			req: CrearSolicitudRequest{
				ProyectoID: proyecto.ID.String(),
				Tipo:       "REEMBOLSO",
			},
			wantErr: ErrValidation,
		},
		{
			name:  "abono sin payload",
			actor: env.colaborador,
			req: CrearSolicitudRequest{
				ProyectoID: proyecto.ID.String(),
				Tipo:       model.SolicitudAbono,
			},
			wantErr: ErrValidation,
		},
		{
			name:  "monto no positivo",
			actor: env.colaborador,
			req: CrearSolicitudRequest{
				ProyectoID: proyecto.ID.String(),
				Tipo:       model.SolicitudAbono,
				Payload:    SolicitudPayloadDTO{Abono: &AbonoPayloadDTO{Monto: decimal.Zero}},
			},
			wantErr: ErrValidation,
		},
		{
			name:  "cambio de estado no terminal",
			actor: env.colaborador,
			req: CrearSolicitudRequest{
				ProyectoID: proyecto.ID.String(),
				Tipo:       model.SolicitudCambioEstado,
				Payload:    SolicitudPayloadDTO{CambioEstado: &CambioEstadoPayloadDTO{NuevoEstado: model.ProyectoPausado}},
			},
			wantErr: ErrValidation,
		},
		{
			name:  "proyecto inexistente",
			actor: env.colaborador,
			req: CrearSolicitudRequest{
				ProyectoID: "4f9c7f6a-0000-4000-8000-000000000001",
				Tipo:       model.SolicitudAbono,
				Payload:    SolicitudPayloadDTO{Abono: &AbonoPayloadDTO{Monto: decimal.NewFromInt(10)}},
			},
			wantErr: ErrNotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.approvals.Create(ctx, tc.actor, tc.req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestAprobarAbonoActualizaLedger(t *testing.T) {
	env := newTestEnv(t)
	proyecto := env.crearProyecto(t, 1000)
	solicitud := env.crearAbono(t, env.colaborador, proyecto, 400)
	env.notifier.reset()

	result, err := env.approvals.Approve(context.Background(), env.titular, solicitud.ID.String(), "conforme")
	require.NoError(t, err)

	assert.Equal(t, model.SolicitudAprobada, result.Solicitud.Estado)
	assert.Equal(t, "conforme", result.Solicitud.ComentarioDecision)
	require.NotNil(t, result.Solicitud.DecididaPorID)
	assert.Equal(t, env.titular.ID, *result.Solicitud.DecididaPorID)
	assert.True(t, result.Proyecto.SaldoAbonado.Equal(decimal.NewFromInt(400)))
	assert.True(t, result.Proyecto.SaldoPendiente.Equal(decimal.NewFromInt(600)))

	// The ledger row exists and points back at the solicitud.
	var abono model.Abono
	require.NoError(t, env.db.First(&abono, "solicitud_id = ?", solicitud.ID).Error)
	assert.True(t, abono.Monto.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, env.colaborador.ID, abono.SolicitadoPorID)
	assert.Equal(t, env.titular.ID, abono.AprobadoPorID)

	// Requester is told, clients get the project refresh event.
	avisos := env.notifier.byTipo(model.NotifAprobacionResuelta)
	require.Len(t, avisos, 1)
	assert.Equal(t, env.colaborador.ID, avisos[0].UsuarioID)
	assert.Contains(t, avisos[0].Titulo, "aprobada")
	assert.Len(t, env.publisher.named("proyecto-actualizado"), 1)

	// Historial: CREADA then APROBADA.
	detalle, err := env.approvals.GetByID(context.Background(), env.titular, solicitud.ID.String())
	require.NoError(t, err)
	require.Len(t, detalle.Historial, 2)
	assert.Equal(t, model.AccionAprobada, detalle.Historial[1].Accion)
}

func TestAprobarDosVecesNoDuplicaElAbono(t *testing.T) {
	env := newTestEnv(t)
	proyecto := env.crearProyecto(t, 1000)
	solicitud := env.crearAbono(t, env.colaborador, proyecto, 400)

	_, err := env.approvals.Approve(context.Background(), env.titular, solicitud.ID.String(), "")
	require.NoError(t, err)

	_, err = env.approvals.Approve(context.Background(), env.titular, solicitud.ID.String(), "")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.approvals.Reject(context.Background(), env.titular, solicitud.ID.String(), "")
	assert.ErrorIs(t, err, ErrConflict)

	got := env.proyectoActual(t, proyecto.ID)
	assert.True(t, got.SaldoAbonado.Equal(decimal.NewFromInt(400)), "saldo_abonado = %s", got.SaldoAbonado)

	var abonos int64
	require.NoError(t, env.db.Model(&model.Abono{}).Where("solicitud_id = ?", solicitud.ID).Count(&abonos).Error)
	assert.Equal(t, int64(1), abonos)
}

func TestAutoAprobacionQuedaMarcada(t *testing.T) {
	env := newTestEnv(t)
	proyecto := env.crearProyecto(t, 1000)
	solicitud := env.crearAbono(t, env.titular, proyecto, 200)

	result, err := env.approvals.Approve(context.Background(), env.titular, solicitud.ID.String(), "urgente")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Solicitud.ComentarioDecision, model.MarcaAutoAprobado),
		"comentario = %q", result.Solicitud.ComentarioDecision)
	assert.Contains(t, result.Solicitud.ComentarioDecision, "urgente")
	// The marker is audit-only: the abono still lands.
	assert.True(t, result.Proyecto.SaldoAbonado.Equal(decimal.NewFromInt(200)))
}

func TestRechazarNoTocaElLedger(t *testing.T) {
	env := newTestEnv(t)
	proyecto := env.crearProyecto(t, 1000)
	solicitud := env.crearAbono(t, env.colaborador, proyecto, 400)
	env.notifier.reset()

	rechazada, err := env.approvals.Reject(context.Background(), env.titular, solicitud.ID.String(), "sin respaldo")
	require.NoError(t, err)

	assert.Equal(t, model.SolicitudRechazada, rechazada.Estado)
	assert.Equal(t, "sin respaldo", rechazada.ComentarioDecision)

	got := env.proyectoActual(t, proyecto.ID)
	assert.True(t, got.SaldoAbonado.IsZero())
	assert.True(t, got.SaldoPendiente.Equal(decimal.NewFromInt(1000)))

	var abonos int64
	require.NoError(t, env.db.Model(&model.Abono{}).Count(&abonos).Error)
	assert.Zero(t, abonos)

	avisos := env.notifier.byTipo(model.NotifAprobacionResuelta)
	require.Len(t, avisos, 1)
	assert.Contains(t, avisos[0].Titulo, "rechazada")
}

func TestCancelar(t *testing.T) {
	env := newTestEnv(t)
	proyecto := env.crearProyecto(t, 1000)
	ctx := context.Background()

	t.Run("el solicitante cancela la suya", func(t *testing.T) {
		solicitud := env.crearAbono(t, env.colaborador, proyecto, 100)
		cancelada, err := env.approvals.Cancel(ctx, env.colaborador, solicitud.ID.String())
		require.NoError(t, err)
		assert.Equal(t, model.SolicitudCancelada, cancelada.Estado)
		require.NotEmpty(t, cancelada.Historial)
		assert.Equal(t, model.AccionCancelada, cancelada.Historial[len(cancelada.Historial)-1].Accion)
	})

	t.Run("un titular cancela la de otro", func(t *testing.T) {
		solicitud := env.crearAbono(t, env.colaborador, proyecto, 100)
		cancelada, err := env.approvals.Cancel(ctx, env.titular, solicitud.ID.String())
		require.NoError(t, err)
		assert.Equal(t, model.SolicitudCancelada, cancelada.Estado)
	})

	t.Run("un tercero no puede cancelar", func(t *testing.T) {
		solicitud := env.crearAbono(t, env.titular, proyecto, 100)
		_, err := env.approvals.Cancel(ctx, env.cliente, solicitud.ID.String())
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("una decidida ya no se cancela", func(t *testing.T) {
		solicitud := env.crearAbono(t, env.colaborador, proyecto, 100)
		_, err := env.approvals.Reject(ctx, env.titular, solicitud.ID.String(), "")
		require.NoError(t, err)
		_, err = env.approvals.Cancel(ctx, env.colaborador, solicitud.ID.String())
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestCambioEstadoAprobadoFinalizaElProyecto(t *testing.T) {
	env := newTestEnv(t)
	proyecto := env.crearProyecto(t, 1000)
	solicitud := env.crearCambioEstado(t, env.colaborador, proyecto, model.ProyectoFinalizado)
	ctx := context.Background()

	// Pending terminal-state solicitud locks direct edits.
	lock, err := env.approvals.ProjectLock(ctx, proyecto.ID.String())
	require.NoError(t, err)
	assert.True(t, lock.Bloqueado)
	require.NotNil(t, lock.Solicitud)
	assert.Equal(t, solicitud.Codigo, lock.Solicitud.Codigo)

	descripcion := "ajuste"
	_, err = env.projects.Update(ctx, env.titular, proyecto.ID.String(), ActualizarProyectoRequest{
		Descripcion: &descripcion,
	})
	assert.ErrorIs(t, err, ErrLocked)

	result, err := env.approvals.Approve(ctx, env.titular, solicitud.ID.String(), "entrega conforme")
	require.NoError(t, err)
	assert.Equal(t, model.ProyectoFinalizado, result.Proyecto.Estado)

	// Decided: the pending lock is gone, but the terminal state keeps the
	// document closed.
	lock, err = env.approvals.ProjectLock(ctx, proyecto.ID.String())
	require.NoError(t, err)
	assert.False(t, lock.Bloqueado)

	_, err = env.projects.Update(ctx, env.titular, proyecto.ID.String(), ActualizarProyectoRequest{
		Descripcion: &descripcion,
	})
	assert.ErrorIs(t, err, ErrLocked)
}

func TestCambioEstadoConflictoDeRevision(t *testing.T) {
	env := newTestEnv(t)
	proyecto := env.crearProyecto(t, 1000)
	solicitud := env.crearCambioEstado(t, env.colaborador, proyecto, model.ProyectoCancelado)
	env.notifier.reset()

	// Simulate an edit that raced past the lock check before the solicitud
	// was decided.
	require.NoError(t, env.db.Model(&model.Project{}).
		Where("id = ?", proyecto.ID).
		Update("rev", gorm.Expr("rev + 1")).Error)

	_, err := env.approvals.Approve(context.Background(), env.titular, solicitud.ID.String(), "")
	assert.ErrorIs(t, err, ErrConflict)

	// The CONFLICTO transition committed even though the call errored.
	var got model.ApprovalRequest
	require.NoError(t, env.db.First(&got, "id = ?", solicitud.ID).Error)
	assert.Equal(t, model.SolicitudConflicto, got.Estado)
	assert.Contains(t, got.ComentarioDecision, "Conflicto de revisión")

	// The project was never touched.
	actual := env.proyectoActual(t, proyecto.ID)
	assert.Equal(t, model.ProyectoEnCurso, actual.Estado)

	avisos := env.notifier.byTipo(model.NotifAprobacionResuelta)
	require.Len(t, avisos, 1)
	assert.Equal(t, env.colaborador.ID, avisos[0].UsuarioID)
	assert.Contains(t, avisos[0].Titulo, "conflicto")

	// CONFLICTO is terminal: no further decisions.
	_, err = env.approvals.Approve(context.Background(), env.titular, solicitud.ID.String(), "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDecisionesRequierenTitular(t *testing.T) {
	env := newTestEnv(t)
	proyecto := env.crearProyecto(t, 1000)
	solicitud := env.crearAbono(t, env.colaborador, proyecto, 100)
	ctx := context.Background()

	_, err := env.approvals.Approve(ctx, env.colaborador, solicitud.ID.String(), "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.approvals.Reject(ctx, env.colaborador, solicitud.ID.String(), "")
	assert.ErrorIs(t, err, ErrForbidden)

	var got model.ApprovalRequest
	require.NoError(t, env.db.First(&got, "id = ?", solicitud.ID).Error)
	assert.Equal(t, model.SolicitudPendiente, got.Estado)
}

func TestGetByIDControlDeAcceso(t *testing.T) {
	env := newTestEnv(t)
	proyecto := env.crearProyecto(t, 1000)
	solicitud := env.crearAbono(t, env.colaborador, proyecto, 100)
	ctx := context.Background()

	// El solicitante y cualquier titular pueden verla.
	_, err := env.approvals.GetByID(ctx, env.colaborador, solicitud.ID.String())
	require.NoError(t, err)
	_, err = env.approvals.GetByID(ctx, env.titular, solicitud.ID.String())
	require.NoError(t, err)

	otro := env.seedActor(t, "colab2", model.RoleColaborador)
	_, err = env.approvals.GetByID(ctx, otro, solicitud.ID.String())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.approvals.GetByID(ctx, env.titular, "no-es-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListScoping(t *testing.T) {
	env := newTestEnv(t)
	proyecto := env.crearProyecto(t, 1000)
	env.crearAbono(t, env.colaborador, proyecto, 100)
	env.crearAbono(t, env.titular, proyecto, 200)
	ctx := context.Background()

	todas, err := env.approvals.List(ctx, env.titular, ListarSolicitudesFilter{})
	require.NoError(t, err)
	assert.Len(t, todas, 2)

	propias, err := env.approvals.List(ctx, env.colaborador, ListarSolicitudesFilter{})
	require.NoError(t, err)
	require.Len(t, propias, 1)
	assert.Equal(t, env.colaborador.ID, propias[0].SolicitanteID)

	mias, err := env.approvals.ListMine(ctx, env.titular)
	require.NoError(t, err)
	require.Len(t, mias, 1)
	assert.Equal(t, env.titular.ID, mias[0].SolicitanteID)
}

func TestProjectLockProyectoInvalido(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.approvals.ProjectLock(context.Background(), "zzz")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApproveSolicitudInexistente(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.approvals.Approve(context.Background(), env.titular, "4f9c7f6a-0000-4000-8000-000000000009", "")
	assert.True(t, errors.Is(err, ErrNotFound))
}
