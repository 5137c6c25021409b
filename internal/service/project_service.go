package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type ParticipanteDTO struct {
	UsuarioID        string `json:"usuario_id" binding:"required"`
	TipoParticipante string `json:"tipo_participante" binding:"required"`
	Observaciones    string `json:"observaciones"`
}

type CrearProyectoRequest struct {
	Nombre           string            `json:"nombre" binding:"required"`
	Descripcion      string            `json:"descripcion"`
	Direccion        string            `json:"direccion"`
	PresupuestoAprox decimal.Decimal   `json:"presupuesto_aprox" binding:"required"`
	FechaInicio      *time.Time        `json:"fecha_inicio"`
	Participantes    []ParticipanteDTO `json:"participantes"`
}

// ActualizarProyectoRequest carries a direct field edit. Money never moves
// through this path: a positive saldo_a_abonar is rejected and redirected to
// the approval pipeline. Estado here only covers non-terminal transitions;
// terminal ones go through an approved CAMBIO_ESTADO solicitud.
type ActualizarProyectoRequest struct {
	Descripcion      *string            `json:"descripcion"`
	Direccion        *string            `json:"direccion"`
	PresupuestoAprox *decimal.Decimal   `json:"presupuesto_aprox"`
	Estado           *string            `json:"estado"`
	Participantes    []ParticipanteDTO  `json:"participantes"`
	SaldoAAbonar     *decimal.Decimal   `json:"saldo_a_abonar"`
}

// --- Interface ---

type ProjectService interface {
	Create(ctx context.Context, req CrearProyectoRequest) (*model.Project, error)
	List(ctx context.Context, actor model.Actor, scope string) ([]model.Project, error)
	GetByID(ctx context.Context, id string) (*model.Project, error)
	Update(ctx context.Context, actor model.Actor, id string, req ActualizarProyectoRequest) (*model.Project, error)
	ListAbonos(ctx context.Context, id string) ([]model.Abono, error)
}

type projectService struct {
	txm         repository.TransactionManager
	proyectos   repository.ProjectRepository
	solicitudes repository.ApprovalRepository
	abonos      repository.AbonoRepository
	secuencias  repository.SequenceRepository
}

func NewProjectService(
	txm repository.TransactionManager,
	proyectos repository.ProjectRepository,
	solicitudes repository.ApprovalRepository,
	abonos repository.AbonoRepository,
	secuencias repository.SequenceRepository,
) ProjectService {
	return &projectService{
		txm:         txm,
		proyectos:   proyectos,
		solicitudes: solicitudes,
		abonos:      abonos,
		secuencias:  secuencias,
	}
}

// --- Implementation ---

func (s *projectService) Create(ctx context.Context, req CrearProyectoRequest) (*model.Project, error) {
	if !req.PresupuestoAprox.IsPositive() {
		return nil, fmt.Errorf("%w: presupuesto inválido", ErrValidation)
	}

	participantes, err := buildParticipantes(req.Participantes)
	if err != nil {
		return nil, err
	}

	fechaInicio := time.Now()
	if req.FechaInicio != nil {
		fechaInicio = *req.FechaInicio
	}

	proyecto := &model.Project{
		Nombre:           strings.TrimSpace(req.Nombre),
		Descripcion:      strings.TrimSpace(req.Descripcion),
		Direccion:        strings.TrimSpace(req.Direccion),
		PresupuestoAprox: req.PresupuestoAprox,
		SaldoAbonado:     decimal.Zero,
		FechaInicio:      fechaInicio,
		Estado:           model.ProyectoEnCurso,
		Rev:              1,
		Participantes:    participantes,
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		codigo, seqErr := s.secuencias.NextCode(txCtx, model.SeqProyecto, "P")
		if seqErr != nil {
			return seqErr
		}
		proyecto.CodigoProyecto = codigo
		return s.proyectos.Create(txCtx, proyecto)
	})
	if err != nil {
		return nil, err
	}

	return s.proyectos.FindByIDWithParticipantes(ctx, proyecto.ID)
}

func (s *projectService) List(ctx context.Context, actor model.Actor, scope string) ([]model.Project, error) {
	if scope != "chat" {
		return s.proyectos.List(ctx)
	}
	// Chat scope: titulares see every project, colaboradores and clientes
	// only the ones they participate in.
	if actor.EsTitular() {
		return s.proyectos.List(ctx)
	}
	if actor.EsColaborador() || actor.Roles.Contains(model.RoleCliente) {
		return s.proyectos.ListByParticipante(ctx, actor.ID)
	}
	return nil, fmt.Errorf("%w: rol sin acceso a chats", ErrForbidden)
}

func (s *projectService) GetByID(ctx context.Context, id string) (*model.Project, error) {
	proyectoID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: proyecto no existe", ErrNotFound)
	}
	proyecto, err := s.proyectos.FindByIDWithParticipantes(ctx, proyectoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: proyecto no existe", ErrNotFound)
		}
		return nil, err
	}
	return proyecto, nil
}

func (s *projectService) Update(ctx context.Context, actor model.Actor, id string, req ActualizarProyectoRequest) (*model.Project, error) {
	proyectoID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: proyecto no existe", ErrNotFound)
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		actual, findErr := s.proyectos.FindByID(txCtx, proyectoID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: proyecto no existe", ErrNotFound)
			}
			return findErr
		}

		// A project that already reached a terminal state never reopens for
		// direct edits.
		if model.EstadoTerminal(actual.Estado) {
			return fmt.Errorf("%w: proyecto %s", ErrLocked, actual.Estado)
		}

		// A pending terminal-state solicitud freezes the document until it is
		// decided or cancelled.
		pendiente, lockErr := s.solicitudes.FindPendingCambioEstado(txCtx, proyectoID)
		if lockErr != nil {
			return lockErr
		}
		if pendiente != nil {
			return fmt.Errorf("%w por solicitud %s", ErrLocked, pendiente.Codigo)
		}

		if req.SaldoAAbonar != nil && req.SaldoAAbonar.IsPositive() {
			return fmt.Errorf("%w: los abonos se realizan mediante solicitudes de aprobación", ErrValidation)
		}

		fields := map[string]interface{}{}
		if req.Descripcion != nil {
			fields["descripcion"] = strings.TrimSpace(*req.Descripcion)
		}
		if req.Direccion != nil {
			fields["direccion"] = strings.TrimSpace(*req.Direccion)
		}
		if req.Estado != nil {
			if model.EstadoTerminal(*req.Estado) {
				return fmt.Errorf("%w: los estados Finalizado y Cancelado requieren una solicitud aprobada", ErrValidation)
			}
			switch *req.Estado {
			case model.ProyectoEnCurso, model.ProyectoPausado:
				fields["estado"] = *req.Estado
			default:
				return fmt.Errorf("%w: estado inválido", ErrValidation)
			}
		}
		if req.PresupuestoAprox != nil {
			if !req.PresupuestoAprox.IsPositive() {
				return fmt.Errorf("%w: presupuesto inválido", ErrValidation)
			}
			fields["presupuesto_aprox"] = *req.PresupuestoAprox
		}

		if len(fields) == 0 && req.Participantes == nil {
			return fmt.Errorf("%w: no hay cambios para aplicar", ErrValidation)
		}

		if req.Participantes != nil {
			participantes, buildErr := buildParticipantes(req.Participantes)
			if buildErr != nil {
				return buildErr
			}
			if repErr := s.proyectos.ReplaceParticipantes(txCtx, proyectoID, participantes); repErr != nil {
				return repErr
			}
		}

		if len(fields) == 0 {
			// Participant-only change still counts as a document edit.
			fields = map[string]interface{}{"updated_at": time.Now()}
		}
		return s.proyectos.UpdateFields(txCtx, proyectoID, fields)
	})
	if err != nil {
		return nil, err
	}

	return s.proyectos.FindByIDWithParticipantes(ctx, proyectoID)
}

func (s *projectService) ListAbonos(ctx context.Context, id string) ([]model.Abono, error) {
	proyectoID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: proyecto no existe", ErrNotFound)
	}
	if _, err := s.proyectos.FindByID(ctx, proyectoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: proyecto no existe", ErrNotFound)
		}
		return nil, err
	}
	return s.abonos.ListByProyecto(ctx, proyectoID)
}

func buildParticipantes(dtos []ParticipanteDTO) ([]model.Participante, error) {
	participantes := make([]model.Participante, 0, len(dtos))
	for _, dto := range dtos {
		usuarioID, err := uuid.Parse(dto.UsuarioID)
		if err != nil {
			return nil, fmt.Errorf("%w: usuario_id de participante inválido", ErrValidation)
		}
		if dto.TipoParticipante != model.ParticipanteCliente && dto.TipoParticipante != model.ParticipanteResponsable {
			return nil, fmt.Errorf("%w: tipo_participante inválido", ErrValidation)
		}
		participantes = append(participantes, model.Participante{
			UsuarioID:        usuarioID,
			TipoParticipante: dto.TipoParticipante,
			Observaciones:    dto.Observaciones,
		})
	}
	return participantes, nil
}
