package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type AbonoPayloadDTO struct {
	Monto        decimal.Decimal `json:"monto"`
	Metodo       string          `json:"metodo"`
	Nota         string          `json:"nota"`
	EvidenciaURL string          `json:"evidenciaUrl"`
}

type CambioEstadoPayloadDTO struct {
	NuevoEstado string `json:"nuevoEstado"`
	Motivo      string `json:"motivo"`
}

type SolicitudPayloadDTO struct {
	Abono        *AbonoPayloadDTO        `json:"abono"`
	CambioEstado *CambioEstadoPayloadDTO `json:"cambioEstado"`
}

type CrearSolicitudRequest struct {
	ProyectoID string              `json:"proyectoId" binding:"required"`
	Tipo       string              `json:"tipo" binding:"required"`
	Payload    SolicitudPayloadDTO `json:"payload"`
}

type ListarSolicitudesFilter struct {
	Estado     string
	Tipo       string
	ProyectoID string
	Codigo     string
	Limit      int
	Offset     int
}

// DecisionResult is what Approve returns: the resolved solicitud plus the
// project snapshot after the ledger mutation.
type DecisionResult struct {
	Solicitud *model.ApprovalRequest `json:"solicitud"`
	Proyecto  *model.Project         `json:"proyecto"`
}

// BloqueoResult answers the edit-lock query consumed by the project edit
// endpoint.
type BloqueoResult struct {
	Bloqueado bool                   `json:"bloqueado"`
	Solicitud *model.ApprovalRequest `json:"solicitud,omitempty"`
}

// --- Side-effect capabilities (injected, never looked up globally) ---

type NotificationInput struct {
	UsuarioID  uuid.UUID
	ProyectoID *uuid.UUID
	Tipo       string
	Titulo     string
	Mensaje    string
}

// Notifier is the fire-and-forget notification sink. Failures are logged by
// the caller and never fail the triggering operation.
type Notifier interface {
	Notify(ctx context.Context, input NotificationInput) error
}

// Publisher pushes a lightweight event to connected clients, best-effort.
type Publisher interface {
	Publish(event string, data interface{})
}

// --- Interface ---

type ApprovalService interface {
	Create(ctx context.Context, actor model.Actor, req CrearSolicitudRequest) (*model.ApprovalRequest, error)
	List(ctx context.Context, actor model.Actor, filter ListarSolicitudesFilter) ([]model.ApprovalRequest, error)
	ListMine(ctx context.Context, actor model.Actor) ([]model.ApprovalRequest, error)
	GetByID(ctx context.Context, actor model.Actor, id string) (*model.ApprovalRequest, error)
	Approve(ctx context.Context, actor model.Actor, id string, comentario string) (*DecisionResult, error)
	Reject(ctx context.Context, actor model.Actor, id string, comentario string) (*model.ApprovalRequest, error)
	Cancel(ctx context.Context, actor model.Actor, id string) (*model.ApprovalRequest, error)
	ProjectLock(ctx context.Context, proyectoID string) (*BloqueoResult, error)
}

type approvalService struct {
	txm         repository.TransactionManager
	solicitudes repository.ApprovalRepository
	proyectos   repository.ProjectRepository
	abonos      repository.AbonoRepository
	usuarios    repository.UserRepository
	secuencias  repository.SequenceRepository
	notifier    Notifier
	publisher   Publisher
}

func NewApprovalService(
	txm repository.TransactionManager,
	solicitudes repository.ApprovalRepository,
	proyectos repository.ProjectRepository,
	abonos repository.AbonoRepository,
	usuarios repository.UserRepository,
	secuencias repository.SequenceRepository,
	notifier Notifier,
	publisher Publisher,
) ApprovalService {
	return &approvalService{
		txm:         txm,
		solicitudes: solicitudes,
		proyectos:   proyectos,
		abonos:      abonos,
		usuarios:    usuarios,
		secuencias:  secuencias,
		notifier:    notifier,
		publisher:   publisher,
	}
}

// --- Create ---

func (s *approvalService) Create(ctx context.Context, actor model.Actor, req CrearSolicitudRequest) (*model.ApprovalRequest, error) {
	if !actor.EsTitular() && !actor.EsColaborador() {
		return nil, fmt.Errorf("%w: solo titulares o colaboradores pueden crear solicitudes", ErrForbidden)
	}

	proyectoID, err := uuid.Parse(req.ProyectoID)
	if err != nil {
		return nil, fmt.Errorf("%w: proyectoId inválido", ErrValidation)
	}

	proyecto, err := s.proyectos.FindByID(ctx, proyectoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: proyecto no existe", ErrNotFound)
		}
		return nil, err
	}

	payload, err := buildPayload(req.Tipo, req.Payload)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	solicitud := &model.ApprovalRequest{
		ProyectoID:      proyectoID,
		Tipo:            req.Tipo,
		Estado:          model.SolicitudPendiente,
		SolicitanteID:   actor.ID,
		SolicitadaEn:    now,
		RevProyectoBase: proyecto.Rev,
		Payload:         payload,
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		codigo, seqErr := s.secuencias.NextCode(txCtx, model.SeqSolicitudAprobacion, "S")
		if seqErr != nil {
			return seqErr
		}
		solicitud.Codigo = codigo

		if createErr := s.solicitudes.Create(txCtx, solicitud); createErr != nil {
			return fmt.Errorf("failed to create solicitud: %w", createErr)
		}

		return s.solicitudes.AppendEvent(txCtx, &model.ApprovalEvent{
			SolicitudID: solicitud.ID,
			Accion:      model.AccionCreada,
			PorID:       actor.ID,
			En:          now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifyTitulares(ctx, proyecto, solicitud)

	created, err := s.solicitudes.FindByIDWithRelations(ctx, solicitud.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload solicitud: %w", err)
	}
	return created, nil
}

// buildPayload validates the request payload against the tipo and produces
// the persisted tagged union. The switch is exhaustive: anything outside the
// two known tipos is invalid input.
func buildPayload(tipo string, dto SolicitudPayloadDTO) (model.SolicitudPayload, error) {
	switch tipo {
	case model.SolicitudAbono:
		if dto.Abono == nil {
			return model.SolicitudPayload{}, fmt.Errorf("%w: payload de abono requerido", ErrValidation)
		}
		if !dto.Abono.Monto.IsPositive() {
			return model.SolicitudPayload{}, fmt.Errorf("%w: monto inválido", ErrValidation)
		}
		return model.SolicitudPayload{Abono: &model.AbonoPayload{
			Monto:        dto.Abono.Monto,
			Metodo:       dto.Abono.Metodo,
			Nota:         dto.Abono.Nota,
			EvidenciaURL: dto.Abono.EvidenciaURL,
		}}, nil

	case model.SolicitudCambioEstado:
		if dto.CambioEstado == nil {
			return model.SolicitudPayload{}, fmt.Errorf("%w: payload de cambio de estado requerido", ErrValidation)
		}
		if !model.EstadoTerminal(dto.CambioEstado.NuevoEstado) {
			return model.SolicitudPayload{}, fmt.Errorf("%w: estado inválido", ErrValidation)
		}
		return model.SolicitudPayload{CambioEstado: &model.CambioEstadoPayload{
			NuevoEstado: dto.CambioEstado.NuevoEstado,
			Motivo:      dto.CambioEstado.Motivo,
		}}, nil

	default:
		return model.SolicitudPayload{}, fmt.Errorf("%w: tipo inválido", ErrValidation)
	}
}

// --- Reads ---

func (s *approvalService) List(ctx context.Context, actor model.Actor, filter ListarSolicitudesFilter) ([]model.ApprovalRequest, error) {
	repoFilter := repository.SolicitudFilter{
		Estado: filter.Estado,
		Tipo:   filter.Tipo,
		Codigo: filter.Codigo,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	if filter.ProyectoID != "" {
		proyectoID, err := uuid.Parse(filter.ProyectoID)
		if err != nil {
			return nil, fmt.Errorf("%w: proyectoId inválido", ErrValidation)
		}
		repoFilter.ProyectoID = &proyectoID
	}
	// Titulares see everything; everyone else only their own solicitudes.
	if !actor.EsTitular() {
		id := actor.ID
		repoFilter.SolicitanteID = &id
	}
	return s.solicitudes.List(ctx, repoFilter)
}

func (s *approvalService) ListMine(ctx context.Context, actor model.Actor) ([]model.ApprovalRequest, error) {
	id := actor.ID
	return s.solicitudes.List(ctx, repository.SolicitudFilter{SolicitanteID: &id})
}

func (s *approvalService) GetByID(ctx context.Context, actor model.Actor, id string) (*model.ApprovalRequest, error) {
	solicitudID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: solicitud no existe", ErrNotFound)
	}
	solicitud, err := s.solicitudes.FindByIDWithRelations(ctx, solicitudID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: solicitud no existe", ErrNotFound)
		}
		return nil, err
	}
	if !actor.EsTitular() && solicitud.SolicitanteID != actor.ID {
		return nil, fmt.Errorf("%w: la solicitud pertenece a otro usuario", ErrForbidden)
	}
	return solicitud, nil
}

// --- Approve ---

func (s *approvalService) Approve(ctx context.Context, actor model.Actor, id string, comentario string) (*DecisionResult, error) {
	if !actor.EsTitular() {
		return nil, fmt.Errorf("%w: solo titulares pueden aprobar", ErrForbidden)
	}
	solicitudID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: solicitud no existe", ErrNotFound)
	}

	var (
		conflictoRev  bool
		solicitanteID uuid.UUID
		proyectoID    uuid.UUID
		codigo        string
	)
	now := time.Now()

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		solicitud, findErr := s.solicitudes.FindByID(txCtx, solicitudID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: solicitud no existe", ErrNotFound)
			}
			return findErr
		}
		if solicitud.Estado != model.SolicitudPendiente {
			return fmt.Errorf("%w (%s)", ErrConflict, solicitud.Estado)
		}

		proyecto, findErr := s.proyectos.FindByID(txCtx, solicitud.ProyectoID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: proyecto no existe", ErrNotFound)
			}
			return findErr
		}

		solicitanteID = solicitud.SolicitanteID
		proyectoID = solicitud.ProyectoID
		codigo = solicitud.Codigo

		comentarioFinal := strings.TrimSpace(comentario)
		if solicitud.EsAutoAprobacion(actor.ID) {
			comentarioFinal = strings.TrimSpace(model.MarcaAutoAprobado + " " + comentarioFinal)
		}

		switch solicitud.Tipo {
		case model.SolicitudAbono:
			abono := solicitud.Payload.Abono
			if abono == nil || !abono.Monto.IsPositive() {
				return fmt.Errorf("%w: monto de abono inválido", ErrValidation)
			}
			if err := s.transition(txCtx, solicitud, model.SolicitudAprobada, model.AccionAprobada, actor.ID, now, comentarioFinal); err != nil {
				return err
			}
			if incErr := s.proyectos.IncrementSaldoAbonado(txCtx, solicitud.ProyectoID, abono.Monto); incErr != nil {
				return fmt.Errorf("failed to apply abono: %w", incErr)
			}
			return s.abonos.Create(txCtx, &model.Abono{
				ProyectoID:      solicitud.ProyectoID,
				Monto:           abono.Monto,
				Metodo:          abono.Metodo,
				Nota:            abono.Nota,
				EvidenciaURL:    abono.EvidenciaURL,
				SolicitadoPorID: solicitud.SolicitanteID,
				AprobadoPorID:   actor.ID,
				SolicitadoEn:    solicitud.SolicitadaEn,
				AprobadoEn:      now,
				SolicitudID:     solicitud.ID,
			})

		case model.SolicitudCambioEstado:
			cambio := solicitud.Payload.CambioEstado
			if cambio == nil || !model.EstadoTerminal(cambio.NuevoEstado) {
				return fmt.Errorf("%w: estado inválido", ErrValidation)
			}
			if proyecto.Rev != solicitud.RevProyectoBase {
				// The project was edited after this solicitud was filed; the
				// requested change no longer describes the document the
				// requester saw. Park the solicitud in CONFLICTO and commit.
				nota := fmt.Sprintf("Conflicto de revisión: proyecto en rev %d, solicitud basada en rev %d",
					proyecto.Rev, solicitud.RevProyectoBase)
				if err := s.transition(txCtx, solicitud, model.SolicitudConflicto, model.AccionConflicto, actor.ID, now, nota); err != nil {
					return err
				}
				conflictoRev = true
				return nil
			}
			if err := s.transition(txCtx, solicitud, model.SolicitudAprobada, model.AccionAprobada, actor.ID, now, comentarioFinal); err != nil {
				return err
			}
			return s.proyectos.SetEstado(txCtx, solicitud.ProyectoID, cambio.NuevoEstado)

		default:
			return fmt.Errorf("%w: tipo desconocido %s", ErrValidation, solicitud.Tipo)
		}
	})
	if err != nil {
		return nil, err
	}

	if conflictoRev {
		s.notify(ctx, NotificationInput{
			UsuarioID:  solicitanteID,
			ProyectoID: &proyectoID,
			Tipo:       model.NotifAprobacionResuelta,
			Titulo:     "Solicitud en conflicto",
			Mensaje:    fmt.Sprintf("Tu solicitud %s quedó en conflicto: el proyecto cambió después de crearla.", codigo),
		})
		return nil, fmt.Errorf("%w: el proyecto cambió desde que se creó la solicitud", ErrConflict)
	}

	solicitud, err := s.solicitudes.FindByIDWithRelations(ctx, solicitudID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload solicitud: %w", err)
	}
	proyecto, err := s.proyectos.FindByIDWithParticipantes(ctx, proyectoID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload proyecto: %w", err)
	}

	s.notify(ctx, NotificationInput{
		UsuarioID:  solicitanteID,
		ProyectoID: &proyectoID,
		Tipo:       model.NotifAprobacionResuelta,
		Titulo:     "Solicitud aprobada",
		Mensaje:    fmt.Sprintf("Tu solicitud %s fue aprobada.", codigo),
	})
	s.publish("proyecto-actualizado", map[string]interface{}{"proyectoId": proyectoID})

	return &DecisionResult{Solicitud: solicitud, Proyecto: proyecto}, nil
}

// transition performs the compare-and-set state change plus its history entry.
// Losing the CAS means a concurrent caller decided first.
func (s *approvalService) transition(txCtx context.Context, solicitud *model.ApprovalRequest, estado, accion string, actorID uuid.UUID, en time.Time, nota string) error {
	ok, err := s.solicitudes.MarkDecided(txCtx, solicitud.ID, estado, actorID, en, nota)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w", ErrConflict)
	}
	return s.solicitudes.AppendEvent(txCtx, &model.ApprovalEvent{
		SolicitudID: solicitud.ID,
		Accion:      accion,
		PorID:       actorID,
		En:          en,
		Nota:        nota,
	})
}

// --- Reject ---

func (s *approvalService) Reject(ctx context.Context, actor model.Actor, id string, comentario string) (*model.ApprovalRequest, error) {
	if !actor.EsTitular() {
		return nil, fmt.Errorf("%w: solo titulares pueden rechazar", ErrForbidden)
	}
	solicitudID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: solicitud no existe", ErrNotFound)
	}

	var (
		solicitanteID uuid.UUID
		proyectoID    uuid.UUID
		codigo        string
	)
	now := time.Now()
	comentarioFinal := strings.TrimSpace(comentario)

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		solicitud, findErr := s.solicitudes.FindByID(txCtx, solicitudID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: solicitud no existe", ErrNotFound)
			}
			return findErr
		}
		if solicitud.Estado != model.SolicitudPendiente {
			return fmt.Errorf("%w (%s)", ErrConflict, solicitud.Estado)
		}
		solicitanteID = solicitud.SolicitanteID
		proyectoID = solicitud.ProyectoID
		codigo = solicitud.Codigo
		return s.transition(txCtx, solicitud, model.SolicitudRechazada, model.AccionRechazada, actor.ID, now, comentarioFinal)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, NotificationInput{
		UsuarioID:  solicitanteID,
		ProyectoID: &proyectoID,
		Tipo:       model.NotifAprobacionResuelta,
		Titulo:     "Solicitud rechazada",
		Mensaje:    fmt.Sprintf("Tu solicitud %s fue rechazada.", codigo),
	})

	solicitud, err := s.solicitudes.FindByIDWithRelations(ctx, solicitudID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload solicitud: %w", err)
	}
	return solicitud, nil
}

// --- Cancel ---

func (s *approvalService) Cancel(ctx context.Context, actor model.Actor, id string) (*model.ApprovalRequest, error) {
	solicitudID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: solicitud no existe", ErrNotFound)
	}

	now := time.Now()
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		solicitud, findErr := s.solicitudes.FindByID(txCtx, solicitudID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: solicitud no existe", ErrNotFound)
			}
			return findErr
		}
		if solicitud.Estado != model.SolicitudPendiente {
			return fmt.Errorf("%w (%s)", ErrConflict, solicitud.Estado)
		}
		if solicitud.SolicitanteID != actor.ID && !actor.EsTitular() {
			return fmt.Errorf("%w: solo el solicitante o un titular pueden cancelar", ErrForbidden)
		}

		ok, casErr := s.solicitudes.MarkCancelled(txCtx, solicitud.ID)
		if casErr != nil {
			return casErr
		}
		if !ok {
			return fmt.Errorf("%w", ErrConflict)
		}
		return s.solicitudes.AppendEvent(txCtx, &model.ApprovalEvent{
			SolicitudID: solicitud.ID,
			Accion:      model.AccionCancelada,
			PorID:       actor.ID,
			En:          now,
		})
	})
	if err != nil {
		return nil, err
	}

	solicitud, err := s.solicitudes.FindByIDWithRelations(ctx, solicitudID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload solicitud: %w", err)
	}
	return solicitud, nil
}

// --- Edit lock ---

func (s *approvalService) ProjectLock(ctx context.Context, proyectoID string) (*BloqueoResult, error) {
	id, err := uuid.Parse(proyectoID)
	if err != nil {
		return nil, fmt.Errorf("%w: proyectoId inválido", ErrValidation)
	}
	solicitud, err := s.solicitudes.FindPendingCambioEstado(ctx, id)
	if err != nil {
		return nil, err
	}
	if solicitud == nil {
		return &BloqueoResult{Bloqueado: false}, nil
	}
	return &BloqueoResult{Bloqueado: true, Solicitud: solicitud}, nil
}

// --- Side-effect helpers ---

// notifyTitulares fans the creation event out to every active titular.
// Best-effort: a failed notification is logged and swallowed.
func (s *approvalService) notifyTitulares(ctx context.Context, proyecto *model.Project, solicitud *model.ApprovalRequest) {
	titulares, err := s.usuarios.FindActiveTitulares(ctx)
	if err != nil {
		log.Printf("notificación de solicitud %s: no se pudieron obtener titulares: %v", solicitud.Codigo, err)
		return
	}
	nombre := proyecto.Nombre
	if nombre == "" {
		nombre = proyecto.CodigoProyecto
	}
	for _, titular := range titulares {
		proyectoID := proyecto.ID
		s.notify(ctx, NotificationInput{
			UsuarioID:  titular.ID,
			ProyectoID: &proyectoID,
			Tipo:       model.NotifAprobacionSolicitada,
			Titulo:     "Nueva solicitud de aprobación",
			Mensaje:    fmt.Sprintf("Solicitud %s en proyecto %s.", solicitud.Codigo, nombre),
		})
	}
}

func (s *approvalService) notify(ctx context.Context, input NotificationInput) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, input); err != nil {
		log.Printf("notificación fallida (%s para %s): %v", input.Tipo, input.UsuarioID, err)
	}
}

func (s *approvalService) publish(event string, data interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(event, data)
}
