package service

import (
	"context"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

const (
	notifDefaultLimit = 20
	notifMaxLimit     = 100
)

// ConteoNotificaciones aggregates a user's pending notifications by group.
type ConteoNotificaciones struct {
	Total        int64 `json:"total"`
	Chat         int64 `json:"chat"`
	Aprobaciones int64 `json:"aprobaciones"`
}

// NotificationService persists per-user notifications and pushes them to the
// websocket hub. It also implements the Notifier capability the workflow
// engine is constructed with.
type NotificationService interface {
	Notifier
	List(ctx context.Context, actor model.Actor, tipo string, limit int) ([]model.Notification, error)
	Count(ctx context.Context, actor model.Actor) (*ConteoNotificaciones, error)
	// MarkRead deletes a single notification: reading one removes it.
	MarkRead(ctx context.Context, actor model.Actor, id string) error
	// MarkAllRead deletes all of the actor's notifications, or only those of
	// one tipo. Returns the number removed.
	MarkAllRead(ctx context.Context, actor model.Actor, tipo string) (int64, error)
}

type notificationService struct {
	notificaciones repository.NotificationRepository
	publisher      Publisher
}

func NewNotificationService(notificaciones repository.NotificationRepository, publisher Publisher) NotificationService {
	return &notificationService{notificaciones: notificaciones, publisher: publisher}
}

// Notify persists the notification, then pushes it to connected clients.
// The push is best-effort; persistence is the source of truth.
func (s *notificationService) Notify(ctx context.Context, input NotificationInput) error {
	notif := &model.Notification{
		UsuarioID:  input.UsuarioID,
		ProyectoID: input.ProyectoID,
		Tipo:       input.Tipo,
		Titulo:     input.Titulo,
		Mensaje:    input.Mensaje,
	}
	if err := s.notificaciones.Create(ctx, notif); err != nil {
		return fmt.Errorf("failed to persist notification: %w", err)
	}
	if s.publisher != nil {
		s.publisher.Publish("notificacion", notif)
	}
	return nil
}

func (s *notificationService) List(ctx context.Context, actor model.Actor, tipo string, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = notifDefaultLimit
	}
	if limit > notifMaxLimit {
		limit = notifMaxLimit
	}
	return s.notificaciones.ListByUsuario(ctx, actor.ID, tipo, limit)
}

func (s *notificationService) Count(ctx context.Context, actor model.Actor) (*ConteoNotificaciones, error) {
	chat, err := s.notificaciones.CountByUsuarioAndTipo(ctx, actor.ID, model.NotifChatMensaje)
	if err != nil {
		return nil, err
	}
	solicitadas, err := s.notificaciones.CountByUsuarioAndTipo(ctx, actor.ID, model.NotifAprobacionSolicitada)
	if err != nil {
		return nil, err
	}
	resueltas, err := s.notificaciones.CountByUsuarioAndTipo(ctx, actor.ID, model.NotifAprobacionResuelta)
	if err != nil {
		return nil, err
	}
	return &ConteoNotificaciones{
		Total:        chat + solicitadas + resueltas,
		Chat:         chat,
		Aprobaciones: solicitadas + resueltas,
	}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor model.Actor, id string) error {
	notifID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: notificación no existe", ErrNotFound)
	}
	ok, err := s.notificaciones.DeleteOne(ctx, actor.ID, notifID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: notificación no existe", ErrNotFound)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor model.Actor, tipo string) (int64, error) {
	return s.notificaciones.DeleteByUsuario(ctx, actor.ID, tipo)
}
