package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notificaciones := router.Group("/api/notificaciones", middleware.RequireAuth())
	{
		notificaciones.GET("", h.List)
		notificaciones.GET("/conteo", h.Count)
		notificaciones.DELETE("/:id", h.MarkRead)
		notificaciones.DELETE("", h.MarkAllRead)
	}
}

// List returns the caller's notifications, newest first
// @Summary      List notifications
// @Tags         notificaciones
// @Produce      json
// @Security     BearerAuth
// @Param        tipo   query     string  false  "Filter by tipo"
// @Param        limit  query     int     false  "Max results (default 20, cap 100)"
// @Success      200    {object}  response.Response{data=[]model.Notification}
// @Router       /api/notificaciones [get]
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "No autenticado"))
		return
	}

	pag := pagination.Parse(c)
	notifs, err := h.notificationService.List(c.Request.Context(), actor, c.Query("tipo"), pag.Limit)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, notifs))
}

// Count aggregates pending notifications by group
// @Summary      Count notifications
// @Tags         notificaciones
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.ConteoNotificaciones}
// @Router       /api/notificaciones/conteo [get]
func (h *NotificationHandler) Count(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "No autenticado"))
		return
	}

	conteo, err := h.notificationService.Count(c.Request.Context(), actor)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, conteo))
}

// MarkRead deletes one notification (reading removes it)
// @Summary      Read-and-delete one notification
// @Tags         notificaciones
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification id"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/notificaciones/{id} [delete]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "No autenticado"))
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), actor, c.Param("id")); err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"ok": true}))
}

// MarkAllRead deletes all of the caller's notifications, optionally by tipo
// @Summary      Read-and-delete all notifications
// @Tags         notificaciones
// @Produce      json
// @Security     BearerAuth
// @Param        tipo  query     string  false  "Restrict to one tipo"
// @Success      200   {object}  response.Response
// @Router       /api/notificaciones [delete]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "No autenticado"))
		return
	}

	deleted, err := h.notificationService.MarkAllRead(c.Request.Context(), actor, c.Query("tipo"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"ok": true, "deletedCount": deleted}))
}
