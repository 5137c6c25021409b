package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	solicitudes := router.Group("/api/solicitudes", middleware.RequireAuth())
	{
		solicitudes.GET("/bloqueo/:proyectoId", h.ProjectLock)
		solicitudes.POST("", h.Create)
		solicitudes.GET("", h.List)
		solicitudes.GET("/mias", h.ListMine)
		solicitudes.GET("/:id", h.GetByID)
		solicitudes.POST("/:id/aprobar", h.Approve)
		solicitudes.POST("/:id/rechazar", h.Reject)
		solicitudes.POST("/:id/cancelar", h.Cancel)
	}
}

type decisionBody struct {
	Comentario string `json:"comentario"`
}

// Create files a new solicitud de aprobación
// @Summary      Create solicitud
// @Description  Files an ABONO or CAMBIO_ESTADO approval request for a project
// @Tags         solicitudes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CrearSolicitudRequest  true  "Solicitud"
// @Success      201      {object}  response.Response{data=model.ApprovalRequest}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/solicitudes [post]
func (h *ApprovalHandler) Create(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "No autenticado"))
		return
	}

	var req service.CrearSolicitudRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	solicitud, err := h.approvalService.Create(c.Request.Context(), actor, req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, solicitud))
}

// List returns solicitudes; titulares see all, others only their own
// @Summary      List solicitudes
// @Tags         solicitudes
// @Produce      json
// @Security     BearerAuth
// @Param        estado      query  string  false  "Filter by estado"
// @Param        tipo        query  string  false  "Filter by tipo"
// @Param        proyectoId  query  string  false  "Filter by project"
// @Param        q           query  string  false  "Substring match on codigo"
// @Param        page        query  int     false  "Page number (default 1)"
// @Param        limit       query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=[]model.ApprovalRequest}
// @Router       /api/solicitudes [get]
func (h *ApprovalHandler) List(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "No autenticado"))
		return
	}

	pag := pagination.Parse(c)
	filter := service.ListarSolicitudesFilter{
		Estado:     c.Query("estado"),
		Tipo:       c.Query("tipo"),
		ProyectoID: c.Query("proyectoId"),
		Codigo:     c.Query("q"),
		Limit:      pag.Limit,
		Offset:     pag.Offset,
	}

	solicitudes, err := h.approvalService.List(c.Request.Context(), actor, filter)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, solicitudes))
}

// ListMine returns only the caller's solicitudes
// @Summary      List own solicitudes
// @Tags         solicitudes
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.ApprovalRequest}
// @Router       /api/solicitudes/mias [get]
func (h *ApprovalHandler) ListMine(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "No autenticado"))
		return
	}

	solicitudes, err := h.approvalService.ListMine(c.Request.Context(), actor)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, solicitudes))
}

// GetByID returns one solicitud with its historial
// @Summary      Get solicitud
// @Tags         solicitudes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Solicitud id"
// @Success      200  {object}  response.Response{data=model.ApprovalRequest}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/solicitudes/{id} [get]
func (h *ApprovalHandler) GetByID(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "No autenticado"))
		return
	}

	solicitud, err := h.approvalService.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, solicitud))
}

// Approve resolves a pending solicitud, applying its effect to the project
// @Summary      Approve solicitud
// @Description  Applies the abono or state change atomically and resolves the solicitud
// @Tags         solicitudes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string        true   "Solicitud id"
// @Param        payload  body      decisionBody  false  "Decision comment"
// @Success      200      {object}  response.Response{data=service.DecisionResult}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/solicitudes/{id}/aprobar [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "No autenticado"))
		return
	}

	var body decisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		// Comentario is optional; an empty body is fine.
		body.Comentario = ""
	}

	result, err := h.approvalService.Approve(c.Request.Context(), actor, c.Param("id"), body.Comentario)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Reject resolves a pending solicitud without touching the project
// @Summary      Reject solicitud
// @Tags         solicitudes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string        true   "Solicitud id"
// @Param        payload  body      decisionBody  false  "Decision comment"
// @Success      200      {object}  response.Response{data=model.ApprovalRequest}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/solicitudes/{id}/rechazar [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "No autenticado"))
		return
	}

	var body decisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		body.Comentario = ""
	}

	solicitud, err := h.approvalService.Reject(c.Request.Context(), actor, c.Param("id"), body.Comentario)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, solicitud))
}

// Cancel withdraws a pending solicitud
// @Summary      Cancel solicitud
// @Tags         solicitudes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Solicitud id"
// @Success      200  {object}  response.Response{data=model.ApprovalRequest}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/solicitudes/{id}/cancelar [post]
func (h *ApprovalHandler) Cancel(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "No autenticado"))
		return
	}

	solicitud, err := h.approvalService.Cancel(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, solicitud))
}

// ProjectLock answers whether a pending terminal-state solicitud blocks a project
// @Summary      Project edit-lock check
// @Tags         solicitudes
// @Produce      json
// @Security     BearerAuth
// @Param        proyectoId  path      string  true  "Project id"
// @Success      200         {object}  service.BloqueoResult
// @Router       /api/solicitudes/bloqueo/{proyectoId} [get]
func (h *ApprovalHandler) ProjectLock(c *gin.Context) {
	result, err := h.approvalService.ProjectLock(c.Request.Context(), c.Param("proyectoId"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
