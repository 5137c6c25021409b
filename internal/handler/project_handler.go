package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectService service.ProjectService
}

func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func (h *ProjectHandler) RegisterRoutes(router *gin.RouterGroup) {
	proyectos := router.Group("/api/proyectos", middleware.RequireAuth())
	{
		proyectos.GET("", h.List)
		proyectos.POST("", h.Create)
		proyectos.GET("/:id", h.GetByID)
		proyectos.PUT("/:id", h.Update)
		proyectos.GET("/:id/abonos", h.ListAbonos)
	}
}

// Create registers a new project with a sequential P-code
// @Summary      Create project
// @Tags         proyectos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CrearProyectoRequest  true  "Project"
// @Success      201      {object}  response.Response{data=model.Project}
// @Failure      400      {object}  response.Response
// @Router       /api/proyectos [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var req service.CrearProyectoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	proyecto, err := h.projectService.Create(c.Request.Context(), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, proyecto))
}

// List returns projects, optionally narrowed for the chat view
// @Summary      List projects
// @Tags         proyectos
// @Produce      json
// @Security     BearerAuth
// @Param        scope  query     string  false  "chat narrows to participated projects"
// @Success      200    {object}  response.Response{data=[]model.Project}
// @Router       /api/proyectos [get]
func (h *ProjectHandler) List(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "No autenticado"))
		return
	}

	proyectos, err := h.projectService.List(c.Request.Context(), actor, c.Query("scope"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, proyectos))
}

// GetByID returns one project with its participants
// @Summary      Get project
// @Tags         proyectos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project id"
// @Success      200  {object}  response.Response{data=model.Project}
// @Failure      404  {object}  response.Response
// @Router       /api/proyectos/{id} [get]
func (h *ProjectHandler) GetByID(c *gin.Context) {
	proyecto, err := h.projectService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, proyecto))
}

// Update edits project fields; refused while an edit lock is active
// @Summary      Update project
// @Description  Direct field edit. Responds 423 when the project is terminal or a pending CAMBIO_ESTADO solicitud blocks it.
// @Tags         proyectos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                             true  "Project id"
// @Param        payload  body      service.ActualizarProyectoRequest  true  "Fields"
// @Success      200      {object}  response.Response{data=model.Project}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      423      {object}  response.Response
// @Router       /api/proyectos/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "No autenticado"))
		return
	}

	var req service.ActualizarProyectoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	proyecto, err := h.projectService.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, proyecto))
}

// ListAbonos returns the project's approved payment ledger
// @Summary      List project abonos
// @Tags         proyectos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project id"
// @Success      200  {object}  response.Response{data=[]model.Abono}
// @Failure      404  {object}  response.Response
// @Router       /api/proyectos/{id}/abonos [get]
func (h *ProjectHandler) ListAbonos(c *gin.Context) {
	abonos, err := h.projectService.ListAbonos(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, abonos))
}
