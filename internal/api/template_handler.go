package api

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateHandler serves template authoring and materialization.
type TemplateHandler struct {
	templateService service.TemplateService
	viewService     service.PlanViewService
	materializer    service.Materializer
}

func NewTemplateHandler(templateService service.TemplateService, viewService service.PlanViewService, materializer service.Materializer) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
		viewService:     viewService,
		materializer:    materializer,
	}
}

type MaterializeRequest struct {
	ClientID string `json:"clientId" binding:"required"`
}

func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.TemplateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	tmpl, err := h.templateService.CreateTemplate(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

// ListTemplates godoc
// @Summary List templates for the plan builder
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Param type query string false "training or nutrition"
// @Param lang query string false "sr, en or ru"
// @Success 200 {array} service.TemplateSummary
// @Router /admin/templates [get]
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	templates, err := h.viewService.ListTemplates(c.Request.Context(), actor, domain.PlanType(c.Query("type")), localeFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tmpl, err := h.templateService.GetTemplate(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.TemplateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	tmpl, err := h.templateService.UpdateTemplate(c.Request.Context(), actor, id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.templateService.DeleteTemplate(c.Request.Context(), actor, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Materialize godoc
// @Summary Create a client plan from a template
// @Description Copies every day and item of the template into a new draft plan.
// @Description A run that stops part way answers 503 with the job id to resume or discard.
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Param request body MaterializeRequest true "Target client"
// @Success 201 {object} service.MaterializationResult
// @Failure 503 {object} gin.H "Materialization stopped part way (retryable)"
// @Router /admin/templates/{id}/materialize [post]
func (h *TemplateHandler) Materialize(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req MaterializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid clientId format.")
		return
	}
	result, err := h.materializer.Materialize(c.Request.Context(), actor, templateID, clientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// --- Materialization jobs ---

// ListJobs returns the admin's failed materialization jobs.
func (h *TemplateHandler) ListJobs(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if status := c.DefaultQuery("status", string(domain.JobFailed)); status != string(domain.JobFailed) {
		abortWithError(c, http.StatusBadRequest, "Only status=failed can be listed.")
		return
	}
	jobs, err := h.materializer.ListFailedJobs(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *TemplateHandler) GetJob(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	job, err := h.materializer.GetMaterializationJob(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *TemplateHandler) ResumeJob(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.materializer.ResumeMaterialization(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TemplateHandler) DiscardJob(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	job, err := h.materializer.DiscardMaterialization(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}
