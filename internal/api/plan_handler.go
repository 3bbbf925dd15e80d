package api

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/repository"
	"alcyxob/coaching-plans/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler serves plan editing for admins and plan views for both roles.
type PlanHandler struct {
	planService service.PlanService
	viewService service.PlanViewService
}

func NewPlanHandler(planService service.PlanService, viewService service.PlanViewService) *PlanHandler {
	return &PlanHandler{planService: planService, viewService: viewService}
}

// --- DTOs ---

type CreatePlanRequest struct {
	Type domain.PlanType      `json:"type" binding:"required,oneof=training nutrition"`
	Name domain.LocalizedText `json:"name"`
}

type RenamePlanRequest struct {
	Name domain.LocalizedText `json:"name"`
}

type AddDayRequest struct {
	Weekday *domain.Weekday      `json:"weekday"` // Omit for an ordinal day
	Label   domain.LocalizedText `json:"label"`
}

func planFilterFromQuery(c *gin.Context) repository.PlanFilter {
	return repository.PlanFilter{
		Type:   domain.PlanType(c.Query("type")),
		Status: domain.PlanStatus(c.Query("status")),
	}
}

// --- Plans ---

// CreatePlan godoc
// @Summary Create an empty draft plan for a client
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Param plan body CreatePlanRequest true "Plan type and name"
// @Success 201 {object} domain.Plan
// @Failure 403 {object} gin.H "Client is not on the admin's roster"
// @Router /admin/clients/{clientId}/plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	clientID, ok := pathID(c, "clientId")
	if !ok {
		return
	}
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	plan, err := h.planService.CreatePlan(c.Request.Context(), actor, clientID, req.Type, req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// ListClientPlans lists the plans of the client in the path.
func (h *PlanHandler) ListClientPlans(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	clientID, ok := pathID(c, "clientId")
	if !ok {
		return
	}
	h.listPlans(c, actor, clientID)
}

// ListMyPlans lists the calling client's own plans.
func (h *PlanHandler) ListMyPlans(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	h.listPlans(c, actor, actor.UserID)
}

func (h *PlanHandler) listPlans(c *gin.Context, actor domain.Actor, clientID primitive.ObjectID) {
	plans, err := h.planService.ListPlans(c.Request.Context(), actor, clientID, planFilterFromQuery(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if plans == nil {
		plans = []domain.Plan{}
	}
	c.JSON(http.StatusOK, plans)
}

// GetPlan godoc
// @Summary Get a plan with every day and item, names resolved for the request locale
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param lang query string false "sr, en or ru"
// @Success 200 {object} service.PlanDetail
// @Router /admin/plans/{planId} [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	detail, err := h.viewService.GetPlanDetail(c.Request.Context(), actor, planID, localeFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *PlanHandler) RenamePlan(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	var req RenamePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	plan, err := h.planService.RenamePlan(c.Request.Context(), actor, planID, req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *PlanHandler) ActivatePlan(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	plan, err := h.planService.ActivatePlan(c.Request.Context(), actor, planID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *PlanHandler) ArchivePlan(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	plan, err := h.planService.ArchivePlan(c.Request.Context(), actor, planID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *PlanHandler) DeletePlan(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	if err := h.planService.DeletePlan(c.Request.Context(), actor, planID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Days ---

// AddDay godoc
// @Summary Append a day to a plan
// @Description The day gets the next sortOrder of the plan; positions are never reused.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param day body AddDayRequest true "Weekday (1 = Monday) and label"
// @Success 201 {object} domain.Day
// @Failure 422 {object} gin.H "Weekday out of range or already used"
// @Router /admin/plans/{planId}/days [post]
func (h *PlanHandler) AddDay(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	var req AddDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	day, err := h.planService.AddDay(c.Request.Context(), actor, planID, req.Weekday, req.Label)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, day)
}

func (h *PlanHandler) UpdateDay(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	dayID, ok := pathID(c, "dayId")
	if !ok {
		return
	}
	var patch domain.DayPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	day, err := h.planService.UpdateDay(c.Request.Context(), actor, dayID, patch)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

func (h *PlanHandler) DeleteDay(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	dayID, ok := pathID(c, "dayId")
	if !ok {
		return
	}
	if err := h.planService.DeleteDay(c.Request.Context(), actor, dayID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Items ---

func (h *PlanHandler) AddItem(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	dayID, ok := pathID(c, "dayId")
	if !ok {
		return
	}
	var req domain.ItemBlueprint
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	item, err := h.planService.AddItem(c.Request.Context(), actor, dayID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateItem applies a partial update; absent fields are left untouched.
func (h *PlanHandler) UpdateItem(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	var patch domain.ItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	item, err := h.planService.UpdateItem(c.Request.Context(), actor, itemID, patch)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *PlanHandler) DeleteItem(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	if err := h.planService.DeleteItem(c.Request.Context(), actor, itemID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Dashboards ---

// ClientDashboard shows an admin the "today" view of one of their clients.
func (h *PlanHandler) ClientDashboard(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	clientID, ok := pathID(c, "clientId")
	if !ok {
		return
	}
	h.dashboard(c, actor, clientID)
}

// MyDashboard godoc
// @Summary Today's day and next workout for each active plan
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Param lang query string false "sr, en or ru"
// @Success 200 {object} service.Dashboard
// @Router /client/dashboard [get]
func (h *PlanHandler) MyDashboard(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	h.dashboard(c, actor, actor.UserID)
}

func (h *PlanHandler) dashboard(c *gin.Context, actor domain.Actor, clientID primitive.ObjectID) {
	dash, err := h.viewService.GetDashboard(c.Request.Context(), actor, clientID, localeFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}
