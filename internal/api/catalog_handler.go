package api

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the shared exercise and food catalogs.
type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

type ImageUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmImageRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

// --- Exercises ---

// CreateExercise godoc
// @Summary Create a catalog exercise
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exercise body service.ExerciseInput true "Exercise details"
// @Success 201 {object} service.ExerciseDetail
// @Failure 422 {object} gin.H "Invalid slug or missing default-locale name"
// @Router /admin/exercises [post]
func (h *CatalogHandler) CreateExercise(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.ExerciseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	exercise, err := h.catalogService.CreateExercise(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exercise)
}

func (h *CatalogHandler) ListExercises(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	exercises, err := h.catalogService.ListExercises(c.Request.Context(), actor, c.Query("category"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercises)
}

func (h *CatalogHandler) GetExercise(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	exercise, err := h.catalogService.GetExercise(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercise)
}

func (h *CatalogHandler) UpdateExercise(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.ExerciseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	exercise, err := h.catalogService.UpdateExercise(c.Request.Context(), actor, id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercise)
}

func (h *CatalogHandler) DeleteExercise(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteExercise(c.Request.Context(), actor, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Foods ---

func (h *CatalogHandler) CreateFood(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.FoodInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	food, err := h.catalogService.CreateFood(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, food)
}

func (h *CatalogHandler) ListFoods(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	foods, err := h.catalogService.ListFoods(c.Request.Context(), actor, c.Query("category"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, foods)
}

func (h *CatalogHandler) GetFood(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	food, err := h.catalogService.GetFood(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, food)
}

func (h *CatalogHandler) UpdateFood(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.FoodInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	food, err := h.catalogService.UpdateFood(c.Request.Context(), actor, id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, food)
}

func (h *CatalogHandler) DeleteFood(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteFood(c.Request.Context(), actor, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Images ---

// RequestImageUploadURL returns a handler issuing presigned upload URLs for one catalog kind.
// @Summary Get a presigned URL to upload a catalog image
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ImageUploadRequest true "Image content type"
// @Success 200 {object} service.ImageUploadURL
// @Failure 501 {object} gin.H "Object storage is not configured"
// @Router /admin/exercises/{id}/image-url [post]
func (h *CatalogHandler) RequestImageUploadURL(kind domain.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := mustActor(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req ImageUploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
		upload, err := h.catalogService.RequestImageUploadURL(c.Request.Context(), actor, kind, id, req.ContentType)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, upload)
	}
}

// ConfirmImage returns a handler attaching an uploaded image to a catalog entry.
func (h *CatalogHandler) ConfirmImage(kind domain.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := mustActor(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req ConfirmImageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
		if err := h.catalogService.ConfirmImage(c.Request.Context(), actor, kind, id, req.ObjectKey); err != nil {
			respondServiceError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
