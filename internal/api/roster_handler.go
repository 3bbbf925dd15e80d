package api

import (
	"alcyxob/coaching-plans/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type RosterHandler struct {
	rosterService service.RosterService
}

func NewRosterHandler(rosterService service.RosterService) *RosterHandler {
	return &RosterHandler{rosterService: rosterService}
}

type AddClientRequest struct {
	ClientEmail string `json:"clientEmail" binding:"required,email"`
}

// AddClientByEmail godoc
// @Summary Add a client to the admin's roster by email
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param clientRequest body AddClientRequest true "Client's email"
// @Success 200 {object} UserResponse "Client successfully added"
// @Failure 404 {object} gin.H "Client not found"
// @Failure 409 {object} gin.H "User is not a client, or already has an admin"
// @Router /admin/clients [post]
func (h *RosterHandler) AddClientByEmail(c *gin.Context) {
	var req AddClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	client, err := h.rosterService.AddClientByEmail(c.Request.Context(), actor, req.ClientEmail)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(client))
}

// GetManagedClients godoc
// @Summary Get the admin's clients
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse "List of managed clients"
// @Router /admin/clients [get]
func (h *RosterHandler) GetManagedClients(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	clients, err := h.rosterService.ListClients(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(clients))
}
