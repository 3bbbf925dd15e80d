package service

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/repository"
	"context"
	"errors"
	"strings"
)

// --- Error Definitions ---
var (
	ErrClientNotRole         = errors.New("user found but is not a client")
	ErrClientAlreadyAssigned = errors.New("client is already managed by another admin")
)

// RosterService manages which clients an admin coaches.
type RosterService interface {
	AddClientByEmail(ctx context.Context, actor domain.Actor, clientEmail string) (*domain.User, error)
	ListClients(ctx context.Context, actor domain.Actor) ([]domain.User, error)
}

// rosterService implements the RosterService interface.
type rosterService struct {
	userRepo repository.UserRepository
	guard    accessGuard
}

// NewRosterService creates a new instance of rosterService.
func NewRosterService(userRepo repository.UserRepository) RosterService {
	return &rosterService{
		userRepo: userRepo,
		guard:    accessGuard{userRepo: userRepo},
	}
}

// AddClientByEmail finds a registered client by email and puts them on the admin's roster.
func (s *rosterService) AddClientByEmail(ctx context.Context, actor domain.Actor, clientEmail string) (*domain.User, error) {
	if err := s.guard.requireAdmin(actor); err != nil {
		return nil, err
	}
	clientEmail = strings.ToLower(strings.TrimSpace(clientEmail))
	if clientEmail == "" {
		return nil, invalid("email", "is required")
	}

	client, err := s.userRepo.GetByEmail(ctx, clientEmail)
	if err != nil {
		return nil, storeError("lookup client", err, ErrClientNotFound)
	}
	if client.Role != domain.RoleClient {
		return nil, ErrClientNotRole
	}

	if client.AdminID != nil {
		if *client.AdminID == actor.UserID {
			client.PasswordHash = ""
			return client, nil
		}
		return nil, ErrClientAlreadyAssigned
	}

	// Client side first: it is what access checks read.
	if err := s.userRepo.SetAdminForClient(ctx, client.ID, actor.UserID); err != nil {
		return nil, storeError("assign client", err, ErrClientNotFound)
	}
	if err := s.userRepo.AddClientIDToAdmin(ctx, actor.UserID, client.ID); err != nil {
		return nil, storeError("update admin roster", err, ErrAccessDenied)
	}

	client.AdminID = &actor.UserID
	client.PasswordHash = ""
	return client, nil
}

// ListClients retrieves the clients managed by the admin.
func (s *rosterService) ListClients(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if err := s.guard.requireAdmin(actor); err != nil {
		return nil, err
	}
	clients, err := s.userRepo.GetClientsByAdminID(ctx, actor.UserID)
	if err != nil {
		return nil, storeError("list clients", err, nil)
	}
	for i := range clients {
		clients[i].PasswordHash = ""
	}
	return clients, nil
}
