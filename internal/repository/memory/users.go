package memory

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/repository"
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepository struct{ s *Store }

// UserRepository returns the store's repository.UserRepository view.
func (s *Store) UserRepository() repository.UserRepository { return &userRepository{s} }

func (r *userRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	if err := r.s.write(ctx, Users); err != nil {
		return primitive.NilObjectID, err
	}
	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = *user
	return user.ID, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.ClientIDs = append([]primitive.ObjectID(nil), u.ClientIDs...)
	return &u, nil
}

func (r *userRepository) AddClientIDToAdmin(ctx context.Context, adminID, clientID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	admin, ok := r.s.users[adminID]
	if !ok || admin.Role != domain.RoleAdmin {
		return repository.ErrNotFound
	}
	if err := r.s.write(ctx, Users); err != nil {
		return err
	}
	for _, id := range admin.ClientIDs {
		if id == clientID {
			return nil
		}
	}
	admin.ClientIDs = append(append([]primitive.ObjectID(nil), admin.ClientIDs...), clientID)
	admin.UpdatedAt = time.Now().UTC()
	r.s.users[adminID] = admin
	return nil
}

func (r *userRepository) GetClientsByAdminID(ctx context.Context, adminID primitive.ObjectID) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	clients := []domain.User{}
	for _, u := range r.s.users {
		if u.Role == domain.RoleClient && u.AdminID != nil && *u.AdminID == adminID {
			clients = append(clients, u)
		}
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })
	return clients, nil
}

func (r *userRepository) SetAdminForClient(ctx context.Context, clientID, adminID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	client, ok := r.s.users[clientID]
	if !ok || client.Role != domain.RoleClient {
		return repository.ErrNotFound
	}
	if err := r.s.write(ctx, Users); err != nil {
		return err
	}
	client.AdminID = &adminID
	client.UpdatedAt = time.Now().UTC()
	r.s.users[clientID] = client
	return nil
}
