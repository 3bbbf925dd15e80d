package service

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// accessGuard answers "may this actor see or change this client's data".
// Admins manage the clients on their roster; clients only see themselves.
type accessGuard struct {
	userRepo repository.UserRepository
}

func (g accessGuard) requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() || actor.UserID == primitive.NilObjectID {
		return ErrAccessDenied
	}
	return nil
}

// canManage allows admins whose roster contains clientID.
func (g accessGuard) canManage(ctx context.Context, actor domain.Actor, clientID primitive.ObjectID) error {
	if err := g.requireAdmin(actor); err != nil {
		return err
	}
	client, err := g.userRepo.GetByID(ctx, clientID)
	if err != nil {
		return storeError("load client", err, ErrClientNotFound)
	}
	if !client.IsClient() {
		return ErrClientNotFound
	}
	if client.AdminID == nil || *client.AdminID != actor.UserID {
		return ErrAccessDenied
	}
	return nil
}

// canView additionally lets a client read their own data.
func (g accessGuard) canView(ctx context.Context, actor domain.Actor, clientID primitive.ObjectID) error {
	if actor.IsClient() {
		if actor.UserID != clientID {
			return ErrAccessDenied
		}
		return nil
	}
	return g.canManage(ctx, actor, clientID)
}
