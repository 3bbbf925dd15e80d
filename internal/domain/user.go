package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// User represents a user in the system (either the coaching Admin or a Client).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	Locale       Locale             `bson:"locale,omitempty" json:"locale,omitempty"` // Preferred display locale
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Admin-specific ---
	ClientIDs []primitive.ObjectID `bson:"clientIds,omitempty" json:"clientIds,omitempty"`

	// --- Client-specific ---
	// Admin managing this client; nil until an admin adds them to the roster.
	AdminID *primitive.ObjectID `bson:"adminId,omitempty" json:"adminId,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

// Actor is the caller identity handed to every service operation.
// It is resolved once per request (from the auth token) and passed explicitly.
type Actor struct {
	UserID primitive.ObjectID
	Role   Role
}

func (a Actor) IsAdmin() bool  { return a.Role == RoleAdmin }
func (a Actor) IsClient() bool { return a.Role == RoleClient }
