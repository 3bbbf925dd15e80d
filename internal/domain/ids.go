package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// OptionalID is a patchable reference: a nil Value clears it.
type OptionalID struct {
	Value *primitive.ObjectID `json:"value"`
}
