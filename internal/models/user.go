package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account statuses. A blocked or deleted account cannot log in and every
// authenticated call it makes is rejected by the auth middleware.
const (
	StatusActive  = "active"
	StatusBlocked = "blocked"
	StatusDeleted = "deleted"
)

// Account is a single user document in the users collection.
type Account struct {
	ID               primitive.ObjectID `json:"id"                         bson:"_id,omitempty"`
	Email            string             `json:"email"                      bson:"email"`
	Name             string             `json:"name,omitempty"             bson:"name,omitempty"`
	PasswordHash     string             `json:"-"                          bson:"password"`
	Status           string             `json:"status"                     bson:"status"`
	RegistrationDate time.Time          `json:"registrationDate"           bson:"registrationDate"`
	LastLoginDate    time.Time          `json:"lastLoginDate,omitempty"    bson:"lastLoginDate,omitempty"`
	// BlockedBy references the account that performed the most recent block.
	// It is meaningful only while Status is blocked and is left untouched on unblock.
	BlockedBy primitive.ObjectID `json:"blockedBy,omitempty" bson:"blockedBy,omitempty"`
}

// RegisterRequest is the JSON body for POST /api/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the JSON body for POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// BulkActionRequest is the JSON body for POST /api/users/{block,unblock,delete}.
type BulkActionRequest struct {
	UserIDs []string `json:"userIds"`
}
