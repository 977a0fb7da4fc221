package types

import (
	"context"
	"time"
)

// Status is the lifecycle status carried by every persisted record.
// Records are never hard-deleted; they move to archived instead.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// BaseModel carries the audit columns shared by all persisted entities.
type BaseModel struct {
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

// GetDefaultBaseModel returns a BaseModel stamped with the current time and
// the acting user from context.
func GetDefaultBaseModel(ctx context.Context) BaseModel {
	now := time.Now().UTC()
	userID := GetUserID(ctx)
	return BaseModel{
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: userID,
		UpdatedBy: userID,
	}
}
