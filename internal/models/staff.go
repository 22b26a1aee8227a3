package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Staff struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ProviderID    primitive.ObjectID `bson:"provider" json:"provider"`
	Name          string             `bson:"name" json:"name"`
	Role          string             `bson:"role" json:"role"`
	ShiftSchedule string             `bson:"shift_schedule,omitempty" json:"shift_schedule,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

type CreateStaffRequest struct {
	Name          string `json:"name"`
	Role          string `json:"role"`
	ShiftSchedule string `json:"shift_schedule"`
}
