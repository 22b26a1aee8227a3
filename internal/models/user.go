package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// User covers all three roles. Provider fields stay empty for customers
// and admins.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Role         string             `bson:"role" json:"role"`
	FullName     string             `bson:"full_name,omitempty" json:"full_name,omitempty"`
	Email        string             `bson:"email" json:"email"`
	MobileNumber string             `bson:"mobile_number" json:"mobile_number"`
	Password     string             `bson:"password" json:"-"`

	// Provider-only fields
	ServiceName     string `bson:"service_name,omitempty" json:"service_name,omitempty"`
	StaffCount      int    `bson:"staff_count,omitempty" json:"staff_count,omitempty"`
	ServiceLocation string `bson:"service_location,omitempty" json:"service_location,omitempty"`
	ServiceStart    string `bson:"service_start,omitempty" json:"service_start,omitempty"` // HH:mm
	ServiceEnd      string `bson:"service_end,omitempty" json:"service_end,omitempty"`     // HH:mm
	Description     string `bson:"description,omitempty" json:"description,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

type RegisterRequest struct {
	Role            string `json:"role"`
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	MobileNumber    string `json:"mobile_number"`
	Password        string `json:"password"`
	ServiceName     string `json:"service_name"`
	StaffCount      int    `json:"staff_count"`
	ServiceLocation string `json:"service_location"`
	ServiceStart    string `json:"service_start"`
	ServiceEnd      string `json:"service_end"`
	Description     string `json:"description"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProviderInfo is the provider summary embedded in customer-facing
// appointment views and the public providers list.
type ProviderInfo struct {
	ID              primitive.ObjectID `bson:"_id" json:"_id"`
	ServiceName     string             `bson:"service_name,omitempty" json:"service_name,omitempty"`
	ServiceLocation string             `bson:"service_location,omitempty" json:"service_location,omitempty"`
	Email           string             `bson:"email,omitempty" json:"email,omitempty"`
	MobileNumber    string             `bson:"mobile_number,omitempty" json:"mobile_number,omitempty"`
	StaffCount      int                `bson:"staff_count,omitempty" json:"staff_count,omitempty"`
}

// CustomerInfo is the customer summary embedded in provider-facing queue
// entries.
type CustomerInfo struct {
	ID           primitive.ObjectID `bson:"_id" json:"_id"`
	FullName     string             `bson:"full_name,omitempty" json:"full_name,omitempty"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	MobileNumber string             `bson:"mobile_number,omitempty" json:"mobile_number,omitempty"`
}
