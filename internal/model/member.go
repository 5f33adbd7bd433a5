package model

import "time"

// Member is a business-directory membership record owned by a user.
type Member struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	BusinessName string    `json:"business_name"`
	Category     string    `json:"category"`
	Location     string    `json:"location"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MemberService is a marketplace listing published by a member.
// One member may own many listings.
type MemberService struct {
	ID          uint64    `json:"id"`
	MemberID    string    `json:"member_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	ImageURL    string    `json:"image_url"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
