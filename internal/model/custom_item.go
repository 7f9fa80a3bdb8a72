package model

import "time"

type CustomItem struct {
	ID          int64     `json:"id"`
	MemberID    int64     `json:"member_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
