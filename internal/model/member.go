package model

import "time"

type Role string

const (
	RoleAdult Role = "adult"
	RoleChild Role = "child"
)

func (r Role) Valid() bool {
	return r == RoleAdult || r == RoleChild
}

type Member struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	PhotoPath string    `json:"photo_path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
