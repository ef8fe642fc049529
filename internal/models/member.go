// internal/models/member.go
package models

import (
	"database/sql"
	"time"
)

type Role string

const (
	RoleMember        Role = "member"
	RoleTeamster      Role = "teamster"
	RoleAdministrator Role = "administrator"
)

type MembershipType string

const (
	MembershipFull       MembershipType = "full"
	MembershipSustaining MembershipType = "sustaining"
)

// Member is the eligibility view of a club member as the booking core sees
// it. Profile data (address, pictures, login) lives outside this module.
type Member struct {
	ID             int64          `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Email          sql.NullString `db:"email" json:"email,omitempty"`
	Role           Role           `db:"role" json:"role"`
	MembershipType MembershipType `db:"membership_type" json:"membershipType"`
	IsActive       bool           `db:"is_active" json:"isActive"`
	FeePaid        bool           `db:"fee_paid" json:"feePaid"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
}

func (m Member) IsStaff() bool {
	return m.Role == RoleTeamster || m.Role == RoleAdministrator
}
