// internal/domain/models/roles.go
package models

import "strings"

// Role is a user's club role. The set is closed: values outside the
// constants below are rejected by ParseRole and never stored.
type Role string

const (
	RoleGuest   Role = "guest"
	RoleStudent Role = "student"
	RolePlayer  Role = "player"
	RoleStaff   Role = "staff"
	RoleCoach   Role = "coach"
	RoleAdmin   Role = "admin"
)

// AllRoles lists every role in display order.
var AllRoles = []Role{RoleGuest, RoleStudent, RolePlayer, RoleStaff, RoleCoach, RoleAdmin}

// ParseRole normalizes s and returns the matching Role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleStudent, RolePlayer, RoleStaff, RoleCoach, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ApplicationStatus tracks a user's progress through the team application.
type ApplicationStatus string

const (
	StatusNone      ApplicationStatus = "none"
	StatusSubmitted ApplicationStatus = "submitted"
	StatusTryout    ApplicationStatus = "tryout"
	StatusApproved  ApplicationStatus = "approved"
)

// AllStatuses lists every application status in workflow order.
var AllStatuses = []ApplicationStatus{StatusNone, StatusSubmitted, StatusTryout, StatusApproved}

// ParseStatus normalizes s and returns the matching ApplicationStatus.
// The empty string maps to StatusNone so profiles written before the
// field existed read as "not applied".
func ParseStatus(s string) (ApplicationStatus, bool) {
	st := ApplicationStatus(strings.ToLower(strings.TrimSpace(s)))
	if st == "" {
		return StatusNone, true
	}
	return st, st.Valid()
}

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusNone, StatusSubmitted, StatusTryout, StatusApproved:
		return true
	}
	return false
}

// Next returns the status that follows s in the workflow and whether one exists.
func (s ApplicationStatus) Next() (ApplicationStatus, bool) {
	switch s {
	case StatusNone:
		return StatusSubmitted, true
	case StatusSubmitted:
		return StatusTryout, true
	case StatusTryout:
		return StatusApproved, true
	case StatusApproved:
		return "", false
	}
	return "", false
}

func (s ApplicationStatus) String() string { return string(s) }
