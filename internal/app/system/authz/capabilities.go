// internal/app/system/authz/capabilities.go
package authz

import "github.com/dalemusser/clubhub/internal/domain/models"

// Capability names a protected action. The set is closed; every switch
// over it is exhaustive and unknown values are never permitted.
type Capability int

const (
	EditOwnProfile Capability = iota
	SubmitApplication
	ReviewApplications
	ManageRoster
	PostAnnouncements
	DeleteAnyMessage
	ManageLedger
	DeleteLedgerEntry
	ManageCalendar
	OperateRegister
	ControlOverlay
)

// AllCapabilities lists every capability in declaration order.
var AllCapabilities = []Capability{
	EditOwnProfile,
	SubmitApplication,
	ReviewApplications,
	ManageRoster,
	PostAnnouncements,
	DeleteAnyMessage,
	ManageLedger,
	DeleteLedgerEntry,
	ManageCalendar,
	OperateRegister,
	ControlOverlay,
}

// String returns the capability's wire name.
func (c Capability) String() string {
	switch c {
	case EditOwnProfile:
		return "editOwnProfile"
	case SubmitApplication:
		return "submitApplication"
	case ReviewApplications:
		return "reviewApplications"
	case ManageRoster:
		return "manageRoster"
	case PostAnnouncements:
		return "postAnnouncements"
	case DeleteAnyMessage:
		return "deleteAnyMessage"
	case ManageLedger:
		return "manageLedger"
	case DeleteLedgerEntry:
		return "deleteLedgerEntry"
	case ManageCalendar:
		return "manageCalendar"
	case OperateRegister:
		return "operateRegister"
	case ControlOverlay:
		return "controlOverlay"
	}
	return "unknown"
}

// PermittedRoles returns the roles allowed to perform c. The returned slice
// is freshly allocated.
func PermittedRoles(c Capability) []models.Role {
	switch c {
	case EditOwnProfile, OperateRegister:
		return append([]models.Role(nil), models.AllRoles...)
	case SubmitApplication:
		return []models.Role{models.RoleStudent, models.RoleGuest}
	case ReviewApplications, ManageRoster, DeleteAnyMessage, ManageCalendar, ControlOverlay:
		return []models.Role{models.RoleAdmin, models.RoleCoach}
	case PostAnnouncements:
		return []models.Role{models.RoleStaff, models.RoleCoach, models.RoleAdmin}
	case ManageLedger:
		return []models.Role{models.RoleAdmin, models.RoleCoach, models.RoleStaff}
	case DeleteLedgerEntry:
		return []models.Role{models.RoleAdmin}
	}
	return nil
}

// CanPerform reports whether role may perform c. It is a pure set-membership
// test; invalid roles are never permitted.
func CanPerform(role models.Role, c Capability) bool {
	if !role.Valid() {
		return false
	}
	for _, r := range PermittedRoles(c) {
		if r == role {
			return true
		}
	}
	return false
}

// CapabilityMap returns every capability name mapped to whether role holds it.
func CapabilityMap(role models.Role) map[string]bool {
	m := make(map[string]bool, len(AllCapabilities))
	for _, c := range AllCapabilities {
		m[c.String()] = CanPerform(role, c)
	}
	return m
}
