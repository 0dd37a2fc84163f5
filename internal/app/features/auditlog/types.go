// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
)

// listItem is one audit event with ids resolved to names.
type listItem struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Category   string            `json:"category"`
	EventType  string            `json:"event_type"`
	ActorName  string            `json:"actor_name,omitempty"`  // Resolved from ActorID
	TargetName string            `json:"target_name,omitempty"` // Resolved from UserID
	IP         string            `json:"ip,omitempty"`
	Success    bool              `json:"success"`
	Reason     string            `json:"failure_reason,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// listData is the response body of GET /audit.
type listData struct {
	Items      []listItem `json:"items"`
	Category   string     `json:"category,omitempty"`
	EventType  string     `json:"event_type,omitempty"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	Total      int64      `json:"total"`
	HasPrev    bool       `json:"has_prev"`
	HasNext    bool       `json:"has_next"`
	EventTypes []string   `json:"event_types"`
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailed,
		audit.EventLogout,
		audit.EventProfileCreated,
	}
	workflowEvents := []string{
		audit.EventApplicationSubmitted,
		audit.EventTryoutScheduled,
		audit.EventApplicationApproved,
	}
	adminEvents := []string{
		audit.EventRoleAssigned,
		audit.EventUserUpdated,
		audit.EventUserDeleted,
		audit.EventMessageDeleted,
		audit.EventLedgerEntryCreated,
		audit.EventLedgerEntryDeleted,
		audit.EventCalendarCreated,
		audit.EventCalendarDeleted,
		audit.EventSaleRecorded,
		audit.EventOverlayUpdated,
		audit.EventPermissionDenied,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryWorkflow:
		return workflowEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(workflowEvents)+len(adminEvents))
		all = append(all, authEvents...)
		all = append(all, workflowEvents...)
		return append(all, adminEvents...)
	default:
		return nil
	}
}
