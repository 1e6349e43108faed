// audit/model.go
package audit

import (
	"encoding/json"
	"time"
)

// Directory management actions recorded in the audit trail. Password resets
// are logged as events only; generated credentials never reach the trail.
const (
	ActionLogin            = "LOGIN"
	ActionLogout           = "LOGOUT"
	ActionCreateUser       = "CREATE_USER"
	ActionUpdateUser       = "UPDATE_USER"
	ActionDeleteUser       = "DELETE_USER"
	ActionResetPassword    = "RESET_PASSWORD"
	ActionToggleLock       = "TOGGLE_LOCK"
	ActionEnableUser       = "ENABLE_USER"
	ActionDisableUser      = "DISABLE_USER"
	ActionCreateGroup      = "CREATE_GROUP"
	ActionUpdateGroup      = "UPDATE_GROUP"
	ActionDeleteGroup      = "DELETE_GROUP"
	ActionCreateDevice     = "CREATE_DEVICE"
	ActionUpdateDevice     = "UPDATE_DEVICE"
	ActionDeleteDevice     = "DELETE_DEVICE"
	ActionAddMembership    = "ADD_MEMBERSHIP"
	ActionRemoveMembership = "REMOVE_MEMBERSHIP"
	ActionSwitchDomain     = "SWITCH_DOMAIN"
)

type AuditLog struct {
	Timestamp     time.Time       `json:"timestamp"`
	UserID        string          `json:"user_id"`
	Action        string          `json:"action"`
	ResourceID    string          `json:"resource_id"`
	Succeeded     bool            `json:"succeeded"`
	ChangeDetails json.RawMessage `json:"change_details,omitempty"`
}
