// model/membership.go
package model

// Membership associates a user with a group. The (UserID, GroupID) pair is
// unique; deleting either endpoint removes the membership.
type Membership struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	GroupID string `json:"group_id"`
}
