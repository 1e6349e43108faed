// model/user.go
package model

import "time"

// User is a directory account. The ID is opaque and backend-assigned: the
// in-memory backend issues counter-based IDs, the directory backend uses the
// entry's objectGUID.
type User struct {
	ID                 string     `json:"id"`
	SAMAccountName     string     `json:"sam_account_name"`
	DisplayName        string     `json:"display_name"`
	GivenName          string     `json:"given_name,omitempty"`
	Surname            string     `json:"surname,omitempty"`
	Email              string     `json:"email"`
	Title              string     `json:"title,omitempty"`
	Department         string     `json:"department,omitempty"`
	Company            string     `json:"company,omitempty"`
	OfficePhone        string     `json:"office_phone,omitempty"`
	Mobile             string     `json:"mobile,omitempty"`
	StreetAddress      string     `json:"street_address,omitempty"`
	City               string     `json:"city,omitempty"`
	State              string     `json:"state,omitempty"`
	Country            string     `json:"country,omitempty"`
	Enabled            bool       `json:"enabled"`
	AccountLocked      bool       `json:"account_locked"`
	MustChangePassword bool       `json:"must_change_password"`
	PasswordLastSet    *time.Time `json:"password_last_set,omitempty"`
	LastLogon          *time.Time `json:"last_logon,omitempty"`
	AccountExpires     *time.Time `json:"account_expires,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// InsertUser is the create shape: no ID, no derived timestamps. A nil
// Enabled means enabled, matching directory defaults for new accounts.
type InsertUser struct {
	SAMAccountName string     `json:"sam_account_name" binding:"required"`
	DisplayName    string     `json:"display_name" binding:"required"`
	GivenName      string     `json:"given_name"`
	Surname        string     `json:"surname"`
	Email          string     `json:"email" binding:"required"`
	Title          string     `json:"title"`
	Department     string     `json:"department"`
	Company        string     `json:"company"`
	OfficePhone    string     `json:"office_phone"`
	Mobile         string     `json:"mobile"`
	StreetAddress  string     `json:"street_address"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	Country        string     `json:"country"`
	Enabled        *bool      `json:"enabled"`
	AccountExpires *time.Time `json:"account_expires"`
}

// UserPatch carries a partial update; only non-nil fields change. Logon name
// is immutable once assigned, so it has no patch field.
type UserPatch struct {
	DisplayName    *string    `json:"display_name"`
	GivenName      *string    `json:"given_name"`
	Surname        *string    `json:"surname"`
	Email          *string    `json:"email"`
	Title          *string    `json:"title"`
	Department     *string    `json:"department"`
	Company        *string    `json:"company"`
	OfficePhone    *string    `json:"office_phone"`
	Mobile         *string    `json:"mobile"`
	StreetAddress  *string    `json:"street_address"`
	City           *string    `json:"city"`
	State          *string    `json:"state"`
	Country        *string    `json:"country"`
	AccountExpires *time.Time `json:"account_expires"`
}

// Apply merges the patch into u.
func (p UserPatch) Apply(u *User) {
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.GivenName != nil {
		u.GivenName = *p.GivenName
	}
	if p.Surname != nil {
		u.Surname = *p.Surname
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Title != nil {
		u.Title = *p.Title
	}
	if p.Department != nil {
		u.Department = *p.Department
	}
	if p.Company != nil {
		u.Company = *p.Company
	}
	if p.OfficePhone != nil {
		u.OfficePhone = *p.OfficePhone
	}
	if p.Mobile != nil {
		u.Mobile = *p.Mobile
	}
	if p.StreetAddress != nil {
		u.StreetAddress = *p.StreetAddress
	}
	if p.City != nil {
		u.City = *p.City
	}
	if p.State != nil {
		u.State = *p.State
	}
	if p.Country != nil {
		u.Country = *p.Country
	}
	if p.AccountExpires != nil {
		u.AccountExpires = p.AccountExpires
	}
}
