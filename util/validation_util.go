// util/validation_util.go

package util

import (
	"strings"

	apperrors "github.com/asinfra/adconsole/errors"
	"github.com/asinfra/adconsole/model"
)

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

// sAMAccountName rules: the directory hard-limits logon names to 20
// characters and rejects the characters below anywhere in the name.
const samAccountNameMaxLen = 20

const samAccountNameBadChars = `"/\[]:;|=,+*?<>@`

func validSAMAccountName(name string) bool {
	if name == "" || len(name) > samAccountNameMaxLen {
		return false
	}
	if strings.ContainsAny(name, samAccountNameBadChars) || strings.ContainsAny(name, " \t") {
		return false
	}
	return true
}

func (v *ValidationUtil) ValidateInsertUser(ins model.InsertUser) error {
	var missing []string
	if ins.SAMAccountName == "" {
		missing = append(missing, "sam_account_name")
	}
	if ins.DisplayName == "" {
		missing = append(missing, "display_name")
	}
	if ins.Email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return apperrors.NewInvalidInput("required", missing...)
	}
	if !validSAMAccountName(ins.SAMAccountName) {
		return apperrors.NewInvalidInput(
			"logon name must be at most 20 characters without separators", "sam_account_name")
	}
	if !strings.Contains(ins.Email, "@") {
		return apperrors.NewInvalidInput("malformed email address", "email")
	}
	return nil
}

func (v *ValidationUtil) ValidateUserPatch(patch model.UserPatch) error {
	if patch.DisplayName != nil && *patch.DisplayName == "" {
		return apperrors.NewInvalidInput("display name cannot be cleared", "display_name")
	}
	if patch.Email != nil && *patch.Email != "" && !strings.Contains(*patch.Email, "@") {
		return apperrors.NewInvalidInput("malformed email address", "email")
	}
	return nil
}

func (v *ValidationUtil) ValidateInsertGroup(ins model.InsertGroup) error {
	if ins.Name == "" {
		return apperrors.NewInvalidInput("required", "name")
	}
	return nil
}

func (v *ValidationUtil) ValidateInsertDevice(ins model.InsertDevice) error {
	var missing []string
	if ins.Hostname == "" {
		missing = append(missing, "hostname")
	}
	if ins.OU == "" {
		missing = append(missing, "ou")
	}
	if len(missing) > 0 {
		return apperrors.NewInvalidInput("required", missing...)
	}
	if strings.ContainsAny(ins.Hostname, " .") {
		return apperrors.NewInvalidInput("hostname must be a short name without dots or spaces", "hostname")
	}
	return nil
}
