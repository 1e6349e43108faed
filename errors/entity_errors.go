// errors/entity_errors.go
package errors

import "fmt"

var (
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	ErrUserConflict = fmt.Errorf("user %w: logon name already in use", ErrConflict)

	ErrGroupNotFound = fmt.Errorf("group %w", ErrNotFound)
	ErrGroupConflict = fmt.Errorf("group %w: name already in use", ErrConflict)

	ErrDeviceNotFound = fmt.Errorf("device %w", ErrNotFound)
	ErrDeviceConflict = fmt.Errorf("device %w: hostname already in use", ErrConflict)

	ErrMembershipNotFound = fmt.Errorf("membership %w", ErrNotFound)
	ErrMembershipConflict = fmt.Errorf("membership %w: user already in group", ErrConflict)

	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
)
