// storage/storage.go
package storage

import (
	"context"
	"sync/atomic"

	"github.com/asinfra/adconsole/model"
)

// UserStore is the account portion of the backend contract. Lifecycle
// operations return the updated record; ResetPassword additionally returns
// the generated plaintext credential, exactly once. Backends may persist at
// most a one-way-derived form of it.
type UserStore interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	CreateUser(ctx context.Context, ins model.InsertUser) (*model.User, error)
	UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
	ResetPassword(ctx context.Context, id string) (*model.User, string, error)
	ToggleLock(ctx context.Context, id string) (*model.User, error)
	SetEnabled(ctx context.Context, id string, enabled bool) (*model.User, error)
}

type GroupStore interface {
	ListGroups(ctx context.Context) ([]*model.Group, error)
	GetGroup(ctx context.Context, id string) (*model.Group, error)
	CreateGroup(ctx context.Context, ins model.InsertGroup) (*model.Group, error)
	UpdateGroup(ctx context.Context, id string, patch model.GroupPatch) (*model.Group, error)
	DeleteGroup(ctx context.Context, id string) error
}

type DeviceStore interface {
	ListDevices(ctx context.Context) ([]*model.Device, error)
	GetDevice(ctx context.Context, id string) (*model.Device, error)
	CreateDevice(ctx context.Context, ins model.InsertDevice) (*model.Device, error)
	UpdateDevice(ctx context.Context, id string, patch model.DevicePatch) (*model.Device, error)
	DeleteDevice(ctx context.Context, id string) error
}

type MembershipStore interface {
	AddUserToGroup(ctx context.Context, userID, groupID string) (*model.Membership, error)
	RemoveUserFromGroup(ctx context.Context, userID, groupID string) error
	GroupsForUser(ctx context.Context, userID string) ([]*model.Group, error)
}

// Authenticator verifies a credential pair against the backend. The
// directory backend performs a bind; it never compares passwords locally.
type Authenticator interface {
	VerifyCredentials(ctx context.Context, username, password string) error
}

// Store is the full contract every backend satisfies. The configured
// backend exclusively owns the canonical copy of every entity; callers hold
// only the snapshots returned from operations.
type Store interface {
	UserStore
	GroupStore
	DeviceStore
	MembershipStore
	Authenticator
	Close() error
}

// Active is the handle to the currently configured backend. Swapping domains
// constructs a new Store and replaces the pointer wholesale; the previous
// Store is never mutated, only closed by the caller once returned. Calls
// racing a swap either complete against the old backend or fail with the
// backend-unavailable error once its connection is closed, and must be
// retried by the caller.
type Active struct {
	cur atomic.Pointer[Store]
}

func NewActive(s Store) *Active {
	a := &Active{}
	a.cur.Store(&s)
	return a
}

// Store returns the backend current at call time.
func (a *Active) Store() Store {
	return *a.cur.Load()
}

// Swap installs a new backend and returns the previous one so the caller can
// close it.
func (a *Active) Swap(s Store) Store {
	return *a.cur.Swap(&s)
}
