// storage/memory/memory.go

// Package memory implements the storage contract with process-local maps.
// It backs tests and the demo mode. A single counter assigns identifiers
// across all entity kinds, so an ID never refers to two different records.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/asinfra/adconsole/errors"
	"github.com/asinfra/adconsole/model"
	"github.com/asinfra/adconsole/storage"
)

type Backend struct {
	mu          sync.RWMutex
	seq         int64
	users       map[int64]*model.User
	creds       map[int64][]byte // bcrypt hashes; plaintext is never kept
	groups      map[int64]*model.Group
	devices     map[int64]*model.Device
	memberships map[int64]*model.Membership
}

var _ storage.Store = (*Backend)(nil)

func New() *Backend {
	return &Backend{
		seq:         0,
		users:       make(map[int64]*model.User),
		creds:       make(map[int64][]byte),
		groups:      make(map[int64]*model.Group),
		devices:     make(map[int64]*model.Device),
		memberships: make(map[int64]*model.Membership),
	}
}

func (b *Backend) nextID() int64 {
	b.seq++
	return b.seq
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// parseID maps an opaque identifier back to a map key. Anything this backend
// never issued simply does not exist.
func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Users

func (b *Backend) ListUsers(ctx context.Context) ([]*model.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	users := make([]*model.User, 0, len(b.users))
	for _, id := range sortedKeys(b.users) {
		u := *b.users[id]
		users = append(users, &u)
	}
	return users, nil
}

func (b *Backend) GetUser(ctx context.Context, id string) (*model.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	key, ok := parseID(id)
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	u, ok := b.users[key]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (b *Backend) CreateUser(ctx context.Context, ins model.InsertUser) (*model.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, u := range b.users {
		if strings.EqualFold(u.SAMAccountName, ins.SAMAccountName) {
			return nil, apperrors.ErrUserConflict
		}
	}

	enabled := true
	if ins.Enabled != nil {
		enabled = *ins.Enabled
	}

	key := b.nextID()
	u := &model.User{
		ID:             formatID(key),
		SAMAccountName: ins.SAMAccountName,
		DisplayName:    ins.DisplayName,
		GivenName:      ins.GivenName,
		Surname:        ins.Surname,
		Email:          ins.Email,
		Title:          ins.Title,
		Department:     ins.Department,
		Company:        ins.Company,
		OfficePhone:    ins.OfficePhone,
		Mobile:         ins.Mobile,
		StreetAddress:  ins.StreetAddress,
		City:           ins.City,
		State:          ins.State,
		Country:        ins.Country,
		Enabled:        enabled,
		AccountExpires: ins.AccountExpires,
		CreatedAt:      time.Now(),
	}
	b.users[key] = u
	cp := *u
	return &cp, nil
}

func (b *Backend) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key, ok := parseID(id)
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	u, ok := b.users[key]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	patch.Apply(u)
	cp := *u
	return &cp, nil
}

func (b *Backend) DeleteUser(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key, ok := parseID(id)
	if !ok {
		return apperrors.ErrUserNotFound
	}
	if _, ok := b.users[key]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(b.users, key)
	delete(b.creds, key)

	// Memberships cascade with their user, matching directory behavior.
	for mid, m := range b.memberships {
		if m.UserID == id {
			delete(b.memberships, mid)
		}
	}
	return nil
}

func (b *Backend) ResetPassword(ctx context.Context, id string) (*model.User, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key, ok := parseID(id)
	if !ok {
		return nil, "", apperrors.ErrUserNotFound
	}
	u, ok := b.users[key]
	if !ok {
		return nil, "", apperrors.ErrUserNotFound
	}

	password, err := storage.GeneratePassword()
	if err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	b.creds[key] = hash

	now := time.Now()
	u.MustChangePassword = true
	u.PasswordLastSet = &now

	cp := *u
	return &cp, password, nil
}

func (b *Backend) ToggleLock(ctx context.Context, id string) (*model.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key, ok := parseID(id)
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	u, ok := b.users[key]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	u.AccountLocked = !u.AccountLocked
	cp := *u
	return &cp, nil
}

func (b *Backend) SetEnabled(ctx context.Context, id string, enabled bool) (*model.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key, ok := parseID(id)
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	u, ok := b.users[key]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	u.Enabled = enabled
	cp := *u
	return &cp, nil
}

// Groups

func (b *Backend) ListGroups(ctx context.Context) ([]*model.Group, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	groups := make([]*model.Group, 0, len(b.groups))
	for _, id := range sortedKeys(b.groups) {
		g := *b.groups[id]
		groups = append(groups, &g)
	}
	return groups, nil
}

func (b *Backend) GetGroup(ctx context.Context, id string) (*model.Group, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	g, ok := b.lookupGroup(id)
	if !ok {
		return nil, apperrors.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

func (b *Backend) CreateGroup(ctx context.Context, ins model.InsertGroup) (*model.Group, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, g := range b.groups {
		if strings.EqualFold(g.Name, ins.Name) {
			return nil, apperrors.ErrGroupConflict
		}
	}

	key := b.nextID()
	g := &model.Group{
		ID:          formatID(key),
		Name:        ins.Name,
		Description: ins.Description,
		CreatedAt:   time.Now(),
	}
	b.groups[key] = g
	cp := *g
	return &cp, nil
}

func (b *Backend) UpdateGroup(ctx context.Context, id string, patch model.GroupPatch) (*model.Group, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	g, ok := b.lookupGroup(id)
	if !ok {
		return nil, apperrors.ErrGroupNotFound
	}
	if patch.Name != nil && !strings.EqualFold(g.Name, *patch.Name) {
		for _, other := range b.groups {
			if other.ID != g.ID && strings.EqualFold(other.Name, *patch.Name) {
				return nil, apperrors.ErrGroupConflict
			}
		}
	}
	patch.Apply(g)
	cp := *g
	return &cp, nil
}

func (b *Backend) DeleteGroup(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key, ok := parseID(id)
	if !ok {
		return apperrors.ErrGroupNotFound
	}
	if _, ok := b.groups[key]; !ok {
		return apperrors.ErrGroupNotFound
	}
	delete(b.groups, key)

	for mid, m := range b.memberships {
		if m.GroupID == id {
			delete(b.memberships, mid)
		}
	}
	return nil
}

// Devices

func (b *Backend) ListDevices(ctx context.Context) ([]*model.Device, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	devices := make([]*model.Device, 0, len(b.devices))
	for _, id := range sortedKeys(b.devices) {
		d := *b.devices[id]
		devices = append(devices, &d)
	}
	return devices, nil
}

func (b *Backend) GetDevice(ctx context.Context, id string) (*model.Device, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	key, ok := parseID(id)
	if !ok {
		return nil, apperrors.ErrDeviceNotFound
	}
	d, ok := b.devices[key]
	if !ok {
		return nil, apperrors.ErrDeviceNotFound
	}
	cp := *d
	return &cp, nil
}

func (b *Backend) CreateDevice(ctx context.Context, ins model.InsertDevice) (*model.Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, d := range b.devices {
		if strings.EqualFold(d.Hostname, ins.Hostname) {
			return nil, apperrors.ErrDeviceConflict
		}
	}

	key := b.nextID()
	d := &model.Device{
		ID:          formatID(key),
		Hostname:    ins.Hostname,
		Description: ins.Description,
		OU:          ins.OU,
	}
	b.devices[key] = d
	cp := *d
	return &cp, nil
}

func (b *Backend) UpdateDevice(ctx context.Context, id string, patch model.DevicePatch) (*model.Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key, ok := parseID(id)
	if !ok {
		return nil, apperrors.ErrDeviceNotFound
	}
	d, ok := b.devices[key]
	if !ok {
		return nil, apperrors.ErrDeviceNotFound
	}
	patch.Apply(d)
	cp := *d
	return &cp, nil
}

func (b *Backend) DeleteDevice(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key, ok := parseID(id)
	if !ok {
		return apperrors.ErrDeviceNotFound
	}
	if _, ok := b.devices[key]; !ok {
		return apperrors.ErrDeviceNotFound
	}
	delete(b.devices, key)
	return nil
}

// Memberships

func (b *Backend) AddUserToGroup(ctx context.Context, userID, groupID string) (*model.Membership, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.lookupUser(userID); !ok {
		return nil, apperrors.ErrUserNotFound
	}
	if _, ok := b.lookupGroup(groupID); !ok {
		return nil, apperrors.ErrGroupNotFound
	}
	for _, m := range b.memberships {
		if m.UserID == userID && m.GroupID == groupID {
			return nil, apperrors.ErrMembershipConflict
		}
	}

	key := b.nextID()
	m := &model.Membership{
		ID:      formatID(key),
		UserID:  userID,
		GroupID: groupID,
	}
	b.memberships[key] = m
	cp := *m
	return &cp, nil
}

func (b *Backend) RemoveUserFromGroup(ctx context.Context, userID, groupID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, m := range b.memberships {
		if m.UserID == userID && m.GroupID == groupID {
			delete(b.memberships, key)
			return nil
		}
	}
	return apperrors.ErrMembershipNotFound
}

func (b *Backend) GroupsForUser(ctx context.Context, userID string) ([]*model.Group, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var groupKeys []int64
	for _, m := range b.memberships {
		if m.UserID != userID {
			continue
		}
		if key, ok := parseID(m.GroupID); ok {
			if _, exists := b.groups[key]; exists {
				groupKeys = append(groupKeys, key)
			}
		}
	}
	sort.Slice(groupKeys, func(i, j int) bool { return groupKeys[i] < groupKeys[j] })

	groups := make([]*model.Group, 0, len(groupKeys))
	for _, key := range groupKeys {
		g := *b.groups[key]
		groups = append(groups, &g)
	}
	return groups, nil
}

// Auth

func (b *Backend) VerifyCredentials(ctx context.Context, username, password string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for key, u := range b.users {
		if !strings.EqualFold(u.SAMAccountName, username) {
			continue
		}
		if !u.Enabled || u.AccountLocked {
			return apperrors.ErrInvalidCredentials
		}
		hash, ok := b.creds[key]
		if !ok {
			return apperrors.ErrInvalidCredentials
		}
		if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
			return apperrors.ErrInvalidCredentials
		}
		return nil
	}
	return apperrors.ErrInvalidCredentials
}

func (b *Backend) Close() error {
	return nil
}

// Locked helpers; callers hold b.mu.

func (b *Backend) lookupUser(id string) (*model.User, bool) {
	key, ok := parseID(id)
	if !ok {
		return nil, false
	}
	u, ok := b.users[key]
	return u, ok
}

func (b *Backend) lookupGroup(id string) (*model.Group, bool) {
	key, ok := parseID(id)
	if !ok {
		return nil, false
	}
	g, ok := b.groups[key]
	return g, ok
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
