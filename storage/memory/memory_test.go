// storage/memory/memory_test.go
package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/asinfra/adconsole/errors"
	"github.com/asinfra/adconsole/model"
	"github.com/asinfra/adconsole/storage/memory"
)

func strPtr(s string) *string { return &s }

func insertUser(sam, email string) model.InsertUser {
	return model.InsertUser{
		SAMAccountName: sam,
		DisplayName:    sam,
		Email:          email,
	}
}

func TestCreateUserPopulatesAndIsRetrievable(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	created, err := b.CreateUser(ctx, insertUser("jdoe", "jdoe@example.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.True(t, created.Enabled, "new accounts default to enabled")

	got, err := b.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.SAMAccountName, got.SAMAccountName)
	assert.Equal(t, created.Email, got.Email)
}

func TestCreateUserDuplicateLogonConflicts(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	first, err := b.CreateUser(ctx, insertUser("jdoe", "jdoe@example.com"))
	require.NoError(t, err)

	_, err = b.CreateUser(ctx, insertUser("JDOE", "other@example.com"))
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// The existing record is untouched.
	got, err := b.GetUser(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "jdoe@example.com", got.Email)
}

func TestIdentifiersUniqueAcrossEntityKinds(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	u, err := b.CreateUser(ctx, insertUser("jdoe", "jdoe@example.com"))
	require.NoError(t, err)
	g, err := b.CreateGroup(ctx, model.InsertGroup{Name: "Engineering"})
	require.NoError(t, err)
	d, err := b.CreateDevice(ctx, model.InsertDevice{Hostname: "ws-001", OU: "OU=Workstations"})
	require.NoError(t, err)

	assert.NotEqual(t, u.ID, g.ID)
	assert.NotEqual(t, g.ID, d.ID)
	assert.NotEqual(t, u.ID, d.ID)
}

func TestDeleteSemantics(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	err := b.DeleteUser(ctx, "9999")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	u, err := b.CreateUser(ctx, insertUser("jdoe", "jdoe@example.com"))
	require.NoError(t, err)

	require.NoError(t, b.DeleteUser(ctx, u.ID))

	_, err = b.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUpdateUserPartialPatch(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	u, err := b.CreateUser(ctx, model.InsertUser{
		SAMAccountName: "asmith",
		DisplayName:    "A. Smith",
		Email:          "asmith@example.com",
		Department:     "Sales",
	})
	require.NoError(t, err)

	updated, err := b.UpdateUser(ctx, u.ID, model.UserPatch{Department: strPtr("Engineering")})
	require.NoError(t, err)
	assert.Equal(t, "Engineering", updated.Department)
	assert.Equal(t, "A. Smith", updated.DisplayName, "unset fields are untouched")
	assert.Equal(t, "asmith@example.com", updated.Email)

	_, err = b.UpdateUser(ctx, "9999", model.UserPatch{Department: strPtr("X")})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestToggleLockIsAnInvolution(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	u, err := b.CreateUser(ctx, insertUser("jdoe", "jdoe@example.com"))
	require.NoError(t, err)
	require.False(t, u.AccountLocked)

	once, err := b.ToggleLock(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, once.AccountLocked)

	twice, err := b.ToggleLock(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, twice.AccountLocked)
}

func TestResetPasswordGeneratesUniqueCredentials(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	u, err := b.CreateUser(ctx, insertUser("jdoe", "jdoe@example.com"))
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		updated, password, err := b.ResetPassword(ctx, u.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, password)
		assert.True(t, updated.MustChangePassword)
		require.NotNil(t, updated.PasswordLastSet)
		assert.False(t, seen[password], "generated credential repeated")
		seen[password] = true
	}
}

func TestVerifyCredentials(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	u, err := b.CreateUser(ctx, insertUser("jdoe", "jdoe@example.com"))
	require.NoError(t, err)

	// No credential issued yet.
	err = b.VerifyCredentials(ctx, "jdoe", "anything")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, password, err := b.ResetPassword(ctx, u.ID)
	require.NoError(t, err)

	assert.NoError(t, b.VerifyCredentials(ctx, "jdoe", password))
	assert.ErrorIs(t, b.VerifyCredentials(ctx, "jdoe", "wrong"), apperrors.ErrUnauthorized)
	assert.ErrorIs(t, b.VerifyCredentials(ctx, "nobody", password), apperrors.ErrUnauthorized)

	// Disabled accounts cannot bind.
	_, err = b.SetEnabled(ctx, u.ID, false)
	require.NoError(t, err)
	assert.ErrorIs(t, b.VerifyCredentials(ctx, "jdoe", password), apperrors.ErrUnauthorized)
}

func TestMembershipUniquenessAndRemoval(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	u, err := b.CreateUser(ctx, insertUser("asmith", "asmith@example.com"))
	require.NoError(t, err)
	g, err := b.CreateGroup(ctx, model.InsertGroup{Name: "Engineering"})
	require.NoError(t, err)

	_, err = b.AddUserToGroup(ctx, u.ID, g.ID)
	require.NoError(t, err)

	_, err = b.AddUserToGroup(ctx, u.ID, g.ID)
	assert.ErrorIs(t, err, apperrors.ErrMembershipConflict)

	err = b.RemoveUserFromGroup(ctx, u.ID, "9999")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, b.RemoveUserFromGroup(ctx, u.ID, g.ID))
	err = b.RemoveUserFromGroup(ctx, u.ID, g.ID)
	assert.ErrorIs(t, err, apperrors.ErrMembershipNotFound)
}

func TestMembershipEndpointsMustExist(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	g, err := b.CreateGroup(ctx, model.InsertGroup{Name: "Engineering"})
	require.NoError(t, err)

	_, err = b.AddUserToGroup(ctx, "9999", g.ID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	u, err := b.CreateUser(ctx, insertUser("asmith", "asmith@example.com"))
	require.NoError(t, err)

	_, err = b.AddUserToGroup(ctx, u.ID, "9999")
	assert.ErrorIs(t, err, apperrors.ErrGroupNotFound)
}

// The disable lifecycle scenario: disabling is idempotent and distinct from
// deletion.
func TestDisableScenario(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	u, err := b.CreateUser(ctx, insertUser("jdoe", "jdoe@example.com"))
	require.NoError(t, err)
	assert.True(t, u.Enabled)

	disabled, err := b.SetEnabled(ctx, u.ID, false)
	require.NoError(t, err)
	assert.False(t, disabled.Enabled)

	again, err := b.SetEnabled(ctx, u.ID, false)
	require.NoError(t, err)
	assert.False(t, again.Enabled)

	require.NoError(t, b.DeleteUser(ctx, u.ID))

	users, err := b.ListUsers(ctx)
	require.NoError(t, err)
	for _, listed := range users {
		assert.NotEqual(t, "jdoe", listed.SAMAccountName)
	}
}

// Deleting a group cascades its memberships.
func TestGroupDeleteCascadesMemberships(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	g, err := b.CreateGroup(ctx, model.InsertGroup{Name: "Engineering"})
	require.NoError(t, err)
	u, err := b.CreateUser(ctx, insertUser("asmith", "asmith@example.com"))
	require.NoError(t, err)

	_, err = b.AddUserToGroup(ctx, u.ID, g.ID)
	require.NoError(t, err)

	groups, err := b.GroupsForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Engineering", groups[0].Name)

	require.NoError(t, b.DeleteGroup(ctx, g.ID))

	groups, err = b.GroupsForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestListsOrderedByAscendingID(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	for _, sam := range []string{"u1", "u2", "u3"} {
		_, err := b.CreateUser(ctx, insertUser(sam, sam+"@example.com"))
		require.NoError(t, err)
	}

	users, err := b.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "u1", users[0].SAMAccountName)
	assert.Equal(t, "u2", users[1].SAMAccountName)
	assert.Equal(t, "u3", users[2].SAMAccountName)
}

func TestDeviceUniqueHostname(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	_, err := b.CreateDevice(ctx, model.InsertDevice{Hostname: "ws-001", OU: "OU=Workstations"})
	require.NoError(t, err)

	_, err = b.CreateDevice(ctx, model.InsertDevice{Hostname: "WS-001", OU: "OU=Workstations"})
	assert.ErrorIs(t, err, apperrors.ErrDeviceConflict)
}

// Concurrent creates must never lose an update or hand out a duplicate ID.
func TestConcurrentCreates(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := b.CreateGroup(ctx, model.InsertGroup{Name: "g-" + string(rune('a'+i%26)) + "-" + string(rune('0'+i/26))})
			if err == nil {
				ids <- g.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate identifier issued")
		seen[id] = true
	}
}
