// service/user_service_test.go
package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/asinfra/adconsole/audit"
	apperrors "github.com/asinfra/adconsole/errors"
	"github.com/asinfra/adconsole/model"
	"github.com/asinfra/adconsole/service"
	"github.com/asinfra/adconsole/storage"
	"github.com/asinfra/adconsole/storage/memory"
	mocks "github.com/asinfra/adconsole/test/mock"
	"github.com/asinfra/adconsole/util"
)

const testActor = "admin"

func newTestServices(t *testing.T) (*service.Services, *mocks.MockAuditService) {
	t.Helper()

	auditService := &mocks.MockAuditService{}
	auditService.On("LogAction", tmock.Anything, tmock.Anything).Return(nil)

	eventBus := util.NewEventBus()
	services, err := service.InitializeServices(
		storage.NewActive(memory.New()),
		auditService,
		util.NewValidationUtil(),
		util.NewCacheService(),
		util.NewNotificationService(),
		eventBus,
	)
	require.NoError(t, err)
	return services, auditService
}

func validInsertUser(sam string) model.InsertUser {
	return model.InsertUser{
		SAMAccountName: sam,
		DisplayName:    "Test User",
		Email:          sam + "@as.com",
	}
}

func TestCreateUserValidatesBeforeDispatch(t *testing.T) {
	services, _ := newTestServices(t)
	ctx := context.Background()

	cases := map[string]model.InsertUser{
		"missing logon name": {DisplayName: "X", Email: "x@as.com"},
		"missing email":      {SAMAccountName: "x", DisplayName: "X"},
		"logon name too long": {
			SAMAccountName: "aaaaaaaaaaaaaaaaaaaaa",
			DisplayName:    "X",
			Email:          "x@as.com",
		},
		"malformed email": {SAMAccountName: "x", DisplayName: "X", Email: "not-an-email"},
	}
	for name, ins := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := services.User.CreateUser(ctx, ins, testActor)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestCreateUserAuditsAction(t *testing.T) {
	services, auditService := newTestServices(t)
	ctx := context.Background()

	u, err := services.User.CreateUser(ctx, validInsertUser("jdoe"), testActor)
	require.NoError(t, err)

	auditService.AssertCalled(t, "LogAction", tmock.Anything, tmock.MatchedBy(func(log audit.AuditLog) bool {
		return log.Action == audit.ActionCreateUser &&
			log.UserID == testActor &&
			log.ResourceID == u.ID &&
			log.Succeeded
	}))
}

func TestUpdateUserAppliesPatch(t *testing.T) {
	services, _ := newTestServices(t)
	ctx := context.Background()

	u, err := services.User.CreateUser(ctx, validInsertUser("jdoe"), testActor)
	require.NoError(t, err)

	title := "Directory Admin"
	updated, err := services.User.UpdateUser(ctx, u.ID, model.UserPatch{Title: &title}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "Directory Admin", updated.Title)
	assert.Equal(t, u.SAMAccountName, updated.SAMAccountName)
}

func TestUpdateUserRejectsClearedDisplayName(t *testing.T) {
	services, _ := newTestServices(t)
	ctx := context.Background()

	u, err := services.User.CreateUser(ctx, validInsertUser("jdoe"), testActor)
	require.NoError(t, err)

	empty := ""
	_, err = services.User.UpdateUser(ctx, u.ID, model.UserPatch{DisplayName: &empty}, testActor)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestResetPasswordReturnsPlaintextOnce(t *testing.T) {
	services, auditService := newTestServices(t)
	ctx := context.Background()

	u, err := services.User.CreateUser(ctx, validInsertUser("jdoe"), testActor)
	require.NoError(t, err)

	updated, password, err := services.User.ResetPassword(ctx, u.ID, testActor)
	require.NoError(t, err)
	assert.Len(t, password, 16)
	assert.True(t, updated.MustChangePassword)

	// The generated credential must not leak into the audit trail.
	for _, call := range auditService.Calls {
		log := call.Arguments.Get(1).(audit.AuditLog)
		if log.Action == audit.ActionResetPassword {
			assert.NotContains(t, string(log.ChangeDetails), password)
		}
	}
}

func TestDisableThenDeleteLifecycle(t *testing.T) {
	services, _ := newTestServices(t)
	ctx := context.Background()

	u, err := services.User.CreateUser(ctx, validInsertUser("jdoe"), testActor)
	require.NoError(t, err)
	require.True(t, u.Enabled)

	disabled, err := services.User.SetEnabled(ctx, u.ID, false, testActor)
	require.NoError(t, err)
	assert.False(t, disabled.Enabled)

	require.NoError(t, services.User.DeleteUser(ctx, u.ID, testActor))

	_, err = services.User.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestListUsersPagination(t *testing.T) {
	services, _ := newTestServices(t)
	ctx := context.Background()

	for _, sam := range []string{"able", "baker", "charlie"} {
		_, err := services.User.CreateUser(ctx, validInsertUser(sam), testActor)
		require.NoError(t, err)
	}

	page, err := services.User.ListUsers(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := services.User.ListUsers(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	past, err := services.User.ListUsers(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestMembershipRoundTrip(t *testing.T) {
	services, _ := newTestServices(t)
	ctx := context.Background()

	u, err := services.User.CreateUser(ctx, validInsertUser("jdoe"), testActor)
	require.NoError(t, err)
	g, err := services.Group.CreateGroup(ctx, model.InsertGroup{Name: "Engineering"}, testActor)
	require.NoError(t, err)

	m, err := services.Membership.AddUserToGroup(ctx, u.ID, g.ID, testActor)
	require.NoError(t, err)
	assert.Equal(t, u.ID, m.UserID)

	_, err = services.Membership.AddUserToGroup(ctx, u.ID, g.ID, testActor)
	assert.ErrorIs(t, err, apperrors.ErrMembershipConflict)

	groups, err := services.Membership.GroupsForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Engineering", groups[0].Name)

	require.NoError(t, services.Membership.RemoveUserFromGroup(ctx, u.ID, g.ID, testActor))
	assert.ErrorIs(t,
		services.Membership.RemoveUserFromGroup(ctx, u.ID, g.ID, testActor),
		apperrors.ErrMembershipNotFound)
}

func TestDeviceLifecycle(t *testing.T) {
	services, _ := newTestServices(t)
	ctx := context.Background()

	_, err := services.Device.CreateDevice(ctx, model.InsertDevice{Hostname: "bad host"}, testActor)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	d, err := services.Device.CreateDevice(ctx, model.InsertDevice{
		Hostname: "WS-0042",
		OU:       "OU=Workstations,DC=as,DC=com",
	}, testActor)
	require.NoError(t, err)

	desc := "front desk workstation"
	updated, err := services.Device.UpdateDevice(ctx, d.ID, model.DevicePatch{Description: &desc}, testActor)
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)

	require.NoError(t, services.Device.DeleteDevice(ctx, d.ID, testActor))
	_, err = services.Device.GetDevice(ctx, d.ID)
	assert.ErrorIs(t, err, apperrors.ErrDeviceNotFound)
}
