// test/mock/service.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/asinfra/adconsole/model"
)

// MockUserService is a mock implementation of service.IUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(ctx context.Context, ins model.InsertUser, creatorID string) (*model.User, error) {
	args := m.Called(ctx, ins, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, userID string, patch model.UserPatch, updaterID string) (*model.User, error) {
	args := m.Called(ctx, userID, patch, updaterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, userID string, deleterID string) error {
	args := m.Called(ctx, userID, deleterID)
	return args.Error(0)
}

func (m *MockUserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context, limit int, offset int) ([]*model.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserService) ResetPassword(ctx context.Context, userID string, actorID string) (*model.User, string, error) {
	args := m.Called(ctx, userID, actorID)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*model.User), args.String(1), args.Error(2)
}

func (m *MockUserService) ToggleLock(ctx context.Context, userID string, actorID string) (*model.User, error) {
	args := m.Called(ctx, userID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) SetEnabled(ctx context.Context, userID string, enabled bool, actorID string) (*model.User, error) {
	args := m.Called(ctx, userID, enabled, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockMembershipService is a mock implementation of service.IMembershipService
type MockMembershipService struct {
	mock.Mock
}

func (m *MockMembershipService) AddUserToGroup(ctx context.Context, userID, groupID string, actorID string) (*model.Membership, error) {
	args := m.Called(ctx, userID, groupID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Membership), args.Error(1)
}

func (m *MockMembershipService) RemoveUserFromGroup(ctx context.Context, userID, groupID string, actorID string) error {
	args := m.Called(ctx, userID, groupID, actorID)
	return args.Error(0)
}

func (m *MockMembershipService) GroupsForUser(ctx context.Context, userID string) ([]*model.Group, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Group), args.Error(1)
}
