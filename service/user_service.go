// service/user_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/asinfra/adconsole/audit"
	logger "github.com/asinfra/adconsole/logging"
	"github.com/asinfra/adconsole/model"
	"github.com/asinfra/adconsole/storage"
	"github.com/asinfra/adconsole/util"
)

// IUserService defines the interface for user account operations
type IUserService interface {
	CreateUser(ctx context.Context, ins model.InsertUser, creatorID string) (*model.User, error)
	UpdateUser(ctx context.Context, userID string, patch model.UserPatch, updaterID string) (*model.User, error)
	DeleteUser(ctx context.Context, userID string, deleterID string) error
	GetUser(ctx context.Context, userID string) (*model.User, error)
	ListUsers(ctx context.Context, limit int, offset int) ([]*model.User, error)
	ResetPassword(ctx context.Context, userID string, actorID string) (*model.User, string, error)
	ToggleLock(ctx context.Context, userID string, actorID string) (*model.User, error)
	SetEnabled(ctx context.Context, userID string, enabled bool, actorID string) (*model.User, error)
}

// UserService handles business logic for user account operations
type UserService struct {
	backend         *storage.Active
	auditService    audit.Service
	validationUtil  *util.ValidationUtil
	cacheService    *util.CacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IUserService = &UserService{}

// NewUserService creates a new instance of UserService
func NewUserService(backend *storage.Active, auditService audit.Service, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus) *UserService {
	service := &UserService{
		backend:         backend,
		auditService:    auditService,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("user.created", service.handleUserCreated)
	eventBus.Subscribe("user.updated", service.handleUserUpdated)
	eventBus.Subscribe("user.deleted", service.handleUserDeleted)

	return service
}

func (s *UserService) handleUserCreated(ctx context.Context, event util.Event) error {
	user := event.Payload.(model.User)
	logger.Info("User created event received", zap.String("userID", user.ID))

	if err := s.notificationSvc.NotifyUserChange(ctx, "created", user); err != nil {
		logger.Warn("Failed to send user creation notification", zap.Error(err), zap.String("userID", user.ID))
	}
	return nil
}

func (s *UserService) handleUserUpdated(ctx context.Context, event util.Event) error {
	user := event.Payload.(model.User)
	logger.Info("User updated event received", zap.String("userID", user.ID))

	if err := s.notificationSvc.NotifyUserChange(ctx, "updated", user); err != nil {
		logger.Warn("Failed to send user update notification", zap.Error(err), zap.String("userID", user.ID))
	}
	return nil
}

func (s *UserService) handleUserDeleted(ctx context.Context, event util.Event) error {
	userID := event.Payload.(string)
	logger.Info("User deleted event received", zap.String("userID", userID))

	if err := s.notificationSvc.NotifyUserChange(ctx, "deleted", model.User{ID: userID}); err != nil {
		logger.Warn("Failed to send user deletion notification", zap.Error(err), zap.String("userID", userID))
	}
	return nil
}

// CreateUser handles the creation of a new user account
func (s *UserService) CreateUser(ctx context.Context, ins model.InsertUser, creatorID string) (*model.User, error) {
	if err := s.validationUtil.ValidateInsertUser(ins); err != nil {
		return nil, err
	}

	user, err := s.backend.Store().CreateUser(ctx, ins)
	if err != nil {
		logger.Error("Error creating user", zap.Error(err), zap.String("creatorID", creatorID))
		logAudit(ctx, s.auditService, creatorID, audit.ActionCreateUser, ins.SAMAccountName, false, nil)
		return nil, err
	}

	if err := s.cacheService.SetUser(ctx, *user); err != nil {
		logger.Warn("Failed to cache user", zap.Error(err), zap.String("userID", user.ID))
	}

	s.eventBus.Publish(ctx, "user.created", *user)
	logAudit(ctx, s.auditService, creatorID, audit.ActionCreateUser, user.ID, true, ins)

	logger.Info("User created successfully", zap.String("userID", user.ID), zap.String("creatorID", creatorID))
	return user, nil
}

// UpdateUser applies a partial update to an existing user account
func (s *UserService) UpdateUser(ctx context.Context, userID string, patch model.UserPatch, updaterID string) (*model.User, error) {
	if err := s.validationUtil.ValidateUserPatch(patch); err != nil {
		return nil, err
	}

	user, err := s.backend.Store().UpdateUser(ctx, userID, patch)
	if err != nil {
		logger.Error("Error updating user", zap.Error(err), zap.String("userID", userID), zap.String("updaterID", updaterID))
		logAudit(ctx, s.auditService, updaterID, audit.ActionUpdateUser, userID, false, nil)
		return nil, err
	}

	if err := s.cacheService.SetUser(ctx, *user); err != nil {
		logger.Warn("Failed to update user in cache", zap.Error(err), zap.String("userID", userID))
	}

	s.eventBus.Publish(ctx, "user.updated", *user)
	logAudit(ctx, s.auditService, updaterID, audit.ActionUpdateUser, userID, true, patch)

	logger.Info("User updated successfully", zap.String("userID", userID), zap.String("updaterID", updaterID))
	return user, nil
}

// DeleteUser removes a user account and its memberships
func (s *UserService) DeleteUser(ctx context.Context, userID string, deleterID string) error {
	err := s.backend.Store().DeleteUser(ctx, userID)
	if err != nil {
		logger.Error("Error deleting user", zap.Error(err), zap.String("userID", userID), zap.String("deleterID", deleterID))
		logAudit(ctx, s.auditService, deleterID, audit.ActionDeleteUser, userID, false, nil)
		return err
	}

	if err := s.cacheService.DeleteUser(ctx, userID); err != nil {
		logger.Warn("Failed to delete user from cache", zap.Error(err), zap.String("userID", userID))
	}

	s.eventBus.Publish(ctx, "user.deleted", userID)
	logAudit(ctx, s.auditService, deleterID, audit.ActionDeleteUser, userID, true, nil)

	logger.Info("User deleted successfully", zap.String("userID", userID), zap.String("deleterID", deleterID))
	return nil
}

// GetUser retrieves a user by their ID
func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	cachedUser, err := s.cacheService.GetUser(ctx, userID)
	if err == nil && cachedUser != nil {
		return cachedUser, nil
	}

	user, err := s.backend.Store().GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheService.SetUser(ctx, *user); err != nil {
		logger.Warn("Failed to cache user", zap.Error(err), zap.String("userID", userID))
	}

	return user, nil
}

// ListUsers retrieves all users, with pagination applied after the fact
func (s *UserService) ListUsers(ctx context.Context, limit int, offset int) ([]*model.User, error) {
	users, err := s.backend.Store().ListUsers(ctx)
	if err != nil {
		logger.Error("Error listing users", zap.Error(err), zap.Int("limit", limit), zap.Int("offset", offset))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return paginate(users, limit, offset), nil
}

// ResetPassword generates new credentials for the account. The plaintext is
// returned to the caller exactly once and is never cached, logged or audited.
func (s *UserService) ResetPassword(ctx context.Context, userID string, actorID string) (*model.User, string, error) {
	user, password, err := s.backend.Store().ResetPassword(ctx, userID)
	if err != nil {
		logger.Error("Error resetting password", zap.Error(err), zap.String("userID", userID), zap.String("actorID", actorID))
		logAudit(ctx, s.auditService, actorID, audit.ActionResetPassword, userID, false, nil)
		return nil, "", err
	}

	if err := s.cacheService.SetUser(ctx, *user); err != nil {
		logger.Warn("Failed to update user in cache", zap.Error(err), zap.String("userID", userID))
	}

	s.eventBus.Publish(ctx, "user.updated", *user)
	logAudit(ctx, s.auditService, actorID, audit.ActionResetPassword, userID, true, nil)

	logger.Info("Password reset", zap.String("userID", userID), zap.String("actorID", actorID))
	return user, password, nil
}

// ToggleLock flips the account lock state where the backend supports it
func (s *UserService) ToggleLock(ctx context.Context, userID string, actorID string) (*model.User, error) {
	user, err := s.backend.Store().ToggleLock(ctx, userID)
	if err != nil {
		logger.Error("Error toggling account lock", zap.Error(err), zap.String("userID", userID), zap.String("actorID", actorID))
		logAudit(ctx, s.auditService, actorID, audit.ActionToggleLock, userID, false, nil)
		return nil, err
	}

	if err := s.cacheService.SetUser(ctx, *user); err != nil {
		logger.Warn("Failed to update user in cache", zap.Error(err), zap.String("userID", userID))
	}

	s.eventBus.Publish(ctx, "user.updated", *user)
	logAudit(ctx, s.auditService, actorID, audit.ActionToggleLock, userID, true, map[string]bool{"account_locked": user.AccountLocked})

	if !user.AccountLocked {
		if err := s.notificationSvc.NotifyAdmins(ctx, "account unlocked: "+user.SAMAccountName); err != nil {
			logger.Warn("Failed to notify admins", zap.Error(err), zap.String("userID", userID))
		}
	}

	logger.Info("Account lock toggled",
		zap.String("userID", userID),
		zap.Bool("accountLocked", user.AccountLocked),
		zap.String("actorID", actorID))
	return user, nil
}

// SetEnabled enables or disables the account
func (s *UserService) SetEnabled(ctx context.Context, userID string, enabled bool, actorID string) (*model.User, error) {
	user, err := s.backend.Store().SetEnabled(ctx, userID, enabled)
	if err != nil {
		action := audit.ActionEnableUser
		if !enabled {
			action = audit.ActionDisableUser
		}
		logger.Error("Error setting account state", zap.Error(err), zap.String("userID", userID), zap.String("actorID", actorID))
		logAudit(ctx, s.auditService, actorID, action, userID, false, nil)
		return nil, err
	}

	if err := s.cacheService.SetUser(ctx, *user); err != nil {
		logger.Warn("Failed to update user in cache", zap.Error(err), zap.String("userID", userID))
	}

	action := audit.ActionEnableUser
	if !enabled {
		action = audit.ActionDisableUser
	}
	s.eventBus.Publish(ctx, "user.updated", *user)
	logAudit(ctx, s.auditService, actorID, action, userID, true, nil)

	logger.Info("Account state changed",
		zap.String("userID", userID),
		zap.Bool("enabled", enabled),
		zap.String("actorID", actorID))
	return user, nil
}
