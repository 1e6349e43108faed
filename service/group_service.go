// service/group_service.go
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

// IGroupService defines the interface for group operations
type IGroupService interface {
	CreateGroup(ctx context.Context, ins model.InsertGroup, creatorID string) (*model.Group, error)
	UpdateGroup(ctx context.Context, groupID string, patch model.GroupPatch, updaterID string) (*model.Group, error)
	DeleteGroup(ctx context.Context, groupID string, deleterID string) error
	GetGroup(ctx context.Context, groupID string) (*model.Group, error)
	ListGroups(ctx context.Context, limit int, offset int) ([]*model.Group, error)
}

// GroupService handles business logic for group operations
type GroupService struct {
	backend         *storage.Active
	auditService    audit.Service
	validationUtil  *util.ValidationUtil
	cacheService    *util.CacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IGroupService = &GroupService{}

// NewGroupService creates a new instance of GroupService
func NewGroupService(backend *storage.Active, auditService audit.Service, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus) *GroupService {
	service := &GroupService{
		backend:         backend,
		auditService:    auditService,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("group.changed", service.handleGroupChanged)

	return service
}

func (s *GroupService) handleGroupChanged(ctx context.Context, event util.Event) error {
	group := event.Payload.(model.Group)
	logger.Info("Group changed event received", zap.String("groupID", group.ID))

	if err := s.notificationSvc.NotifyGroupChange(ctx, event.Type, group); err != nil {
		logger.Warn("Failed to send group change notification", zap.Error(err), zap.String("groupID", group.ID))
	}
	return nil
}

// CreateGroup handles the creation of a new group
func (s *GroupService) CreateGroup(ctx context.Context, ins model.InsertGroup, creatorID string) (*model.Group, error) {
	if err := s.validationUtil.ValidateInsertGroup(ins); err != nil {
		return nil, err
	}

	group, err := s.backend.Store().CreateGroup(ctx, ins)
	if err != nil {
		logger.Error("Error creating group", zap.Error(err), zap.String("creatorID", creatorID))
		logAudit(ctx, s.auditService, creatorID, audit.ActionCreateGroup, ins.Name, false, nil)
		return nil, err
	}

	if err := s.cacheService.SetGroup(ctx, *group); err != nil {
		logger.Warn("Failed to cache group", zap.Error(err), zap.String("groupID", group.ID))
	}

	s.eventBus.Publish(ctx, "group.changed", *group)
	logAudit(ctx, s.auditService, creatorID, audit.ActionCreateGroup, group.ID, true, ins)

	logger.Info("Group created successfully", zap.String("groupID", group.ID), zap.String("creatorID", creatorID))
	return group, nil
}

// UpdateGroup applies a partial update to an existing group
func (s *GroupService) UpdateGroup(ctx context.Context, groupID string, patch model.GroupPatch, updaterID string) (*model.Group, error) {
	group, err := s.backend.Store().UpdateGroup(ctx, groupID, patch)
	if err != nil {
		logger.Error("Error updating group", zap.Error(err), zap.String("groupID", groupID), zap.String("updaterID", updaterID))
		logAudit(ctx, s.auditService, updaterID, audit.ActionUpdateGroup, groupID, false, nil)
		return nil, err
	}

	if err := s.cacheService.SetGroup(ctx, *group); err != nil {
		logger.Warn("Failed to update group in cache", zap.Error(err), zap.String("groupID", groupID))
	}

	s.eventBus.Publish(ctx, "group.changed", *group)
	logAudit(ctx, s.auditService, updaterID, audit.ActionUpdateGroup, groupID, true, patch)

	logger.Info("Group updated successfully", zap.String("groupID", groupID), zap.String("updaterID", updaterID))
	return group, nil
}

// DeleteGroup removes a group and its memberships
func (s *GroupService) DeleteGroup(ctx context.Context, groupID string, deleterID string) error {
	err := s.backend.Store().DeleteGroup(ctx, groupID)
	if err != nil {
		logger.Error("Error deleting group", zap.Error(err), zap.String("groupID", groupID), zap.String("deleterID", deleterID))
		logAudit(ctx, s.auditService, deleterID, audit.ActionDeleteGroup, groupID, false, nil)
		return err
	}

	if err := s.cacheService.DeleteGroup(ctx, groupID); err != nil {
		logger.Warn("Failed to delete group from cache", zap.Error(err), zap.String("groupID", groupID))
	}

	s.eventBus.Publish(ctx, "group.changed", model.Group{ID: groupID})
	logAudit(ctx, s.auditService, deleterID, audit.ActionDeleteGroup, groupID, true, nil)

	logger.Info("Group deleted successfully", zap.String("groupID", groupID), zap.String("deleterID", deleterID))
	return nil
}

// GetGroup retrieves a group by its ID
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*model.Group, error) {
	cachedGroup, err := s.cacheService.GetGroup(ctx, groupID)
	if err == nil && cachedGroup != nil {
		return cachedGroup, nil
	}

	group, err := s.backend.Store().GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheService.SetGroup(ctx, *group); err != nil {
		logger.Warn("Failed to cache group", zap.Error(err), zap.String("groupID", groupID))
	}

	return group, nil
}

// ListGroups retrieves all groups, with pagination applied after the fact
func (s *GroupService) ListGroups(ctx context.Context, limit int, offset int) ([]*model.Group, error) {
	groups, err := s.backend.Store().ListGroups(ctx)
	if err != nil {
		logger.Error("Error listing groups", zap.Error(err), zap.Int("limit", limit), zap.Int("offset", offset))
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	return paginate(groups, limit, offset), nil
}
