// service/membership_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/asinfra/adconsole/audit"
	logger "github.com/asinfra/adconsole/logging"
	"github.com/asinfra/adconsole/model"
	"github.com/asinfra/adconsole/storage"
)

// IMembershipService defines the interface for group membership operations
type IMembershipService interface {
	AddUserToGroup(ctx context.Context, userID, groupID string, actorID string) (*model.Membership, error)
	RemoveUserFromGroup(ctx context.Context, userID, groupID string, actorID string) error
	GroupsForUser(ctx context.Context, userID string) ([]*model.Group, error)
}

// MembershipService handles business logic for membership operations
type MembershipService struct {
	backend      *storage.Active
	auditService audit.Service
}

var _ IMembershipService = &MembershipService{}

// NewMembershipService creates a new instance of MembershipService
func NewMembershipService(backend *storage.Active, auditService audit.Service) *MembershipService {
	return &MembershipService{
		backend:      backend,
		auditService: auditService,
	}
}

// AddUserToGroup adds a user to a group
func (s *MembershipService) AddUserToGroup(ctx context.Context, userID, groupID string, actorID string) (*model.Membership, error) {
	membership, err := s.backend.Store().AddUserToGroup(ctx, userID, groupID)
	if err != nil {
		logger.Error("Error adding user to group",
			zap.Error(err),
			zap.String("userID", userID),
			zap.String("groupID", groupID),
			zap.String("actorID", actorID))
		logAudit(ctx, s.auditService, actorID, audit.ActionAddMembership, fmt.Sprintf("%s:%s", userID, groupID), false, nil)
		return nil, err
	}

	logAudit(ctx, s.auditService, actorID, audit.ActionAddMembership, membership.ID, true, membership)

	logger.Info("User added to group",
		zap.String("userID", userID),
		zap.String("groupID", groupID),
		zap.String("actorID", actorID))
	return membership, nil
}

// RemoveUserFromGroup removes a user from a group
func (s *MembershipService) RemoveUserFromGroup(ctx context.Context, userID, groupID string, actorID string) error {
	err := s.backend.Store().RemoveUserFromGroup(ctx, userID, groupID)
	if err != nil {
		logger.Error("Error removing user from group",
			zap.Error(err),
			zap.String("userID", userID),
			zap.String("groupID", groupID),
			zap.String("actorID", actorID))
		logAudit(ctx, s.auditService, actorID, audit.ActionRemoveMembership, fmt.Sprintf("%s:%s", userID, groupID), false, nil)
		return err
	}

	logAudit(ctx, s.auditService, actorID, audit.ActionRemoveMembership, fmt.Sprintf("%s:%s", userID, groupID), true, nil)

	logger.Info("User removed from group",
		zap.String("userID", userID),
		zap.String("groupID", groupID),
		zap.String("actorID", actorID))
	return nil
}

// GroupsForUser lists the groups a user belongs to
func (s *MembershipService) GroupsForUser(ctx context.Context, userID string) ([]*model.Group, error) {
	groups, err := s.backend.Store().GroupsForUser(ctx, userID)
	if err != nil {
		logger.Error("Error listing groups for user", zap.Error(err), zap.String("userID", userID))
		return nil, err
	}
	return groups, nil
}
