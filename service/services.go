// service/services.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/asinfra/adconsole/audit"
	logger "github.com/asinfra/adconsole/logging"
	"github.com/asinfra/adconsole/storage"
	"github.com/asinfra/adconsole/util"
)

type Services struct {
	User       IUserService
	Group      IGroupService
	Device     IDeviceService
	Membership IMembershipService
	Directory  IDirectoryService
}

func InitializeServices(
	backend *storage.Active,
	auditService audit.Service,
	validationUtil *util.ValidationUtil,
	cacheService *util.CacheService,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
) (*Services, error) {
	services := &Services{
		User:       NewUserService(backend, auditService, validationUtil, cacheService, notificationSvc, eventBus),
		Group:      NewGroupService(backend, auditService, validationUtil, cacheService, notificationSvc, eventBus),
		Device:     NewDeviceService(backend, auditService, validationUtil, cacheService, notificationSvc, eventBus),
		Membership: NewMembershipService(backend, auditService),
		Directory:  NewDirectoryService(backend, auditService, notificationSvc),
	}

	return services, nil
}

// logAudit records one management action. Audit failures never fail the
// operation itself.
func logAudit(ctx context.Context, auditService audit.Service, actorID, action, resourceID string, succeeded bool, details interface{}) {
	var raw json.RawMessage
	if details != nil {
		raw, _ = json.Marshal(details)
	}
	err := auditService.LogAction(ctx, audit.AuditLog{
		Timestamp:     time.Now().UTC(),
		UserID:        actorID,
		Action:        action,
		ResourceID:    resourceID,
		Succeeded:     succeeded,
		ChangeDetails: raw,
	})
	if err != nil {
		logger.Warn("Failed to write audit log",
			zap.Error(err),
			zap.String("action", action),
			zap.String("resourceID", resourceID))
	}
}

// paginate slices a full result set down to the requested window. A limit of
// zero or less means no limit.
func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
