// service/device_service.go
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

// IDeviceService defines the interface for device operations
type IDeviceService interface {
	CreateDevice(ctx context.Context, ins model.InsertDevice, creatorID string) (*model.Device, error)
	UpdateDevice(ctx context.Context, deviceID string, patch model.DevicePatch, updaterID string) (*model.Device, error)
	DeleteDevice(ctx context.Context, deviceID string, deleterID string) error
	GetDevice(ctx context.Context, deviceID string) (*model.Device, error)
	ListDevices(ctx context.Context, limit int, offset int) ([]*model.Device, error)
}

// DeviceService handles business logic for device operations
type DeviceService struct {
	backend         *storage.Active
	auditService    audit.Service
	validationUtil  *util.ValidationUtil
	cacheService    *util.CacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IDeviceService = &DeviceService{}

// NewDeviceService creates a new instance of DeviceService
func NewDeviceService(backend *storage.Active, auditService audit.Service, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus) *DeviceService {
	service := &DeviceService{
		backend:         backend,
		auditService:    auditService,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("device.changed", service.handleDeviceChanged)

	return service
}

func (s *DeviceService) handleDeviceChanged(ctx context.Context, event util.Event) error {
	device := event.Payload.(model.Device)
	logger.Info("Device changed event received", zap.String("deviceID", device.ID))

	if err := s.notificationSvc.NotifyDeviceChange(ctx, event.Type, device); err != nil {
		logger.Warn("Failed to send device change notification", zap.Error(err), zap.String("deviceID", device.ID))
	}
	return nil
}

// CreateDevice handles the registration of a new device
func (s *DeviceService) CreateDevice(ctx context.Context, ins model.InsertDevice, creatorID string) (*model.Device, error) {
	if err := s.validationUtil.ValidateInsertDevice(ins); err != nil {
		return nil, err
	}

	device, err := s.backend.Store().CreateDevice(ctx, ins)
	if err != nil {
		logger.Error("Error creating device", zap.Error(err), zap.String("creatorID", creatorID))
		logAudit(ctx, s.auditService, creatorID, audit.ActionCreateDevice, ins.Hostname, false, nil)
		return nil, err
	}

	if err := s.cacheService.SetDevice(ctx, *device); err != nil {
		logger.Warn("Failed to cache device", zap.Error(err), zap.String("deviceID", device.ID))
	}

	s.eventBus.Publish(ctx, "device.changed", *device)
	logAudit(ctx, s.auditService, creatorID, audit.ActionCreateDevice, device.ID, true, ins)

	logger.Info("Device created successfully", zap.String("deviceID", device.ID), zap.String("creatorID", creatorID))
	return device, nil
}

// UpdateDevice applies a partial update to an existing device
func (s *DeviceService) UpdateDevice(ctx context.Context, deviceID string, patch model.DevicePatch, updaterID string) (*model.Device, error) {
	device, err := s.backend.Store().UpdateDevice(ctx, deviceID, patch)
	if err != nil {
		logger.Error("Error updating device", zap.Error(err), zap.String("deviceID", deviceID), zap.String("updaterID", updaterID))
		logAudit(ctx, s.auditService, updaterID, audit.ActionUpdateDevice, deviceID, false, nil)
		return nil, err
	}

	if err := s.cacheService.SetDevice(ctx, *device); err != nil {
		logger.Warn("Failed to update device in cache", zap.Error(err), zap.String("deviceID", deviceID))
	}

	s.eventBus.Publish(ctx, "device.changed", *device)
	logAudit(ctx, s.auditService, updaterID, audit.ActionUpdateDevice, deviceID, true, patch)

	logger.Info("Device updated successfully", zap.String("deviceID", deviceID), zap.String("updaterID", updaterID))
	return device, nil
}

// DeleteDevice removes a device
func (s *DeviceService) DeleteDevice(ctx context.Context, deviceID string, deleterID string) error {
	err := s.backend.Store().DeleteDevice(ctx, deviceID)
	if err != nil {
		logger.Error("Error deleting device", zap.Error(err), zap.String("deviceID", deviceID), zap.String("deleterID", deleterID))
		logAudit(ctx, s.auditService, deleterID, audit.ActionDeleteDevice, deviceID, false, nil)
		return err
	}

	if err := s.cacheService.DeleteDevice(ctx, deviceID); err != nil {
		logger.Warn("Failed to delete device from cache", zap.Error(err), zap.String("deviceID", deviceID))
	}

	s.eventBus.Publish(ctx, "device.changed", model.Device{ID: deviceID})
	logAudit(ctx, s.auditService, deleterID, audit.ActionDeleteDevice, deviceID, true, nil)

	logger.Info("Device deleted successfully", zap.String("deviceID", deviceID), zap.String("deleterID", deleterID))
	return nil
}

// GetDevice retrieves a device by its ID
func (s *DeviceService) GetDevice(ctx context.Context, deviceID string) (*model.Device, error) {
	cachedDevice, err := s.cacheService.GetDevice(ctx, deviceID)
	if err == nil && cachedDevice != nil {
		return cachedDevice, nil
	}

	device, err := s.backend.Store().GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheService.SetDevice(ctx, *device); err != nil {
		logger.Warn("Failed to cache device", zap.Error(err), zap.String("deviceID", deviceID))
	}

	return device, nil
}

// ListDevices retrieves all devices, with pagination applied after the fact
func (s *DeviceService) ListDevices(ctx context.Context, limit int, offset int) ([]*model.Device, error) {
	devices, err := s.backend.Store().ListDevices(ctx)
	if err != nil {
		logger.Error("Error listing devices", zap.Error(err), zap.Int("limit", limit), zap.Int("offset", offset))
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	return paginate(devices, limit, offset), nil
}
