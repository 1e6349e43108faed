// service/directory_service.go
package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/asinfra/adconsole/audit"
	"github.com/asinfra/adconsole/config"
	"github.com/asinfra/adconsole/db"
	logger "github.com/asinfra/adconsole/logging"
	"github.com/asinfra/adconsole/storage"
	"github.com/asinfra/adconsole/storage/directory"
	"github.com/asinfra/adconsole/util"
)

const domainSwitchLock = "directory-domain-switch"

// IDirectoryService defines the interface for directory connection management
type IDirectoryService interface {
	SwitchDomain(ctx context.Context, domain string, actorID string) error
	CurrentDomain() string
}

// DirectoryService switches the active handle between directory domains. A
// switch builds and validates the new backend before the swap, so a failed
// switch leaves the current backend untouched.
type DirectoryService struct {
	backend         *storage.Active
	auditService    audit.Service
	notificationSvc *util.NotificationService

	// connect is swapped out in tests.
	connect func(cfg config.DirectoryConfig) (storage.Store, error)

	mu     sync.RWMutex
	domain string
}

var _ IDirectoryService = &DirectoryService{}

// NewDirectoryService creates a new instance of DirectoryService
func NewDirectoryService(backend *storage.Active, auditService audit.Service, notificationSvc *util.NotificationService) *DirectoryService {
	return &DirectoryService{
		backend:         backend,
		auditService:    auditService,
		notificationSvc: notificationSvc,
		connect: func(cfg config.DirectoryConfig) (storage.Store, error) {
			return directory.New(cfg)
		},
	}
}

// CurrentDomain reports the domain the active backend is bound to. Empty
// means the default domain from the top-level configuration block.
func (s *DirectoryService) CurrentDomain() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.domain
}

// SwitchDomain repoints the console at another directory domain. Concurrent
// switches are serialized through a short-lived distributed lock.
func (s *DirectoryService) SwitchDomain(ctx context.Context, domain string, actorID string) error {
	locked, err := db.LockResource(ctx, domainSwitchLock, 30*time.Second)
	if err != nil {
		logger.Warn("Domain switch lock unavailable, proceeding unserialized", zap.Error(err))
	} else if !locked {
		logger.Warn("Concurrent domain switch in progress", zap.String("domain", domain))
	} else {
		defer func() {
			if err := db.UnlockResource(ctx, domainSwitchLock); err != nil {
				logger.Warn("Failed to release domain switch lock", zap.Error(err))
			}
		}()
	}

	cfg, err := config.Directory(domain)
	if err != nil {
		logAudit(ctx, s.auditService, actorID, audit.ActionSwitchDomain, domain, false, nil)
		return err
	}

	newStore, err := s.connect(cfg)
	if err != nil {
		logger.Error("Failed to connect to directory domain",
			zap.Error(err),
			zap.String("domain", domain),
			zap.String("actorID", actorID))
		logAudit(ctx, s.auditService, actorID, audit.ActionSwitchDomain, domain, false, nil)
		return err
	}

	old := s.backend.Swap(newStore)
	if old != nil {
		if err := old.Close(); err != nil {
			logger.Warn("Error closing previous backend", zap.Error(err), zap.String("domain", domain))
		}
	}

	s.mu.Lock()
	s.domain = domain
	s.mu.Unlock()

	logAudit(ctx, s.auditService, actorID, audit.ActionSwitchDomain, domain, true, nil)
	if err := s.notificationSvc.NotifyAdmins(ctx, "directory domain switched to "+domain); err != nil {
		logger.Warn("Failed to notify admins", zap.Error(err))
	}

	logger.Info("Directory domain switched",
		zap.String("domain", domain),
		zap.String("actorID", actorID))
	return nil
}
