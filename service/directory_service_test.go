// service/directory_service_test.go
package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/asinfra/adconsole/config"
	apperrors "github.com/asinfra/adconsole/errors"
	"github.com/asinfra/adconsole/storage"
	"github.com/asinfra/adconsole/storage/memory"
	mocks "github.com/asinfra/adconsole/test/mock"
	"github.com/asinfra/adconsole/util"
)

func newDirectoryService(t *testing.T) (*DirectoryService, *storage.Active) {
	t.Helper()

	auditService := &mocks.MockAuditService{}
	auditService.On("LogAction", tmock.Anything, tmock.Anything).Return(nil)

	active := storage.NewActive(memory.New())
	return NewDirectoryService(active, auditService, util.NewNotificationService()), active
}

func configureDomain(t *testing.T, name string) {
	t.Helper()
	prefix := "directory.domains." + name
	viper.Set(prefix+".url", "ldap://dc1."+name+".example.com:389")
	viper.Set(prefix+".baseDN", "DC="+name+",DC=example,DC=com")
	viper.Set(prefix+".bindUser", "CN=svc-console,DC="+name+",DC=example,DC=com")
	viper.Set(prefix+".bindPassword", "test-bind-secret")
	t.Cleanup(func() {
		viper.Set(prefix+".url", "")
		viper.Set(prefix+".baseDN", "")
		viper.Set(prefix+".bindUser", "")
		viper.Set(prefix+".bindPassword", "")
	})
}

func TestSwitchDomainSwapsActiveBackend(t *testing.T) {
	svc, active := newDirectoryService(t)
	configureDomain(t, "corp")
	before := active.Store()

	replacement := memory.New()
	var received config.DirectoryConfig
	svc.connect = func(cfg config.DirectoryConfig) (storage.Store, error) {
		received = cfg
		return replacement, nil
	}

	require.NoError(t, svc.SwitchDomain(context.Background(), "corp", "admin"))

	assert.Equal(t, "ldap://dc1.corp.example.com:389", received.URL)
	assert.Equal(t, "DC=corp,DC=example,DC=com", received.SearchBase, "search base defaults to the base DN")
	assert.NotSame(t, before, active.Store())
	assert.Equal(t, "corp", svc.CurrentDomain())
}

func TestSwitchDomainKeepsBackendOnFailure(t *testing.T) {
	svc, active := newDirectoryService(t)
	configureDomain(t, "corp")
	before := active.Store()

	svc.connect = func(cfg config.DirectoryConfig) (storage.Store, error) {
		return nil, apperrors.ErrBackendUnavailable
	}

	err := svc.SwitchDomain(context.Background(), "corp", "admin")
	assert.ErrorIs(t, err, apperrors.ErrBackendUnavailable)
	assert.Same(t, before, active.Store(), "failed switch must not disturb the active backend")
	assert.Equal(t, "", svc.CurrentDomain())
}

func TestSwitchDomainRejectsUnconfiguredDomain(t *testing.T) {
	svc, active := newDirectoryService(t)
	before := active.Store()

	svc.connect = func(cfg config.DirectoryConfig) (storage.Store, error) {
		return nil, errors.New("connect must not be reached")
	}

	err := svc.SwitchDomain(context.Background(), "nowhere", "admin")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Same(t, before, active.Store())
}
