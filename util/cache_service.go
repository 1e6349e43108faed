// util/cache_service.go

package util

import (
	"context"

	"github.com/asinfra/adconsole/db"
	"github.com/asinfra/adconsole/model"
)

type CacheService struct{}

func NewCacheService() *CacheService {
	return &CacheService{}
}

func (c *CacheService) SetUser(ctx context.Context, user model.User) error {
	return db.CacheUser(ctx, &user)
}

func (c *CacheService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return db.GetCachedUser(ctx, userID)
}

func (c *CacheService) DeleteUser(ctx context.Context, userID string) error {
	return db.DeleteCachedUser(ctx, userID)
}

func (c *CacheService) SetGroup(ctx context.Context, group model.Group) error {
	return db.CacheGroup(ctx, &group)
}

func (c *CacheService) GetGroup(ctx context.Context, groupID string) (*model.Group, error) {
	return db.GetCachedGroup(ctx, groupID)
}

func (c *CacheService) DeleteGroup(ctx context.Context, groupID string) error {
	return db.DeleteCachedGroup(ctx, groupID)
}

func (c *CacheService) SetDevice(ctx context.Context, device model.Device) error {
	return db.CacheDevice(ctx, &device)
}

func (c *CacheService) GetDevice(ctx context.Context, deviceID string) (*model.Device, error) {
	return db.GetCachedDevice(ctx, deviceID)
}

func (c *CacheService) DeleteDevice(ctx context.Context, deviceID string) error {
	return db.DeleteCachedDevice(ctx, deviceID)
}
