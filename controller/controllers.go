// controller/controllers.go
package controller

import (
	"github.com/asinfra/adconsole/auth"
	"github.com/asinfra/adconsole/service"
)

type Controllers struct {
	Auth      *AuthController
	User      *UserController
	Group     *GroupController
	Device    *DeviceController
	Directory *DirectoryController
}

func InitializeControllers(services *service.Services, authService *auth.Service) *Controllers {
	return &Controllers{
		Auth:      NewAuthController(authService),
		User:      NewUserController(services.User, services.Membership),
		Group:     NewGroupController(services.Group),
		Device:    NewDeviceController(services.Device),
		Directory: NewDirectoryController(services.Directory),
	}
}
