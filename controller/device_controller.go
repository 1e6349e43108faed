// controller/device_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/asinfra/adconsole/model"
	"github.com/asinfra/adconsole/service"
	"github.com/asinfra/adconsole/util"
	helper_util "github.com/asinfra/adconsole/util/helper"
)

type DeviceController struct {
	deviceService service.IDeviceService
}

func NewDeviceController(deviceService service.IDeviceService) *DeviceController {
	return &DeviceController{
		deviceService: deviceService,
	}
}

// RegisterRoutes registers the API routes
func (dc *DeviceController) RegisterRoutes(r *gin.RouterGroup) {
	devices := r.Group("/devices")
	{
		devices.POST("", dc.CreateDevice)
		devices.GET("", dc.ListDevices)
		devices.GET("/:id", dc.GetDevice)
		devices.PUT("/:id", dc.UpdateDevice)
		devices.DELETE("/:id", dc.DeleteDevice)
	}
}

// CreateDevice endpoint
func (dc *DeviceController) CreateDevice(c *gin.Context) {
	var ins model.InsertDevice
	if err := c.ShouldBindJSON(&ins); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid device data", err)
		return
	}
	creatorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	createdDevice, err := dc.deviceService.CreateDevice(c, ins, creatorID)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to create device", err)
		return
	}

	c.JSON(http.StatusCreated, createdDevice)
}

// UpdateDevice endpoint
func (dc *DeviceController) UpdateDevice(c *gin.Context) {
	deviceID := c.Param("id")
	var patch model.DevicePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid device data", err)
		return
	}
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	updatedDevice, err := dc.deviceService.UpdateDevice(c, deviceID, patch, updaterID)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to update device", err)
		return
	}

	c.JSON(http.StatusOK, updatedDevice)
}

// DeleteDevice endpoint
func (dc *DeviceController) DeleteDevice(c *gin.Context) {
	deviceID := c.Param("id")
	deleterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := dc.deviceService.DeleteDevice(c, deviceID, deleterID); err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to delete device", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetDevice endpoint
func (dc *DeviceController) GetDevice(c *gin.Context) {
	deviceID := c.Param("id")

	device, err := dc.deviceService.GetDevice(c, deviceID)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to retrieve device", err)
		return
	}

	c.JSON(http.StatusOK, device)
}

// ListDevices endpoint
func (dc *DeviceController) ListDevices(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	devices, err := dc.deviceService.ListDevices(c, limit, offset)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to list devices", err)
		return
	}

	c.JSON(http.StatusOK, devices)
}
