// controller/directory_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/asinfra/adconsole/service"
	"github.com/asinfra/adconsole/util"
)

type DirectoryController struct {
	directoryService service.IDirectoryService
}

func NewDirectoryController(directoryService service.IDirectoryService) *DirectoryController {
	return &DirectoryController{
		directoryService: directoryService,
	}
}

// RegisterRoutes registers the API routes
func (dc *DirectoryController) RegisterRoutes(r *gin.RouterGroup) {
	directory := r.Group("/directory")
	{
		directory.GET("/domain", dc.GetDomain)
		directory.POST("/domain", dc.SwitchDomain)
	}
}

// GetDomain endpoint
func (dc *DirectoryController) GetDomain(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"domain": dc.directoryService.CurrentDomain()})
}

// SwitchDomain endpoint
func (dc *DirectoryController) SwitchDomain(c *gin.Context) {
	var body struct {
		Domain string `json:"domain" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid domain data", err)
		return
	}
	actorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := dc.directoryService.SwitchDomain(c, body.Domain, actorID); err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to switch domain", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"domain": body.Domain})
}
