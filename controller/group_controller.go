// controller/group_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/asinfra/adconsole/model"
	"github.com/asinfra/adconsole/service"
	"github.com/asinfra/adconsole/util"
	helper_util "github.com/asinfra/adconsole/util/helper"
)

type GroupController struct {
	groupService service.IGroupService
}

func NewGroupController(groupService service.IGroupService) *GroupController {
	return &GroupController{
		groupService: groupService,
	}
}

// RegisterRoutes registers the API routes
func (gc *GroupController) RegisterRoutes(r *gin.RouterGroup) {
	groups := r.Group("/groups")
	{
		groups.POST("", gc.CreateGroup)
		groups.GET("", gc.ListGroups)
		groups.GET("/:id", gc.GetGroup)
		groups.PUT("/:id", gc.UpdateGroup)
		groups.DELETE("/:id", gc.DeleteGroup)
	}
}

// CreateGroup endpoint
func (gc *GroupController) CreateGroup(c *gin.Context) {
	var ins model.InsertGroup
	if err := c.ShouldBindJSON(&ins); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid group data", err)
		return
	}
	creatorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	createdGroup, err := gc.groupService.CreateGroup(c, ins, creatorID)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to create group", err)
		return
	}

	c.JSON(http.StatusCreated, createdGroup)
}

// UpdateGroup endpoint
func (gc *GroupController) UpdateGroup(c *gin.Context) {
	groupID := c.Param("id")
	var patch model.GroupPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid group data", err)
		return
	}
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	updatedGroup, err := gc.groupService.UpdateGroup(c, groupID, patch, updaterID)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to update group", err)
		return
	}

	c.JSON(http.StatusOK, updatedGroup)
}

// DeleteGroup endpoint
func (gc *GroupController) DeleteGroup(c *gin.Context) {
	groupID := c.Param("id")
	deleterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := gc.groupService.DeleteGroup(c, groupID, deleterID); err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to delete group", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetGroup endpoint
func (gc *GroupController) GetGroup(c *gin.Context) {
	groupID := c.Param("id")

	group, err := gc.groupService.GetGroup(c, groupID)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to retrieve group", err)
		return
	}

	c.JSON(http.StatusOK, group)
}

// ListGroups endpoint
func (gc *GroupController) ListGroups(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	groups, err := gc.groupService.ListGroups(c, limit, offset)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to list groups", err)
		return
	}

	c.JSON(http.StatusOK, groups)
}
