// controller/user_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/asinfra/adconsole/model"
	"github.com/asinfra/adconsole/service"
	"github.com/asinfra/adconsole/util"
	helper_util "github.com/asinfra/adconsole/util/helper"
)

type UserController struct {
	userService       service.IUserService
	membershipService service.IMembershipService
}

func NewUserController(userService service.IUserService, membershipService service.IMembershipService) *UserController {
	return &UserController{
		userService:       userService,
		membershipService: membershipService,
	}
}

// RegisterRoutes registers the API routes
func (uc *UserController) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.POST("", uc.CreateUser)
		users.GET("", uc.ListUsers)
		users.GET("/:id", uc.GetUser)
		users.PUT("/:id", uc.UpdateUser)
		users.DELETE("/:id", uc.DeleteUser)
		users.POST("/:id/reset-password", uc.ResetPassword)
		users.POST("/:id/lock", uc.ToggleLock)
		users.POST("/:id/enable", uc.EnableUser)
		users.POST("/:id/disable", uc.DisableUser)
		users.GET("/:id/groups", uc.ListUserGroups)
		users.POST("/:id/groups", uc.AddUserToGroup)
		users.DELETE("/:id/groups/:groupId", uc.RemoveUserFromGroup)
	}
}

// CreateUser endpoint
func (uc *UserController) CreateUser(c *gin.Context) {
	var ins model.InsertUser
	if err := c.ShouldBindJSON(&ins); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
		return
	}
	creatorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	createdUser, err := uc.userService.CreateUser(c, ins, creatorID)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to create user", err)
		return
	}

	c.JSON(http.StatusCreated, createdUser)
}

// UpdateUser endpoint
func (uc *UserController) UpdateUser(c *gin.Context) {
	userID := c.Param("id")
	var patch model.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
		return
	}
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	updatedUser, err := uc.userService.UpdateUser(c, userID, patch, updaterID)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to update user", err)
		return
	}

	c.JSON(http.StatusOK, updatedUser)
}

// DeleteUser endpoint
func (uc *UserController) DeleteUser(c *gin.Context) {
	userID := c.Param("id")
	deleterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := uc.userService.DeleteUser(c, userID, deleterID); err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to delete user", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetUser endpoint
func (uc *UserController) GetUser(c *gin.Context) {
	userID := c.Param("id")

	user, err := uc.userService.GetUser(c, userID)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to retrieve user", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers endpoint
func (uc *UserController) ListUsers(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	users, err := uc.userService.ListUsers(c, limit, offset)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to list users", err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// ResetPassword endpoint. The response is the only place the generated
// credential ever appears.
func (uc *UserController) ResetPassword(c *gin.Context) {
	userID := c.Param("id")
	actorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	user, password, err := uc.userService.ResetPassword(c, userID, actorID)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to reset password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"password": password,
	})
}

// ToggleLock endpoint
func (uc *UserController) ToggleLock(c *gin.Context) {
	userID := c.Param("id")
	actorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	user, err := uc.userService.ToggleLock(c, userID, actorID)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to toggle account lock", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// EnableUser endpoint
func (uc *UserController) EnableUser(c *gin.Context) {
	uc.setEnabled(c, true)
}

// DisableUser endpoint
func (uc *UserController) DisableUser(c *gin.Context) {
	uc.setEnabled(c, false)
}

func (uc *UserController) setEnabled(c *gin.Context, enabled bool) {
	userID := c.Param("id")
	actorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	user, err := uc.userService.SetEnabled(c, userID, enabled, actorID)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to change account state", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUserGroups endpoint
func (uc *UserController) ListUserGroups(c *gin.Context) {
	userID := c.Param("id")

	groups, err := uc.membershipService.GroupsForUser(c, userID)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to list user groups", err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

// AddUserToGroup endpoint
func (uc *UserController) AddUserToGroup(c *gin.Context) {
	userID := c.Param("id")
	var body struct {
		GroupID string `json:"group_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid membership data", err)
		return
	}
	actorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	membership, err := uc.membershipService.AddUserToGroup(c, userID, body.GroupID, actorID)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to add user to group", err)
		return
	}

	c.JSON(http.StatusCreated, membership)
}

// RemoveUserFromGroup endpoint
func (uc *UserController) RemoveUserFromGroup(c *gin.Context) {
	userID := c.Param("id")
	groupID := c.Param("groupId")
	actorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := uc.membershipService.RemoveUserFromGroup(c, userID, groupID, actorID); err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Failed to remove user from group", err)
		return
	}

	c.Status(http.StatusNoContent)
}
