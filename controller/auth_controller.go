// controller/auth_controller.go
package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/asinfra/adconsole/auth"
	"github.com/asinfra/adconsole/util"
)

type AuthController struct {
	authService *auth.Service
}

func NewAuthController(authService *auth.Service) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// RegisterPublicRoutes registers the routes reachable without a session
func (ac *AuthController) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/login", ac.Login)
}

// RegisterRoutes registers the routes that require a session
func (ac *AuthController) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/logout", ac.Logout)
}

// Login endpoint. The credentials are verified with a directory bind and
// discarded; only the session token goes back to the client.
func (ac *AuthController) Login(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid login data", err)
		return
	}

	token, session, err := ac.authService.Login(c, body.Username, body.Password)
	if err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Login failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"username":   session.Username,
		"expires_at": session.ExpiresAt,
	})
}

// Logout endpoint
func (ac *AuthController) Logout(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	if err := ac.authService.Logout(c, token); err != nil {
		util.RespondWithError(c, util.StatusFromError(err), "Logout failed", err)
		return
	}

	c.Status(http.StatusNoContent)
}
