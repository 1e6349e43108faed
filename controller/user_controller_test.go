// controller/user_controller_test.go
package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"

	"github.com/asinfra/adconsole/controller"
	apperrors "github.com/asinfra/adconsole/errors"
	"github.com/asinfra/adconsole/model"
	mocks "github.com/asinfra/adconsole/test/mock"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("requestingUserID", "admin")
	})
	return r
}

func TestUserController(t *testing.T) {
	mockUserService := new(mocks.MockUserService)
	mockMembershipService := new(mocks.MockMembershipService)
	userController := controller.NewUserController(mockUserService, mockMembershipService)
	router := setupRouter()
	api := router.Group("/")
	userController.RegisterRoutes(api)

	t.Run("CreateUser_Success", func(t *testing.T) {
		mockUserService.On("CreateUser", tmock.Anything, tmock.Anything, "admin").
			Return(&model.User{ID: "1", SAMAccountName: "jdoe"}, nil).Once()

		body := strings.NewReader(`{"sam_account_name":"jdoe","display_name":"John Doe","email":"jdoe@as.com"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/users", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("CreateUser_Failure_Conflict", func(t *testing.T) {
		mockUserService.On("CreateUser", tmock.Anything, tmock.Anything, "admin").
			Return(nil, apperrors.ErrUserConflict).Once()

		body := strings.NewReader(`{"sam_account_name":"jdoe","display_name":"John Doe","email":"jdoe@as.com"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/users", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("CreateUser_Failure_MissingFields", func(t *testing.T) {
		body := strings.NewReader(`{"display_name":"John Doe"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/users", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("GetUser_Success", func(t *testing.T) {
		mockUserService.On("GetUser", tmock.Anything, "1").
			Return(&model.User{ID: "1", SAMAccountName: "jdoe"}, nil).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/users/1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("GetUser_Failure_NotFound", func(t *testing.T) {
		mockUserService.On("GetUser", tmock.Anything, "missing").
			Return(nil, apperrors.ErrUserNotFound).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/users/missing", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("ListUsers_Failure_BackendDown", func(t *testing.T) {
		mockUserService.On("ListUsers", tmock.Anything, 50, 0).
			Return(nil, apperrors.ErrBackendUnavailable).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/users", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("UpdateUser_Success", func(t *testing.T) {
		mockUserService.On("UpdateUser", tmock.Anything, "1", tmock.Anything, "admin").
			Return(&model.User{ID: "1", DisplayName: "John D. Doe"}, nil).Once()

		body := strings.NewReader(`{"display_name":"John D. Doe"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/users/1", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("DeleteUser_Success", func(t *testing.T) {
		mockUserService.On("DeleteUser", tmock.Anything, "1", "admin").
			Return(nil).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/users/1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("ResetPassword_ReturnsCredentialOnce", func(t *testing.T) {
		mockUserService.On("ResetPassword", tmock.Anything, "1", "admin").
			Return(&model.User{ID: "1", MustChangePassword: true}, "Xy7#pQ2vLm9!aB4c", nil).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/users/1/reset-password", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			User     model.User `json:"user"`
			Password string     `json:"password"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Xy7#pQ2vLm9!aB4c", resp.Password)
		assert.True(t, resp.User.MustChangePassword)
	})

	t.Run("ToggleLock_Failure_CannotLock", func(t *testing.T) {
		mockUserService.On("ToggleLock", tmock.Anything, "1", "admin").
			Return(nil, apperrors.NewInvalidInput("directory accounts can only be unlocked, not locked", "account_locked")).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/users/1/lock", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("DisableUser_Success", func(t *testing.T) {
		mockUserService.On("SetEnabled", tmock.Anything, "1", false, "admin").
			Return(&model.User{ID: "1", Enabled: false}, nil).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/users/1/disable", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("AddUserToGroup_Success", func(t *testing.T) {
		mockMembershipService.On("AddUserToGroup", tmock.Anything, "1", "g1", "admin").
			Return(&model.Membership{ID: "1:g1", UserID: "1", GroupID: "g1"}, nil).Once()

		body := strings.NewReader(`{"group_id":"g1"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/users/1/groups", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("AddUserToGroup_Failure_MissingGroupID", func(t *testing.T) {
		body := strings.NewReader(`{}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/users/1/groups", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("RemoveUserFromGroup_Failure_NotMember", func(t *testing.T) {
		mockMembershipService.On("RemoveUserFromGroup", tmock.Anything, "1", "g1", "admin").
			Return(apperrors.ErrMembershipNotFound).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/users/1/groups/g1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	mockUserService.AssertExpectations(t)
	mockMembershipService.AssertExpectations(t)
}

func TestUserControllerRequiresActor(t *testing.T) {
	mockUserService := new(mocks.MockUserService)
	mockMembershipService := new(mocks.MockMembershipService)
	userController := controller.NewUserController(mockUserService, mockMembershipService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/")
	userController.RegisterRoutes(api)

	body := strings.NewReader(`{"sam_account_name":"jdoe","display_name":"John Doe","email":"jdoe@as.com"}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/users", body)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockUserService.AssertNotCalled(t, "CreateUser")
}
