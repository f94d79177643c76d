package handler

import (
	appidentity "github.com/cablenet/billing/internal/application/identity"
	"github.com/gin-gonic/gin"
)

// UserHandler manages the operator accounts of a tenant
type UserHandler struct {
	BaseHandler
	userService *appidentity.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *appidentity.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUserRequest represents a request to create a user
// @Description Request body for creating or registering a user
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100" example:"cajero1"`
	Password string `json:"password" binding:"required,min=8,max=72" example:"Secreto123"`
	FullName string `json:"full_name" binding:"max=100" example:"Ana Torres"`
	Email    string `json:"email" binding:"omitempty,email,max=100" example:"ana@example.com"`
	Role     string `json:"role" binding:"omitempty,oneof=admin operator" example:"operator"`
}

func (r CreateUserRequest) input() appidentity.CreateUserInput {
	return appidentity.CreateUserInput{
		Username: r.Username,
		Password: r.Password,
		FullName: r.FullName,
		Email:    r.Email,
		Role:     r.Role,
	}
}

// Create godoc
// @ID           createUser
// @Summary      Create a user
// @Description  Create a user in the caller's tenant. Requires the admin role.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "User"
// @Success      201 {object} APIResponse[appidentity.UserInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), tenantID, req.input(), optionalUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, user)
}

// Register godoc
// @ID           registerUser
// @Summary      Register
// @Description  Self-registration into the default tenant with the operator role
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "User"
// @Success      201 {object} APIResponse[appidentity.UserInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, user)
}

// List godoc
// @ID           listUsers
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        search query string false "Username or name fragment"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]appidentity.UserInfo]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter appidentity.UserListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.userService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Delete godoc
// @ID           deleteUser
// @Summary      Delete a user
// @Description  Delete a user of the caller's tenant and revoke their tokens. Requires the admin role.
// @Tags         users
// @Param        username path string true "Username"
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{username} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.userService.DeleteByUsername(c.Request.Context(), tenantID, c.Param("username")); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
