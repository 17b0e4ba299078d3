package handlers

import (
	"github.com/gofiber/fiber/v2"

	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/pagination"
	"libraryhub/internal/pkg/response"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateUserRequest represents create user request body (Admin only)
type CreateUserRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"omitempty,min=8"`
	Dob      *string `json:"dob"`
	Phone    string  `json:"phone" validate:"omitempty,max=32"`
	PhotoURL string  `json:"photoUrl" validate:"omitempty,url"`
	Role     string  `json:"role" validate:"omitempty,oneof=ADMIN LIBRARIAN MEMBER admin librarian member"`
}

// UpdateUserRequest represents update user request body (Admin only)
type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Dob      *string `json:"dob"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	PhotoURL *string `json:"photoUrl" validate:"omitempty,url"`
	Role     *string `json:"role" validate:"omitempty,oneof=ADMIN LIBRARIAN MEMBER admin librarian member"`
	IsActive *bool   `json:"isActive"`
}

// ListUsers handles listing all users (Staff only)
// @Summary List all users
// @Description Get a paginated list of users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param q query string false "Search name or email"
// @Param role query string false "ADMIN, LIBRARIAN or MEMBER"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /user/getAll [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	result, err := h.userService.ListUsers(c.UserContext(), &services.ListUsersInput{
		Page:   params.Page,
		Limit:  params.Limit,
		Search: c.Query("q"),
		Role:   c.Query("role"),
	})
	if err != nil {
		return handleError(c, err, "Failed to list users")
	}

	return response.Success(c, "Users retrieved successfully", result)
}

// ListMembers handles listing every member account
// @Summary List members
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /user/getAllMembers [get]
func (h *UserHandler) ListMembers(c *fiber.Ctx) error {
	members, err := h.userService.ListMembers(c.UserContext())
	if err != nil {
		return handleError(c, err, "Failed to list members")
	}
	return response.Success(c, "Members retrieved successfully", members)
}

// GetUser handles getting a user by ID
// @Summary Get user by ID
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /user/get/{id} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return handleError(c, err, "Failed to get user")
	}
	return response.Success(c, "User retrieved successfully", user)
}

// CreateUser handles creating a user (Admin only). Without a password a
// random one is generated and mailed to the user.
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateUserRequest true "User data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /user/add [post]
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := bind(c, &req); err != nil {
		return handleError(c, err, "Invalid request")
	}
	dob, err := parseDate(req.Dob)
	if err != nil {
		return response.BadRequest(c, "dob must be YYYY-MM-DD")
	}

	user, err := h.userService.CreateUser(c.UserContext(), &services.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Dob:      dob,
		Phone:    req.Phone,
		PhotoURL: req.PhotoURL,
		Role:     req.Role,
	})
	if err != nil {
		return handleError(c, err, "Failed to create user")
	}
	return response.Created(c, "User created successfully", user)
}

// UpdateUser handles updating a user (Admin only)
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body UpdateUserRequest true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /user/update/{id} [put]
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return handleError(c, err, "Invalid request")
	}
	dob, err := parseDate(req.Dob)
	if err != nil {
		return response.BadRequest(c, "dob must be YYYY-MM-DD")
	}

	user, err := h.userService.UpdateUserByAdmin(c.UserContext(), id, a.UserID, &services.UpdateUserByAdminInput{
		Name:     req.Name,
		Email:    req.Email,
		Dob:      dob,
		Phone:    req.Phone,
		PhotoURL: req.PhotoURL,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		return handleError(c, err, "Failed to update user")
	}
	return response.Success(c, "User updated successfully", user)
}

// DeleteUser handles deleting a user (Admin only)
// @Summary Delete user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /user/delete/{id} [delete]
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	if err := h.userService.DeleteUser(c.UserContext(), id, a.UserID); err != nil {
		return handleError(c, err, "Failed to delete user")
	}
	return response.Message(c, "User deleted successfully")
}

// ChangePassword handles changing own password
// @Summary Change password
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ChangePasswordInput true "Old and new password"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/change-password [post]
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.ChangePasswordInput
	if err := bind(c, &req); err != nil {
		return handleError(c, err, "Invalid request")
	}

	if err := h.userService.ChangePassword(c.UserContext(), a.UserID, &req); err != nil {
		return handleError(c, err, "Failed to change password")
	}
	return response.Message(c, "Password changed successfully")
}
