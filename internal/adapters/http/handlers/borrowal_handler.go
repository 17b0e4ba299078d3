package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/response"
)

// BorrowalHandler handles borrowal endpoints
type BorrowalHandler struct {
	borrowalService *services.BorrowalService
}

// NewBorrowalHandler creates a new borrowal handler
func NewBorrowalHandler(borrowalService *services.BorrowalService) *BorrowalHandler {
	return &BorrowalHandler{borrowalService: borrowalService}
}

// CreateBorrowalRequest represents create borrowal request body
type CreateBorrowalRequest struct {
	BookID      uint    `json:"bookId" validate:"required"`
	MemberID    uint    `json:"memberId"`
	RequestDate *string `json:"requestDate"`
	Note        string  `json:"note" validate:"max=1000"`
}

// UpdateBorrowalRequest represents a partial borrowal update
type UpdateBorrowalRequest struct {
	BorrowedDate *string `json:"borrowedDate"`
	DueDate      *string `json:"dueDate"`
	Status       *string `json:"status" validate:"omitempty,oneof=pending accepted rejected returned"`
	Note         *string `json:"note" validate:"omitempty,max=1000"`
}

func toBorrowalResponses(items []*models.Borrowal) []*models.BorrowalResponse {
	return lo.Map(items, func(b *models.Borrowal, _ int) *models.BorrowalResponse { return b.ToResponse() })
}

// List handles listing borrowals
// @Summary List borrowals
// @Description Members see only their own borrowals; staff may filter
// @Tags Borrowals
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, accepted, rejected or returned"
// @Param memberId query int false "Member ID"
// @Param bookId query int false "Book ID"
// @Param overdue query bool false "Only overdue (true) or on time (false)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /borrowal/getAll [get]
func (h *BorrowalHandler) List(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	memberID, err := queryUint(c, "memberId")
	if err != nil {
		return response.BadRequest(c, "Invalid memberId")
	}
	bookID, err := queryUint(c, "bookId")
	if err != nil {
		return response.BadRequest(c, "Invalid bookId")
	}
	overdue, err := queryBool(c, "overdue")
	if err != nil {
		return response.BadRequest(c, "Invalid overdue flag")
	}

	items, err := h.borrowalService.List(c.UserContext(), a, &services.BorrowalListInput{
		Status:   c.Query("status"),
		MemberID: memberID,
		BookID:   bookID,
		Overdue:  overdue,
	})
	if err != nil {
		return handleError(c, err, "Failed to list borrowals")
	}

	return response.Success(c, "Borrowals retrieved successfully", toBorrowalResponses(items))
}

// Get handles fetching one borrowal
// @Summary Get borrowal
// @Tags Borrowals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrowal ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /borrowal/get/{id} [get]
func (h *BorrowalHandler) Get(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid borrowal ID")
	}

	b, err := h.borrowalService.GetByID(c.UserContext(), a, id)
	if err != nil {
		return handleError(c, err, "Failed to get borrowal")
	}
	return response.Success(c, "Borrowal retrieved successfully", b.ToResponse())
}

// Create handles borrowal requests
// @Summary Create borrowal
// @Description Opens a pending borrowal and marks the book unavailable
// @Tags Borrowals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateBorrowalRequest true "Borrowal data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /borrowal/add [post]
func (h *BorrowalHandler) Create(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CreateBorrowalRequest
	if err := bind(c, &req); err != nil {
		return handleError(c, err, "Invalid request")
	}
	requestDate, err := parseDate(req.RequestDate)
	if err != nil {
		return response.BadRequest(c, "requestDate must be YYYY-MM-DD or RFC 3339")
	}

	b, err := h.borrowalService.Create(c.UserContext(), a, &services.CreateBorrowalInput{
		BookID:      req.BookID,
		MemberID:    req.MemberID,
		RequestDate: requestDate,
		Note:        strings.TrimSpace(req.Note),
	})
	if err != nil {
		return handleError(c, err, "Failed to create borrowal")
	}

	return response.Success(c, "Borrowal created successfully", b.ToResponse())
}

// Update handles partial borrowal updates
// @Summary Update borrowal
// @Description Applies provided fields; status changes follow pending→accepted|rejected, accepted→returned
// @Tags Borrowals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrowal ID"
// @Param body body UpdateBorrowalRequest true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /borrowal/update/{id} [put]
func (h *BorrowalHandler) Update(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid borrowal ID")
	}

	var req UpdateBorrowalRequest
	if err := bind(c, &req); err != nil {
		return handleError(c, err, "Invalid request")
	}

	input := &services.UpdateBorrowalInput{Note: req.Note}
	var err error
	if input.BorrowedDate, err = parseDate(req.BorrowedDate); err != nil {
		return response.BadRequest(c, "borrowedDate must be YYYY-MM-DD or RFC 3339")
	}
	if input.DueDate, err = parseDate(req.DueDate); err != nil {
		return response.BadRequest(c, "dueDate must be YYYY-MM-DD or RFC 3339")
	}
	if req.Status != nil {
		status := domain.BorrowalStatus(*req.Status)
		input.Status = &status
	}

	b, err := h.borrowalService.Update(c.UserContext(), a, id, input)
	if err != nil {
		return handleError(c, err, "Failed to update borrowal")
	}
	return response.Success(c, "Borrowal updated successfully", b.ToResponse())
}

// Delete handles borrowal deletion
// @Summary Delete borrowal
// @Description Removes the borrowal and restores book availability
// @Tags Borrowals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrowal ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /borrowal/delete/{id} [delete]
func (h *BorrowalHandler) Delete(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid borrowal ID")
	}

	b, err := h.borrowalService.Delete(c.UserContext(), a, id)
	if err != nil {
		return handleError(c, err, "Failed to delete borrowal")
	}
	return response.Success(c, "Borrowal deleted successfully", b.ToResponse())
}

// History handles the borrowal audit trail
// @Summary Borrowal history
// @Tags Borrowals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrowal ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /borrowal/history/{id} [get]
func (h *BorrowalHandler) History(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid borrowal ID")
	}

	entries, err := h.borrowalService.History(c.UserContext(), a, id)
	if err != nil {
		return handleError(c, err, "Failed to get borrowal history")
	}
	return response.Success(c, "Borrowal history retrieved successfully", entries)
}
