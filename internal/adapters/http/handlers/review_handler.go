package handlers

import (
	"github.com/gofiber/fiber/v2"

	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/response"
)

// ReviewHandler handles review endpoints
type ReviewHandler struct {
	reviewService *services.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// ReviewRequest represents create/update review body
type ReviewRequest struct {
	Review string `json:"review" validate:"required,max=2000"`
	Rating *int   `json:"rating" validate:"omitempty,min=1,max=5"`
}

func (r *ReviewRequest) input() *services.ReviewInput {
	return &services.ReviewInput{Review: r.Review, Rating: r.Rating}
}

// List handles listing every review
// @Summary List reviews
// @Tags Reviews
// @Produce json
// @Success 200 {object} response.Response
// @Router /review/getAll [get]
func (h *ReviewHandler) List(c *fiber.Ctx) error {
	reviews, err := h.reviewService.List(c.UserContext(), nil)
	if err != nil {
		return handleError(c, err, "Failed to list reviews")
	}
	return response.Success(c, "Reviews retrieved successfully", reviews)
}

// Get handles fetching one review
// @Summary Get review
// @Tags Reviews
// @Produce json
// @Param id path int true "Review ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /review/get/{id} [get]
func (h *ReviewHandler) Get(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid review ID")
	}
	review, err := h.reviewService.Get(c.UserContext(), id)
	if err != nil {
		return handleError(c, err, "Failed to get review")
	}
	return response.Success(c, "Review retrieved successfully", review)
}

// ByBook handles listing the reviews of one book
// @Summary List reviews of a book
// @Tags Reviews
// @Produce json
// @Param bid path int true "Book ID"
// @Success 200 {object} response.Response
// @Router /review/getByBookId/{bid} [get]
func (h *ReviewHandler) ByBook(c *fiber.Ctx) error {
	bookID, ok := parseID(c, "bid")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}
	reviews, err := h.reviewService.List(c.UserContext(), &bookID)
	if err != nil {
		return handleError(c, err, "Failed to list reviews")
	}
	return response.Success(c, "Reviews retrieved successfully", reviews)
}

// Create handles reviewing a book
// @Summary Review a book
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param body body ReviewRequest true "Review"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /review/add/{id} [post]
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	bookID, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}

	var req ReviewRequest
	if err := bind(c, &req); err != nil {
		return handleError(c, err, "Invalid request")
	}

	review, err := h.reviewService.Create(c.UserContext(), a, bookID, req.input())
	if err != nil {
		return handleError(c, err, "Failed to create review")
	}
	return response.Created(c, "Review created successfully", review)
}

// Update handles editing a review
// @Summary Update review
// @Description Only the author of the review or an admin may edit it
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param body body ReviewRequest true "Review"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /review/update/{id} [put]
func (h *ReviewHandler) Update(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid review ID")
	}

	var req ReviewRequest
	if err := bind(c, &req); err != nil {
		return handleError(c, err, "Invalid request")
	}

	review, err := h.reviewService.Update(c.UserContext(), a, id, req.input())
	if err != nil {
		return handleError(c, err, "Failed to update review")
	}
	return response.Success(c, "Review updated successfully", review)
}

// Delete handles removing a review
// @Summary Delete review
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /review/delete/{id} [delete]
func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid review ID")
	}

	if err := h.reviewService.Delete(c.UserContext(), a, id); err != nil {
		return handleError(c, err, "Failed to delete review")
	}
	return response.Message(c, "Review deleted successfully")
}
