package handlers

import (
	"github.com/gofiber/fiber/v2"

	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/pagination"
	"libraryhub/internal/pkg/response"
)

// BookHandler handles book endpoints
type BookHandler struct {
	catalogService *services.CatalogService
}

// NewBookHandler creates a new book handler
func NewBookHandler(catalogService *services.CatalogService) *BookHandler {
	return &BookHandler{catalogService: catalogService}
}

// CreateBookRequest represents create book request body
type CreateBookRequest struct {
	Name     string   `json:"name" validate:"required,max=200"`
	ISBN     string   `json:"isbn" validate:"required,max=20"`
	AuthorID *uint    `json:"authorId"`
	GenreID  *uint    `json:"genreId"`
	Summary  string   `json:"summary"`
	PhotoURL string   `json:"photoUrl" validate:"omitempty,url"`
	PageURLs []string `json:"pageUrls" validate:"omitempty,dive,url"`
	Position string   `json:"position" validate:"required,max=50"`
}

// UpdateBookRequest represents a partial book update
type UpdateBookRequest struct {
	Name     *string  `json:"name" validate:"omitempty,max=200"`
	ISBN     *string  `json:"isbn" validate:"omitempty,max=20"`
	AuthorID *uint    `json:"authorId"`
	GenreID  *uint    `json:"genreId"`
	Summary  *string  `json:"summary"`
	PhotoURL *string  `json:"photoUrl" validate:"omitempty,url"`
	PageURLs []string `json:"pageUrls" validate:"omitempty,dive,url"`
	Position *string  `json:"position" validate:"omitempty,max=50"`
}

// List handles listing books
// @Summary List books
// @Tags Books
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param q query string false "Search name or ISBN"
// @Param available query bool false "Availability"
// @Success 200 {object} response.Response
// @Router /book/getAll [get]
func (h *BookHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	available, err := queryBool(c, "available")
	if err != nil {
		return response.BadRequest(c, "Invalid available flag")
	}

	result, err := h.catalogService.ListBooks(c.UserContext(), &services.ListBooksInput{
		Page:      params.Page,
		Limit:     params.Limit,
		Search:    c.Query("q"),
		Available: available,
	})
	if err != nil {
		return handleError(c, err, "Failed to list books")
	}
	return response.Success(c, "Books retrieved successfully", result)
}

// Get handles fetching one book
// @Summary Get book
// @Tags Books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /book/get/{id} [get]
func (h *BookHandler) Get(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}
	book, err := h.catalogService.GetBook(c.UserContext(), id)
	if err != nil {
		return handleError(c, err, "Failed to get book")
	}
	return response.Success(c, "Book retrieved successfully", book)
}

// ByAuthor lists the books of an author
// @Summary Books by author
// @Tags Books
// @Produce json
// @Param id path int true "Author ID"
// @Success 200 {object} response.Response
// @Router /book/author/{id} [get]
func (h *BookHandler) ByAuthor(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid author ID")
	}
	books, err := h.catalogService.BooksByAuthor(c.UserContext(), id)
	if err != nil {
		return handleError(c, err, "Failed to list books")
	}
	return response.Success(c, "Books retrieved successfully", books)
}

// ByGenre lists the books of a genre
// @Summary Books by genre
// @Tags Books
// @Produce json
// @Param id path int true "Genre ID"
// @Success 200 {object} response.Response
// @Router /book/genre/{id} [get]
func (h *BookHandler) ByGenre(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid genre ID")
	}
	books, err := h.catalogService.BooksByGenre(c.UserContext(), id)
	if err != nil {
		return handleError(c, err, "Failed to list books")
	}
	return response.Success(c, "Books retrieved successfully", books)
}

// Create handles adding a book
// @Summary Create book
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateBookRequest true "Book data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /book/add [post]
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var req CreateBookRequest
	if err := bind(c, &req); err != nil {
		return handleError(c, err, "Invalid request")
	}

	book, err := h.catalogService.CreateBook(c.UserContext(), &services.BookInput{
		Name:     &req.Name,
		ISBN:     &req.ISBN,
		AuthorID: req.AuthorID,
		GenreID:  req.GenreID,
		Summary:  &req.Summary,
		PhotoURL: &req.PhotoURL,
		PageURLs: req.PageURLs,
		Position: &req.Position,
	})
	if err != nil {
		return handleError(c, err, "Failed to create book")
	}
	return response.Created(c, "Book created successfully", book)
}

// Update handles editing a book
// @Summary Update book
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param body body UpdateBookRequest true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /book/update/{id} [put]
func (h *BookHandler) Update(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}
	var req UpdateBookRequest
	if err := bind(c, &req); err != nil {
		return handleError(c, err, "Invalid request")
	}

	book, err := h.catalogService.UpdateBook(c.UserContext(), id, &services.BookInput{
		Name:     req.Name,
		ISBN:     req.ISBN,
		AuthorID: req.AuthorID,
		GenreID:  req.GenreID,
		Summary:  req.Summary,
		PhotoURL: req.PhotoURL,
		PageURLs: req.PageURLs,
		Position: req.Position,
	})
	if err != nil {
		return handleError(c, err, "Failed to update book")
	}
	return response.Success(c, "Book updated successfully", book)
}

// Delete handles removing a book
// @Summary Delete book
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /book/delete/{id} [delete]
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}
	if err := h.catalogService.DeleteBook(c.UserContext(), id); err != nil {
		return handleError(c, err, "Failed to delete book")
	}
	return response.Message(c, "Book deleted successfully")
}
