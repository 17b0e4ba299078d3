package handlers

import (
	"github.com/gofiber/fiber/v2"

	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/response"
)

// CatalogHandler handles author and genre endpoints
type CatalogHandler struct {
	catalogService *services.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// AuthorRequest represents create/update author body
type AuthorRequest struct {
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description"`
	PhotoURL    string `json:"photoUrl" validate:"omitempty,url"`
}

// GenreRequest represents create/update genre body
type GenreRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// ============================================================
// Authors
// ============================================================

// ListAuthors handles listing all authors
// @Summary List authors
// @Tags Authors
// @Produce json
// @Success 200 {object} response.Response
// @Router /author/getAll [get]
func (h *CatalogHandler) ListAuthors(c *fiber.Ctx) error {
	authors, err := h.catalogService.ListAuthors(c.UserContext())
	if err != nil {
		return handleError(c, err, "Failed to list authors")
	}
	return response.Success(c, "Authors retrieved successfully", authors)
}

// GetAuthor handles fetching one author
// @Summary Get author
// @Tags Authors
// @Produce json
// @Param id path int true "Author ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /author/get/{id} [get]
func (h *CatalogHandler) GetAuthor(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid author ID")
	}
	author, err := h.catalogService.GetAuthor(c.UserContext(), id)
	if err != nil {
		return handleError(c, err, "Failed to get author")
	}
	return response.Success(c, "Author retrieved successfully", author)
}

// CreateAuthor handles adding an author
// @Summary Create author
// @Tags Authors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AuthorRequest true "Author data"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /author/add [post]
func (h *CatalogHandler) CreateAuthor(c *fiber.Ctx) error {
	var req AuthorRequest
	if err := bind(c, &req); err != nil {
		return handleError(c, err, "Invalid request")
	}
	author, err := h.catalogService.CreateAuthor(c.UserContext(), &services.AuthorInput{
		Name:        req.Name,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		return handleError(c, err, "Failed to create author")
	}
	return response.Created(c, "Author created successfully", author)
}

// UpdateAuthor handles editing an author
// @Summary Update author
// @Tags Authors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Author ID"
// @Param body body AuthorRequest true "Author data"
// @Success 200 {object} response.Response
// @Router /author/update/{id} [put]
func (h *CatalogHandler) UpdateAuthor(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid author ID")
	}
	var req AuthorRequest
	if err := bind(c, &req); err != nil {
		return handleError(c, err, "Invalid request")
	}
	author, err := h.catalogService.UpdateAuthor(c.UserContext(), id, &services.AuthorInput{
		Name:        req.Name,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		return handleError(c, err, "Failed to update author")
	}
	return response.Success(c, "Author updated successfully", author)
}

// DeleteAuthor handles removing an author without books
// @Summary Delete author
// @Tags Authors
// @Produce json
// @Security BearerAuth
// @Param id path int true "Author ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /author/delete/{id} [delete]
func (h *CatalogHandler) DeleteAuthor(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid author ID")
	}
	if err := h.catalogService.DeleteAuthor(c.UserContext(), id); err != nil {
		return handleError(c, err, "Failed to delete author")
	}
	return response.Message(c, "Author deleted successfully")
}

// ============================================================
// Genres
// ============================================================

// ListGenres handles listing all genres
// @Summary List genres
// @Tags Genres
// @Produce json
// @Success 200 {object} response.Response
// @Router /genre/getAll [get]
func (h *CatalogHandler) ListGenres(c *fiber.Ctx) error {
	genres, err := h.catalogService.ListGenres(c.UserContext())
	if err != nil {
		return handleError(c, err, "Failed to list genres")
	}
	return response.Success(c, "Genres retrieved successfully", genres)
}

// GetGenre handles fetching one genre
// @Summary Get genre
// @Tags Genres
// @Produce json
// @Param id path int true "Genre ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /genre/get/{id} [get]
func (h *CatalogHandler) GetGenre(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid genre ID")
	}
	genre, err := h.catalogService.GetGenre(c.UserContext(), id)
	if err != nil {
		return handleError(c, err, "Failed to get genre")
	}
	return response.Success(c, "Genre retrieved successfully", genre)
}

// CreateGenre handles adding a genre
// @Summary Create genre
// @Tags Genres
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body GenreRequest true "Genre data"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /genre/add [post]
func (h *CatalogHandler) CreateGenre(c *fiber.Ctx) error {
	var req GenreRequest
	if err := bind(c, &req); err != nil {
		return handleError(c, err, "Invalid request")
	}
	genre, err := h.catalogService.CreateGenre(c.UserContext(), &services.GenreInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return handleError(c, err, "Failed to create genre")
	}
	return response.Created(c, "Genre created successfully", genre)
}

// UpdateGenre handles editing a genre
// @Summary Update genre
// @Tags Genres
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Genre ID"
// @Param body body GenreRequest true "Genre data"
// @Success 200 {object} response.Response
// @Router /genre/update/{id} [put]
func (h *CatalogHandler) UpdateGenre(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid genre ID")
	}
	var req GenreRequest
	if err := bind(c, &req); err != nil {
		return handleError(c, err, "Invalid request")
	}
	genre, err := h.catalogService.UpdateGenre(c.UserContext(), id, &services.GenreInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return handleError(c, err, "Failed to update genre")
	}
	return response.Success(c, "Genre updated successfully", genre)
}

// DeleteGenre handles removing a genre without books
// @Summary Delete genre
// @Tags Genres
// @Produce json
// @Security BearerAuth
// @Param id path int true "Genre ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /genre/delete/{id} [delete]
func (h *CatalogHandler) DeleteGenre(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid genre ID")
	}
	if err := h.catalogService.DeleteGenre(c.UserContext(), id); err != nil {
		return handleError(c, err, "Failed to delete genre")
	}
	return response.Message(c, "Genre deleted successfully")
}
