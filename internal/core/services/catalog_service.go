package services

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/pkg/logger"
	"libraryhub/internal/pkg/pagination"
)

// CatalogService manages books, authors and genres
type CatalogService struct {
	books     repositories.BookRepository
	authors   repositories.AuthorRepository
	genres    repositories.GenreRepository
	borrowals repositories.BorrowalRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repos *repositories.Set) *CatalogService {
	return &CatalogService{
		books:     repos.Books,
		authors:   repos.Authors,
		genres:    repos.Genres,
		borrowals: repos.Borrowals,
	}
}

// BookInput is shared by create and update. Update applies only non-nil fields.
type BookInput struct {
	Name     *string
	ISBN     *string
	AuthorID *uint
	GenreID  *uint
	Summary  *string
	PhotoURL *string
	PageURLs []string
	Position *string
}

// ListBooksInput represents list books input
type ListBooksInput struct {
	Page      int
	Limit     int
	Search    string
	AuthorID  *uint
	GenreID   *uint
	Available *bool
}

// ListBooks lists books with pagination
func (s *CatalogService) ListBooks(ctx context.Context, input *ListBooksInput) (*pagination.Response, error) {
	params := pagination.New(input.Page, input.Limit)
	filter := repositories.BookFilter{
		Search:    strings.TrimSpace(input.Search),
		AuthorID:  input.AuthorID,
		GenreID:   input.GenreID,
		Available: input.Available,
	}

	books, total, err := s.books.List(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	items := lo.Map(books, func(b *models.Book, _ int) *models.BookResponse { return b.ToResponse() })
	return pagination.NewResponse(items, params, total), nil
}

// BooksByAuthor lists every book of an author
func (s *CatalogService) BooksByAuthor(ctx context.Context, authorID uint) ([]*models.BookResponse, error) {
	if _, err := s.GetAuthor(ctx, authorID); err != nil {
		return nil, err
	}
	books, _, err := s.books.List(ctx, repositories.BookFilter{AuthorID: &authorID}, 0, 0)
	if err != nil {
		return nil, err
	}
	return lo.Map(books, func(b *models.Book, _ int) *models.BookResponse { return b.ToResponse() }), nil
}

// BooksByGenre lists every book of a genre
func (s *CatalogService) BooksByGenre(ctx context.Context, genreID uint) ([]*models.BookResponse, error) {
	if _, err := s.GetGenre(ctx, genreID); err != nil {
		return nil, err
	}
	books, _, err := s.books.List(ctx, repositories.BookFilter{GenreID: &genreID}, 0, 0)
	if err != nil {
		return nil, err
	}
	return lo.Map(books, func(b *models.Book, _ int) *models.BookResponse { return b.ToResponse() }), nil
}

// GetBook gets a book with author and genre
func (s *CatalogService) GetBook(ctx context.Context, id uint) (*models.BookResponse, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return book.ToResponse(), nil
}

// CreateBook adds a book. New books are available.
func (s *CatalogService) CreateBook(ctx context.Context, input *BookInput) (*models.BookResponse, error) {
	if input.ISBN == nil || strings.TrimSpace(*input.ISBN) == "" {
		return nil, domain.ErrBookISBNRequired
	}

	book := &models.Book{IsAvailable: true}
	if err := s.applyBook(ctx, book, input); err != nil {
		return nil, err
	}
	if err := s.books.Create(ctx, book); err != nil {
		return nil, err
	}

	logger.GetLogger(ctx).WithField("book_id", book.ID).Infof("📚 Book added: %s", book.Name)
	return s.GetBook(ctx, book.ID)
}

// UpdateBook edits catalog fields. Availability is left alone.
func (s *CatalogService) UpdateBook(ctx context.Context, id uint, input *BookInput) (*models.BookResponse, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	if input.ISBN != nil && strings.TrimSpace(*input.ISBN) == "" {
		return nil, domain.ErrBookISBNRequired
	}

	if err := s.applyBook(ctx, book, input); err != nil {
		return nil, err
	}
	if err := s.books.Update(ctx, book); err != nil {
		return nil, err
	}
	return s.GetBook(ctx, id)
}

// DeleteBook removes a book unless it is out on loan
func (s *CatalogService) DeleteBook(ctx context.Context, id uint) error {
	if _, err := s.books.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrBookNotFound
		}
		return err
	}

	active, err := s.borrowals.ExistsActiveByBookID(ctx, id)
	if err != nil {
		return err
	}
	if active {
		return domain.ErrBookOnLoan
	}

	return s.books.Delete(ctx, id)
}

func (s *CatalogService) applyBook(ctx context.Context, book *models.Book, input *BookInput) error {
	if input.AuthorID != nil {
		if _, err := s.GetAuthor(ctx, *input.AuthorID); err != nil {
			return err
		}
		book.AuthorID = input.AuthorID
		book.Author = nil
	}
	if input.GenreID != nil {
		if _, err := s.GetGenre(ctx, *input.GenreID); err != nil {
			return err
		}
		book.GenreID = input.GenreID
		book.Genre = nil
	}
	if input.Name != nil {
		book.Name = strings.TrimSpace(*input.Name)
	}
	if input.ISBN != nil {
		book.ISBN = strings.TrimSpace(*input.ISBN)
	}
	if input.Summary != nil {
		book.Summary = *input.Summary
	}
	if input.PhotoURL != nil {
		book.PhotoURL = *input.PhotoURL
	}
	if input.PageURLs != nil {
		book.PageURLs = datatypes.JSONSlice[string](input.PageURLs)
	}
	if input.Position != nil {
		book.Position = *input.Position
	}
	return nil
}

// AuthorInput represents create/update author input
type AuthorInput struct {
	Name        string
	Description string
	PhotoURL    string
}

// ListAuthors lists all authors
func (s *CatalogService) ListAuthors(ctx context.Context) ([]*models.Author, error) {
	return s.authors.List(ctx)
}

// GetAuthor gets an author by ID
func (s *CatalogService) GetAuthor(ctx context.Context, id uint) (*models.Author, error) {
	author, err := s.authors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAuthorNotFound
		}
		return nil, err
	}
	return author, nil
}

// CreateAuthor adds an author with a unique name
func (s *CatalogService) CreateAuthor(ctx context.Context, input *AuthorInput) (*models.Author, error) {
	name := strings.TrimSpace(input.Name)
	if err := s.authorNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	author := &models.Author{Name: name, Description: input.Description, PhotoURL: input.PhotoURL}
	if err := s.authors.Create(ctx, author); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrAuthorExists
		}
		return nil, err
	}
	return author, nil
}

// UpdateAuthor replaces an author's fields
func (s *CatalogService) UpdateAuthor(ctx context.Context, id uint, input *AuthorInput) (*models.Author, error) {
	author, err := s.GetAuthor(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if err := s.authorNameFree(ctx, name, id); err != nil {
		return nil, err
	}

	author.Name = name
	author.Description = input.Description
	author.PhotoURL = input.PhotoURL
	if err := s.authors.Update(ctx, author); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrAuthorExists
		}
		return nil, err
	}
	return author, nil
}

// DeleteAuthor removes an author that no longer has books
func (s *CatalogService) DeleteAuthor(ctx context.Context, id uint) error {
	if _, err := s.GetAuthor(ctx, id); err != nil {
		return err
	}
	_, count, err := s.books.List(ctx, repositories.BookFilter{AuthorID: &id}, 0, 1)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrAuthorHasBooks
	}
	return s.authors.Delete(ctx, id)
}

func (s *CatalogService) authorNameFree(ctx context.Context, name string, self uint) error {
	existing, err := s.authors.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return domain.ErrAuthorExists
	}
	return nil
}

// GenreInput represents create/update genre input
type GenreInput struct {
	Name        string
	Description string
}

// ListGenres lists all genres
func (s *CatalogService) ListGenres(ctx context.Context) ([]*models.Genre, error) {
	return s.genres.List(ctx)
}

// GetGenre gets a genre by ID
func (s *CatalogService) GetGenre(ctx context.Context, id uint) (*models.Genre, error) {
	genre, err := s.genres.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGenreNotFound
		}
		return nil, err
	}
	return genre, nil
}

// CreateGenre adds a genre with a unique name
func (s *CatalogService) CreateGenre(ctx context.Context, input *GenreInput) (*models.Genre, error) {
	name := strings.TrimSpace(input.Name)
	if err := s.genreNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	genre := &models.Genre{Name: name, Description: input.Description}
	if err := s.genres.Create(ctx, genre); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrGenreExists
		}
		return nil, err
	}
	return genre, nil
}

// UpdateGenre replaces a genre's fields
func (s *CatalogService) UpdateGenre(ctx context.Context, id uint, input *GenreInput) (*models.Genre, error) {
	genre, err := s.GetGenre(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if err := s.genreNameFree(ctx, name, id); err != nil {
		return nil, err
	}

	genre.Name = name
	genre.Description = input.Description
	if err := s.genres.Update(ctx, genre); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrGenreExists
		}
		return nil, err
	}
	return genre, nil
}

// DeleteGenre removes a genre that no longer has books
func (s *CatalogService) DeleteGenre(ctx context.Context, id uint) error {
	if _, err := s.GetGenre(ctx, id); err != nil {
		return err
	}
	_, count, err := s.books.List(ctx, repositories.BookFilter{GenreID: &id}, 0, 1)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrGenreHasBooks
	}
	return s.genres.Delete(ctx, id)
}

func (s *CatalogService) genreNameFree(ctx context.Context, name string, self uint) error {
	existing, err := s.genres.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return domain.ErrGenreExists
	}
	return nil
}
