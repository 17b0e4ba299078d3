package repositories

import (
	"context"
	"strings"

	"libraryhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// bookRepository implements BookRepository interface
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(book).Error
}

// GetByID gets a book with its author and genre
func (r *bookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := conn(ctx, r.db).
		Preload("Author").
		Preload("Genre").
		First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Update saves catalog fields. Availability is left to SetAvailability.
func (r *bookRepository) Update(ctx context.Context, book *models.Book) error {
	return conn(ctx, r.db).Omit(clause.Associations, "is_available").Save(book).Error
}

// Delete soft deletes a book
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Delete(&models.Book{}, id).Error
}

func (r *bookRepository) List(ctx context.Context, filter BookFilter, offset, limit int) ([]*models.Book, int64, error) {
	var books []*models.Book
	var total int64

	query := conn(ctx, r.db).Model(&models.Book{})
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(isbn) LIKE ?", like, like)
	}
	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}
	if filter.GenreID != nil {
		query = query.Where("genre_id = ?", *filter.GenreID)
	}
	if filter.Available != nil {
		query = query.Where("is_available = ?", *filter.Available)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := query.Preload("Author").Preload("Genre").Order("name ASC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&books).Error; err != nil {
		return nil, 0, err
	}

	return books, total, nil
}

func (r *bookRepository) SetAvailability(ctx context.Context, id uint, available bool) error {
	result := conn(ctx, r.db).
		Model(&models.Book{}).
		Where("id = ?", id).
		Update("is_available", available)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// authorRepository implements AuthorRepository interface
type authorRepository struct {
	db *gorm.DB
}

// NewAuthorRepository creates a new author repository
func NewAuthorRepository(db *gorm.DB) AuthorRepository {
	return &authorRepository{db: db}
}

func (r *authorRepository) Create(ctx context.Context, author *models.Author) error {
	return conn(ctx, r.db).Create(author).Error
}

func (r *authorRepository) GetByID(ctx context.Context, id uint) (*models.Author, error) {
	var author models.Author
	if err := conn(ctx, r.db).First(&author, id).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

func (r *authorRepository) GetByName(ctx context.Context, name string) (*models.Author, error) {
	var author models.Author
	err := conn(ctx, r.db).Where("LOWER(name) = ?", strings.ToLower(name)).First(&author).Error
	if err != nil {
		return nil, err
	}
	return &author, nil
}

func (r *authorRepository) List(ctx context.Context) ([]*models.Author, error) {
	var authors []*models.Author
	err := conn(ctx, r.db).Order("name ASC").Find(&authors).Error
	return authors, err
}

func (r *authorRepository) Update(ctx context.Context, author *models.Author) error {
	return conn(ctx, r.db).Save(author).Error
}

func (r *authorRepository) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Delete(&models.Author{}, id).Error
}

// genreRepository implements GenreRepository interface
type genreRepository struct {
	db *gorm.DB
}

// NewGenreRepository creates a new genre repository
func NewGenreRepository(db *gorm.DB) GenreRepository {
	return &genreRepository{db: db}
}

func (r *genreRepository) Create(ctx context.Context, genre *models.Genre) error {
	return conn(ctx, r.db).Create(genre).Error
}

func (r *genreRepository) GetByID(ctx context.Context, id uint) (*models.Genre, error) {
	var genre models.Genre
	if err := conn(ctx, r.db).First(&genre, id).Error; err != nil {
		return nil, err
	}
	return &genre, nil
}

func (r *genreRepository) GetByName(ctx context.Context, name string) (*models.Genre, error) {
	var genre models.Genre
	err := conn(ctx, r.db).Where("LOWER(name) = ?", strings.ToLower(name)).First(&genre).Error
	if err != nil {
		return nil, err
	}
	return &genre, nil
}

func (r *genreRepository) List(ctx context.Context) ([]*models.Genre, error) {
	var genres []*models.Genre
	err := conn(ctx, r.db).Order("name ASC").Find(&genres).Error
	return genres, err
}

func (r *genreRepository) Update(ctx context.Context, genre *models.Genre) error {
	return conn(ctx, r.db).Save(genre).Error
}

func (r *genreRepository) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Delete(&models.Genre{}, id).Error
}
