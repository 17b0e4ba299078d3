package repositories

import (
	"context"
	"time"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/core/domain"
)

// UserFilter narrows user listings
type UserFilter struct {
	Search string
	Role   string
}

// BookFilter narrows book listings
type BookFilter struct {
	Search    string
	AuthorID  *uint
	GenreID   *uint
	Available *bool
}

// BorrowalFilter narrows borrowal listings. Zero values mean "any".
type BorrowalFilter struct {
	Status   domain.BorrowalStatus
	MemberID *uint
	BookID   *uint
}

// Transactor runs fn inside a database transaction. Repositories called
// with the ctx handed to fn join that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountByRole(ctx context.Context) (map[string]int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// BookRepository defines book repository interface
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter BookFilter, offset, limit int) ([]*models.Book, int64, error)
	SetAvailability(ctx context.Context, id uint, available bool) error
}

// AuthorRepository defines author repository interface
type AuthorRepository interface {
	Create(ctx context.Context, author *models.Author) error
	GetByID(ctx context.Context, id uint) (*models.Author, error)
	GetByName(ctx context.Context, name string) (*models.Author, error)
	List(ctx context.Context) ([]*models.Author, error)
	Update(ctx context.Context, author *models.Author) error
	Delete(ctx context.Context, id uint) error
}

// GenreRepository defines genre repository interface
type GenreRepository interface {
	Create(ctx context.Context, genre *models.Genre) error
	GetByID(ctx context.Context, id uint) (*models.Genre, error)
	GetByName(ctx context.Context, name string) (*models.Genre, error)
	List(ctx context.Context) ([]*models.Genre, error)
	Update(ctx context.Context, genre *models.Genre) error
	Delete(ctx context.Context, id uint) error
}

// BorrowalRepository defines borrowal repository interface
type BorrowalRepository interface {
	Create(ctx context.Context, borrowal *models.Borrowal) error
	GetByID(ctx context.Context, id uint) (*models.Borrowal, error)
	Update(ctx context.Context, borrowal *models.Borrowal) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter BorrowalFilter) ([]*models.Borrowal, error)
	FindActiveByBookID(ctx context.Context, bookID uint) (*models.Borrowal, error)
	ExistsActiveByBookID(ctx context.Context, bookID uint) (bool, error)
	SetOverdue(ctx context.Context, ids []uint, overdue bool) error
	// ListOverdueCandidates returns unreturned borrowals past due that the
	// sweep has not handled yet, whatever their stored overdue flag says
	ListOverdueCandidates(ctx context.Context, now time.Time) ([]*models.Borrowal, error)
	MarkOverdueNotified(ctx context.Context, ids []uint, at time.Time) error
	CountByStatus(ctx context.Context) (map[domain.BorrowalStatus]int64, error)
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
}

// BorrowalHistoryRepository defines the audit trail interface
type BorrowalHistoryRepository interface {
	Create(ctx context.Context, entry *models.BorrowalHistory) error
	ListByBorrowalID(ctx context.Context, borrowalID uint) ([]*models.BorrowalHistory, error)
}

// ReviewRepository defines review repository interface. Soft deleted reviews are invisible.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	List(ctx context.Context, bookID *uint) ([]*models.Review, error)
	ExistsByUserAndBook(ctx context.Context, userID, bookID uint) (bool, error)
}

// Set bundles every repository the services need
type Set struct {
	Tx              Transactor
	Users           UserRepository
	RefreshTokens   RefreshTokenRepository
	Books           BookRepository
	Authors         AuthorRepository
	Genres          GenreRepository
	Borrowals       BorrowalRepository
	BorrowalHistory BorrowalHistoryRepository
	Reviews         ReviewRepository
	// Ping reports whether the backing store is reachable
	Ping func(ctx context.Context) error
}
