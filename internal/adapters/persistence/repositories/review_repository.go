package repositories

import (
	"context"

	"libraryhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// reviewRepository implements ReviewRepository interface
type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(review).Error
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	err := conn(ctx, r.db).
		Preload("Book").
		Preload("Reviewer").
		Where("is_deleted = ?", false).
		First(&review, id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Update also carries soft deletes through IsDeleted
func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	return conn(ctx, r.db).Omit(clause.Associations).Save(review).Error
}

// List returns live reviews, optionally for a single book
func (r *reviewRepository) List(ctx context.Context, bookID *uint) ([]*models.Review, error) {
	var reviews []*models.Review
	query := conn(ctx, r.db).
		Preload("Book").
		Preload("Reviewer").
		Where("is_deleted = ?", false)
	if bookID != nil {
		query = query.Where("book_id = ?", *bookID)
	}
	err := query.Order("reviewed_at DESC").Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepository) ExistsByUserAndBook(ctx context.Context, userID, bookID uint) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Review{}).
		Where("reviewed_by = ? AND book_id = ?", userID, bookID).
		Where("is_deleted = ?", false).
		Count(&count).Error
	return count > 0, err
}
