package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/core/domain"
)

// ReviewService manages book reviews. A user reviews a book at most once.
type ReviewService struct {
	reviews repositories.ReviewRepository
	books   repositories.BookRepository
	now     func() time.Time
}

// NewReviewService creates a new review service
func NewReviewService(repos *repositories.Set) *ReviewService {
	return &ReviewService{
		reviews: repos.Reviews,
		books:   repos.Books,
		now:     time.Now,
	}
}

// ReviewInput represents create/update review input
type ReviewInput struct {
	Review string
	Rating *int
}

func (in *ReviewInput) validate() error {
	if strings.TrimSpace(in.Review) == "" {
		return fmt.Errorf("%w: review is required", domain.ErrInvalidInput)
	}
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return domain.ErrInvalidRating
	}
	return nil
}

// List lists reviews, optionally for one book
func (s *ReviewService) List(ctx context.Context, bookID *uint) ([]*models.ReviewResponse, error) {
	if bookID != nil {
		if _, err := s.books.GetByID(ctx, *bookID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrBookNotFound
			}
			return nil, err
		}
	}

	reviews, err := s.reviews.List(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return lo.Map(reviews, func(r *models.Review, _ int) *models.ReviewResponse { return r.ToResponse() }), nil
}

// Get gets a review by ID
func (s *ReviewService) Get(ctx context.Context, id uint) (*models.ReviewResponse, error) {
	review, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return review.ToResponse(), nil
}

// Create adds the caller's review of a book
func (s *ReviewService) Create(ctx context.Context, actor Actor, bookID uint, input *ReviewInput) (*models.ReviewResponse, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}

	exists, err := s.reviews.ExistsByUserAndBook(ctx, actor.UserID, bookID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyReviewed
	}

	review := &models.Review{
		BookID:     bookID,
		ReviewedBy: actor.UserID,
		Review:     strings.TrimSpace(input.Review),
		Rating:     input.Rating,
		ReviewedAt: s.now(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return s.Get(ctx, review.ID)
}

// Update edits a review. Only its author or an admin may do so.
func (s *ReviewService) Update(ctx context.Context, actor Actor, id uint, input *ReviewInput) (*models.ReviewResponse, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	review, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.ReviewedBy != actor.UserID && !actor.IsAdmin() {
		return nil, domain.ErrReviewForbidden
	}

	review.Review = strings.TrimSpace(input.Review)
	review.Rating = input.Rating
	review.ReviewedAt = s.now()
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete soft deletes a review
func (s *ReviewService) Delete(ctx context.Context, actor Actor, id uint) error {
	review, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if review.ReviewedBy != actor.UserID && !actor.IsAdmin() {
		return domain.ErrReviewForbidden
	}

	review.IsDeleted = true
	return s.reviews.Update(ctx, review)
}

func (s *ReviewService) get(ctx context.Context, id uint) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}
