package repositories

import (
	"context"
	"time"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var activeStatuses = []domain.BorrowalStatus{domain.BorrowalPending, domain.BorrowalAccepted}

// borrowalRepository implements BorrowalRepository interface
type borrowalRepository struct {
	db *gorm.DB
}

// NewBorrowalRepository creates a new borrowal repository
func NewBorrowalRepository(db *gorm.DB) BorrowalRepository {
	return &borrowalRepository{db: db}
}

// Create inserts a borrowal. A second active borrowal for the same book
// fails with gorm.ErrDuplicatedKey.
func (r *borrowalRepository) Create(ctx context.Context, borrowal *models.Borrowal) error {
	borrowal.SyncActiveBook()
	return conn(ctx, r.db).Omit(clause.Associations).Create(borrowal).Error
}

// GetByID gets a borrowal joined with its member and book
func (r *borrowalRepository) GetByID(ctx context.Context, id uint) (*models.Borrowal, error) {
	var borrowal models.Borrowal
	err := conn(ctx, r.db).
		Preload("Member").
		Preload("Book").
		First(&borrowal, id).Error
	if err != nil {
		return nil, err
	}
	return &borrowal, nil
}

func (r *borrowalRepository) Update(ctx context.Context, borrowal *models.Borrowal) error {
	borrowal.SyncActiveBook()
	return conn(ctx, r.db).Omit(clause.Associations).Save(borrowal).Error
}

func (r *borrowalRepository) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, r.db).Delete(&models.Borrowal{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns borrowals joined with member and book, newest first
func (r *borrowalRepository) List(ctx context.Context, filter BorrowalFilter) ([]*models.Borrowal, error) {
	var borrowals []*models.Borrowal

	query := conn(ctx, r.db).
		Preload("Member").
		Preload("Book")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}
	if filter.BookID != nil {
		query = query.Where("book_id = ?", *filter.BookID)
	}

	err := query.Order("created_at DESC").Order("id DESC").Find(&borrowals).Error
	return borrowals, err
}

// FindActiveByBookID returns the pending or accepted borrowal holding bookID
func (r *borrowalRepository) FindActiveByBookID(ctx context.Context, bookID uint) (*models.Borrowal, error) {
	var borrowal models.Borrowal
	err := conn(ctx, r.db).
		Where("book_id = ?", bookID).
		Where("status IN ?", activeStatuses).
		First(&borrowal).Error
	if err != nil {
		return nil, err
	}
	return &borrowal, nil
}

func (r *borrowalRepository) ExistsActiveByBookID(ctx context.Context, bookID uint) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Borrowal{}).
		Where("book_id = ?", bookID).
		Where("status IN ?", activeStatuses).
		Count(&count).Error
	return count > 0, err
}

// SetOverdue writes the overdue flag without touching updated_at
func (r *borrowalRepository) SetOverdue(ctx context.Context, ids []uint, overdue bool) error {
	if len(ids) == 0 {
		return nil
	}
	return conn(ctx, r.db).Model(&models.Borrowal{}).
		Where("id IN ?", ids).
		UpdateColumn("overdue", overdue).Error
}

func (r *borrowalRepository) ListOverdueCandidates(ctx context.Context, now time.Time) ([]*models.Borrowal, error) {
	var borrowals []*models.Borrowal
	err := conn(ctx, r.db).
		Preload("Member").
		Preload("Book").
		Where("status <> ?", domain.BorrowalReturned).
		Where("due_date IS NOT NULL AND due_date < ?", now).
		Where("overdue_notified_at IS NULL").
		Find(&borrowals).Error
	return borrowals, err
}

func (r *borrowalRepository) MarkOverdueNotified(ctx context.Context, ids []uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return conn(ctx, r.db).Model(&models.Borrowal{}).
		Where("id IN ?", ids).
		UpdateColumn("overdue_notified_at", at).Error
}

func (r *borrowalRepository) CountByStatus(ctx context.Context) (map[domain.BorrowalStatus]int64, error) {
	var rows []struct {
		Status domain.BorrowalStatus
		Count  int64
	}
	err := conn(ctx, r.db).Model(&models.Borrowal{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.BorrowalStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *borrowalRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Borrowal{}).
		Where("status <> ?", domain.BorrowalReturned).
		Where("due_date IS NOT NULL AND due_date < ?", now).
		Count(&count).Error
	return count, err
}

// borrowalHistoryRepository implements BorrowalHistoryRepository interface
type borrowalHistoryRepository struct {
	db *gorm.DB
}

// NewBorrowalHistoryRepository creates a new borrowal history repository
func NewBorrowalHistoryRepository(db *gorm.DB) BorrowalHistoryRepository {
	return &borrowalHistoryRepository{db: db}
}

func (r *borrowalHistoryRepository) Create(ctx context.Context, entry *models.BorrowalHistory) error {
	return conn(ctx, r.db).Create(entry).Error
}

// ListByBorrowalID returns the audit trail, oldest first
func (r *borrowalHistoryRepository) ListByBorrowalID(ctx context.Context, borrowalID uint) ([]*models.BorrowalHistory, error) {
	var entries []*models.BorrowalHistory
	err := conn(ctx, r.db).
		Where("borrowal_id = ?", borrowalID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}
