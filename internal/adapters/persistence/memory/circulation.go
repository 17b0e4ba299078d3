package memory

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/core/domain"
)

type borrowalRepo struct{ s *Store }

// checkActiveBook mimics the unique index on active_book_id
func checkActiveBook(d *tables, b *models.Borrowal) error {
	if b.ActiveBookID == nil {
		return nil
	}
	for id, other := range d.borrowals.rows {
		if id != b.ID && other.ActiveBookID != nil && *other.ActiveBookID == *b.ActiveBookID {
			return gorm.ErrDuplicatedKey
		}
	}
	return nil
}

func (r *borrowalRepo) Create(ctx context.Context, borrowal *models.Borrowal) error {
	return r.s.write(ctx, func(d *tables) error {
		borrowal.SyncActiveBook()
		if err := checkActiveBook(d, borrowal); err != nil {
			return err
		}
		now := r.s.now()
		borrowal.ID = d.borrowals.nextID()
		borrowal.CreatedAt, borrowal.UpdatedAt = now, now
		row := *borrowal
		row.Member, row.Book = nil, nil
		d.borrowals.rows[borrowal.ID] = row
		return nil
	})
}

func (r *borrowalRepo) GetByID(ctx context.Context, id uint) (*models.Borrowal, error) {
	var out *models.Borrowal
	err := r.s.read(ctx, func(d *tables) error {
		b, ok := d.borrowals.rows[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = joined(d, b)
		return nil
	})
	return out, err
}

func (r *borrowalRepo) Update(ctx context.Context, borrowal *models.Borrowal) error {
	return r.s.write(ctx, func(d *tables) error {
		if _, ok := d.borrowals.rows[borrowal.ID]; !ok {
			return gorm.ErrRecordNotFound
		}
		borrowal.SyncActiveBook()
		if err := checkActiveBook(d, borrowal); err != nil {
			return err
		}
		borrowal.UpdatedAt = r.s.now()
		row := *borrowal
		row.Member, row.Book = nil, nil
		d.borrowals.rows[borrowal.ID] = row
		return nil
	})
}

func (r *borrowalRepo) Delete(ctx context.Context, id uint) error {
	return r.s.write(ctx, func(d *tables) error {
		if _, ok := d.borrowals.rows[id]; !ok {
			return gorm.ErrRecordNotFound
		}
		delete(d.borrowals.rows, id)
		return nil
	})
}

func (r *borrowalRepo) List(ctx context.Context, filter repositories.BorrowalFilter) ([]*models.Borrowal, error) {
	var out []*models.Borrowal
	err := r.s.read(ctx, func(d *tables) error {
		for _, b := range d.borrowals.ordered() {
			if filter.Status != "" && b.Status != filter.Status {
				continue
			}
			if filter.MemberID != nil && b.MemberID != *filter.MemberID {
				continue
			}
			if filter.BookID != nil && b.BookID != *filter.BookID {
				continue
			}
			out = append(out, joined(d, b))
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, err
}

func (r *borrowalRepo) FindActiveByBookID(ctx context.Context, bookID uint) (*models.Borrowal, error) {
	var out *models.Borrowal
	err := r.s.read(ctx, func(d *tables) error {
		for _, b := range d.borrowals.ordered() {
			if b.BookID == bookID && b.Status.IsActive() {
				out = &b
				return nil
			}
		}
		return gorm.ErrRecordNotFound
	})
	return out, err
}

func (r *borrowalRepo) ExistsActiveByBookID(ctx context.Context, bookID uint) (bool, error) {
	_, err := r.FindActiveByBookID(ctx, bookID)
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *borrowalRepo) SetOverdue(ctx context.Context, ids []uint, overdue bool) error {
	return r.s.write(ctx, func(d *tables) error {
		for _, id := range ids {
			if b, ok := d.borrowals.rows[id]; ok {
				b.Overdue = overdue
				d.borrowals.rows[id] = b
			}
		}
		return nil
	})
}

func (r *borrowalRepo) ListOverdueCandidates(ctx context.Context, now time.Time) ([]*models.Borrowal, error) {
	var out []*models.Borrowal
	err := r.s.read(ctx, func(d *tables) error {
		for _, b := range d.borrowals.ordered() {
			if b.OverdueNotifiedAt == nil && domain.IsOverdue(b.Status, b.DueDate, now) {
				out = append(out, joined(d, b))
			}
		}
		return nil
	})
	return out, err
}

func (r *borrowalRepo) MarkOverdueNotified(ctx context.Context, ids []uint, at time.Time) error {
	return r.s.write(ctx, func(d *tables) error {
		for _, id := range ids {
			if b, ok := d.borrowals.rows[id]; ok {
				stamp := at
				b.OverdueNotifiedAt = &stamp
				d.borrowals.rows[id] = b
			}
		}
		return nil
	})
}

func (r *borrowalRepo) CountByStatus(ctx context.Context) (map[domain.BorrowalStatus]int64, error) {
	counts := make(map[domain.BorrowalStatus]int64)
	err := r.s.read(ctx, func(d *tables) error {
		for _, b := range d.borrowals.rows {
			counts[b.Status]++
		}
		return nil
	})
	return counts, err
}

func (r *borrowalRepo) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.s.read(ctx, func(d *tables) error {
		for _, b := range d.borrowals.rows {
			if domain.IsOverdue(b.Status, b.DueDate, now) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func joined(d *tables, b models.Borrowal) *models.Borrowal {
	if u, ok := d.users.rows[b.MemberID]; ok {
		b.Member = &u
	}
	if book, ok := d.books.rows[b.BookID]; ok {
		b.Book = &book
	}
	return &b
}

type historyRepo struct{ s *Store }

func (r *historyRepo) Create(ctx context.Context, entry *models.BorrowalHistory) error {
	return r.s.write(ctx, func(d *tables) error {
		entry.ID = d.history.nextID()
		entry.CreatedAt = r.s.now()
		d.history.rows[entry.ID] = *entry
		return nil
	})
}

func (r *historyRepo) ListByBorrowalID(ctx context.Context, borrowalID uint) ([]*models.BorrowalHistory, error) {
	var out []*models.BorrowalHistory
	err := r.s.read(ctx, func(d *tables) error {
		for _, h := range d.history.ordered() {
			if h.BorrowalID == borrowalID {
				out = append(out, &h)
			}
		}
		return nil
	})
	return out, err
}

type reviewRepo struct{ s *Store }

func (r *reviewRepo) Create(ctx context.Context, review *models.Review) error {
	return r.s.write(ctx, func(d *tables) error {
		now := r.s.now()
		review.ID = d.reviews.nextID()
		review.CreatedAt, review.UpdatedAt = now, now
		row := *review
		row.Book, row.Reviewer = nil, nil
		d.reviews.rows[review.ID] = row
		return nil
	})
}

func (r *reviewRepo) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	var out *models.Review
	err := r.s.read(ctx, func(d *tables) error {
		rv, ok := d.reviews.rows[id]
		if !ok || rv.IsDeleted {
			return gorm.ErrRecordNotFound
		}
		out = withReviewRelations(d, rv)
		return nil
	})
	return out, err
}

func (r *reviewRepo) Update(ctx context.Context, review *models.Review) error {
	return r.s.write(ctx, func(d *tables) error {
		if _, ok := d.reviews.rows[review.ID]; !ok {
			return gorm.ErrRecordNotFound
		}
		review.UpdatedAt = r.s.now()
		row := *review
		row.Book, row.Reviewer = nil, nil
		d.reviews.rows[review.ID] = row
		return nil
	})
}

func (r *reviewRepo) List(ctx context.Context, bookID *uint) ([]*models.Review, error) {
	var out []*models.Review
	err := r.s.read(ctx, func(d *tables) error {
		for _, rv := range d.reviews.ordered() {
			if rv.IsDeleted || (bookID != nil && rv.BookID != *bookID) {
				continue
			}
			out = append(out, withReviewRelations(d, rv))
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReviewedAt.After(out[j].ReviewedAt) })
	return out, err
}

func (r *reviewRepo) ExistsByUserAndBook(ctx context.Context, userID, bookID uint) (bool, error) {
	found := false
	err := r.s.read(ctx, func(d *tables) error {
		for _, rv := range d.reviews.rows {
			if !rv.IsDeleted && rv.ReviewedBy == userID && rv.BookID == bookID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func withReviewRelations(d *tables, rv models.Review) *models.Review {
	if b, ok := d.books.rows[rv.BookID]; ok {
		rv.Book = &b
	}
	if u, ok := d.users.rows[rv.ReviewedBy]; ok {
		rv.Reviewer = &u
	}
	return &rv
}
