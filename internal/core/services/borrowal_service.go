package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/pkg/logger"
)

// BorrowalService owns the borrowal lifecycle and keeps book availability
// in step with it.
type BorrowalService struct {
	tx         repositories.Transactor
	borrowals  repositories.BorrowalRepository
	history    repositories.BorrowalHistoryRepository
	books      repositories.BookRepository
	users      repositories.UserRepository
	notifier   BorrowalNotifier
	loanPeriod time.Duration
	now        func() time.Time
}

// NewBorrowalService creates a new borrowal service. notifier may be nil.
func NewBorrowalService(repos *repositories.Set, notifier BorrowalNotifier, loanDays int) *BorrowalService {
	if loanDays < 1 {
		loanDays = 14
	}
	return &BorrowalService{
		tx:         repos.Tx,
		borrowals:  repos.Borrowals,
		history:    repos.BorrowalHistory,
		books:      repos.Books,
		users:      repos.Users,
		notifier:   notifier,
		loanPeriod: time.Duration(loanDays) * 24 * time.Hour,
		now:        time.Now,
	}
}

// SetClock replaces the time source
func (s *BorrowalService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateBorrowalInput represents create borrowal input
type CreateBorrowalInput struct {
	BookID      uint
	MemberID    uint
	RequestDate *time.Time
	Note        string
}

// Create opens a pending borrowal and marks the book unavailable.
// Members may only borrow for themselves; MemberID defaults to the caller.
func (s *BorrowalService) Create(ctx context.Context, actor Actor, input *CreateBorrowalInput) (*models.Borrowal, error) {
	if input.MemberID == 0 && !actor.IsStaff() {
		input.MemberID = actor.UserID
	}
	if !actor.IsStaff() && input.MemberID != actor.UserID {
		return nil, domain.ErrBorrowalForbidden
	}
	if input.BookID == 0 || input.MemberID == 0 {
		return nil, fmt.Errorf("%w: bookId and memberId are required", domain.ErrInvalidInput)
	}

	member, err := s.users.GetByID(ctx, input.MemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBorrowalMemberNotFound
		}
		return nil, err
	}

	now := s.now()
	requestDate := now
	if input.RequestDate != nil {
		requestDate = *input.RequestDate
	}

	borrowal := &models.Borrowal{
		BookID:      input.BookID,
		MemberID:    input.MemberID,
		RequestDate: &requestDate,
		Status:      domain.BorrowalPending,
		Note:        input.Note,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		book, err := s.books.GetByIDForUpdate(ctx, input.BookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBookNotFound
			}
			return err
		}

		if _, err := s.borrowals.FindActiveByBookID(ctx, book.ID); err == nil {
			return domain.ErrBookAlreadyBorrowed
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := s.borrowals.Create(ctx, borrowal); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrBookAlreadyBorrowed
			}
			return err
		}

		if err := s.books.SetAvailability(ctx, book.ID, false); err != nil {
			return err
		}

		book.IsAvailable = false
		borrowal.Book = book
		return s.record(ctx, actor, borrowal, models.HistoryCreate, "", map[string]interface{}{
			"memberId":    borrowal.MemberID,
			"requestDate": requestDate,
		})
	})
	if err != nil {
		return nil, err
	}

	borrowal.Member = member
	logger.GetLogger(ctx).WithFields(logrus.Fields{
		"borrowal_id": borrowal.ID,
		"book_id":     borrowal.BookID,
		"member_id":   borrowal.MemberID,
	}).Info("📚 Borrowal created")

	return borrowal, nil
}

// GetByID returns one borrowal. Members cannot see other members' borrowals.
func (s *BorrowalService) GetByID(ctx context.Context, actor Actor, id uint) (*models.Borrowal, error) {
	borrowal, err := s.borrowals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBorrowalNotFound
		}
		return nil, err
	}

	if !actor.IsStaff() && borrowal.MemberID != actor.UserID {
		return nil, domain.ErrBorrowalNotFound
	}

	borrowal.Overdue = domain.IsOverdue(borrowal.Status, borrowal.DueDate, s.now())
	return borrowal, nil
}

// BorrowalListInput represents list filters
type BorrowalListInput struct {
	Status   string
	MemberID *uint
	BookID   *uint
	Overdue  *bool
}

// List returns borrowals joined with member and book. The overdue flag is
// recomputed against the current time and written back when it changed.
func (s *BorrowalService) List(ctx context.Context, actor Actor, input *BorrowalListInput) ([]*models.Borrowal, error) {
	filter := repositories.BorrowalFilter{
		MemberID: input.MemberID,
		BookID:   input.BookID,
	}
	if input.Status != "" {
		status := domain.BorrowalStatus(strings.ToLower(input.Status))
		if !status.Valid() {
			return nil, domain.ErrInvalidBorrowalStatus
		}
		filter.Status = status
	}
	if !actor.IsStaff() {
		self := actor.UserID
		filter.MemberID = &self
	}

	borrowals, err := s.borrowals.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var flagged, cleared []uint
	for _, b := range borrowals {
		overdue := domain.IsOverdue(b.Status, b.DueDate, now)
		if overdue == b.Overdue {
			continue
		}
		b.Overdue = overdue
		if overdue {
			flagged = append(flagged, b.ID)
		} else {
			cleared = append(cleared, b.ID)
		}
	}
	s.persistOverdue(ctx, flagged, true)
	s.persistOverdue(ctx, cleared, false)

	if input.Overdue != nil {
		borrowals = lo.Filter(borrowals, func(b *models.Borrowal, _ int) bool {
			return b.Overdue == *input.Overdue
		})
	}

	return borrowals, nil
}

// persistOverdue is best effort; the response already carries the fresh value
func (s *BorrowalService) persistOverdue(ctx context.Context, ids []uint, overdue bool) {
	if len(ids) == 0 {
		return
	}
	if err := s.borrowals.SetOverdue(ctx, ids, overdue); err != nil {
		logger.GetLogger(ctx).WithError(err).WithField("ids", ids).Warn("⚠️ Failed to persist overdue flags")
	}
}

// UpdateBorrowalInput represents a partial update. Nil fields are left alone.
type UpdateBorrowalInput struct {
	BorrowedDate *time.Time
	DueDate      *time.Time
	Status       *domain.BorrowalStatus
	Note         *string
}

// Update applies a partial update, enforcing the status transitions.
// The member is notified after commit; notification problems never fail the update.
func (s *BorrowalService) Update(ctx context.Context, actor Actor, id uint, input *UpdateBorrowalInput) (*models.Borrowal, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrBorrowalForbidden
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, domain.ErrInvalidBorrowalStatus
	}

	var (
		borrowal *models.Borrowal
		member   *models.User
		from     domain.BorrowalStatus
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		borrowal, err = s.borrowals.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBorrowalNotFound
			}
			return err
		}

		member, err = s.users.GetByID(ctx, borrowal.MemberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBorrowalMemberNotFound
			}
			return err
		}

		from = borrowal.Status
		changes := map[string]interface{}{}

		if input.Status != nil && !from.CanTransitionTo(*input.Status) {
			return fmt.Errorf("%w (%s -> %s)", domain.ErrInvalidTransition, from, *input.Status)
		}
		if input.BorrowedDate != nil {
			borrowal.BorrowedDate = input.BorrowedDate
			changes["borrowedDate"] = *input.BorrowedDate
		}
		if input.DueDate != nil {
			borrowal.DueDate = input.DueDate
			borrowal.OverdueNotifiedAt = nil
			changes["dueDate"] = *input.DueDate
		}
		if input.Note != nil {
			borrowal.Note = *input.Note
			changes["note"] = *input.Note
		}
		if input.Status != nil {
			borrowal.Status = *input.Status
		}

		now := s.now()
		if borrowal.Status != from {
			changes["status"] = borrowal.Status
			switch borrowal.Status {
			case domain.BorrowalAccepted:
				if borrowal.BorrowedDate == nil {
					borrowal.BorrowedDate = &now
				}
				if borrowal.DueDate == nil {
					due := borrowal.BorrowedDate.Add(s.loanPeriod)
					borrowal.DueDate = &due
				}
			case domain.BorrowalReturned:
				borrowal.ReturnedDate = &now
			}
		}

		if borrowal.BorrowedDate != nil && borrowal.DueDate != nil && borrowal.DueDate.Before(*borrowal.BorrowedDate) {
			return domain.ErrInvalidBorrowalDates
		}

		releases := from.IsActive() && !borrowal.Status.IsActive()
		if releases {
			if _, err := s.books.GetByIDForUpdate(ctx, borrowal.BookID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		borrowal.Overdue = domain.IsOverdue(borrowal.Status, borrowal.DueDate, now)
		if err := s.borrowals.Update(ctx, borrowal); err != nil {
			return err
		}

		if releases {
			if err := s.books.SetAvailability(ctx, borrowal.BookID, true); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if borrowal.Book != nil {
				borrowal.Book.IsAvailable = true
			}
		}

		action := models.HistoryUpdate
		if borrowal.Status != from {
			action = models.HistoryStatusChange
		}
		return s.record(ctx, actor, borrowal, action, from, changes)
	})
	if err != nil {
		return nil, err
	}

	borrowal.Member = member
	log := logger.GetLogger(ctx).WithFields(logrus.Fields{
		"borrowal_id": borrowal.ID,
		"from":        from,
		"to":          borrowal.Status,
	})
	log.Info("🔄 Borrowal updated")

	if s.notifier != nil {
		if err := s.notifier.NotifyBorrowalUpdated(ctx, member, borrowal); err != nil {
			log.WithError(err).Warn("⚠️ Failed to queue borrowal notification")
		}
	}

	return borrowal, nil
}

// Delete removes a borrowal and returns what it held. The book becomes
// available again unless another active borrowal still holds it.
func (s *BorrowalService) Delete(ctx context.Context, actor Actor, id uint) (*models.Borrowal, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrBorrowalForbidden
	}

	var borrowal *models.Borrowal
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		borrowal, err = s.borrowals.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBorrowalNotFound
			}
			return err
		}

		_, err = s.books.GetByIDForUpdate(ctx, borrowal.BookID)
		bookExists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := s.borrowals.Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBorrowalNotFound
			}
			return err
		}

		if bookExists {
			stillHeld, err := s.borrowals.ExistsActiveByBookID(ctx, borrowal.BookID)
			if err != nil {
				return err
			}
			if err := s.books.SetAvailability(ctx, borrowal.BookID, !stillHeld); err != nil {
				return err
			}
		}

		return s.record(ctx, actor, borrowal, models.HistoryDelete, borrowal.Status, nil)
	})
	if err != nil {
		return nil, err
	}

	borrowal.Overdue = domain.IsOverdue(borrowal.Status, borrowal.DueDate, s.now())
	logger.GetLogger(ctx).WithField("borrowal_id", id).Info("🗑️ Borrowal deleted")
	return borrowal, nil
}

// History returns the audit trail, which outlives the borrowal itself
func (s *BorrowalService) History(ctx context.Context, actor Actor, id uint) ([]*models.BorrowalHistory, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrBorrowalForbidden
	}

	entries, err := s.history.ListByBorrowalID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		if _, err := s.borrowals.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrBorrowalNotFound
			}
			return nil, err
		}
	}
	return entries, nil
}

// SweepOverdue flags unreturned borrowals that passed their due date and
// reminds members whose borrowal is still active. Each due date is handled
// once, even when a read already flagged the borrowal. Returns how many
// borrowals were handled.
func (s *BorrowalService) SweepOverdue(ctx context.Context) (int, error) {
	now := s.now()
	candidates, err := s.borrowals.ListOverdueCandidates(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	ids := lo.Map(candidates, func(b *models.Borrowal, _ int) uint { return b.ID })
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.borrowals.SetOverdue(ctx, ids, true); err != nil {
			return err
		}
		return s.borrowals.MarkOverdueNotified(ctx, ids, now)
	})
	if err != nil {
		return 0, err
	}

	system := Actor{IPAddress: "cron"}
	for _, b := range candidates {
		b.Overdue = true
		if err := s.record(ctx, system, b, models.HistoryOverdue, b.Status, nil); err != nil {
			logger.GetLogger(ctx).WithError(err).WithField("borrowal_id", b.ID).Warn("⚠️ Failed to record overdue history")
		}
		if s.notifier != nil && b.Member != nil && b.Status.IsActive() {
			if err := s.notifier.NotifyBorrowalOverdue(ctx, b.Member, b); err != nil {
				logger.GetLogger(ctx).WithError(err).WithField("borrowal_id", b.ID).Warn("⚠️ Failed to queue overdue reminder")
			}
		}
	}

	return len(candidates), nil
}

func (s *BorrowalService) record(ctx context.Context, actor Actor, b *models.Borrowal, action string, from domain.BorrowalStatus, changes map[string]interface{}) error {
	entry := &models.BorrowalHistory{
		BorrowalID:  b.ID,
		BookID:      b.BookID,
		Action:      action,
		FromStatus:  string(from),
		ToStatus:    string(b.Status),
		PerformedBy: actor.UserID,
		IPAddress:   actor.IPAddress,
	}
	if len(changes) > 0 {
		raw, err := sonic.Marshal(changes)
		if err != nil {
			return err
		}
		entry.Changes = datatypes.JSON(raw)
	}
	return s.history.Create(ctx, entry)
}
