package services

import (
	"context"
	"time"

	"github.com/samber/lo"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/core/domain"
)

// DashboardService aggregates counts for the staff dashboard
type DashboardService struct {
	users     repositories.UserRepository
	books     repositories.BookRepository
	borrowals repositories.BorrowalRepository
	now       func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(repos *repositories.Set) *DashboardService {
	return &DashboardService{
		users:     repos.Users,
		books:     repos.Books,
		borrowals: repos.Borrowals,
		now:       time.Now,
	}
}

// DashboardStats represents the staff dashboard
type DashboardStats struct {
	// User Statistics
	TotalUsers      int64 `json:"totalUsers"`
	TotalAdmins     int64 `json:"totalAdmins"`
	TotalLibrarians int64 `json:"totalLibrarians"`
	TotalMembers    int64 `json:"totalMembers"`

	// Catalog Statistics
	TotalBooks     int64 `json:"totalBooks"`
	AvailableBooks int64 `json:"availableBooks"`

	// Borrowal Statistics
	PendingBorrowals  int64 `json:"pendingBorrowals"`
	AcceptedBorrowals int64 `json:"acceptedBorrowals"`
	RejectedBorrowals int64 `json:"rejectedBorrowals"`
	ReturnedBorrowals int64 `json:"returnedBorrowals"`
	OverdueBorrowals  int64 `json:"overdueBorrowals"`

	// Recent Activity
	RecentBorrowals []*models.BorrowalResponse `json:"recentBorrowals"`
}

const recentBorrowalLimit = 5

// GetStats returns dashboard data
func (s *DashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	data := &DashboardStats{}

	roles, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	data.TotalAdmins = roles[string(domain.RoleAdmin)]
	data.TotalLibrarians = roles[string(domain.RoleLibrarian)]
	data.TotalMembers = roles[string(domain.RoleMember)]
	data.TotalUsers = lo.Sum(lo.Values(roles))

	if _, data.TotalBooks, err = s.books.List(ctx, repositories.BookFilter{}, 0, 1); err != nil {
		return nil, err
	}
	available := true
	if _, data.AvailableBooks, err = s.books.List(ctx, repositories.BookFilter{Available: &available}, 0, 1); err != nil {
		return nil, err
	}

	statuses, err := s.borrowals.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	data.PendingBorrowals = statuses[domain.BorrowalPending]
	data.AcceptedBorrowals = statuses[domain.BorrowalAccepted]
	data.RejectedBorrowals = statuses[domain.BorrowalRejected]
	data.ReturnedBorrowals = statuses[domain.BorrowalReturned]

	now := s.now()
	if data.OverdueBorrowals, err = s.borrowals.CountOverdue(ctx, now); err != nil {
		return nil, err
	}

	recent, err := s.borrowals.List(ctx, repositories.BorrowalFilter{})
	if err != nil {
		return nil, err
	}
	if len(recent) > recentBorrowalLimit {
		recent = recent[:recentBorrowalLimit]
	}
	data.RecentBorrowals = lo.Map(recent, func(b *models.Borrowal, _ int) *models.BorrowalResponse {
		resp := b.ToResponse()
		resp.Overdue = domain.IsOverdue(b.Status, b.DueDate, now)
		return resp
	})

	return data, nil
}
