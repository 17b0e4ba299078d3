package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryhub/internal/adapters/persistence/memory"
	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/core/services"
)

type spyNotifier struct {
	mu      sync.Mutex
	updated []*models.Borrowal
	overdue []*models.Borrowal
	err     error
}

func (n *spyNotifier) NotifyBorrowalUpdated(_ context.Context, _ *models.User, b *models.Borrowal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, b)
	return n.err
}

func (n *spyNotifier) NotifyBorrowalOverdue(_ context.Context, _ *models.User, b *models.Borrowal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.overdue = append(n.overdue, b)
	return n.err
}

type fixture struct {
	repos     *repositories.Set
	svc       *services.BorrowalService
	notifier  *spyNotifier
	admin     services.Actor
	librarian services.Actor
	member    *models.User
	other     *models.User
	book      *models.Book
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repos := memory.NewSet()

	mk := func(name, email string, role domain.Role) *models.User {
		u := &models.User{Name: name, Email: email, Role: string(role), IsActive: true}
		require.NoError(t, repos.Users.Create(ctx, u))
		return u
	}
	admin := mk("Admin", "admin@example.com", domain.RoleAdmin)
	librarian := mk("Libby", "libby@example.com", domain.RoleLibrarian)
	member := mk("Mia", "mia@example.com", domain.RoleMember)
	other := mk("Otto", "otto@example.com", domain.RoleMember)

	book := &models.Book{Name: "Dune", ISBN: "9780441013593", IsAvailable: true, Position: "A1"}
	require.NoError(t, repos.Books.Create(ctx, book))

	notifier := &spyNotifier{}
	return &fixture{
		repos:     repos,
		svc:       services.NewBorrowalService(repos, notifier, 14),
		notifier:  notifier,
		admin:     services.Actor{UserID: admin.ID, Role: domain.RoleAdmin},
		librarian: services.Actor{UserID: librarian.ID, Role: domain.RoleLibrarian},
		member:    member,
		other:     other,
		book:      book,
	}
}

func (f *fixture) memberActor(u *models.User) services.Actor {
	return services.Actor{UserID: u.ID, Role: domain.RoleMember}
}

func (f *fixture) bookAvailable(t *testing.T) bool {
	t.Helper()
	b, err := f.repos.Books.GetByID(context.Background(), f.book.ID)
	require.NoError(t, err)
	return b.IsAvailable
}

func status(s domain.BorrowalStatus) *domain.BorrowalStatus { return &s }

func TestCreateBorrowal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, f.librarian, &services.CreateBorrowalInput{BookID: f.book.ID, MemberID: f.member.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.BorrowalPending, b.Status)
	assert.NotNil(t, b.RequestDate)
	assert.False(t, f.bookAvailable(t))

	_, err = f.svc.Create(ctx, f.librarian, &services.CreateBorrowalInput{BookID: f.book.ID, MemberID: f.other.ID})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorIs(t, err, domain.ErrBookAlreadyBorrowed)

	history, err := f.svc.History(ctx, f.librarian, b.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.HistoryCreate, history[0].Action)
}

func TestCreateBorrowalAfterTerminalStatus(t *testing.T) {
	for _, final := range []domain.BorrowalStatus{domain.BorrowalRejected, domain.BorrowalReturned} {
		t.Run(string(final), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			b, err := f.svc.Create(ctx, f.librarian, &services.CreateBorrowalInput{BookID: f.book.ID, MemberID: f.member.ID})
			require.NoError(t, err)
			if final == domain.BorrowalReturned {
				_, err = f.svc.Update(ctx, f.librarian, b.ID, &services.UpdateBorrowalInput{Status: status(domain.BorrowalAccepted)})
				require.NoError(t, err)
			}
			_, err = f.svc.Update(ctx, f.librarian, b.ID, &services.UpdateBorrowalInput{Status: status(final)})
			require.NoError(t, err)
			assert.True(t, f.bookAvailable(t))

			_, err = f.svc.Create(ctx, f.librarian, &services.CreateBorrowalInput{BookID: f.book.ID, MemberID: f.other.ID})
			assert.NoError(t, err)
			assert.False(t, f.bookAvailable(t))
		})
	}
}

func TestCreateBorrowalValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		actor services.Actor
		input services.CreateBorrowalInput
		want  error
	}{
		{"missing book", f.librarian, services.CreateBorrowalInput{MemberID: f.member.ID}, domain.ErrInvalidInput},
		{"missing member", f.librarian, services.CreateBorrowalInput{BookID: f.book.ID}, domain.ErrInvalidInput},
		{"unknown book", f.librarian, services.CreateBorrowalInput{BookID: 999, MemberID: f.member.ID}, domain.ErrBookNotFound},
		{"unknown member", f.librarian, services.CreateBorrowalInput{BookID: f.book.ID, MemberID: 999}, domain.ErrBorrowalMemberNotFound},
		{"member for someone else", f.memberActor(f.member), services.CreateBorrowalInput{BookID: f.book.ID, MemberID: f.other.ID}, domain.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.actor, &tt.input)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, f.bookAvailable(t))
		})
	}
}

func TestMemberBorrowsForSelfByDefault(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), f.memberActor(f.member), &services.CreateBorrowalInput{BookID: f.book.ID})
	require.NoError(t, err)
	assert.Equal(t, f.member.ID, b.MemberID)
}

func TestUpdateTransitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []domain.BorrowalStatus
		wantErr bool
	}{
		{"accept", []domain.BorrowalStatus{domain.BorrowalAccepted}, false},
		{"reject", []domain.BorrowalStatus{domain.BorrowalRejected}, false},
		{"accept then return", []domain.BorrowalStatus{domain.BorrowalAccepted, domain.BorrowalReturned}, false},
		{"same status again", []domain.BorrowalStatus{domain.BorrowalAccepted, domain.BorrowalAccepted}, false},
		{"pending to returned", []domain.BorrowalStatus{domain.BorrowalReturned}, true},
		{"returned to accepted", []domain.BorrowalStatus{domain.BorrowalAccepted, domain.BorrowalReturned, domain.BorrowalAccepted}, true},
		{"rejected to accepted", []domain.BorrowalStatus{domain.BorrowalRejected, domain.BorrowalAccepted}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			b, err := f.svc.Create(ctx, f.librarian, &services.CreateBorrowalInput{BookID: f.book.ID, MemberID: f.member.ID})
			require.NoError(t, err)

			for i, next := range tt.path {
				_, err = f.svc.Update(ctx, f.librarian, b.ID, &services.UpdateBorrowalInput{Status: status(next)})
				if i < len(tt.path)-1 {
					require.NoError(t, err)
				}
			}

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrConflict)

			stored, getErr := f.repos.Borrowals.GetByID(ctx, b.ID)
			require.NoError(t, getErr)
			if len(tt.path) > 1 {
				assert.Equal(t, tt.path[len(tt.path)-2], stored.Status)
			} else {
				assert.Equal(t, domain.BorrowalPending, stored.Status)
			}
		})
	}
}

func TestAcceptFillsLoanDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f.svc.SetClock(func() time.Time { return now })

	b, err := f.svc.Create(ctx, f.librarian, &services.CreateBorrowalInput{BookID: f.book.ID, MemberID: f.member.ID})
	require.NoError(t, err)

	b, err = f.svc.Update(ctx, f.librarian, b.ID, &services.UpdateBorrowalInput{Status: status(domain.BorrowalAccepted)})
	require.NoError(t, err)
	require.NotNil(t, b.BorrowedDate)
	require.NotNil(t, b.DueDate)
	assert.True(t, now.Equal(*b.BorrowedDate))
	assert.True(t, now.AddDate(0, 0, 14).Equal(*b.DueDate))
	assert.False(t, f.bookAvailable(t))
}

func TestUpdateRejectsDueBeforeBorrowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.Create(ctx, f.librarian, &services.CreateBorrowalInput{BookID: f.book.ID, MemberID: f.member.ID})
	require.NoError(t, err)

	borrowed := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	due := borrowed.AddDate(0, 0, -1)
	_, err = f.svc.Update(ctx, f.librarian, b.ID, &services.UpdateBorrowalInput{BorrowedDate: &borrowed, DueDate: &due})
	assert.ErrorIs(t, err, domain.ErrInvalidBorrowalDates)
}

func TestReturnNotifiesMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.Create(ctx, f.librarian, &services.CreateBorrowalInput{BookID: f.book.ID, MemberID: f.member.ID})
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, f.librarian, b.ID, &services.UpdateBorrowalInput{Status: status(domain.BorrowalAccepted)})
	require.NoError(t, err)

	got, err := f.svc.Update(ctx, f.librarian, b.ID, &services.UpdateBorrowalInput{Status: status(domain.BorrowalReturned)})
	require.NoError(t, err)
	assert.Equal(t, domain.BorrowalReturned, got.Status)
	assert.NotNil(t, got.ReturnedDate)
	assert.False(t, got.Overdue)
	assert.Len(t, f.notifier.updated, 2)

	stored, err := f.repos.Borrowals.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BorrowalReturned, stored.Status)
	assert.Nil(t, stored.ActiveBookID)
	assert.True(t, f.bookAvailable(t))
}

func TestNotifierFailureDoesNotFailUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.notifier.err = errors.New("smtp down")

	b, err := f.svc.Create(ctx, f.librarian, &services.CreateBorrowalInput{BookID: f.book.ID, MemberID: f.member.ID})
	require.NoError(t, err)

	got, err := f.svc.Update(ctx, f.librarian, b.ID, &services.UpdateBorrowalInput{Status: status(domain.BorrowalAccepted)})
	require.NoError(t, err)
	assert.Equal(t, domain.BorrowalAccepted, got.Status)

	stored, err := f.repos.Borrowals.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BorrowalAccepted, stored.Status)
}

func TestUpdateMissingMemberLeavesRecordUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.Create(ctx, f.librarian, &services.CreateBorrowalInput{BookID: f.book.ID, MemberID: f.member.ID})
	require.NoError(t, err)
	require.NoError(t, f.repos.Users.Delete(ctx, f.member.ID))

	note := "changed"
	_, err = f.svc.Update(ctx, f.librarian, b.ID, &services.UpdateBorrowalInput{Note: &note, Status: status(domain.BorrowalAccepted)})
	assert.ErrorIs(t, err, domain.ErrBorrowalMemberNotFound)

	stored, err := f.repos.Borrowals.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BorrowalPending, stored.Status)
	assert.Empty(t, stored.Note)
	assert.Empty(t, f.notifier.updated)
}

func TestUpdateRequiresStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.Create(ctx, f.memberActor(f.member), &services.CreateBorrowalInput{BookID: f.book.ID})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.memberActor(f.member), b.ID, &services.UpdateBorrowalInput{Status: status(domain.BorrowalAccepted)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Update(ctx, f.librarian, 999, &services.UpdateBorrowalInput{})
	assert.ErrorIs(t, err, domain.ErrBorrowalNotFound)
}

func TestDeleteBorrowal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.Create(ctx, f.librarian, &services.CreateBorrowalInput{BookID: f.book.ID, MemberID: f.member.ID})
	require.NoError(t, err)

	_, err = f.svc.Delete(ctx, f.librarian, b.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	deleted, err := f.svc.Delete(ctx, f.admin, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, deleted.ID)
	assert.Equal(t, domain.BorrowalPending, deleted.Status)
	assert.True(t, f.bookAvailable(t))

	_, err = f.svc.GetByID(ctx, f.admin, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	history, err := f.svc.History(ctx, f.librarian, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HistoryDelete, history[len(history)-1].Action)
}

func TestDeleteNonexistentLeavesBookAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repos.Books.SetAvailability(ctx, f.book.ID, false))

	_, err := f.svc.Delete(ctx, f.admin, 999)
	assert.ErrorIs(t, err, domain.ErrBorrowalNotFound)
	assert.False(t, f.bookAvailable(t))
}

func TestMembersSeeOnlyOwnBorrowals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second := &models.Book{Name: "Emma", ISBN: "9780141439587", IsAvailable: true}
	require.NoError(t, f.repos.Books.Create(ctx, second))

	mine, err := f.svc.Create(ctx, f.memberActor(f.member), &services.CreateBorrowalInput{BookID: f.book.ID})
	require.NoError(t, err)
	theirs, err := f.svc.Create(ctx, f.memberActor(f.other), &services.CreateBorrowalInput{BookID: second.ID})
	require.NoError(t, err)

	list, err := f.svc.List(ctx, f.memberActor(f.member), &services.BorrowalListInput{MemberID: &f.other.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)
	require.NotNil(t, list[0].Member)
	assert.Equal(t, "Mia", list[0].Member.Name)
	require.NotNil(t, list[0].Book)
	assert.Equal(t, "Dune", list[0].Book.Name)

	_, err = f.svc.GetByID(ctx, f.memberActor(f.member), theirs.ID)
	assert.ErrorIs(t, err, domain.ErrBorrowalNotFound)

	all, err := f.svc.List(ctx, f.librarian, &services.BorrowalListInput{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := f.svc.List(ctx, f.librarian, &services.BorrowalListInput{BookID: &second.ID})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, theirs.ID, filtered[0].ID)

	_, err = f.svc.List(ctx, f.librarian, &services.BorrowalListInput{Status: "lost"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOverdueRecomputedOnRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.SetClock(func() time.Time { return time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC) })

	b, err := f.svc.Create(ctx, f.librarian, &services.CreateBorrowalInput{BookID: f.book.ID, MemberID: f.member.ID})
	require.NoError(t, err)
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.Update(ctx, f.librarian, b.ID, &services.UpdateBorrowalInput{DueDate: &due, Status: status(domain.BorrowalAccepted)})
	require.NoError(t, err)

	f.svc.SetClock(func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) })

	list, err := f.svc.List(ctx, f.librarian, &services.BorrowalListInput{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Overdue)

	stored, err := f.repos.Borrowals.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, stored.Overdue)

	yes, no := true, false
	overdue, err := f.svc.List(ctx, f.librarian, &services.BorrowalListInput{Overdue: &yes})
	require.NoError(t, err)
	assert.Len(t, overdue, 1)
	onTime, err := f.svc.List(ctx, f.librarian, &services.BorrowalListInput{Overdue: &no})
	require.NoError(t, err)
	assert.Empty(t, onTime)

	returned, err := f.svc.Update(ctx, f.librarian, b.ID, &services.UpdateBorrowalInput{Status: status(domain.BorrowalReturned)})
	require.NoError(t, err)
	assert.False(t, returned.Overdue)
}

func TestSweepOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.SetClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) })

	b, err := f.svc.Create(ctx, f.librarian, &services.CreateBorrowalInput{BookID: f.book.ID, MemberID: f.member.ID})
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, f.librarian, b.ID, &services.UpdateBorrowalInput{Status: status(domain.BorrowalAccepted)})
	require.NoError(t, err)

	f.svc.SetClock(func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) })

	n, err := f.svc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, f.notifier.overdue, 1)

	n, err = f.svc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	history, err := f.svc.History(ctx, f.librarian, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HistoryOverdue, history[len(history)-1].Action)
}

func TestSweepRemindsAfterOverdueRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.SetClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) })

	b, err := f.svc.Create(ctx, f.librarian, &services.CreateBorrowalInput{BookID: f.book.ID, MemberID: f.member.ID})
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, f.librarian, b.ID, &services.UpdateBorrowalInput{Status: status(domain.BorrowalAccepted)})
	require.NoError(t, err)

	f.svc.SetClock(func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) })

	// reading flags the borrowal overdue before the sweep runs
	list, err := f.svc.List(ctx, f.memberActor(f.member), &services.BorrowalListInput{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Overdue)

	n, err := f.svc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, f.notifier.overdue, 1)
	assert.Equal(t, b.ID, f.notifier.overdue[0].ID)
}

func TestSweepRemindsAgainAfterDueDateChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.SetClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) })

	b, err := f.svc.Create(ctx, f.librarian, &services.CreateBorrowalInput{BookID: f.book.ID, MemberID: f.member.ID})
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, f.librarian, b.ID, &services.UpdateBorrowalInput{Status: status(domain.BorrowalAccepted)})
	require.NoError(t, err)

	f.svc.SetClock(func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) })
	n, err := f.svc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	extended := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	updated, err := f.svc.Update(ctx, f.librarian, b.ID, &services.UpdateBorrowalInput{DueDate: &extended})
	require.NoError(t, err)
	assert.False(t, updated.Overdue)

	n, err = f.svc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.svc.SetClock(func() time.Time { return time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC) })
	n, err = f.svc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, f.notifier.overdue, 2)
}
