package repositories_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/core/domain"
)

type gormFixture struct {
	set    *repositories.Set
	member *models.User
	book   *models.Book
}

func newGormFixture(t *testing.T) *gormFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "library.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	ctx := context.Background()
	set := repositories.NewGormSet(db)

	member := &models.User{Name: "Mia Member", Email: "mia@example.com", Password: "hash", Role: string(domain.RoleMember)}
	require.NoError(t, set.Users.Create(ctx, member))
	book := &models.Book{Name: "Dune", ISBN: "9780441013593", IsAvailable: true, Position: "A-12"}
	require.NoError(t, set.Books.Create(ctx, book))

	return &gormFixture{set: set, member: member, book: book}
}

func (f *gormFixture) borrowal(status domain.BorrowalStatus) *models.Borrowal {
	now := time.Now()
	return &models.Borrowal{BookID: f.book.ID, MemberID: f.member.ID, RequestDate: &now, Status: status}
}

func TestBorrowalRepositoryRejectsSecondActiveBorrowal(t *testing.T) {
	f := newGormFixture(t)
	ctx := context.Background()

	first := f.borrowal(domain.BorrowalPending)
	require.NoError(t, f.set.Borrowals.Create(ctx, first))
	require.NotNil(t, first.ActiveBookID)
	assert.Equal(t, f.book.ID, *first.ActiveBookID)

	err := f.set.Borrowals.Create(ctx, f.borrowal(domain.BorrowalPending))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	exists, err := f.set.Borrowals.ExistsActiveByBookID(ctx, f.book.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBorrowalRepositoryUpdateReleasesActiveSlot(t *testing.T) {
	f := newGormFixture(t)
	ctx := context.Background()

	first := f.borrowal(domain.BorrowalAccepted)
	require.NoError(t, f.set.Borrowals.Create(ctx, first))

	returned := time.Now()
	first.Status = domain.BorrowalReturned
	first.ReturnedDate = &returned
	require.NoError(t, f.set.Borrowals.Update(ctx, first))
	assert.Nil(t, first.ActiveBookID)

	stored, err := f.set.Borrowals.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ActiveBookID)
	require.NotNil(t, stored.Member)
	assert.Equal(t, f.member.Email, stored.Member.Email)

	second := f.borrowal(domain.BorrowalPending)
	require.NoError(t, f.set.Borrowals.Create(ctx, second))

	// returned and rejected rows never hold the slot
	require.NoError(t, f.set.Borrowals.Create(ctx, f.borrowal(domain.BorrowalRejected)))
}

func TestBorrowalRepositoryOverdueCandidatesIgnoreStoredFlag(t *testing.T) {
	f := newGormFixture(t)
	ctx := context.Background()

	due := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	b := f.borrowal(domain.BorrowalAccepted)
	b.DueDate = &due
	require.NoError(t, f.set.Borrowals.Create(ctx, b))

	now := due.AddDate(0, 1, 0)
	require.NoError(t, f.set.Borrowals.SetOverdue(ctx, []uint{b.ID}, true))

	candidates, err := f.set.Borrowals.ListOverdueCandidates(ctx, now)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, b.ID, candidates[0].ID)
	require.NotNil(t, candidates[0].Book)
	assert.Equal(t, "Dune", candidates[0].Book.Name)

	require.NoError(t, f.set.Borrowals.MarkOverdueNotified(ctx, []uint{b.ID}, now))

	candidates, err = f.set.Borrowals.ListOverdueCandidates(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestBookRepositorySetAvailabilityNoop(t *testing.T) {
	f := newGormFixture(t)
	ctx := context.Background()

	require.NoError(t, f.set.Books.SetAvailability(ctx, f.book.ID, true))
	require.NoError(t, f.set.Books.SetAvailability(ctx, f.book.ID, true))

	err := f.set.Books.SetAvailability(ctx, f.book.ID+100, false)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
