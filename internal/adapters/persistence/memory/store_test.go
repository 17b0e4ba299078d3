package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"libraryhub/internal/adapters/persistence/memory"
	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/core/domain"
)

func TestTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	set := memory.NewSet()

	book := &models.Book{Name: "Dune", ISBN: "1", IsAvailable: true}
	require.NoError(t, set.Books.Create(ctx, book))

	boom := errors.New("boom")
	err := set.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, set.Books.SetAvailability(ctx, book.ID, false))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := set.Books.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAvailable)
}

func TestActiveBorrowalIsUniquePerBook(t *testing.T) {
	ctx := context.Background()
	set := memory.NewSet()

	first := &models.Borrowal{BookID: 1, MemberID: 1, Status: domain.BorrowalPending}
	require.NoError(t, set.Borrowals.Create(ctx, first))

	second := &models.Borrowal{BookID: 1, MemberID: 2, Status: domain.BorrowalPending}
	assert.ErrorIs(t, set.Borrowals.Create(ctx, second), gorm.ErrDuplicatedKey)

	first.Status = domain.BorrowalReturned
	require.NoError(t, set.Borrowals.Update(ctx, first))
	assert.NoError(t, set.Borrowals.Create(ctx, second))
}

func TestUserEmailIsUnique(t *testing.T) {
	ctx := context.Background()
	set := memory.NewSet()

	require.NoError(t, set.Users.Create(ctx, &models.User{Name: "A", Email: "a@example.com"}))
	err := set.Users.Create(ctx, &models.User{Name: "B", Email: "A@example.com"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	exists, err := set.Users.ExistsByEmail(ctx, "A@EXAMPLE.COM")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReviewsHideSoftDeleted(t *testing.T) {
	ctx := context.Background()
	set := memory.NewSet()

	rv := &models.Review{BookID: 1, ReviewedBy: 1, Review: "good"}
	require.NoError(t, set.Reviews.Create(ctx, rv))

	rv.IsDeleted = true
	require.NoError(t, set.Reviews.Update(ctx, rv))

	_, err := set.Reviews.GetByID(ctx, rv.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	exists, err := set.Reviews.ExistsByUserAndBook(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, exists)
}
