package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/queue"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/core/services"
)

// flakyMailer fails its first n sends, then records mails
type flakyMailer struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []domain.Mail
}

func (m *flakyMailer) Send(_ context.Context, mail domain.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failures {
		return errors.New("relay unavailable")
	}
	m.sent = append(m.sent, mail)
	return nil
}

func (m *flakyMailer) snapshot() (int, []domain.Mail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls, append([]domain.Mail(nil), m.sent...)
}

func newNotifications(mailer services.Mailer, attempts int) *services.NotificationService {
	return services.NewNotificationService(mailer, queue.NewMemoryQueue(16), services.NotificationOptions{
		Workers:      2,
		MaxAttempts:  attempts,
		RetryBackoff: time.Millisecond,
		DrainTimeout: time.Second,
	})
}

func TestNotificationDeliveredAndDrainedOnStop(t *testing.T) {
	mailer := &flakyMailer{}
	svc := newNotifications(mailer, 3)
	svc.Start()

	member := &models.User{Name: "Mia <3", Email: "mia@example.com"}
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := &models.Borrowal{ID: 7, Status: domain.BorrowalAccepted, DueDate: &due, Book: &models.Book{Name: "Dune"}}

	require.NoError(t, svc.NotifyBorrowalUpdated(context.Background(), member, b))
	require.NoError(t, svc.NotifyBorrowalOverdue(context.Background(), member, b))
	svc.Stop()

	_, sent := mailer.snapshot()
	require.Len(t, sent, 2)
	for _, m := range sent {
		assert.Equal(t, "mia@example.com", m.To)
		assert.Contains(t, m.HTML, "Mia &lt;3")
		assert.Contains(t, m.HTML, "Dune")
		assert.Contains(t, m.HTML, "2024-01-01")
	}
}

func TestNotificationRetriesThenSucceeds(t *testing.T) {
	mailer := &flakyMailer{failures: 2}
	svc := newNotifications(mailer, 3)
	svc.Start()

	require.NoError(t, svc.NotifyWelcome(context.Background(), &models.User{Name: "New", Email: "new@example.com"}, "s3cret!!"))
	svc.Stop()

	calls, sent := mailer.snapshot()
	assert.Equal(t, 3, calls)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].HTML, "s3cret!!")
}

func TestNotificationGivesUpAfterMaxAttempts(t *testing.T) {
	mailer := &flakyMailer{failures: 10}
	svc := newNotifications(mailer, 2)
	svc.Start()

	require.NoError(t, svc.Enqueue(context.Background(), services.KindWelcome, domain.Mail{To: "x@example.com"}))
	svc.Stop()

	calls, sent := mailer.snapshot()
	assert.Equal(t, 2, calls)
	assert.Empty(t, sent)
}

func TestEnqueueRejectsEmptyRecipient(t *testing.T) {
	svc := newNotifications(&flakyMailer{}, 1)
	err := svc.Enqueue(context.Background(), services.KindWelcome, domain.Mail{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEnqueueAfterStopFails(t *testing.T) {
	svc := newNotifications(&flakyMailer{}, 1)
	svc.Start()
	svc.Stop()

	err := svc.Enqueue(context.Background(), services.KindWelcome, domain.Mail{To: "x@example.com"})
	assert.ErrorIs(t, err, services.ErrQueueClosed)
}
