package services

import (
	"context"
	"errors"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/core/domain"
)

// ErrQueueClosed is returned by a JobQueue after Close
var ErrQueueClosed = errors.New("notification queue closed")

// Mailer delivers a rendered mail
type Mailer interface {
	Send(ctx context.Context, mail domain.Mail) error
}

// JobQueue buffers notification jobs between producers and workers.
// Pop blocks until a job is available, ctx ends, or the queue is
// closed and drained.
type JobQueue interface {
	Push(ctx context.Context, job domain.NotificationJob) error
	Pop(ctx context.Context) (domain.NotificationJob, error)
	Close() error
}

// BorrowalNotifier is told about borrowal changes after they commit
type BorrowalNotifier interface {
	NotifyBorrowalUpdated(ctx context.Context, member *models.User, borrowal *models.Borrowal) error
	NotifyBorrowalOverdue(ctx context.Context, member *models.User, borrowal *models.Borrowal) error
}

// AccountNotifier is told about accounts created by staff
type AccountNotifier interface {
	NotifyWelcome(ctx context.Context, user *models.User, plainPassword string) error
}

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID    uint
	Role      domain.Role
	IPAddress string
}

func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}
