package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/pkg/logger"
)

// Notification kinds
const (
	KindBorrowalUpdated = "borrowal_updated"
	KindBorrowalOverdue = "borrowal_overdue"
	KindWelcome         = "welcome"
)

// NotificationOptions tunes the worker pool
type NotificationOptions struct {
	Workers      int
	MaxAttempts  int
	RetryBackoff time.Duration
	DrainTimeout time.Duration
}

// NotificationService renders mails and delivers them from a queue in the
// background. Enqueueing never blocks on delivery.
type NotificationService struct {
	mailer Mailer
	queue  JobQueue
	opts   NotificationOptions

	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	mu      sync.Mutex
}

// NewNotificationService creates a new notification service
func NewNotificationService(mailer Mailer, queue JobQueue, opts NotificationOptions) *NotificationService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &NotificationService{
		mailer: mailer,
		queue:  queue,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the worker pool
func (s *NotificationService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	for i := 0; i < s.opts.Workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	logger.GetLogger(s.ctx).Infof("📬 Notification workers started (%d)", s.opts.Workers)
}

// Stop closes the queue and waits for workers to drain it
func (s *NotificationService) Stop() {
	_ = s.queue.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.opts.DrainTimeout):
		logger.GetLogger(s.ctx).Warn("⚠️ Notification drain timed out, cancelling workers")
		s.cancel()
		<-done
	}
	s.cancel()
	logger.GetLogger(s.ctx).Info("📭 Notification workers stopped")
}

// Enqueue schedules a mail for delivery
func (s *NotificationService) Enqueue(ctx context.Context, kind string, mail domain.Mail) error {
	if mail.To == "" {
		return fmt.Errorf("%w: mail recipient is empty", domain.ErrInvalidInput)
	}
	job := domain.NotificationJob{
		ID:         uuid.NewString(),
		Kind:       kind,
		Mail:       mail,
		EnqueuedAt: time.Now(),
	}
	if err := s.queue.Push(ctx, job); err != nil {
		return fmt.Errorf("enqueue %s notification: %w", kind, err)
	}
	logger.GetLogger(ctx).WithFields(logrus.Fields{"job_id": job.ID, "kind": kind}).Debug("notification queued")
	return nil
}

func (s *NotificationService) worker(n int) {
	defer s.wg.Done()
	log := logger.GetLogger(s.ctx).WithField("worker", n)

	for {
		job, err := s.queue.Pop(s.ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || errors.Is(err, context.Canceled) {
				return
			}
			log.WithError(err).Error("❌ Failed to pop notification job")
			if !s.sleep(s.opts.RetryBackoff) {
				return
			}
			continue
		}
		s.deliver(log, job)
	}
}

func (s *NotificationService) deliver(log *logrus.Entry, job domain.NotificationJob) {
	log = log.WithFields(logrus.Fields{"job_id": job.ID, "kind": job.Kind, "to": job.Mail.To})

	for {
		err := s.mailer.Send(s.ctx, job.Mail)
		if err == nil {
			log.WithField("attempt", job.Attempt+1).Info("✅ Notification sent")
			return
		}

		job.Attempt++
		if job.Attempt >= s.opts.MaxAttempts {
			log.WithError(err).Errorf("❌ Notification dropped after %d attempts", job.Attempt)
			return
		}

		log.WithError(err).Warnf("⚠️ Notification attempt %d failed, retrying", job.Attempt)
		if !s.sleep(s.opts.RetryBackoff * time.Duration(1<<(job.Attempt-1))) {
			return
		}
	}
}

// sleep waits d unless the service is cancelled first
func (s *NotificationService) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// NotifyBorrowalUpdated implements BorrowalNotifier
func (s *NotificationService) NotifyBorrowalUpdated(ctx context.Context, member *models.User, borrowal *models.Borrowal) error {
	body := fmt.Sprintf(`<p>Hello, %s</p>
<p>Your borrowal #%d%s has been updated.</p>
<p>Status: <b>%s</b>%s</p>
<p>Best regards,<br>The Library Team</p>`,
		html.EscapeString(member.Name),
		borrowal.ID,
		bookSuffix(borrowal),
		html.EscapeString(string(borrowal.Status)),
		dueLine(borrowal),
	)

	return s.Enqueue(ctx, KindBorrowalUpdated, domain.Mail{
		To:      member.Email,
		Subject: "Your borrowal has been updated",
		HTML:    body,
	})
}

// NotifyBorrowalOverdue implements BorrowalNotifier
func (s *NotificationService) NotifyBorrowalOverdue(ctx context.Context, member *models.User, borrowal *models.Borrowal) error {
	body := fmt.Sprintf(`<p>Hello, %s</p>
<p>Your borrowal #%d%s is overdue.%s</p>
<p>Please return the book as soon as possible.</p>
<p>Best regards,<br>The Library Team</p>`,
		html.EscapeString(member.Name),
		borrowal.ID,
		bookSuffix(borrowal),
		dueLine(borrowal),
	)

	return s.Enqueue(ctx, KindBorrowalOverdue, domain.Mail{
		To:      member.Email,
		Subject: "Overdue book reminder",
		HTML:    body,
	})
}

// NotifyWelcome implements AccountNotifier
func (s *NotificationService) NotifyWelcome(ctx context.Context, user *models.User, plainPassword string) error {
	body := fmt.Sprintf(`<p>Hello, %s</p>
<p>Your library account has been created. Here are your credentials:</p>
<p>Email: <b>%s</b><br>Password: <b>%s</b></p>
<p>Please change your password after signing in.</p>
<p>Best regards,<br>The Library Team</p>`,
		html.EscapeString(user.Name),
		html.EscapeString(user.Email),
		html.EscapeString(plainPassword),
	)

	return s.Enqueue(ctx, KindWelcome, domain.Mail{
		To:      user.Email,
		Subject: "Welcome to the library",
		HTML:    body,
	})
}

func bookSuffix(b *models.Borrowal) string {
	if b.Book == nil || b.Book.Name == "" {
		return ""
	}
	return fmt.Sprintf(" for <i>%s</i>", html.EscapeString(b.Book.Name))
}

func dueLine(b *models.Borrowal) string {
	if b.DueDate == nil {
		return ""
	}
	return "<br>Due date: " + b.DueDate.Format("2006-01-02")
}
