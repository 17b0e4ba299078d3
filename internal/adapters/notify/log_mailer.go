package notify

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"libraryhub/internal/core/domain"
	"libraryhub/internal/pkg/logger"
)

// LogMailer writes mails to the log instead of sending them. Used when no
// SMTP host is configured.
type LogMailer struct {
	mu   sync.Mutex
	sent []domain.Mail
}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) Send(ctx context.Context, mail domain.Mail) error {
	m.mu.Lock()
	m.sent = append(m.sent, mail)
	m.mu.Unlock()

	logger.GetLogger(ctx).WithFields(logrus.Fields{
		"to":      mail.To,
		"subject": mail.Subject,
	}).Info("✉️ Mail (not sent, SMTP disabled)")
	return nil
}

// Sent returns a copy of every mail handed to Send
func (m *LogMailer) Sent() []domain.Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Mail, len(m.sent))
	copy(out, m.sent)
	return out
}
