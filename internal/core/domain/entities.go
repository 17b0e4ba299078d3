package domain

import (
	"strings"
	"time"
)

// Role represents user role in the system
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleLibrarian Role = "LIBRARIAN"
	RoleMember    Role = "MEMBER"
)

// ParseRole normalizes user supplied role names
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLibrarian, RoleMember:
		return true
	}
	return false
}

// IsStaff reports whether the role may manage circulation
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleLibrarian
}

// BorrowalStatus is the lifecycle state of a borrowal
type BorrowalStatus string

const (
	BorrowalPending  BorrowalStatus = "pending"
	BorrowalAccepted BorrowalStatus = "accepted"
	BorrowalRejected BorrowalStatus = "rejected"
	BorrowalReturned BorrowalStatus = "returned"
)

var borrowalTransitions = map[BorrowalStatus][]BorrowalStatus{
	BorrowalPending:  {BorrowalAccepted, BorrowalRejected},
	BorrowalAccepted: {BorrowalReturned},
}

func (s BorrowalStatus) Valid() bool {
	switch s {
	case BorrowalPending, BorrowalAccepted, BorrowalRejected, BorrowalReturned:
		return true
	}
	return false
}

// IsActive reports whether the borrowal still holds its book
func (s BorrowalStatus) IsActive() bool {
	return s == BorrowalPending || s == BorrowalAccepted
}

// CanTransitionTo reports whether next is reachable from s. Staying put is always allowed.
func (s BorrowalStatus) CanTransitionTo(next BorrowalStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range borrowalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsOverdue is true when the due date has passed and the book was not returned
func IsOverdue(status BorrowalStatus, dueDate *time.Time, now time.Time) bool {
	if dueDate == nil || status == BorrowalReturned {
		return false
	}
	return dueDate.Before(now)
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Mail is a rendered outbound message
type Mail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// NotificationJob is the unit the notification queue carries
type NotificationJob struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Mail       Mail      `json:"mail"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}
