package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every service error wraps exactly one of these so
// the HTTP layer can pick a status code with errors.Is.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

func wrap(category error, msg string) error {
	return fmt.Errorf("%w: %s", category, msg)
}

// User errors
var (
	ErrUserNotFound       = wrap(ErrNotFound, "user not found")
	ErrEmailAlreadyExists = wrap(ErrConflict, "email already registered")
	ErrInvalidPassword    = wrap(ErrInvalidInput, "password must be at least 8 characters")
	ErrWrongOldPassword   = wrap(ErrInvalidInput, "old password is incorrect")
	ErrInvalidRole        = wrap(ErrInvalidInput, "invalid role")
	ErrUserDisabled       = wrap(ErrForbidden, "account is disabled")
	ErrCannotDeleteSelf   = wrap(ErrInvalidInput, "cannot delete your own account")
	ErrCannotDemoteSelf   = wrap(ErrInvalidInput, "cannot change your own role")
)

// Catalog errors
var (
	ErrBookNotFound     = wrap(ErrNotFound, "book not found")
	ErrAuthorNotFound   = wrap(ErrNotFound, "author not found")
	ErrGenreNotFound    = wrap(ErrNotFound, "genre not found")
	ErrAuthorExists     = wrap(ErrConflict, "author already exists")
	ErrGenreExists      = wrap(ErrConflict, "genre already exists")
	ErrAuthorHasBooks   = wrap(ErrConflict, "author still has books")
	ErrGenreHasBooks    = wrap(ErrConflict, "genre still has books")
	ErrBookOnLoan       = wrap(ErrConflict, "book has an active borrowal")
	ErrBookISBNRequired = wrap(ErrInvalidInput, "isbn is required")
)

// Borrowal errors
var (
	ErrBorrowalNotFound       = wrap(ErrNotFound, "borrowal not found")
	ErrBorrowalMemberNotFound = wrap(ErrNotFound, "member not found")
	ErrBookAlreadyBorrowed    = wrap(ErrConflict, "book is already borrowed")
	ErrInvalidTransition      = wrap(ErrConflict, "status transition not allowed")
	ErrInvalidBorrowalStatus  = wrap(ErrInvalidInput, "invalid borrowal status")
	ErrInvalidBorrowalDates   = wrap(ErrInvalidInput, "due date must not be before borrowed date")
	ErrBorrowalForbidden      = wrap(ErrForbidden, "not allowed to act on this borrowal")
)

// Review errors
var (
	ErrReviewNotFound  = wrap(ErrNotFound, "review not found")
	ErrAlreadyReviewed = wrap(ErrConflict, "book already reviewed by this user")
	ErrInvalidRating   = wrap(ErrInvalidInput, "rating must be between 1 and 5")
	ErrReviewForbidden = wrap(ErrForbidden, "not allowed to modify this review")
)

// Message strips the category prefix so clients see only the specific reason.
func Message(err error) string {
	for _, cat := range []error{ErrNotFound, ErrInvalidInput, ErrUnauthorized, ErrForbidden, ErrConflict} {
		if errors.Is(err, cat) {
			msg := err.Error()
			prefix := cat.Error() + ": "
			if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
				return msg[len(prefix):]
			}
			return msg
		}
	}
	return err.Error()
}
