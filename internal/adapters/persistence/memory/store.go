// Package memory implements the repository interfaces on in-process maps.
// It backs DB_DRIVER=memory and the service level tests.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
)

type table[T any] struct {
	rows map[uint]T
	next uint
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[uint]T)}
}

func (t *table[T]) nextID() uint {
	t.next++
	return t.next
}

// ordered returns rows sorted by ascending id
func (t *table[T]) ordered() []T {
	ids := make([]uint, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *table[T]) clone() *table[T] {
	return &table[T]{rows: maps.Clone(t.rows), next: t.next}
}

type tables struct {
	users     *table[models.User]
	tokens    *table[models.RefreshToken]
	authors   *table[models.Author]
	genres    *table[models.Genre]
	books     *table[models.Book]
	borrowals *table[models.Borrowal]
	history   *table[models.BorrowalHistory]
	reviews   *table[models.Review]
}

func (t *tables) clone() *tables {
	return &tables{
		users:     t.users.clone(),
		tokens:    t.tokens.clone(),
		authors:   t.authors.clone(),
		genres:    t.genres.clone(),
		books:     t.books.clone(),
		borrowals: t.borrowals.clone(),
		history:   t.history.clone(),
		reviews:   t.reviews.clone(),
	}
}

// Store holds every table. Writes are serialized; a transaction holds
// the write lock for its whole duration and restores a snapshot on error.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	data    *tables
	now     func() time.Time
}

type txKey struct{}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		data: &tables{
			users:     newTable[models.User](),
			tokens:    newTable[models.RefreshToken](),
			authors:   newTable[models.Author](),
			genres:    newTable[models.Genre](),
			books:     newTable[models.Book](),
			borrowals: newTable[models.Borrowal](),
			history:   newTable[models.BorrowalHistory](),
			reviews:   newTable[models.Review](),
		},
		now: time.Now,
	}
}

// NewSet returns a repository set backed by a fresh store
func NewSet() *repositories.Set {
	return NewStore().Set()
}

// Set exposes the store through the repository interfaces
func (s *Store) Set() *repositories.Set {
	return &repositories.Set{
		Tx:              s,
		Users:           &userRepo{s},
		RefreshTokens:   &refreshTokenRepo{s},
		Books:           &bookRepo{s},
		Authors:         &authorRepo{s},
		Genres:          &genreRepo{s},
		Borrowals:       &borrowalRepo{s},
		BorrowalHistory: &historyRepo{s},
		Reviews:         &reviewRepo{s},
		Ping:            func(context.Context) error { return nil },
	}
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

// WithinTransaction implements repositories.Transactor
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) write(ctx context.Context, fn func(d *tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !inTx(ctx) {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) read(ctx context.Context, fn func(d *tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}
