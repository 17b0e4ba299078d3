package repositories

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a Transactor backed by gorm
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or db
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// NewGormSet wires every gorm repository onto db
func NewGormSet(db *gorm.DB) *Set {
	return &Set{
		Tx:              NewTransactor(db),
		Users:           NewUserRepository(db),
		RefreshTokens:   NewRefreshTokenRepository(db),
		Books:           NewBookRepository(db),
		Authors:         NewAuthorRepository(db),
		Genres:          NewGenreRepository(db),
		Borrowals:       NewBorrowalRepository(db),
		BorrowalHistory: NewBorrowalHistoryRepository(db),
		Reviews:         NewReviewRepository(db),
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}
