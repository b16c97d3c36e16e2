// Package repository provides a small generic gorm-backed store used by the
// feature services for uniform CRUD access.
package repository

import (
	"context"

	"gorm.io/gorm"
)

// Option mutates the query before it is executed.
type Option func(*gorm.DB) *gorm.DB

// Repository is a generic persistence port for a single gorm model.
type Repository[T any] interface {
	Create(ctx context.Context, record *T) error
	FindOne(ctx context.Context, filter *T, opts ...Option) (*T, error)
	Find(ctx context.Context, filter *T, opts ...Option) ([]*T, error)
	Updates(ctx context.Context, filter *T, values map[string]any) error
	Save(ctx context.Context, record *T) error
	Delete(ctx context.Context, filter *T) error
	Count(ctx context.Context, filter *T) (int64, error)
}

// WithOrder appends an ORDER BY clause.
func WithOrder(order string) Option {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Order(order)
	}
}

// WithLimit caps the number of returned rows.
func WithLimit(limit int) Option {
	return func(tx *gorm.DB) *gorm.DB {
		if limit > 0 {
			return tx.Limit(limit)
		}
		return tx
	}
}

type store[T any] struct {
	db *gorm.DB
}

// ProvideStore constructs a Repository bound to the given connection.
func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

func (s *store[T]) Create(ctx context.Context, record *T) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *store[T]) FindOne(ctx context.Context, filter *T, opts ...Option) (*T, error) {
	var record T
	tx := s.db.WithContext(ctx).Where(filter)
	for _, opt := range opts {
		tx = opt(tx)
	}
	if err := tx.First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *store[T]) Find(ctx context.Context, filter *T, opts ...Option) ([]*T, error) {
	var records []*T
	tx := s.db.WithContext(ctx).Where(filter)
	for _, opt := range opts {
		tx = opt(tx)
	}
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *store[T]) Updates(ctx context.Context, filter *T, values map[string]any) error {
	var model T
	return s.db.WithContext(ctx).Model(&model).Where(filter).Updates(values).Error
}

func (s *store[T]) Save(ctx context.Context, record *T) error {
	return s.db.WithContext(ctx).Save(record).Error
}

func (s *store[T]) Delete(ctx context.Context, filter *T) error {
	var model T
	return s.db.WithContext(ctx).Where(filter).Delete(&model).Error
}

func (s *store[T]) Count(ctx context.Context, filter *T) (int64, error) {
	var model T
	var count int64
	err := s.db.WithContext(ctx).Model(&model).Where(filter).Count(&count).Error
	return count, err
}
