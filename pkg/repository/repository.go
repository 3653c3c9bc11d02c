package repository

import (
	"context"

	"github.com/mercadolito/strategia/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a thin generic persistence layer over gorm. A zero-value
// query matches everything.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	BatchCreate(ctx context.Context, resources []*T) error
	Count(ctx context.Context, query *T) (int64, error)
}
