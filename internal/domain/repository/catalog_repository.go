package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
)

// CatalogRepository is the read-only catalog surface used by the receipt engine.
type CatalogRepository interface {
	// ListClients returns all clients ordered by name.
	ListClients(ctx context.Context) ([]entity.Client, error)
	// ListProducts returns non-special products first, then by name.
	ListProducts(ctx context.Context) ([]entity.Product, error)
	// GetClient returns nil, nil when the client does not exist.
	GetClient(ctx context.Context, id uuid.UUID) (*entity.Client, error)
	// GetGroupDiscount returns 0 when groupID is nil.
	GetGroupDiscount(ctx context.Context, groupID *uuid.UUID) (decimal.Decimal, error)
}
