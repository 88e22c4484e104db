package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/internal/domain/repository"
	"github.com/disfruleg/disfruleg-pos/pkg/apperror"
)

// CatalogService exposes the read-only client and product catalog.
type CatalogService struct {
	catalog repository.CatalogRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(catalog repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// ListClients returns every client ordered by name.
func (s *CatalogService) ListClients(ctx context.Context) ([]entity.Client, error) {
	return s.catalog.ListClients(ctx)
}

// ListProducts returns the catalog at base price, regular products first.
func (s *CatalogService) ListProducts(ctx context.Context) ([]entity.Product, error) {
	return s.catalog.ListProducts(ctx)
}

// GetClient returns a client or ErrUnknownClient.
func (s *CatalogService) GetClient(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	c, err := s.catalog.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperror.ErrUnknownClient
	}
	return c, nil
}
