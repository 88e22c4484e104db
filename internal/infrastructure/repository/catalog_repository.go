package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	domainRepo "github.com/disfruleg/disfruleg-pos/internal/domain/repository"
	"github.com/disfruleg/disfruleg-pos/pkg/apperror"
)

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *gorm.DB) domainRepo.CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListClients(ctx context.Context) ([]entity.Client, error) {
	var clients []entity.Client
	err := r.db.WithContext(ctx).Preload("Group").Scopes(ByName).Find(&clients).Error
	if err != nil {
		return nil, apperror.DataUnavailable(err)
	}
	return clients, nil
}

func (r *catalogRepository) ListProducts(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	err := r.db.WithContext(ctx).Scopes(ProductCatalogOrder).Find(&products).Error
	if err != nil {
		return nil, apperror.DataUnavailable(err)
	}
	return products, nil
}

func (r *catalogRepository) GetClient(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	var client entity.Client
	err := r.db.WithContext(ctx).Preload("Group").First(&client, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.DataUnavailable(err)
	}
	return &client, nil
}

func (r *catalogRepository) GetGroupDiscount(ctx context.Context, groupID *uuid.UUID) (decimal.Decimal, error) {
	if groupID == nil {
		return decimal.Zero, nil
	}
	var group entity.ClientGroup
	err := r.db.WithContext(ctx).First(&group, "id = ?", *groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// dangling group reference: treated as unassigned
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, apperror.DataUnavailable(err)
	}
	return group.DiscountPercent, nil
}
