package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	domainRepo "github.com/disfruleg/disfruleg-pos/internal/domain/repository"
	"github.com/disfruleg/disfruleg-pos/pkg/apperror"
	"github.com/disfruleg/disfruleg-pos/pkg/money"
	"github.com/disfruleg/disfruleg-pos/pkg/pagination"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

// Create runs header insert, line inserts, read-back verification and the
// optional idempotency insert in a single transaction. Any failure rolls
// back everything.
func (r *invoiceRepository) Create(ctx context.Context, params domainRepo.CreateInvoiceParams) (uint, error) {
	if params.Invoice == nil {
		return 0, apperror.Unexpected(errors.New("invoice header is required"))
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, params); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(params.Invoice).Error; err != nil {
			return err
		}

		lines := params.Lines
		for i := range lines {
			lines[i].InvoiceID = params.Invoice.ID
			lines[i].Position = i + 1
		}
		if len(lines) > 0 {
			if err := tx.Omit(clause.Associations).Create(&lines).Error; err != nil {
				return err
			}
		}

		var written []entity.InvoiceLine
		if err := tx.Where("invoice_id = ?", params.Invoice.ID).Order("position ASC").Find(&written).Error; err != nil {
			return err
		}
		if len(written) != len(lines) {
			return apperror.Wrap(apperror.ErrTotalMismatch,
				fmt.Errorf("wrote %d lines, read back %d", len(lines), len(written)))
		}
		totals := make([]decimal.Decimal, len(written))
		for i := range written {
			totals[i] = written[i].LineTotal()
		}
		persisted := money.Sum(totals...)
		if !persisted.Equal(params.ExpectedTotal) {
			return apperror.Wrap(apperror.ErrTotalMismatch,
				fmt.Errorf("persisted %s, cart %s", persisted.String(), params.ExpectedTotal.String()))
		}

		if params.Idempotency != nil {
			params.Idempotency.InvoiceID = params.Invoice.ID
			if err := tx.Create(params.Idempotency).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		params.Invoice.ID = 0
		if apperror.IsAppError(err) {
			return 0, err
		}
		return 0, apperror.TransactionAborted(err)
	}

	return params.Invoice.ID, nil
}

func checkReferences(tx *gorm.DB, params domainRepo.CreateInvoiceParams) error {
	var clients int64
	if err := tx.Model(&entity.Client{}).Where("id = ?", params.Invoice.ClientID).Count(&clients).Error; err != nil {
		return err
	}
	if clients == 0 {
		return apperror.Integrity("client %s does not exist", params.Invoice.ClientID)
	}

	seen := make(map[uuid.UUID]struct{}, len(params.Lines))
	ids := make([]uuid.UUID, 0, len(params.Lines))
	for _, l := range params.Lines {
		if _, ok := seen[l.ProductID]; ok {
			return apperror.Integrity("product %s appears twice", l.ProductID)
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	if len(ids) == 0 {
		return nil
	}

	var found []uuid.UUID
	if err := tx.Model(&entity.Product{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	if len(found) != len(ids) {
		present := make(map[uuid.UUID]struct{}, len(found))
		for _, id := range found {
			present[id] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := present[id]; !ok {
				return apperror.Integrity("product %s does not exist", id)
			}
		}
	}
	return nil
}

func (r *invoiceRepository) GetWithLines(ctx context.Context, id uint) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("User").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Lines.Product").
		First(&invoice, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.DataUnavailable(err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, params *pagination.PaginationParams, clientID *uuid.UUID) ([]entity.Invoice, int64, error) {
	var invoices []entity.Invoice
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Invoice{})
	if clientID != nil {
		query = query.Where("client_id = ?", *clientID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperror.DataUnavailable(err)
	}

	err := query.Scopes(Paginate(params)).
		Preload("Client").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("id DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, 0, apperror.DataUnavailable(err)
	}
	return invoices, total, nil
}
