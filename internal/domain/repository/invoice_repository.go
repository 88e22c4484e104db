package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/pkg/pagination"
)

// CreateInvoiceParams is everything the writer needs to persist an invoice.
type CreateInvoiceParams struct {
	Invoice       *entity.Invoice
	Lines         []entity.InvoiceLine
	ExpectedTotal decimal.Decimal
	// Idempotency is optional; when set it is stored in the same transaction.
	Idempotency *entity.IdempotencyKey
}

// InvoiceRepository persists invoices atomically.
type InvoiceRepository interface {
	// Create writes header and lines in one transaction and returns the new id.
	Create(ctx context.Context, params CreateInvoiceParams) (uint, error)
	// GetWithLines returns nil, nil when the invoice does not exist.
	GetWithLines(ctx context.Context, id uint) (*entity.Invoice, error)
	List(ctx context.Context, params *pagination.PaginationParams, clientID *uuid.UUID) ([]entity.Invoice, int64, error)
}
