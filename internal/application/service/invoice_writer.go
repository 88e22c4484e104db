package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/disfruleg/disfruleg-pos/internal/domain/cart"
	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/internal/domain/repository"
	"github.com/disfruleg/disfruleg-pos/pkg/apperror"
	"github.com/disfruleg/disfruleg-pos/pkg/clock"
	"github.com/disfruleg/disfruleg-pos/pkg/pagination"
)

// InvoiceWriter turns frozen carts into persisted invoices.
type InvoiceWriter struct {
	invoices repository.InvoiceRepository
	keys     repository.IdempotencyRepository
	clock    clock.Clock
	log      *zap.Logger
}

// NewInvoiceWriter creates a new invoice writer
func NewInvoiceWriter(
	invoices repository.InvoiceRepository,
	keys repository.IdempotencyRepository,
	clk clock.Clock,
	log *zap.Logger,
) *InvoiceWriter {
	return &InvoiceWriter{
		invoices: invoices,
		keys:     keys,
		clock:    clk,
		log:      log.Named("invoice_writer"),
	}
}

// PersistResult is the outcome of a successful Persist.
type PersistResult struct {
	InvoiceID uint
	// Replayed is true when an earlier invoice was returned for the same
	// idempotency key and nothing new was written.
	Replayed bool
}

// Persist writes the snapshot as one invoice dated date. Once called it runs
// to commit or rollback even if ctx is cancelled. A non-empty key makes
// retries with the same key and cart return the first invoice.
func (w *InvoiceWriter) Persist(ctx context.Context, snap *cart.Snapshot, date time.Time, userID uuid.UUID, key string) (*PersistResult, error) {
	ctx = context.WithoutCancel(ctx)
	key = strings.TrimSpace(key)
	hash := snap.Hash()

	var record *entity.IdempotencyKey
	if key != "" {
		now := w.clock.Now()
		purged, err := w.keys.Purge(ctx, now)
		if err != nil {
			return nil, apperror.TransactionAborted(err)
		}
		if purged > 0 {
			w.log.Debug("expired idempotency keys purged", zap.Int64("count", purged))
		}
		existing, err := w.keys.Find(ctx, userID, key)
		if err != nil {
			return nil, apperror.TransactionAborted(err)
		}
		if existing != nil {
			if existing.RequestHash != hash {
				return nil, apperror.ErrKeyReused
			}
			w.log.Info("generate replayed",
				zap.String("idempotency_key", key),
				zap.Uint("invoice_id", existing.InvoiceID),
			)
			return &PersistResult{InvoiceID: existing.InvoiceID, Replayed: true}, nil
		}
		record = &entity.IdempotencyKey{
			Key:         key,
			UserID:      userID,
			RequestHash: hash,
			ExpiresAt:   now.Add(entity.IdempotencyTTL),
		}
	}

	invoice := &entity.Invoice{
		Date:     date,
		ClientID: snap.Client.ID,
		UserID:   userID,
	}
	id, err := w.invoices.Create(ctx, repository.CreateInvoiceParams{
		Invoice:       invoice,
		Lines:         snap.InvoiceLines(),
		ExpectedTotal: snap.Total,
		Idempotency:   record,
	})
	if err != nil {
		if errors.Is(err, apperror.ErrTotalMismatch) {
			w.log.Error("persisted total does not match cart total, invoice rolled back",
				zap.String("client_id", snap.Client.ID.String()),
				zap.String("cart_total", snap.Total.String()),
				zap.Error(err),
			)
		} else {
			w.log.Warn("invoice not saved",
				zap.String("client_id", snap.Client.ID.String()),
				zap.String("kind", string(apperror.KindOf(err))),
				zap.Error(err),
			)
		}
		return nil, err
	}

	w.log.Info("invoice saved",
		zap.Uint("invoice_id", id),
		zap.String("client_id", snap.Client.ID.String()),
		zap.Int("lines", len(snap.Lines)),
		zap.String("total", snap.Total.StringFixed(2)),
	)
	return &PersistResult{InvoiceID: id}, nil
}

// Load returns a persisted invoice with client, user, lines and products.
func (w *InvoiceWriter) Load(ctx context.Context, id uint) (*entity.Invoice, error) {
	invoice, err := w.invoices.GetWithLines(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return invoice, nil
}

// List returns invoices newest first, optionally for one client.
func (w *InvoiceWriter) List(ctx context.Context, params *pagination.PaginationParams, clientID *uuid.UUID) ([]entity.Invoice, int64, error) {
	return w.invoices.List(ctx, params, clientID)
}
