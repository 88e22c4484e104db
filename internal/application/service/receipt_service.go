package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/disfruleg/disfruleg-pos/internal/domain/cart"
	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/internal/infrastructure/metrics"
	"github.com/disfruleg/disfruleg-pos/internal/infrastructure/receipt"
	"github.com/disfruleg/disfruleg-pos/pkg/apperror"
	"github.com/disfruleg/disfruleg-pos/pkg/money"
)

// ReceiptService renders receipt PDFs and stores them.
type ReceiptService struct {
	writer       *InvoiceWriter
	renderer     *receipt.Renderer
	store        *receipt.Store
	businessName string
	metrics      *metrics.ReceiptMetrics
	log          *zap.Logger
}

// NewReceiptService creates a new receipt service
func NewReceiptService(
	writer *InvoiceWriter,
	renderer *receipt.Renderer,
	store *receipt.Store,
	businessName string,
	m *metrics.ReceiptMetrics,
	log *zap.Logger,
) *ReceiptService {
	return &ReceiptService{
		writer:       writer,
		renderer:     renderer,
		store:        store,
		businessName: businessName,
		metrics:      m,
		log:          log.Named("receipt"),
	}
}

// FromSnapshot composes the receipt of a just-persisted cart.
func (s *ReceiptService) FromSnapshot(snap *cart.Snapshot, invoiceID uint, date time.Time, operator string) entity.Receipt {
	return entity.Receipt{
		BusinessName: s.businessName,
		InvoiceID:    invoiceID,
		Date:         date,
		ClientName:   snap.Client.Name,
		Operator:     operator,
		Lines:        snap.ReceiptLines(),
		Total:        snap.Total,
	}
}

// FromInvoice composes the receipt of a persisted invoice.
func (s *ReceiptService) FromInvoice(inv *entity.Invoice) entity.Receipt {
	return invoiceReceipt(inv, s.businessName)
}

func invoiceReceipt(inv *entity.Invoice, businessName string) entity.Receipt {
	rc := entity.Receipt{
		BusinessName: businessName,
		InvoiceID:    inv.ID,
		Date:         inv.Date,
		Lines:        make([]entity.ReceiptLine, 0, len(inv.Lines)),
		Total:        inv.Total(),
	}
	if inv.Client != nil {
		rc.ClientName = inv.Client.Name
	}
	if inv.User != nil {
		rc.Operator = inv.User.Username
	}
	for i := range inv.Lines {
		l := &inv.Lines[i]
		row := entity.ReceiptLine{
			Name:      "Producto",
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.LineTotal(),
		}
		if l.Product != nil {
			row.Name = l.Product.Name
			row.Unit = l.Product.Unit
			row.IsSpecial = l.Product.IsSpecial
		}
		rc.Lines = append(rc.Lines, row)
	}
	return rc
}

// Write renders rc and stores it under its deterministic file name.
// Failures are RenderError; the invoice itself is untouched.
func (s *ReceiptService) Write(ctx context.Context, rc entity.Receipt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperror.Render(err)
	}

	start := time.Now()
	data, err := s.renderer.Render(rc)
	if err != nil {
		return "", apperror.Render(err)
	}
	path, err := s.store.Save(s.renderer.FileName(rc), data)
	if err != nil {
		s.log.Error("receipt pdf not stored",
			zap.Uint("invoice_id", rc.InvoiceID),
			zap.Error(err),
		)
		return "", apperror.Render(err)
	}
	s.metrics.ObserveRender(time.Since(start))

	s.log.Info("receipt pdf written",
		zap.Uint("invoice_id", rc.InvoiceID),
		zap.String("path", path),
		zap.String("total", money.Plain(rc.Total)),
	)
	return path, nil
}

// Rerender regenerates the PDF of a persisted invoice. The path only depends
// on the invoice, so repeated calls overwrite the same file.
func (s *ReceiptService) Rerender(ctx context.Context, invoiceID uint) (string, error) {
	inv, err := s.writer.Load(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	return s.Write(ctx, s.FromInvoice(inv))
}
