package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/internal/infrastructure/receipt"
	"github.com/disfruleg/disfruleg-pos/pkg/money"
	"github.com/disfruleg/disfruleg-pos/pkg/printer"
)

const ticketDateLayout = "2006-01-02 15:04"

// PrinterService handles receipt formatting and thermal printing.
type PrinterService struct {
	printer      printer.Printer
	writer       *InvoiceWriter
	renderer     *receipt.Renderer
	businessName string
	printerType  string
	width        int
	log          *zap.Logger
}

// NewPrinterService creates a new printer service.
func NewPrinterService(
	p printer.Printer,
	writer *InvoiceWriter,
	renderer *receipt.Renderer,
	businessName string,
	printerType string,
	width int,
	log *zap.Logger,
) *PrinterService {
	return &PrinterService{
		printer:      p,
		writer:       writer,
		renderer:     renderer,
		businessName: businessName,
		printerType:  printerType,
		width:        width,
		log:          log.Named("printer"),
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus() *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printerType != "none" && s.printerType != "",
		Connected:  s.printer.IsConnected(),
		Type:       s.printerType,
	}
}

// PrintInvoice loads a persisted invoice and prints it as a ticket. The
// receipt is returned even when printing fails.
func (s *PrinterService) PrintInvoice(ctx context.Context, invoiceID uint) (*entity.Receipt, error) {
	inv, err := s.writer.Load(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	rc := invoiceReceipt(inv, s.businessName)

	data := s.FormatTicket(rc)
	if err := s.printer.Print(ctx, data); err != nil {
		s.log.Warn("ticket not printed", zap.Uint("invoice_id", invoiceID), zap.Error(err))
		return &rc, fmt.Errorf("failed to print receipt: %w", err)
	}
	return &rc, nil
}

// FormatTicket converts a Receipt into ESC/POS bytes.
func (s *PrinterService) FormatTicket(r entity.Receipt) []byte {
	doc := printer.NewDocument(s.width)

	// Header
	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(r.BusinessName).
		SetFontSize(printer.FontNormal).
		SetBold(false)

	doc.SetAlign(printer.AlignLeft).
		Separator('-')

	doc.KeyValue("Factura:", fmt.Sprintf("%d", r.InvoiceID)).
		KeyValue("Fecha:", r.Date.In(s.renderer.Location()).Format(ticketDateLayout)).
		KeyValue("Cliente:", r.ClientName)
	if r.Operator != "" {
		doc.KeyValue("Atendio:", r.Operator)
	}

	doc.Separator('-')

	// Items
	for _, item := range r.Lines {
		name := item.Name
		if item.IsSpecial {
			name = receipt.SpecialPrefix + name
		}
		doc.ItemLine(money.FormatQuantity(item.Quantity)+item.Unit, name, money.Format(item.Total))
		doc.TextF("  @ %s", money.Format(item.UnitPrice))
	}

	doc.Separator('-')

	doc.SetBold(true).
		KeyValue("TOTAL:", money.Format(r.Total)).
		SetBold(false)

	doc.Separator('-')

	// Footer
	doc.SetAlign(printer.AlignCenter).
		FeedLines(1).
		Text("Gracias por su compra").
		FeedLines(1).
		SetAlign(printer.AlignLeft)

	doc.FeedLines(3).
		PartialCut()

	return doc.Bytes()
}
