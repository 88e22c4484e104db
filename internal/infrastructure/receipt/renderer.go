// Package receipt renders receipts to PDF and stores them on disk.
package receipt

import (
	"fmt"
	"sync"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	marotoentity "github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/phpdave11/gofpdf"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/pkg/money"
)

// SpecialPrefix marks special products on printed receipts.
const SpecialPrefix = "[SPECIAL] "

const dateLayout = "2006-01-02 15:04:05"

// gofpdf takes the catalog order and ModDate from process-wide defaults
// when maroto.New builds its document; docMu keeps renders from racing on
// them.
var (
	docMu    sync.Mutex
	sortOnce sync.Once
)

func newDocument(cfg *marotoentity.Config, date time.Time) core.Maroto {
	sortOnce.Do(func() { gofpdf.SetDefaultCatalogSort(true) })

	docMu.Lock()
	defer docMu.Unlock()
	gofpdf.SetDefaultModificationDate(date)
	return maroto.New(cfg)
}

// Renderer lays out a receipt as a PDF document.
type Renderer struct {
	loc *time.Location
}

// NewRenderer creates a renderer printing dates in loc (UTC when nil).
func NewRenderer(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{loc: loc}
}

// Location is the zone dates are printed in.
func (r *Renderer) Location() *time.Location {
	return r.loc
}

// FileName is FileName for rc with the date in the renderer's zone.
func (r *Renderer) FileName(rc entity.Receipt) string {
	return FileName(rc.ClientName, rc.Date.In(r.loc), rc.InvoiceID)
}

// Render returns the PDF bytes for rc. The document creation date is the
// receipt date, so rendering the same receipt twice yields the same content.
func (r *Renderer) Render(rc entity.Receipt) ([]byte, error) {
	date := rc.Date.In(r.loc)

	cfg := config.NewBuilder().
		WithCreationDate(date).
		WithCreator(rc.BusinessName, true).
		WithTitle(fmt.Sprintf("Recibo %d", rc.InvoiceID), true).
		WithPageNumber(props.PageNumber{
			Pattern: "Pagina {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := newDocument(cfg, date)

	// Header
	m.AddRow(14,
		text.NewCol(12, rc.BusinessName, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	m.AddRow(18,
		col.New(8).Add(
			text.New("Cliente: "+rc.ClientName, props.Text{Size: 10, Top: 0}),
			text.New("Fecha: "+date.Format(dateLayout), props.Text{Size: 10, Top: 5}),
		),
		col.New(4).Add(
			text.New(fmt.Sprintf("Factura No. %d", rc.InvoiceID), props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
			text.New(operatorLine(rc.Operator), props.Text{Size: 8, Top: 5, Align: align.Right}),
		),
	)

	// Table
	header := props.Text{Style: fontstyle.Bold, Size: 9}
	headerRight := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}
	m.AddRow(8,
		text.NewCol(5, "Producto", header),
		text.NewCol(2, "Cantidad", headerRight),
		text.NewCol(1, "Unidad", header),
		text.NewCol(2, "Precio", headerRight),
		text.NewCol(2, "Importe", headerRight),
	)

	cell := props.Text{Size: 9}
	cellRight := props.Text{Size: 9, Align: align.Right}
	for _, line := range rc.Lines {
		m.AddRow(7,
			text.NewCol(5, lineName(line), cell),
			text.NewCol(2, money.FormatQuantity(line.Quantity), cellRight),
			text.NewCol(1, line.Unit, cell),
			text.NewCol(2, money.Format(line.UnitPrice), cellRight),
			text.NewCol(2, money.Format(line.Total), cellRight),
		)
	}

	// Footer
	m.AddRow(12,
		col.New(8),
		text.NewCol(2, "TOTAL", props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right, Top: 3}),
		text.NewCol(2, money.Format(rc.Total), props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right, Top: 3}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("receipt: generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func lineName(l entity.ReceiptLine) string {
	if l.IsSpecial {
		return SpecialPrefix + l.Name
	}
	return l.Name
}

func operatorLine(operator string) string {
	if operator == "" {
		return ""
	}
	return "Atendio: " + operator
}
