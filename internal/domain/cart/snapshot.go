package cart

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/shopspring/decimal"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/internal/domain/enum"
)

// Snapshot is the immutable content of a frozen cart.
type Snapshot struct {
	Client Client          `json:"client"`
	Lines  []Line          `json:"lines"`
	Total  decimal.Decimal `json:"total"`

	role enum.Role
	auth Authorizer
}

// Reopen returns a new Populated cart holding the snapshot's lines.
// Specials already in the snapshot are not re-authorized.
func (s *Snapshot) Reopen() *Cart {
	c := New(s.role, s.auth)
	client := s.Client
	c.client = &client
	c.lines = make([]Line, len(s.Lines))
	copy(c.lines, s.Lines)
	for i, l := range c.lines {
		c.index[l.ProductID] = i
	}
	c.state = StatePopulated
	return c
}

// InvoiceLines maps the snapshot to unsaved invoice lines in cart order.
func (s *Snapshot) InvoiceLines() []entity.InvoiceLine {
	lines := make([]entity.InvoiceLine, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = entity.InvoiceLine{
			ProductID: l.ProductID,
			Position:  i + 1,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	return lines
}

// ReceiptLines maps the snapshot to printable rows.
func (s *Snapshot) ReceiptLines() []entity.ReceiptLine {
	rows := make([]entity.ReceiptLine, len(s.Lines))
	for i, l := range s.Lines {
		rows[i] = entity.ReceiptLine{
			Name:      l.Name,
			Unit:      l.Unit,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.Total(),
			IsSpecial: l.IsSpecial,
		}
	}
	return rows
}

// Hash is a hex SHA256 over client, lines and total. Equal carts hash equal.
func (s *Snapshot) Hash() string {
	h := sha256.New()
	write := func(v string) {
		_, _ = io.WriteString(h, v)
		_, _ = h.Write([]byte{0})
	}
	write(s.Client.ID.String())
	for _, l := range s.Lines {
		write(l.ProductID.String())
		write(l.Quantity.String())
		write(l.UnitPrice.String())
	}
	write(s.Total.String())
	return hex.EncodeToString(h.Sum(nil))
}
