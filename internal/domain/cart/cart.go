// Package cart holds the in-memory receipt being prepared for one client.
//
// A Cart moves Empty -> Primed -> Populated -> Frozen. Once frozen it is
// read-only; Snapshot.Reopen returns a fresh, editable cart with the same
// contents.
package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/internal/domain/enum"
	"github.com/disfruleg/disfruleg-pos/pkg/apperror"
	"github.com/disfruleg/disfruleg-pos/pkg/money"
)

// State of a cart instance.
type State int

const (
	StateEmpty State = iota
	StatePrimed
	StatePopulated
	StateFrozen
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePrimed:
		return "primed"
	case StatePopulated:
		return "populated"
	case StateFrozen:
		return "frozen"
	}
	return "unknown"
}

// Prompt supplies admin credentials on demand. ok is false when the operator
// dismissed the prompt.
type Prompt interface {
	AdminCredentials(ctx context.Context) (username, password string, ok bool)
}

// Authorizer performs admin step-up for special products.
type Authorizer interface {
	RequireAdmin(ctx context.Context, prompt Prompt) (bool, error)
}

// Client is the priced client a cart is built for.
type Client struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// Line is one product in the cart. Name, unit and prices are captured when
// the line is added.
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	BasePrice decimal.Decimal `json:"base_price"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  decimal.Decimal `json:"quantity"`
	IsSpecial bool            `json:"is_special"`
}

// Total is round(quantity x unit price, 2).
func (l Line) Total() decimal.Decimal {
	return money.LineTotal(l.Quantity, l.UnitPrice)
}

// Cart is not safe for concurrent use; the receipt session serializes access.
type Cart struct {
	role   enum.Role
	auth   Authorizer
	state  State
	client *Client
	lines  []Line
	index  map[uuid.UUID]int
}

// New returns an empty cart for an operator with the given role.
func New(role enum.Role, auth Authorizer) *Cart {
	return &Cart{
		role:  role,
		auth:  auth,
		state: StateEmpty,
		index: make(map[uuid.UUID]int),
	}
}

func (c *Cart) State() State { return c.state }

// Client returns the selected client or nil.
func (c *Cart) Client() *Client {
	if c.client == nil {
		return nil
	}
	cl := *c.client
	return &cl
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int { return len(c.lines) }

// SelectClient empties the cart and primes it for client.
func (c *Cart) SelectClient(client Client) error {
	if c.state == StateFrozen {
		return apperror.ErrCartFrozen
	}
	if client.ID == uuid.Nil {
		return apperror.ErrUnknownClient
	}
	if client.DiscountPercent.IsNegative() || client.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return apperror.ErrInvalidDiscount
	}
	c.client = &client
	c.reset()
	c.state = StatePrimed
	return nil
}

// Add inserts the product or replaces its existing line in place. Special
// products added by a non-admin need one successful step-up per call.
func (c *Cart) Add(ctx context.Context, p entity.PricedProduct, qty decimal.Decimal, prompt Prompt) error {
	if c.state == StateFrozen {
		return apperror.ErrCartFrozen
	}
	if c.client == nil {
		return apperror.ErrNoClient
	}
	if p.ProductID == uuid.Nil {
		return apperror.ErrUnknownProduct
	}
	if err := money.ValidQuantity(qty); err != nil {
		return apperror.Wrap(apperror.ErrQtyNotPositive, err)
	}
	if p.IsSpecial && !c.role.IsAdmin() {
		if err := c.stepUp(ctx, prompt); err != nil {
			return err
		}
	}

	line := Line{
		ProductID: p.ProductID,
		Name:      p.Name,
		Unit:      p.Unit,
		BasePrice: p.BasePrice,
		UnitPrice: p.UnitPrice,
		Quantity:  qty,
		IsSpecial: p.IsSpecial,
	}
	if i, ok := c.index[p.ProductID]; ok {
		c.lines[i] = line
	} else {
		c.index[p.ProductID] = len(c.lines)
		c.lines = append(c.lines, line)
	}
	c.state = StatePopulated
	return nil
}

func (c *Cart) stepUp(ctx context.Context, prompt Prompt) error {
	if c.auth == nil || prompt == nil {
		return apperror.ErrSpecialDenied
	}
	ok, err := c.auth.RequireAdmin(ctx, prompt)
	if err != nil {
		return apperror.Wrap(apperror.ErrSpecialDenied, err)
	}
	if !ok {
		return apperror.ErrSpecialDenied
	}
	return nil
}

// UpdateQty replaces the quantity of an existing line.
func (c *Cart) UpdateQty(productID uuid.UUID, qty decimal.Decimal) error {
	if c.state == StateFrozen {
		return apperror.ErrCartFrozen
	}
	i, ok := c.index[productID]
	if !ok {
		return apperror.ErrNoSuchLine
	}
	if err := money.ValidQuantity(qty); err != nil {
		return apperror.Wrap(apperror.ErrQtyNotPositive, err)
	}
	c.lines[i].Quantity = qty
	return nil
}

// Remove deletes a line. Removing the last line returns the cart to Primed.
func (c *Cart) Remove(productID uuid.UUID) error {
	if c.state == StateFrozen {
		return apperror.ErrCartFrozen
	}
	i, ok := c.index[productID]
	if !ok {
		return apperror.ErrNoSuchLine
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, productID)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].ProductID] = j
	}
	if len(c.lines) == 0 {
		c.state = StatePrimed
	}
	return nil
}

// Clear empties the lines and keeps the client.
func (c *Cart) Clear() error {
	if c.state == StateFrozen {
		return apperror.ErrCartFrozen
	}
	c.reset()
	if c.client != nil {
		c.state = StatePrimed
	} else {
		c.state = StateEmpty
	}
	return nil
}

// Total is the sum of the rounded line totals.
func (c *Cart) Total() decimal.Decimal {
	return total(c.lines)
}

// Freeze makes the cart read-only and returns its snapshot.
func (c *Cart) Freeze() (*Snapshot, error) {
	if c.state == StateFrozen {
		return nil, apperror.ErrCartFrozen
	}
	if c.client == nil {
		return nil, apperror.ErrNoClient
	}
	if len(c.lines) == 0 {
		return nil, apperror.ErrEmptyCart
	}
	c.state = StateFrozen
	return &Snapshot{
		Client: *c.client,
		Lines:  c.Lines(),
		Total:  c.Total(),
		role:   c.role,
		auth:   c.auth,
	}, nil
}

func (c *Cart) reset() {
	c.lines = nil
	c.index = make(map[uuid.UUID]int)
}

func total(lines []Line) decimal.Decimal {
	totals := make([]decimal.Decimal, len(lines))
	for i := range lines {
		totals[i] = lines[i].Total()
	}
	return money.Sum(totals...)
}
