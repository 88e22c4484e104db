package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/disfruleg/disfruleg-pos/internal/domain/cart"
	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/internal/domain/enum"
	"github.com/disfruleg/disfruleg-pos/internal/domain/repository"
	"github.com/disfruleg/disfruleg-pos/internal/infrastructure/metrics"
	"github.com/disfruleg/disfruleg-pos/pkg/apperror"
	"github.com/disfruleg/disfruleg-pos/pkg/clock"
)

// SessionDeps are the collaborators shared by every receipt session.
type SessionDeps struct {
	Catalog    repository.CatalogRepository
	Pricing    *PricingService
	Authorizer cart.Authorizer
	Writer     *InvoiceWriter
	Receipts   *ReceiptService
	Clock      clock.Clock
	Metrics    *metrics.ReceiptMetrics
	Log        *zap.Logger
}

// ReceiptSession is one operator's receipt workflow: client selection,
// cart edits and Generate. Operations are serialized; while Generate runs
// every other mutation fails with ErrSessionBusy.
type ReceiptSession struct {
	deps SessionDeps
	auth entity.AuthSession
	log  *zap.Logger

	mu          sync.Mutex
	busy        bool
	cart        *cart.Cart
	catalog     []entity.PricedProduct
	byID        map[uuid.UUID]entity.PricedProduct
	unavailable error
	lastUsed    time.Time
}

// NewReceiptSession creates a session with an empty cart.
func NewReceiptSession(auth entity.AuthSession, deps SessionDeps) *ReceiptSession {
	return &ReceiptSession{
		deps:     deps,
		auth:     auth,
		log:      deps.Log.Named("session").With(zap.String("session_id", auth.SessionID.String())),
		cart:     cart.New(auth.Role, deps.Authorizer),
		lastUsed: deps.Clock.Now(),
	}
}

// GenerateResult is what the operator sees after Generate.
type GenerateResult struct {
	Status    enum.GenerateStatus `json:"status"`
	InvoiceID uint                `json:"invoice_id,omitempty"`
	PDFPath   string              `json:"pdf_path,omitempty"`
	Total     decimal.Decimal     `json:"total"`
	Message   string              `json:"message"`
	Replayed  bool                `json:"replayed,omitempty"`
	Err       error               `json:"-"`
}

// CartView is a read-only picture of the session cart.
type CartView struct {
	State  string          `json:"state"`
	Client *cart.Client    `json:"client,omitempty"`
	Lines  []LineView      `json:"lines"`
	Total  decimal.Decimal `json:"total"`
	Busy   bool            `json:"busy"`
}

// LineView is a cart line with its rounded total.
type LineView struct {
	cart.Line
	Total decimal.Decimal `json:"total"`
}

// Auth returns the operator session.
func (s *ReceiptSession) Auth() entity.AuthSession { return s.auth }

// LastUsed is when the session last served an operation.
func (s *ReceiptSession) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Busy reports whether Generate is in progress.
func (s *ReceiptSession) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// lock acquires the session for a mutation.
func (s *ReceiptSession) lock() error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return apperror.ErrSessionBusy
	}
	s.lastUsed = s.deps.Clock.Now()
	return nil
}

// SelectClient empties the cart and prices the catalog for clientID.
func (s *ReceiptSession) SelectClient(ctx context.Context, clientID uuid.UUID) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	client, priced, err := s.loadClient(ctx, clientID)
	if err != nil {
		return err
	}
	if err := s.cart.SelectClient(client); err != nil {
		return err
	}
	s.setCatalog(priced)
	s.log.Debug("client selected", zap.String("client_id", clientID.String()))
	return nil
}

// Refresh reloads the catalog and discount of the current client. Lines
// already in the cart keep the prices they were added with.
func (s *ReceiptSession) Refresh(ctx context.Context) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	current := s.cart.Client()
	if current == nil {
		if _, err := s.deps.Catalog.ListProducts(ctx); err != nil {
			s.unavailable = err
			return err
		}
		s.unavailable = nil
		return nil
	}

	client, priced, err := s.loadClient(ctx, current.ID)
	if err != nil {
		return err
	}
	if !client.DiscountPercent.Equal(current.DiscountPercent) {
		s.log.Info("client discount changed",
			zap.String("client_id", client.ID.String()),
			zap.String("previous", current.DiscountPercent.String()),
			zap.String("current", client.DiscountPercent.String()),
		)
	}
	s.setCatalog(priced)
	return nil
}

// loadClient reads the client, its discount and the priced catalog. Read
// failures put the session in the unavailable state.
func (s *ReceiptSession) loadClient(ctx context.Context, clientID uuid.UUID) (cart.Client, []entity.PricedProduct, error) {
	fail := func(err error) (cart.Client, []entity.PricedProduct, error) {
		if apperror.KindOf(err) == apperror.KindDataUnavailable {
			s.unavailable = err
		}
		return cart.Client{}, nil, err
	}

	c, err := s.deps.Catalog.GetClient(ctx, clientID)
	if err != nil {
		return fail(err)
	}
	if c == nil {
		return cart.Client{}, nil, apperror.ErrUnknownClient
	}
	discount, err := s.deps.Catalog.GetGroupDiscount(ctx, c.GroupID)
	if err != nil {
		return fail(err)
	}
	products, err := s.deps.Catalog.ListProducts(ctx)
	if err != nil {
		return fail(err)
	}
	priced, err := s.deps.Pricing.PriceCatalog(products, discount)
	if err != nil {
		return cart.Client{}, nil, err
	}

	s.unavailable = nil
	return cart.Client{ID: c.ID, Name: c.Name, DiscountPercent: discount}, priced, nil
}

func (s *ReceiptSession) setCatalog(priced []entity.PricedProduct) {
	s.catalog = priced
	s.byID = make(map[uuid.UUID]entity.PricedProduct, len(priced))
	for _, p := range priced {
		s.byID[p.ProductID] = p
	}
}

// Catalog returns the products priced for the selected client.
func (s *ReceiptSession) Catalog() ([]entity.PricedProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart.Client() == nil {
		return nil, apperror.ErrNoClient
	}
	out := make([]entity.PricedProduct, len(s.catalog))
	copy(out, s.catalog)
	return out, nil
}

// mutable refuses edits while catalog data is unavailable.
func (s *ReceiptSession) mutable() error {
	return s.unavailable
}

// Add puts qty of productID in the cart. Special products need an admin
// step-up through prompt unless the operator is an admin.
func (s *ReceiptSession) Add(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, prompt cart.Prompt) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return err
	}
	if s.cart.Client() == nil {
		return apperror.ErrNoClient
	}
	p, ok := s.byID[productID]
	if !ok {
		return apperror.ErrUnknownProduct
	}

	err := s.cart.Add(ctx, p, qty, prompt)
	if p.IsSpecial && !s.auth.IsAdmin() {
		switch {
		case err == nil:
			s.deps.Metrics.ObserveStepUp(true)
		case apperror.KindOf(err) == apperror.KindSpecialDenied:
			s.deps.Metrics.ObserveStepUp(false)
			s.log.Info("special product denied",
				zap.String("product_id", productID.String()),
				zap.Error(err),
			)
		}
	}
	return err
}

func (s *ReceiptSession) UpdateQty(productID uuid.UUID, qty decimal.Decimal) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	return s.cart.UpdateQty(productID, qty)
}

func (s *ReceiptSession) Remove(productID uuid.UUID) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	return s.cart.Remove(productID)
}

func (s *ReceiptSession) Clear() error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	return s.cart.Clear()
}

// Cancel discards the cart and the selected client. It is refused while
// Generate is in progress.
func (s *ReceiptSession) Cancel() error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.cart = cart.New(s.auth.Role, s.deps.Authorizer)
	s.catalog = nil
	s.byID = nil
	return nil
}

// View returns the current cart.
func (s *ReceiptSession) View() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.cart.Lines()
	view := CartView{
		State:  s.cart.State().String(),
		Client: s.cart.Client(),
		Lines:  make([]LineView, len(lines)),
		Total:  s.cart.Total(),
		Busy:   s.busy,
	}
	for i, l := range lines {
		view.Lines[i] = LineView{Line: l, Total: l.Total()}
	}
	return view
}

// Generate freezes the cart, persists it and writes the PDF. The PDF is
// only produced after the invoice committed. On persistence failure the
// cart is restored for another attempt; on success a new cart is primed
// for the same client.
func (s *ReceiptSession) Generate(ctx context.Context, idempotencyKey string) GenerateResult {
	if err := s.lock(); err != nil {
		return s.finish(outcome(err))
	}
	if err := s.mutable(); err != nil {
		s.mu.Unlock()
		return s.finish(outcome(err))
	}
	snap, err := s.cart.Freeze()
	if err != nil {
		s.mu.Unlock()
		return s.finish(outcome(err))
	}
	s.busy = true
	s.mu.Unlock()

	// From here on the work must not be abandoned halfway.
	work := context.WithoutCancel(ctx)
	date := s.deps.Clock.Now().Truncate(time.Second)

	persisted, err := s.deps.Writer.Persist(work, snap, date, s.auth.UserID, idempotencyKey)
	if err != nil {
		s.mu.Lock()
		s.cart = snap.Reopen()
		s.busy = false
		s.mu.Unlock()

		res := outcome(err)
		res.Total = snap.Total
		return s.finish(res)
	}

	res := GenerateResult{
		Status:    enum.GenerateSuccess,
		InvoiceID: persisted.InvoiceID,
		Total:     snap.Total,
		Replayed:  persisted.Replayed,
	}
	var path string
	if persisted.Replayed {
		path, err = s.deps.Receipts.Rerender(work, persisted.InvoiceID)
	} else {
		path, err = s.deps.Receipts.Write(work, s.deps.Receipts.FromSnapshot(snap, persisted.InvoiceID, date, s.auth.Username))
	}
	if err != nil {
		res.Status = enum.GeneratePartial
		res.Message = fmt.Sprintf("invoice saved as %d; PDF not produced", persisted.InvoiceID)
		res.Err = err
	} else {
		res.PDFPath = path
		res.Message = fmt.Sprintf("invoice %d saved", persisted.InvoiceID)
	}

	s.mu.Lock()
	next := cart.New(s.auth.Role, s.deps.Authorizer)
	if err := next.SelectClient(snap.Client); err != nil {
		s.log.Warn("could not prime next cart", zap.Error(err))
	}
	s.cart = next
	s.busy = false
	s.mu.Unlock()

	return s.finish(res)
}

func (s *ReceiptSession) finish(res GenerateResult) GenerateResult {
	s.deps.Metrics.ObserveGenerate(res.Status)
	fields := []zap.Field{
		zap.String("status", res.Status.String()),
		zap.Uint("invoice_id", res.InvoiceID),
	}
	if res.Err != nil {
		fields = append(fields, zap.String("kind", string(apperror.KindOf(res.Err))), zap.Error(res.Err))
	}
	s.log.Info("generate finished", fields...)
	return res
}

// outcome maps a Generate failure to what the operator is told.
func outcome(err error) GenerateResult {
	res := GenerateResult{Err: err}
	switch apperror.KindOf(err) {
	case apperror.KindValidation, apperror.KindSessionBusy, apperror.KindDataUnavailable:
		res.Status = enum.GenerateDeclined
		res.Message = reason(err)
	case apperror.KindSpecialDenied, apperror.KindNotAdmin, apperror.KindAccountLocked, apperror.KindBadCredentials:
		res.Status = enum.GenerateAborted
		res.Message = "admin authorization required/denied"
	case apperror.KindRender:
		res.Status = enum.GeneratePartial
		res.Message = "PDF not produced"
	default:
		res.Status = enum.GenerateFailed
		res.Message = "invoice not saved: " + reason(err)
	}
	return res
}

func reason(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
