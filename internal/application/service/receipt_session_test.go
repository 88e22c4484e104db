package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/internal/domain/enum"
	domainRepo "github.com/disfruleg/disfruleg-pos/internal/domain/repository"
	"github.com/disfruleg/disfruleg-pos/internal/infrastructure/metrics"
	"github.com/disfruleg/disfruleg-pos/internal/infrastructure/receipt"
	"github.com/disfruleg/disfruleg-pos/internal/infrastructure/repository"
	"github.com/disfruleg/disfruleg-pos/internal/testutil"
	"github.com/disfruleg/disfruleg-pos/pkg/apperror"
	"github.com/disfruleg/disfruleg-pos/pkg/clock"
	"github.com/disfruleg/disfruleg-pos/pkg/utils"
)

type harness struct {
	db       *gorm.DB
	f        *testutil.Fixtures
	clock    *clock.FakeClock
	fs       afero.Fs
	catalog  *toggleCatalog
	invoices domainRepo.InvoiceRepository
	writer   *InvoiceWriter
	deps     SessionDeps
}

type harnessOption func(*harness)

func withFs(fs afero.Fs) harnessOption {
	return func(h *harness) { h.fs = fs }
}

func withInvoices(wrap func(domainRepo.InvoiceRepository) domainRepo.InvoiceRepository) harnessOption {
	return func(h *harness) { h.invoices = wrap(h.invoices) }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	h := &harness{
		db:       db,
		f:        testutil.Seed(t, db),
		clock:    clock.NewFakeClock(time.Date(2024, 6, 3, 14, 5, 9, 500, time.UTC)),
		fs:       afero.NewMemMapFs(),
		catalog:  &toggleCatalog{CatalogRepository: repository.NewCatalogRepository(db)},
		invoices: repository.NewInvoiceRepository(db),
	}
	for _, opt := range opts {
		opt(h)
	}

	log := zap.NewNop()
	auth := NewAuthService(repository.NewUserRepository(db), utils.NewJWTManager("s", time.Hour), testPolicy, h.clock, log)
	h.writer = NewInvoiceWriter(h.invoices, repository.NewIdempotencyRepository(db), h.clock, log)
	h.deps = SessionDeps{
		Catalog:    h.catalog,
		Pricing:    NewPricingService(),
		Authorizer: auth,
		Writer:     h.writer,
		Receipts:   h.receipts(h.fs),
		Clock:      h.clock,
		Metrics:    metrics.New(prometheus.NewRegistry()),
		Log:        log,
	}
	return h
}

func (h *harness) receipts(fs afero.Fs) *ReceiptService {
	return NewReceiptService(h.writer, receipt.NewRenderer(time.UTC), receipt.NewStore(fs, "receipts"), "Disfruleg", nil, zap.NewNop())
}

func (h *harness) session(u entity.SystemUser) *ReceiptSession {
	return NewReceiptSession(entity.AuthSession{
		SessionID: uuid.New(),
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		LoginAt:   h.clock.Now(),
		ExpiresAt: h.clock.Now().Add(time.Hour),
	}, h.deps)
}

func (h *harness) counts(t *testing.T) (invoices, lines int64) {
	t.Helper()
	require.NoError(t, h.db.Model(&entity.Invoice{}).Count(&invoices).Error)
	require.NoError(t, h.db.Model(&entity.InvoiceLine{}).Count(&lines).Error)
	return
}

// toggleCatalog fails every read while down is set.
type toggleCatalog struct {
	domainRepo.CatalogRepository
	mu   sync.Mutex
	down bool
}

func (c *toggleCatalog) setDown(v bool) {
	c.mu.Lock()
	c.down = v
	c.mu.Unlock()
}

func (c *toggleCatalog) err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return apperror.DataUnavailable(errors.New("connection refused"))
	}
	return nil
}

func (c *toggleCatalog) ListProducts(ctx context.Context) ([]entity.Product, error) {
	if err := c.err(); err != nil {
		return nil, err
	}
	return c.CatalogRepository.ListProducts(ctx)
}

func (c *toggleCatalog) GetClient(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	if err := c.err(); err != nil {
		return nil, err
	}
	return c.CatalogRepository.GetClient(ctx, id)
}

// gatedInvoices blocks Create until release is closed.
type gatedInvoices struct {
	domainRepo.InvoiceRepository
	entered chan struct{}
	release chan struct{}
}

func (g *gatedInvoices) Create(ctx context.Context, p domainRepo.CreateInvoiceParams) (uint, error) {
	close(g.entered)
	<-g.release
	return g.InvoiceRepository.Create(ctx, p)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestGenerateHappyPathNoDiscount(t *testing.T) {
	h := newHarness(t)
	s := h.session(h.f.User)
	ctx := context.Background()

	require.NoError(t, s.SelectClient(ctx, h.f.ClientA.ID))
	require.NoError(t, s.Add(ctx, h.f.P1.ID, d("2.5"), nil))
	assert.True(t, s.View().Total.Equal(d("25.00")))

	res := s.Generate(ctx, "")
	require.Equal(t, enum.GenerateSuccess, res.Status, res.Message)
	require.NotZero(t, res.InvoiceID)
	assert.True(t, res.Total.Equal(d("25.00")))

	inv, err := h.writer.Load(ctx, res.InvoiceID)
	require.NoError(t, err)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, h.f.P1.ID, inv.Lines[0].ProductID)
	assert.True(t, inv.Lines[0].Quantity.Equal(d("2.5")))
	assert.True(t, inv.Lines[0].UnitPrice.Equal(d("10.00")))
	assert.True(t, inv.Total().Equal(d("25.00")))
	assert.Equal(t, h.f.User.ID, inv.UserID)

	exists, err := afero.Exists(h.fs, res.PDFPath)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "receipts/abarrotes-lupita_20240603_140509_1.pdf", res.PDFPath)
	pdf, err := afero.ReadFile(h.fs, res.PDFPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))

	// a new cart is primed for the same client
	view := s.View()
	assert.Equal(t, "primed", view.State)
	require.NotNil(t, view.Client)
	assert.Equal(t, h.f.ClientA.ID, view.Client.ID)
	assert.Empty(t, view.Lines)
}

func TestGenerateDiscounted(t *testing.T) {
	h := newHarness(t)
	s := h.session(h.f.User)
	ctx := context.Background()

	require.NoError(t, s.SelectClient(ctx, h.f.ClientB.ID))
	catalog, err := s.Catalog()
	require.NoError(t, err)
	for _, p := range catalog {
		if p.ProductID == h.f.P2.ID {
			assert.Equal(t, "17.00", p.UnitPrice.StringFixed(2))
		}
	}

	require.NoError(t, s.Add(ctx, h.f.P2.ID, d("3"), nil))
	res := s.Generate(ctx, "")
	require.Equal(t, enum.GenerateSuccess, res.Status, res.Message)

	inv, err := h.writer.Load(ctx, res.InvoiceID)
	require.NoError(t, err)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "17.00", inv.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "51.00", inv.Total().StringFixed(2))
}

func TestSpecialDeniedLeavesCartEmpty(t *testing.T) {
	h := newHarness(t)
	s := h.session(h.f.User)
	ctx := context.Background()

	require.NoError(t, s.SelectClient(ctx, h.f.ClientA.ID))
	denied := &staticPrompt{username: "cajero", password: testutil.UserPassword, ok: true}
	err := s.Add(ctx, h.f.Special5.ID, d("1"), denied)
	assert.Equal(t, apperror.KindSpecialDenied, apperror.KindOf(err))
	assert.ErrorIs(t, err, apperror.ErrNotAdmin)

	err = s.Add(ctx, h.f.Special5.ID, d("1"), &staticPrompt{ok: false})
	assert.ErrorIs(t, err, apperror.ErrSpecialDenied)

	assert.Empty(t, s.View().Lines)
	res := s.Generate(ctx, "")
	assert.Equal(t, enum.GenerateDeclined, res.Status)
	assert.ErrorIs(t, res.Err, apperror.ErrEmptyCart)

	inv, lines := h.counts(t)
	assert.Zero(t, inv)
	assert.Zero(t, lines)
}

func TestSpecialStepUpAuthorizesOneAdd(t *testing.T) {
	h := newHarness(t)
	s := h.session(h.f.User)
	ctx := context.Background()

	require.NoError(t, s.SelectClient(ctx, h.f.ClientC.ID))
	admin := &staticPrompt{username: "gerente", password: testutil.AdminPassword, ok: true}
	require.NoError(t, s.Add(ctx, h.f.Special100.ID, d("1"), admin))

	wrong := &staticPrompt{username: "gerente", password: "nope", ok: true}
	err := s.Add(ctx, h.f.Special5.ID, d("1"), wrong)
	assert.Equal(t, apperror.KindSpecialDenied, apperror.KindOf(err))

	view := s.View()
	require.Len(t, view.Lines, 1)
	assert.Equal(t, h.f.Special100.ID, view.Lines[0].ProductID)
	assert.Equal(t, "90.00", view.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "90.00", view.Total.StringFixed(2))

	res := s.Generate(ctx, "")
	require.Equal(t, enum.GenerateSuccess, res.Status, res.Message)
	inv, err := h.writer.Load(ctx, res.InvoiceID)
	require.NoError(t, err)
	require.Len(t, inv.Lines, 1)
	assert.True(t, inv.Lines[0].Product.IsSpecial)
}

func TestAdminAddsSpecialWithoutPrompt(t *testing.T) {
	h := newHarness(t)
	s := h.session(h.f.Admin)
	ctx := context.Background()

	require.NoError(t, s.SelectClient(ctx, h.f.NoGroup.ID))
	require.NoError(t, s.Add(ctx, h.f.Special5.ID, d("2"), nil))
	assert.Equal(t, "10.00", s.View().Total.StringFixed(2))
}

func TestPersistFailureKeepsCart(t *testing.T) {
	h := newHarness(t)
	s := h.session(h.f.User)
	ctx := context.Background()

	injected := errors.New("connection reset by peer")
	const hook = "test:lines_fail"
	require.NoError(t, h.db.Callback().Create().Before("gorm:create").Register(hook, func(tx *gorm.DB) {
		if tx.Statement.Table == "detalle_factura" {
			_ = tx.AddError(injected)
		}
	}))

	require.NoError(t, s.SelectClient(ctx, h.f.ClientA.ID))
	require.NoError(t, s.Add(ctx, h.f.P1.ID, d("2"), nil))
	require.NoError(t, s.Add(ctx, h.f.P2.ID, d("1"), nil))

	res := s.Generate(ctx, "")
	assert.Equal(t, enum.GenerateFailed, res.Status)
	assert.Zero(t, res.InvoiceID)
	assert.Contains(t, res.Message, "invoice not saved")
	assert.Equal(t, apperror.KindTransactionAborted, apperror.KindOf(res.Err))
	assert.ErrorIs(t, res.Err, injected)

	inv, lines := h.counts(t)
	assert.Zero(t, inv)
	assert.Zero(t, lines)

	view := s.View()
	assert.Equal(t, "populated", view.State)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, "40.00", view.Total.StringFixed(2))
	entries, _ := afero.ReadDir(h.fs, "receipts")
	assert.Empty(t, entries)

	// the same cart goes through once the database recovers
	require.NoError(t, h.db.Callback().Create().Remove(hook))
	res = s.Generate(ctx, "")
	require.Equal(t, enum.GenerateSuccess, res.Status, res.Message)
	inv, lines = h.counts(t)
	assert.EqualValues(t, 1, inv)
	assert.EqualValues(t, 2, lines)
}

func TestRenderFailureAfterCommit(t *testing.T) {
	h := newHarness(t, withFs(afero.NewReadOnlyFs(afero.NewMemMapFs())))
	s := h.session(h.f.User)
	ctx := context.Background()

	require.NoError(t, s.SelectClient(ctx, h.f.ClientB.ID))
	require.NoError(t, s.Add(ctx, h.f.P2.ID, d("3"), nil))

	res := s.Generate(ctx, "")
	assert.Equal(t, enum.GeneratePartial, res.Status)
	require.NotZero(t, res.InvoiceID)
	assert.Empty(t, res.PDFPath)
	assert.Equal(t, "invoice saved as 1; PDF not produced", res.Message)
	assert.Equal(t, apperror.KindRender, apperror.KindOf(res.Err))

	inv, err := h.writer.Load(ctx, res.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, "51.00", inv.Total().StringFixed(2))

	// regenerate later on a writable disk
	fs := afero.NewMemMapFs()
	path, err := h.receipts(fs).Rerender(ctx, res.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, "receipts/restaurante-el-bajio_20240603_140509_1.pdf", path)
	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.True(t, exists)

	first, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	// again, same path and same bytes
	again, err := h.receipts(fs).Rerender(ctx, res.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	second, err := afero.ReadFile(fs, again)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = h.receipts(fs).Rerender(ctx, 999)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestGenerateIgnoresRequestCancellation(t *testing.T) {
	h := newHarness(t)
	s := h.session(h.f.User)

	require.NoError(t, s.SelectClient(context.Background(), h.f.ClientA.ID))
	require.NoError(t, s.Add(context.Background(), h.f.P1.ID, d("1"), nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := s.Generate(ctx, "")
	assert.Equal(t, enum.GenerateSuccess, res.Status, res.Message)
}

func TestSessionBusyDuringGenerate(t *testing.T) {
	gate := &gatedInvoices{entered: make(chan struct{}), release: make(chan struct{})}
	h := newHarness(t, withInvoices(func(r domainRepo.InvoiceRepository) domainRepo.InvoiceRepository {
		gate.InvoiceRepository = r
		return gate
	}))
	s := h.session(h.f.User)
	ctx := context.Background()

	require.NoError(t, s.SelectClient(ctx, h.f.ClientA.ID))
	require.NoError(t, s.Add(ctx, h.f.P1.ID, d("1"), nil))

	done := make(chan GenerateResult, 1)
	go func() { done <- s.Generate(ctx, "") }()
	<-gate.entered

	assert.True(t, s.Busy())
	assert.ErrorIs(t, s.Add(ctx, h.f.P2.ID, d("1"), nil), apperror.ErrSessionBusy)
	assert.ErrorIs(t, s.Cancel(), apperror.ErrSessionBusy)
	assert.ErrorIs(t, s.SelectClient(ctx, h.f.ClientB.ID), apperror.ErrSessionBusy)
	second := s.Generate(ctx, "")
	assert.Equal(t, enum.GenerateDeclined, second.Status)
	assert.ErrorIs(t, second.Err, apperror.ErrSessionBusy)
	assert.Equal(t, "frozen", s.View().State)

	close(gate.release)
	res := <-done
	assert.Equal(t, enum.GenerateSuccess, res.Status, res.Message)
	assert.False(t, s.Busy())
	assert.NoError(t, s.Cancel())
	assert.Equal(t, "empty", s.View().State)
}

func TestCatalogUnavailableBlocksMutation(t *testing.T) {
	h := newHarness(t)
	s := h.session(h.f.User)
	ctx := context.Background()

	require.NoError(t, s.SelectClient(ctx, h.f.ClientA.ID))
	require.NoError(t, s.Add(ctx, h.f.P1.ID, d("1"), nil))

	h.catalog.setDown(true)
	err := s.Refresh(ctx)
	assert.Equal(t, apperror.KindDataUnavailable, apperror.KindOf(err))

	err = s.Add(ctx, h.f.P2.ID, d("1"), nil)
	assert.Equal(t, apperror.KindDataUnavailable, apperror.KindOf(err))
	assert.Equal(t, apperror.KindDataUnavailable, apperror.KindOf(s.UpdateQty(h.f.P1.ID, d("2"))))
	res := s.Generate(ctx, "")
	assert.Equal(t, enum.GenerateDeclined, res.Status)
	assert.Len(t, s.View().Lines, 1)

	h.catalog.setDown(false)
	require.NoError(t, s.Refresh(ctx))
	require.NoError(t, s.Add(ctx, h.f.P2.ID, d("1"), nil))
	assert.Len(t, s.View().Lines, 2)
}

func TestSelectUnknownClient(t *testing.T) {
	h := newHarness(t)
	s := h.session(h.f.User)
	ctx := context.Background()

	assert.ErrorIs(t, s.SelectClient(ctx, uuid.New()), apperror.ErrUnknownClient)
	assert.ErrorIs(t, s.Add(ctx, h.f.P1.ID, d("1"), nil), apperror.ErrNoClient)

	require.NoError(t, s.SelectClient(ctx, h.f.ClientA.ID))
	assert.ErrorIs(t, s.Add(ctx, uuid.New(), d("1"), nil), apperror.ErrUnknownProduct)
}

func TestGenerateWithIdempotencyKey(t *testing.T) {
	h := newHarness(t)
	s := h.session(h.f.User)
	ctx := context.Background()

	require.NoError(t, s.SelectClient(ctx, h.f.ClientA.ID))
	require.NoError(t, s.Add(ctx, h.f.P1.ID, d("2"), nil))
	first := s.Generate(ctx, "retry-1")
	require.Equal(t, enum.GenerateSuccess, first.Status, first.Message)

	// the client retries the same receipt
	require.NoError(t, s.Add(ctx, h.f.P1.ID, d("2"), nil))
	replay := s.Generate(ctx, "retry-1")
	require.Equal(t, enum.GenerateSuccess, replay.Status, replay.Message)
	assert.True(t, replay.Replayed)
	assert.Equal(t, first.InvoiceID, replay.InvoiceID)
	assert.Equal(t, first.PDFPath, replay.PDFPath)

	inv, _ := h.counts(t)
	assert.EqualValues(t, 1, inv)

	// same key, different receipt
	require.NoError(t, s.Add(ctx, h.f.P1.ID, d("3"), nil))
	conflict := s.Generate(ctx, "retry-1")
	assert.Equal(t, enum.GenerateDeclined, conflict.Status)
	assert.ErrorIs(t, conflict.Err, apperror.ErrKeyReused)
	assert.Len(t, s.View().Lines, 1)
}

func TestRegistry(t *testing.T) {
	h := newHarness(t)
	reg := NewSessionRegistry(h.deps, 0)
	defer reg.Stop()

	auth := entity.AuthSession{
		SessionID: uuid.New(),
		UserID:    h.f.User.ID,
		Role:      enum.RoleUser,
		ExpiresAt: h.clock.Now().Add(time.Hour),
	}
	a := reg.Get(auth)
	assert.Same(t, a, reg.Get(auth))

	other := auth
	other.SessionID = uuid.New()
	assert.NotSame(t, a, reg.Get(other))
	assert.Equal(t, 2, reg.Len())

	assert.Zero(t, reg.Sweep(h.clock.Now()))
	assert.Equal(t, 2, reg.Sweep(h.clock.Now().Add(2*time.Hour)))
	assert.Zero(t, reg.Len())
}
