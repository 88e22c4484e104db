package cart

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/internal/domain/enum"
	"github.com/disfruleg/disfruleg-pos/pkg/apperror"
)

type scriptedAuth struct {
	answers []bool
	err     error
	calls   int
}

func (a *scriptedAuth) RequireAdmin(ctx context.Context, prompt Prompt) (bool, error) {
	a.calls++
	if a.err != nil {
		return false, a.err
	}
	if len(a.answers) == 0 {
		return false, nil
	}
	ok := a.answers[0]
	a.answers = a.answers[1:]
	return ok, nil
}

type noPrompt struct{}

func (noPrompt) AdminCredentials(ctx context.Context) (string, string, bool) {
	return "", "", false
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func priced(name, price string, special bool) entity.PricedProduct {
	return entity.PricedProduct{
		ProductID: uuid.New(),
		Name:      name,
		Unit:      "kg",
		BasePrice: dec(price),
		UnitPrice: dec(price),
		IsSpecial: special,
	}
}

func primed(t *testing.T, role enum.Role, auth Authorizer) *Cart {
	t.Helper()
	c := New(role, auth)
	require.NoError(t, c.SelectClient(Client{ID: uuid.New(), Name: "Abarrotes Lupita"}))
	return c
}

func TestStateTransitions(t *testing.T) {
	ctx := context.Background()
	c := New(enum.RoleUser, nil)
	assert.Equal(t, StateEmpty, c.State())

	p := priced("Jitomate", "10.00", false)
	err := c.Add(ctx, p, dec("1"), nil)
	assert.ErrorIs(t, err, apperror.ErrNoClient)

	require.NoError(t, c.SelectClient(Client{ID: uuid.New(), Name: "A"}))
	assert.Equal(t, StatePrimed, c.State())

	require.NoError(t, c.Add(ctx, p, dec("2.5"), nil))
	assert.Equal(t, StatePopulated, c.State())
	assert.True(t, c.Total().Equal(dec("25.00")))

	require.NoError(t, c.Clear())
	assert.Equal(t, StatePrimed, c.State())
	assert.Zero(t, c.Len())

	require.NoError(t, c.Add(ctx, p, dec("1"), nil))
	require.NoError(t, c.Remove(p.ProductID))
	assert.Equal(t, StatePrimed, c.State())
}

func TestSelectClientEmptiesCart(t *testing.T) {
	c := primed(t, enum.RoleUser, nil)
	require.NoError(t, c.Add(context.Background(), priced("Jitomate", "10", false), dec("1"), nil))

	require.NoError(t, c.SelectClient(Client{ID: uuid.New(), Name: "B"}))
	assert.Zero(t, c.Len())
	assert.Equal(t, "B", c.Client().Name)

	assert.ErrorIs(t, c.SelectClient(Client{}), apperror.ErrUnknownClient)
	assert.ErrorIs(t, c.SelectClient(Client{ID: uuid.New(), DiscountPercent: dec("101")}), apperror.ErrInvalidDiscount)
}

func TestAddReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	c := primed(t, enum.RoleUser, nil)
	a := priced("Aguacate", "20", false)
	b := priced("Jitomate", "10", false)
	require.NoError(t, c.Add(ctx, a, dec("1"), nil))
	require.NoError(t, c.Add(ctx, b, dec("1"), nil))

	a.UnitPrice = dec("18")
	require.NoError(t, c.Add(ctx, a, dec("3"), nil))

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, a.ProductID, lines[0].ProductID)
	assert.True(t, lines[0].Quantity.Equal(dec("3")))
	assert.True(t, lines[0].UnitPrice.Equal(dec("18")))
	assert.True(t, c.Total().Equal(dec("64")))
}

func TestQuantityValidation(t *testing.T) {
	ctx := context.Background()
	c := primed(t, enum.RoleUser, nil)
	p := priced("Jitomate", "10", false)

	for _, q := range []string{"0", "-1", "1.0005"} {
		err := c.Add(ctx, p, dec(q), nil)
		assert.ErrorIs(t, err, apperror.ErrQtyNotPositive, q)
	}
	assert.Zero(t, c.Len())

	require.NoError(t, c.Add(ctx, p, dec("0.125"), nil))
	assert.ErrorIs(t, c.UpdateQty(p.ProductID, dec("0")), apperror.ErrQtyNotPositive)
	assert.ErrorIs(t, c.UpdateQty(uuid.New(), dec("1")), apperror.ErrNoSuchLine)
	assert.ErrorIs(t, c.Remove(uuid.New()), apperror.ErrNoSuchLine)

	require.NoError(t, c.UpdateQty(p.ProductID, dec("4")))
	assert.True(t, c.Total().Equal(dec("40")))
}

func TestRemoveKeepsOrder(t *testing.T) {
	ctx := context.Background()
	c := primed(t, enum.RoleUser, nil)
	ps := []entity.PricedProduct{priced("a", "1", false), priced("b", "2", false), priced("c", "3", false)}
	for _, p := range ps {
		require.NoError(t, c.Add(ctx, p, dec("1"), nil))
	}
	require.NoError(t, c.Remove(ps[0].ProductID))
	require.NoError(t, c.UpdateQty(ps[2].ProductID, dec("2")))

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "b", lines[0].Name)
	assert.Equal(t, "c", lines[1].Name)
	assert.True(t, lines[1].Quantity.Equal(dec("2")))
}

func TestFrozenCartRejectsMutation(t *testing.T) {
	ctx := context.Background()
	c := primed(t, enum.RoleUser, nil)
	p := priced("Jitomate", "10", false)
	require.NoError(t, c.Add(ctx, p, dec("1"), nil))

	snap, err := c.Freeze()
	require.NoError(t, err)
	assert.Equal(t, StateFrozen, c.State())
	assert.True(t, snap.Total.Equal(dec("10")))

	assert.ErrorIs(t, c.Add(ctx, p, dec("2"), nil), apperror.ErrCartFrozen)
	assert.ErrorIs(t, c.UpdateQty(p.ProductID, dec("2")), apperror.ErrCartFrozen)
	assert.ErrorIs(t, c.Remove(p.ProductID), apperror.ErrCartFrozen)
	assert.ErrorIs(t, c.Clear(), apperror.ErrCartFrozen)
	assert.ErrorIs(t, c.SelectClient(Client{ID: uuid.New()}), apperror.ErrCartFrozen)
	_, err = c.Freeze()
	assert.ErrorIs(t, err, apperror.ErrCartFrozen)

	// reads still work
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Total().Equal(dec("10")))
}

func TestFreezeErrors(t *testing.T) {
	_, err := New(enum.RoleUser, nil).Freeze()
	assert.ErrorIs(t, err, apperror.ErrNoClient)

	_, err = primed(t, enum.RoleUser, nil).Freeze()
	assert.ErrorIs(t, err, apperror.ErrEmptyCart)
}

func TestSnapshotReopen(t *testing.T) {
	ctx := context.Background()
	c := primed(t, enum.RoleUser, nil)
	a := priced("a", "1.50", false)
	b := priced("b", "2.25", false)
	require.NoError(t, c.Add(ctx, a, dec("2"), nil))
	require.NoError(t, c.Add(ctx, b, dec("1"), nil))
	snap, err := c.Freeze()
	require.NoError(t, err)

	reopened := snap.Reopen()
	assert.Equal(t, StatePopulated, reopened.State())
	assert.True(t, reopened.Total().Equal(snap.Total))
	require.NoError(t, reopened.UpdateQty(b.ProductID, dec("3")))
	assert.True(t, snap.Lines[1].Quantity.Equal(dec("1")), "snapshot must not alias the reopened cart")

	again, err := reopened.Freeze()
	require.NoError(t, err)
	assert.NotEqual(t, snap.Hash(), again.Hash())

	lines := snap.InvoiceLines()
	require.Len(t, lines, 2)
	assert.Equal(t, 2, lines[1].Position)
	assert.True(t, lines[0].UnitPrice.Equal(dec("1.50")))
}

func TestSnapshotHashIsStable(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	p := priced("a", "1.50", false)
	build := func() *Snapshot {
		c := New(enum.RoleAdmin, nil)
		require.NoError(t, c.SelectClient(Client{ID: clientID, Name: "A"}))
		require.NoError(t, c.Add(ctx, p, dec("2"), nil))
		s, err := c.Freeze()
		require.NoError(t, err)
		return s
	}
	assert.Equal(t, build().Hash(), build().Hash())
	assert.Len(t, build().Hash(), 64)
}

func TestSpecialGateDenied(t *testing.T) {
	auth := &scriptedAuth{answers: []bool{false}}
	c := primed(t, enum.RoleUser, auth)

	err := c.Add(context.Background(), priced("Trufa", "5.00", true), dec("1"), noPrompt{})
	assert.ErrorIs(t, err, apperror.ErrSpecialDenied)
	assert.Equal(t, apperror.KindSpecialDenied, apperror.KindOf(err))
	assert.Equal(t, 1, auth.calls)
	assert.Zero(t, c.Len())
	assert.Equal(t, StatePrimed, c.State())
}

func TestSpecialGateOneStepUpPerAdd(t *testing.T) {
	ctx := context.Background()
	auth := &scriptedAuth{answers: []bool{true, false}}
	c := primed(t, enum.RoleUser, auth)

	first := priced("Azafran", "90.00", true)
	require.NoError(t, c.Add(ctx, first, dec("1"), noPrompt{}))
	err := c.Add(ctx, priced("Trufa", "5.00", true), dec("1"), noPrompt{})
	assert.ErrorIs(t, err, apperror.ErrSpecialDenied)

	assert.Equal(t, 2, auth.calls)
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, first.ProductID, lines[0].ProductID)
	assert.True(t, c.Total().Equal(dec("90.00")))

	// re-adding an admitted special asks again
	err = c.Add(ctx, first, dec("2"), noPrompt{})
	assert.ErrorIs(t, err, apperror.ErrSpecialDenied)
	assert.True(t, c.Lines()[0].Quantity.Equal(dec("1")))
}

func TestSpecialGateErrorsAreDenials(t *testing.T) {
	auth := &scriptedAuth{err: apperror.ErrNotAdmin}
	c := primed(t, enum.RoleUser, auth)

	err := c.Add(context.Background(), priced("Trufa", "5", true), dec("1"), noPrompt{})
	assert.Equal(t, apperror.KindSpecialDenied, apperror.KindOf(err))
	assert.ErrorIs(t, err, apperror.ErrNotAdmin)

	// without an authorizer nobody can admit a special
	c = primed(t, enum.RoleUser, nil)
	err = c.Add(context.Background(), priced("Trufa", "5", true), dec("1"), noPrompt{})
	assert.ErrorIs(t, err, apperror.ErrSpecialDenied)
}

func TestAdminSkipsStepUp(t *testing.T) {
	auth := &scriptedAuth{}
	c := primed(t, enum.RoleAdmin, auth)
	require.NoError(t, c.Add(context.Background(), priced("Trufa", "5", true), dec("1"), nil))
	assert.Zero(t, auth.calls)
}

// Totals are checked against an integer oracle: quantities in thousandths,
// prices in cents, half-up to cents on each line.
func TestTotalHasNoDrift(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(20240603))

	for i := 0; i < 10000; i++ {
		c := primed(t, enum.RoleAdmin, nil)
		var expectCents int64
		n := 1 + rng.Intn(12)
		for j := 0; j < n; j++ {
			milli := 1 + rng.Int63n(500000) // up to 500.000
			cents := rng.Int63n(100000)     // up to 999.99
			p := entity.PricedProduct{
				ProductID: uuid.New(),
				Name:      "p",
				UnitPrice: decimal.New(cents, -2),
			}
			require.NoError(t, c.Add(ctx, p, decimal.New(milli, -3), nil))

			raw := milli * cents // units of 1e-5
			expectCents += (raw + 500) / 1000
		}
		require.True(t, c.Total().Equal(decimal.New(expectCents, -2)),
			"cart %d: got %s want %d cents", i, c.Total().String(), expectCents)
	}
}
