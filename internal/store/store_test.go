package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fjod/storefront-cart/internal/domain"
	"github.com/fjod/storefront-cart/internal/storage"
	"github.com/fjod/storefront-cart/internal/storage/memory"
	"github.com/fjod/storefront-cart/internal/storage/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type failingStorage struct {
	getErr error
	setErr error
}

func (f failingStorage) Get(context.Context, string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return nil, storage.ErrNotFound
}

func (f failingStorage) Set(context.Context, string, []byte) error { return f.setErr }

func (f failingStorage) Delete(context.Context, string) error { return f.setErr }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLoad_Missing(t *testing.T) {
	s := New(memory.New())

	cart := s.Load(context.Background())
	assert.True(t, cart.IsEmpty())
}

func TestLoad_MalformedIsEmptyAndLogged(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	st := memory.New()
	require.NoError(t, st.Set(ctx, DefaultKey, []byte(`[{"name":"Lamp",`)))
	s := New(st, WithLogger(zap.New(core)))

	cart := s.Load(ctx)

	assert.True(t, cart.IsEmpty())
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "discarding malformed cart", entry.Message)
	var logged error
	for _, f := range entry.Context {
		if f.Key == "error" {
			logged, _ = f.Interface.(error)
		}
	}
	assert.ErrorIs(t, logged, domain.ErrMalformedStorage)
}

func TestLoad_StorageErrorIsEmpty(t *testing.T) {
	s := New(failingStorage{getErr: errors.New("connection refused")})

	cart := s.Load(context.Background())
	assert.True(t, cart.IsEmpty())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	backends := map[string]func(t *testing.T) storage.Storage{
		"memory": func(*testing.T) storage.Storage { return memory.New() },
		"sqlite": func(t *testing.T) storage.Storage {
			s, err := sqlite.Open(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}

	cart := domain.Cart{Items: []domain.LineItem{
		{Name: "Lamp", UnitPrice: dec("10.00"), Image: "lamp.png", Quantity: 2},
		{Name: "Desk", UnitPrice: dec("249.5"), Image: "desk.png", Quantity: 1},
		{Name: "Pen", UnitPrice: dec("0.99"), Image: "", Quantity: 12},
	}}

	for name, newStorage := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(newStorage(t))

			require.NoError(t, s.Save(ctx, cart))
			got := s.Load(ctx)

			assert.True(t, cart.Equal(got), "got %+v", got)
		})
	}
}

func TestAddItem_PersistsAfterEveryCall(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New())

	for i := 0; i < 4; i++ {
		_, err := s.AddItem(ctx, fmt.Sprintf("product-%d", i), "$3.50", "")
		require.NoError(t, err)
	}
	cart, err := s.AddItem(ctx, "product-0", "$3.50", "")
	require.NoError(t, err)

	assert.Len(t, cart.Items, 4)
	assert.Equal(t, 5, s.TotalQuantity(ctx))
	assert.True(t, cart.Equal(s.Load(ctx)))
}

func TestAddItem_InvalidPriceSavesNothing(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New())
	before, err := s.AddItem(ctx, "Lamp", "$10", "lamp.png")
	require.NoError(t, err)

	got, err := s.AddItem(ctx, "Chair", "N/A", "chair.png")

	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
	assert.True(t, before.Equal(got))
	assert.True(t, before.Equal(s.Load(ctx)))
}

func TestSetQuantity_ClampsAndPersists(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New())
	_, err := s.AddItem(ctx, "Lamp", "$10", "lamp.png")
	require.NoError(t, err)

	cart, err := s.SetQuantity(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Items[0].Quantity)

	_, err = s.SetQuantity(ctx, 0, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Load(ctx).Items[0].Quantity)
}

func TestRemoveItem_OutOfRangeLeavesCart(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New())
	before, err := s.AddItem(ctx, "Lamp", "$10", "lamp.png")
	require.NoError(t, err)

	got, err := s.RemoveItem(ctx, 5)

	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
	assert.True(t, before.Equal(got))
	assert.True(t, before.Equal(s.Load(ctx)))

	_, err = s.SetQuantity(ctx, -1, 3)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
}

func TestRemoveItem_LastItemLeavesEmptyArray(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	s := New(st)
	_, err := s.AddItem(ctx, "Lamp", "$10", "lamp.png")
	require.NoError(t, err)

	cart, err := s.RemoveItem(ctx, 0)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	raw, err := st.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestSave_ErrorIsReturned(t *testing.T) {
	ctx := context.Background()
	s := New(failingStorage{setErr: errors.New("disk full")})

	_, err := s.AddItem(ctx, "Lamp", "$10", "lamp.png")
	assert.ErrorContains(t, err, "disk full")
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New())
	_, err := s.AddItem(ctx, "Lamp", "$10", "lamp.png")
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))

	assert.True(t, s.Load(ctx).IsEmpty())
	assert.Equal(t, 0, s.TotalQuantity(ctx))
}

func TestTotals(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New())

	empty := s.Totals(ctx)
	assert.True(t, empty.Total.IsZero())

	_, err := s.AddItem(ctx, "Lamp", "$10.00", "lamp.png")
	require.NoError(t, err)
	_, err = s.AddItem(ctx, "Lamp", "$10.00", "lamp.png")
	require.NoError(t, err)

	totals := s.Totals(ctx)
	assert.True(t, dec("20").Equal(totals.Subtotal))
	assert.True(t, dec("49.99").Equal(totals.Shipping))
	assert.True(t, dec("1.6").Equal(totals.Tax))
	assert.True(t, dec("71.59").Equal(totals.Total))
}

func TestWithKeyAndPricing(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	s := New(st, WithKey("cart:session-1"), WithPricing(domain.Pricing{ShippingFee: dec("0"), TaxRate: dec("0")}))

	_, err := s.AddItem(ctx, "Lamp", "$10", "lamp.png")
	require.NoError(t, err)

	_, err = st.Get(ctx, "cart:session-1")
	assert.NoError(t, err)
	_, err = st.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.True(t, dec("10").Equal(s.Totals(ctx).Total))
	assert.Equal(t, "cart:session-1", s.Key())
}

// flakyStorage fails the next getFailures reads, then delegates.
type flakyStorage struct {
	storage.Storage
	getFailures int
	sets        int
}

func (f *flakyStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getFailures > 0 {
		f.getFailures--
		return nil, errors.New("i/o timeout")
	}
	return f.Storage.Get(ctx, key)
}

func (f *flakyStorage) Set(ctx context.Context, key string, value []byte) error {
	f.sets++
	return f.Storage.Set(ctx, key, value)
}

func TestUpdate_ReadErrorKeepsPersistedCart(t *testing.T) {
	ctx := context.Background()
	st := &flakyStorage{Storage: memory.New()}
	s := New(st)

	_, err := s.AddItem(ctx, "Sofa", "$499.00", "sofa.png")
	require.NoError(t, err)
	_, err = s.AddItem(ctx, "Chair", "$89.00", "chair.png")
	require.NoError(t, err)
	_, err = s.SetQuantity(ctx, 1, 2)
	require.NoError(t, err)
	setsBefore := st.sets

	st.getFailures = 1
	_, err = s.AddItem(ctx, "Lamp", "$10.00", "lamp.png")
	require.ErrorContains(t, err, "i/o timeout")

	st.getFailures = 1
	_, err = s.RemoveItem(ctx, 0)
	require.Error(t, err)

	assert.Equal(t, setsBefore, st.sets, "nothing saved after a failed read")
	cart := s.Load(ctx)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.TotalQuantity())
	assert.Equal(t, -1, cart.IndexOf("Lamp"))
}

func TestUpdate_MalformedIsOverwritten(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	require.NoError(t, st.Set(ctx, DefaultKey, []byte(`{broken`)))
	s := New(st)

	cart, err := s.AddItem(ctx, "Lamp", "$10.00", "lamp.png")
	require.NoError(t, err)
	assert.Equal(t, 1, cart.TotalQuantity())
	assert.True(t, cart.Equal(s.Load(ctx)))
}
