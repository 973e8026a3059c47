package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/coinsentry/tracker-agent/internal/service/marketdata"
	"github.com/coinsentry/tracker-agent/internal/store"
	"github.com/coinsentry/tracker-agent/pkg/decimalx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ============ Mock 定义 ============

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, ticker string) (string, error) {
	args := m.Called(ctx, ticker)
	return args.String(0), args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SimplePrices(ctx context.Context, ids []string) (map[string]marketdata.Quote, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[string]marketdata.Quote), args.Error(1)
}

func (m *MockProvider) Search(ctx context.Context, query string) ([]marketdata.SearchResult, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]marketdata.SearchResult), args.Error(1)
}

func (m *MockProvider) Trending(ctx context.Context) ([]marketdata.TrendingCoin, error) {
	args := m.Called(ctx)
	return args.Get(0).([]marketdata.TrendingCoin), args.Error(1)
}

func (m *MockProvider) OHLC(ctx context.Context, id string, days int) ([]marketdata.Candle, error) {
	args := m.Called(ctx, id, days)
	return args.Get(0).([]marketdata.Candle), args.Error(1)
}

func (m *MockProvider) CoinDetail(ctx context.Context, id string) (marketdata.Detail, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(marketdata.Detail), args.Error(1)
}

func newDeps(t *testing.T) (Store, *MockResolver, *MockProvider) {
	st, err := store.NewStore(t.TempDir())
	require.NoError(t, err)
	return st, new(MockResolver), new(MockProvider)
}

func expectQuote(res *MockResolver, provider *MockProvider, symbol, id, price string) {
	res.On("Resolve", mock.Anything, symbol).Return(id, nil)
	provider.On("SimplePrices", mock.Anything, []string{id}).Return(map[string]marketdata.Quote{
		id: {Price: decimalx.MustFromString(price)},
	}, nil)
}

func TestService_Track(t *testing.T) {
	st, res, provider := newDeps(t)
	expectQuote(res, provider, "BTC", "bitcoin", "50000")

	svc := NewService(st, res, provider)
	asset, err := svc.Track(context.Background(), "btc", "user-1", "guild-1", "channel-42")
	require.NoError(t, err)

	assert.Equal(t, "BTC", asset.Symbol)
	require.NotNil(t, asset.LastPrice)
	assert.True(t, asset.LastPrice.Equal(decimalx.MustFromString("50000")))
	assert.Equal(t, "user-1", asset.AddedBy)

	bindings := svc.BindingsFor(context.Background(), "BTC")
	require.Len(t, bindings, 1)
	assert.Equal(t, Binding{GroupID: "guild-1", Symbol: "BTC", Destination: "channel-42"}, bindings[0])
}

func TestService_TrackUnknownSymbol(t *testing.T) {
	st, res, provider := newDeps(t)
	res.On("Resolve", mock.Anything, "XYZ").Return("", marketdata.ErrNotFound)

	svc := NewService(st, res, provider)
	_, err := svc.Track(context.Background(), "xyz", "user-1", "guild-1", "channel-42")
	assert.ErrorIs(t, err, marketdata.ErrNotFound)
	assert.Empty(t, svc.List(context.Background()))
}

func TestService_TrackIdempotentBinding(t *testing.T) {
	st, res, provider := newDeps(t)
	expectQuote(res, provider, "BTC", "bitcoin", "50000")

	svc := NewService(st, res, provider)
	_, err := svc.Track(context.Background(), "BTC", "user-1", "guild-1", "channel-42")
	require.NoError(t, err)
	_, err = svc.Track(context.Background(), "BTC", "user-2", "guild-1", "channel-99")
	require.NoError(t, err)

	// re-tracking keeps the original binding
	bindings := svc.BindingsFor(context.Background(), "BTC")
	require.Len(t, bindings, 1)
	assert.Equal(t, "channel-42", bindings[0].Destination)

	assert.Len(t, svc.List(context.Background()), 1)
}

func TestService_TrackLimit(t *testing.T) {
	st, res, provider := newDeps(t)
	expectQuote(res, provider, "BTC", "bitcoin", "50000")
	expectQuote(res, provider, "ETH", "ethereum", "3000")

	svc := NewService(st, res, provider)
	settings := svc.Settings()
	settings.MaxTrackedAssets = 1
	require.NoError(t, svc.UpdateSettings(context.Background(), settings))

	_, err := svc.Track(context.Background(), "BTC", "u", "g", "c1")
	require.NoError(t, err)
	_, err = svc.Track(context.Background(), "ETH", "u", "g", "c2")
	assert.ErrorIs(t, err, ErrLimit)
}

func TestService_Untrack(t *testing.T) {
	st, res, provider := newDeps(t)
	expectQuote(res, provider, "BTC", "bitcoin", "50000")

	svc := NewService(st, res, provider)
	_, err := svc.Track(context.Background(), "BTC", "u", "g", "c")
	require.NoError(t, err)

	require.NoError(t, svc.Untrack(context.Background(), "btc"))
	assert.Empty(t, svc.List(context.Background()))

	// bindings survive an untrack and must be tolerated as orphans
	assert.Len(t, svc.BindingsFor(context.Background(), "BTC"), 1)

	assert.ErrorIs(t, svc.Untrack(context.Background(), "BTC"), ErrNotTracked)
}

func TestService_ApplyObservations(t *testing.T) {
	st, res, provider := newDeps(t)
	expectQuote(res, provider, "BTC", "bitcoin", "50000")

	svc := NewService(st, res, provider)
	_, err := svc.Track(context.Background(), "BTC", "u", "g", "c")
	require.NoError(t, err)

	at := time.Now()
	err = svc.ApplyObservations(context.Background(), []PriceObservation{
		{Symbol: "BTC", Price: decimalx.MustFromString("50600"), At: at},
		{Symbol: "GONE", Price: decimal.NewFromInt(1), At: at},
	})
	require.NoError(t, err)

	assets := svc.List(context.Background())
	require.Len(t, assets, 1)
	assert.True(t, assets[0].LastPrice.Equal(decimalx.MustFromString("50600")))
}

func TestService_StateSurvivesRestart(t *testing.T) {
	st, res, provider := newDeps(t)
	expectQuote(res, provider, "BTC", "bitcoin", "50000")

	svc := NewService(st, res, provider)
	_, err := svc.Track(context.Background(), "BTC", "user-1", "guild-1", "channel-42")
	require.NoError(t, err)
	require.NoError(t, svc.ApplyObservations(context.Background(), []PriceObservation{
		{Symbol: "BTC", Price: decimalx.MustFromString("50600"), At: time.Now()},
	}))

	// a fresh service over the same store sees the persisted state
	reloaded := NewService(st, new(MockResolver), new(MockProvider))
	assets := reloaded.List(context.Background())
	require.Len(t, assets, 1)
	assert.Equal(t, "BTC", assets[0].Symbol)
	require.NotNil(t, assets[0].LastPrice)
	assert.True(t, assets[0].LastPrice.Equal(decimalx.MustFromString("50600")))

	bindings := reloaded.BindingsFor(context.Background(), "BTC")
	require.Len(t, bindings, 1)
	assert.Equal(t, "channel-42", bindings[0].Destination)
}

func TestService_Quote(t *testing.T) {
	st, res, provider := newDeps(t)
	expectQuote(res, provider, "SOL", "solana", "95.5")

	svc := NewService(st, res, provider)
	quote, err := svc.Quote(context.Background(), "sol")
	require.NoError(t, err)
	assert.True(t, quote.Price.Equal(decimalx.MustFromString("95.5")))
}

func TestService_QuoteMissingFromBatch(t *testing.T) {
	st, res, provider := newDeps(t)
	res.On("Resolve", mock.Anything, "SOL").Return("solana", nil)
	provider.On("SimplePrices", mock.Anything, []string{"solana"}).
		Return(map[string]marketdata.Quote{}, nil)

	svc := NewService(st, res, provider)
	_, err := svc.Quote(context.Background(), "SOL")
	assert.ErrorIs(t, err, marketdata.ErrNotFound)
}

func TestService_DefaultSettings(t *testing.T) {
	st, res, provider := newDeps(t)
	svc := NewService(st, res, provider)

	settings := svc.Settings()
	assert.Equal(t, 5, settings.PollIntervalMinutes)
	assert.True(t, settings.ChangeThreshold.Equal(decimalx.MustFromString("0.01")))
	assert.Equal(t, 50, settings.MaxTrackedAssets)
	assert.True(t, settings.AutoUpdates)
}
