package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coinsentry/tracker-agent/internal/entity"
	"github.com/coinsentry/tracker-agent/internal/repo"
	"github.com/coinsentry/tracker-agent/internal/schedule"
	"github.com/coinsentry/tracker-agent/internal/service/marketdata"
	"github.com/coinsentry/tracker-agent/internal/service/resolver"
	"github.com/coinsentry/tracker-agent/internal/service/tracker"
	"github.com/coinsentry/tracker-agent/pkg/decimalx"
)

// PriceMonitorTask is one poll cycle: fetch quotes for the whole registry as
// a batch, detect significant changes, broadcast them, then persist the
// registry exactly once.
type PriceMonitorTask struct {
	registry   Registry
	resolver   resolver.Service
	quotes     marketdata.QuoteService
	fallback   marketdata.TickerQuoteService
	detector   Detector
	dispatcher Dispatcher
	alerts     repo.AlertRepo
}

type Option func(t *PriceMonitorTask)

// WithFallback quotes by raw ticker when the primary provider is rate
// limited or unreachable.
func WithFallback(fallback marketdata.TickerQuoteService) Option {
	return func(t *PriceMonitorTask) {
		t.fallback = fallback
	}
}

// WithAlertRepo records every significant change for later inspection.
func WithAlertRepo(alerts repo.AlertRepo) Option {
	return func(t *PriceMonitorTask) {
		t.alerts = alerts
	}
}

func NewPriceMonitorTask(registry Registry, res resolver.Service, quotes marketdata.QuoteService,
	detector Detector, dispatcher Dispatcher, opts ...Option) schedule.Task {
	task := &PriceMonitorTask{
		registry:   registry,
		resolver:   res,
		quotes:     quotes,
		detector:   detector,
		dispatcher: dispatcher,
	}
	for _, opt := range opts {
		opt(task)
	}
	return task
}

func (t *PriceMonitorTask) Name() string {
	return "price monitor task"
}

func (t *PriceMonitorTask) Run(ctx context.Context) error {
	assets := t.registry.List(ctx)
	if len(assets) == 0 {
		return nil
	}

	assetBySymbol := make(map[string]tracker.TrackedAsset, len(assets))
	idBySymbol := make(map[string]string, len(assets))
	for _, asset := range assets {
		assetBySymbol[asset.Symbol] = asset
		id, err := t.resolver.Resolve(ctx, asset.Symbol)
		if err != nil {
			slog.Warn("skipping unresolvable symbol this cycle", "symbol", asset.Symbol, "error", err)
			continue
		}
		idBySymbol[asset.Symbol] = id
	}
	if len(idBySymbol) == 0 {
		return nil
	}

	quotes, err := t.fetch(ctx, idBySymbol)
	if err != nil {
		return fmt.Errorf("fetch quotes: %w", err)
	}

	now := time.Now()
	observations := make([]tracker.PriceObservation, 0, len(quotes))
	for symbol, quote := range quotes {
		asset, ok := assetBySymbol[symbol]
		if !ok {
			continue
		}

		if t.detector.Detect(asset.LastPrice, quote.Price) == Significant {
			update := PriceUpdate{
				Symbol:      symbol,
				PrevPrice:   *asset.LastPrice,
				NewPrice:    quote.Price,
				ChangeRatio: decimalx.ChangeRatio(*asset.LastPrice, quote.Price),
				Quote:       quote,
				Timestamp:   now,
			}
			report := t.dispatcher.Broadcast(ctx, update)
			slog.Info("broadcast price update", "symbol", symbol,
				"delivered", report.Delivered(), "failed", report.Failed())
			t.recordAlert(ctx, update)
		}

		observations = append(observations, tracker.PriceObservation{
			Symbol: symbol,
			Price:  quote.Price,
			At:     now,
		})
	}

	// all deliveries joined above; one registry write per cycle
	return t.registry.ApplyObservations(ctx, observations)
}

// fetch returns quotes keyed by symbol. The primary batch is atomic; on
// backpressure or transport failure the fallback provider takes the cycle.
func (t *PriceMonitorTask) fetch(ctx context.Context, idBySymbol map[string]string) (map[string]marketdata.Quote, error) {
	ids := make([]string, 0, len(idBySymbol))
	symbolByID := make(map[string]string, len(idBySymbol))
	for symbol, id := range idBySymbol {
		ids = append(ids, id)
		symbolByID[id] = symbol
	}

	quotesByID, err := t.quotes.SimplePrices(ctx, ids)
	if err == nil {
		quotes := make(map[string]marketdata.Quote, len(quotesByID))
		for id, quote := range quotesByID {
			if symbol, ok := symbolByID[id]; ok {
				quotes[symbol] = quote
			}
		}
		return quotes, nil
	}

	if t.fallback == nil || !(errors.Is(err, marketdata.ErrRateLimited) || errors.Is(err, marketdata.ErrUnavailable)) {
		return nil, err
	}

	slog.Warn("primary provider failed, using fallback quotes", "error", err)
	symbols := make([]string, 0, len(idBySymbol))
	for symbol := range idBySymbol {
		symbols = append(symbols, symbol)
	}
	return t.fallback.TickerQuotes(ctx, symbols)
}

func (t *PriceMonitorTask) recordAlert(ctx context.Context, update PriceUpdate) {
	if t.alerts == nil {
		return
	}

	direction := entity.AlertDirectionUp
	if update.ChangeRatio.IsNegative() {
		direction = entity.AlertDirectionDown
	}
	_, err := t.alerts.Create(ctx, entity.PriceAlert{
		Symbol:      update.Symbol,
		PrevPrice:   update.PrevPrice.String(),
		NewPrice:    update.NewPrice.String(),
		ChangeRatio: update.ChangeRatio.InexactFloat64(),
		Direction:   direction,
		CreatedAt:   update.Timestamp,
	})
	if err != nil {
		slog.Error("failed to record price alert", "symbol", update.Symbol, "error", err)
	}
}
