package binance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/coinsentry/tracker-agent/internal/service/marketdata"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// 备用行情源只报价 USDT 交易对
const quoteAsset = "USDT"

var _ marketdata.TickerQuoteService = (*QuoteService)(nil)

// QuoteService quotes tracked tickers against their USDT pair on Binance.
// Used when the primary provider is rate limited or unreachable; Binance has
// no market cap figure so MarketCap is left zero.
type QuoteService struct {
	cli *binance.Client
}

func NewQuoteService(cli *binance.Client) *QuoteService {
	return &QuoteService{cli: cli}
}

func (svc *QuoteService) TickerQuotes(ctx context.Context, symbols []string) (map[string]marketdata.Quote, error) {
	stats, err := svc.cli.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: binance price change stats: %v", marketdata.ErrUnavailable, err)
	}

	wanted := lo.SliceToMap(symbols, func(s string) (string, string) {
		return fmt.Sprintf("%s%s", strings.ToUpper(s), quoteAsset), strings.ToUpper(s)
	})

	quotes := make(map[string]marketdata.Quote, len(symbols))
	for _, stat := range stats {
		symbol, ok := wanted[stat.Symbol]
		if !ok {
			continue
		}
		quote, err := convertStats(stat)
		if err != nil {
			slog.Error("failed to parse binance stats", "symbol", stat.Symbol, "error", err)
			continue
		}
		quotes[symbol] = quote
	}
	return quotes, nil
}

func convertStats(stat *binance.PriceChangeStats) (marketdata.Quote, error) {
	price, err := decimal.NewFromString(stat.LastPrice)
	if err != nil {
		return marketdata.Quote{}, err
	}
	change, err := decimal.NewFromString(stat.PriceChangePercent)
	if err != nil {
		return marketdata.Quote{}, err
	}
	volume, err := decimal.NewFromString(stat.QuoteVolume)
	if err != nil {
		return marketdata.Quote{}, err
	}
	return marketdata.Quote{
		Price:     price,
		Change24h: change,
		Volume24h: volume,
	}, nil
}
