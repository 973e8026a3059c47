package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound means the asset is unknown to the provider.
	ErrNotFound = errors.New("marketdata: asset not found")
	// ErrUnavailable means a transport failure or timeout; the whole batch failed.
	ErrUnavailable = errors.New("marketdata: provider unavailable")
	// ErrRateLimited means the provider pushed back; callers must wait before retrying.
	ErrRateLimited = errors.New("marketdata: provider rate limited")
)

// Quote 资产当前行情快照
type Quote struct {
	Price     decimal.Decimal
	Change24h decimal.Decimal
	MarketCap decimal.Decimal
	Volume24h decimal.Decimal
}

type SearchResult struct {
	ID            string
	Name          string
	Symbol        string
	MarketCapRank int
}

type TrendingCoin struct {
	ID            string
	Name          string
	Symbol        string
	MarketCapRank int
	PriceBTC      decimal.Decimal
}

type Candle struct {
	Time  time.Time
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

// Detail 重量级单资产元数据, 仅按需获取, 轮询路径不使用
type Detail struct {
	CurrentPrice         decimal.Decimal
	MarketCap            decimal.Decimal
	MarketCapRank        int
	Volume24h            decimal.Decimal
	Change24hPercent     decimal.Decimal
	Change7dPercent      decimal.Decimal
	Change30dPercent     decimal.Decimal
	CirculatingSupply    decimal.Decimal
	TotalSupply          decimal.Decimal
	MaxSupply            decimal.Decimal
	ATH                  decimal.Decimal
	ATHChangePercent     decimal.Decimal
	ATL                  decimal.Decimal
	ATLChangePercent     decimal.Decimal
	SentimentUpPercent   decimal.Decimal
	SentimentDownPercent decimal.Decimal
	Categories           []string
	Description          string
	LastUpdated          time.Time
}

// QuoteService returns current quotes for a batch of canonical asset ids.
// The batch is atomic at the transport level: a failed call reports an error
// for the whole batch, never a partial result.
type QuoteService interface {
	SimplePrices(ctx context.Context, ids []string) (map[string]Quote, error)
}

// TickerQuoteService quotes directly by exchange ticker, without canonical id
// resolution. Used as a fallback when the primary provider pushes back.
type TickerQuoteService interface {
	TickerQuotes(ctx context.Context, symbols []string) (map[string]Quote, error)
}

type SearchService interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// Provider 市场数据提供方完整接口
type Provider interface {
	QuoteService
	SearchService
	Trending(ctx context.Context) ([]TrendingCoin, error)
	OHLC(ctx context.Context, id string, days int) ([]Candle, error)
	CoinDetail(ctx context.Context, id string) (Detail, error)
}
