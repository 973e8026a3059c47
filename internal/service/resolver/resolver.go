package resolver

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/coinsentry/tracker-agent/internal/service/marketdata"
)

// 常见币种静态兜底表, 仅在搜索未命中时查询
var staticIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"ADA":   "cardano",
	"DOT":   "polkadot",
	"XRP":   "ripple",
	"LTC":   "litecoin",
	"BCH":   "bitcoin-cash",
	"LINK":  "chainlink",
	"MATIC": "matic-network",
	"SOL":   "solana",
	"AVAX":  "avalanche-2",
	"DOGE":  "dogecoin",
	"SHIB":  "shiba-inu",
}

// Service maps a user-supplied ticker to the provider's canonical asset id.
type Service interface {
	Resolve(ctx context.Context, ticker string) (string, error)
}

// CachedResolver resolves via the provider search facility and caches hits
// for the process lifetime. Canonical ids are treated as immutable, so the
// cache is never invalidated.
type CachedResolver struct {
	search marketdata.SearchService

	mu    sync.Mutex
	cache map[string]string
}

func NewCachedResolver(search marketdata.SearchService) *CachedResolver {
	return &CachedResolver{
		search: search,
		cache:  make(map[string]string),
	}
}

func (r *CachedResolver) Resolve(ctx context.Context, ticker string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" {
		return "", marketdata.ErrNotFound
	}

	r.mu.Lock()
	id, ok := r.cache[symbol]
	r.mu.Unlock()
	if ok {
		return id, nil
	}

	if id, ok = r.searchExact(ctx, symbol); ok {
		r.remember(symbol, id)
		return id, nil
	}

	if id, ok = staticIDs[symbol]; ok {
		r.remember(symbol, id)
		return id, nil
	}

	slog.Warn("could not resolve ticker to asset id", "ticker", symbol)
	return "", marketdata.ErrNotFound
}

// searchExact looks for a case-insensitive exact symbol match among the
// provider's search results. A search failure falls through to the static
// table rather than surfacing; the caller decides whether to retry.
func (r *CachedResolver) searchExact(ctx context.Context, symbol string) (string, bool) {
	results, err := r.search.Search(ctx, symbol)
	if err != nil {
		slog.Error("symbol search failed", "ticker", symbol, "error", err)
		return "", false
	}
	for _, res := range results {
		if strings.EqualFold(res.Symbol, symbol) {
			return res.ID, true
		}
	}
	return "", false
}

func (r *CachedResolver) remember(symbol, id string) {
	r.mu.Lock()
	r.cache[symbol] = id
	r.mu.Unlock()
}
