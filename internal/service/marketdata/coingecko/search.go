package coingecko

import (
	"context"
	"net/url"
	"strings"

	"github.com/coinsentry/tracker-agent/internal/service/marketdata"
	"github.com/samber/lo"
)

type searchCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
}

func (c *Client) Search(ctx context.Context, query string) ([]marketdata.SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)

	var raw struct {
		Coins []searchCoin `json:"coins"`
	}
	if err := c.get(ctx, "search", params, &raw); err != nil {
		return nil, err
	}

	return lo.Map(raw.Coins, func(coin searchCoin, index int) marketdata.SearchResult {
		return marketdata.SearchResult{
			ID:            coin.ID,
			Name:          coin.Name,
			Symbol:        strings.ToUpper(coin.Symbol),
			MarketCapRank: coin.MarketCapRank,
		}
	}), nil
}
