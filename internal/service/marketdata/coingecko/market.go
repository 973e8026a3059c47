package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/coinsentry/tracker-agent/internal/service/marketdata"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type simplePrice struct {
	USD          decimal.Decimal `json:"usd"`
	USDMarketCap decimal.Decimal `json:"usd_market_cap"`
	USD24hChange decimal.Decimal `json:"usd_24h_change"`
	USD24hVol    decimal.Decimal `json:"usd_24h_vol"`
}

func (c *Client) SimplePrices(ctx context.Context, ids []string) (map[string]marketdata.Quote, error) {
	if len(ids) == 0 {
		return map[string]marketdata.Quote{}, nil
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_market_cap", "true")
	params.Set("include_24hr_change", "true")
	params.Set("include_24hr_vol", "true")

	var raw map[string]simplePrice
	if err := c.get(ctx, "simple/price", params, &raw); err != nil {
		return nil, err
	}

	return lo.MapValues(raw, func(p simplePrice, id string) marketdata.Quote {
		return marketdata.Quote{
			Price:     p.USD,
			Change24h: p.USD24hChange,
			MarketCap: p.USDMarketCap,
			Volume24h: p.USD24hVol,
		}
	}), nil
}

func (c *Client) Trending(ctx context.Context) ([]marketdata.TrendingCoin, error) {
	var raw struct {
		Coins []struct {
			Item struct {
				ID            string          `json:"id"`
				Name          string          `json:"name"`
				Symbol        string          `json:"symbol"`
				MarketCapRank int             `json:"market_cap_rank"`
				PriceBTC      decimal.Decimal `json:"price_btc"`
			} `json:"item"`
		} `json:"coins"`
	}
	if err := c.get(ctx, "search/trending", nil, &raw); err != nil {
		return nil, err
	}

	coins := make([]marketdata.TrendingCoin, 0, len(raw.Coins))
	for _, coin := range raw.Coins {
		coins = append(coins, marketdata.TrendingCoin{
			ID:            coin.Item.ID,
			Name:          coin.Item.Name,
			Symbol:        strings.ToUpper(coin.Item.Symbol),
			MarketCapRank: coin.Item.MarketCapRank,
			PriceBTC:      coin.Item.PriceBTC,
		})
	}
	return coins, nil
}

func (c *Client) OHLC(ctx context.Context, id string, days int) ([]marketdata.Candle, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", fmt.Sprintf("%d", days))

	var raw [][]json.Number
	if err := c.get(ctx, fmt.Sprintf("coins/%s/ohlc", id), params, &raw); err != nil {
		return nil, err
	}

	candles := make([]marketdata.Candle, 0, len(raw))
	for _, row := range raw {
		if len(row) < 5 {
			continue
		}
		ts, err := row[0].Int64()
		if err != nil {
			continue
		}
		open, err := decimal.NewFromString(row[1].String())
		if err != nil {
			continue
		}
		high, err := decimal.NewFromString(row[2].String())
		if err != nil {
			continue
		}
		low, err := decimal.NewFromString(row[3].String())
		if err != nil {
			continue
		}
		closePrice, err := decimal.NewFromString(row[4].String())
		if err != nil {
			continue
		}
		candles = append(candles, marketdata.Candle{
			Time:  time.UnixMilli(ts),
			Open:  open,
			High:  high,
			Low:   low,
			Close: closePrice,
		})
	}
	return candles, nil
}

type usdValue map[string]decimal.Decimal

func (v usdValue) usd() decimal.Decimal {
	return v["usd"]
}

func (c *Client) CoinDetail(ctx context.Context, id string) (marketdata.Detail, error) {
	var raw struct {
		MarketData struct {
			CurrentPrice      usdValue        `json:"current_price"`
			MarketCap         usdValue        `json:"market_cap"`
			MarketCapRank     int             `json:"market_cap_rank"`
			TotalVolume       usdValue        `json:"total_volume"`
			Change24h         decimal.Decimal `json:"price_change_percentage_24h"`
			Change7d          decimal.Decimal `json:"price_change_percentage_7d"`
			Change30d         decimal.Decimal `json:"price_change_percentage_30d"`
			CirculatingSupply decimal.Decimal `json:"circulating_supply"`
			TotalSupply       decimal.Decimal `json:"total_supply"`
			MaxSupply         decimal.Decimal `json:"max_supply"`
			ATH               usdValue        `json:"ath"`
			ATHChange         usdValue        `json:"ath_change_percentage"`
			ATL               usdValue        `json:"atl"`
			ATLChange         usdValue        `json:"atl_change_percentage"`
		} `json:"market_data"`
		SentimentUp   decimal.Decimal `json:"sentiment_votes_up_percentage"`
		SentimentDown decimal.Decimal `json:"sentiment_votes_down_percentage"`
		Categories    []string        `json:"categories"`
		Description   struct {
			EN string `json:"en"`
		} `json:"description"`
		LastUpdated time.Time `json:"last_updated"`
	}
	if err := c.get(ctx, fmt.Sprintf("coins/%s", id), nil, &raw); err != nil {
		return marketdata.Detail{}, err
	}

	md := raw.MarketData
	return marketdata.Detail{
		CurrentPrice:         md.CurrentPrice.usd(),
		MarketCap:            md.MarketCap.usd(),
		MarketCapRank:        md.MarketCapRank,
		Volume24h:            md.TotalVolume.usd(),
		Change24hPercent:     md.Change24h,
		Change7dPercent:      md.Change7d,
		Change30dPercent:     md.Change30d,
		CirculatingSupply:    md.CirculatingSupply,
		TotalSupply:          md.TotalSupply,
		MaxSupply:            md.MaxSupply,
		ATH:                  md.ATH.usd(),
		ATHChangePercent:     md.ATHChange.usd(),
		ATL:                  md.ATL.usd(),
		ATLChangePercent:     md.ATLChange.usd(),
		SentimentUpPercent:   raw.SentimentUp,
		SentimentDownPercent: raw.SentimentDown,
		Categories:           raw.Categories,
		Description:          raw.Description.EN,
		LastUpdated:          raw.LastUpdated,
	}, nil
}
