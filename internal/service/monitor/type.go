package monitor

import (
	"context"
	"time"

	"github.com/coinsentry/tracker-agent/internal/service/marketdata"
	"github.com/coinsentry/tracker-agent/internal/service/tracker"
	"github.com/shopspring/decimal"
)

type Significance int

const (
	Insignificant Significance = iota
	Significant
)

// PriceUpdate 显著价格变动事件
type PriceUpdate struct {
	Symbol      string
	PrevPrice   decimal.Decimal
	NewPrice    decimal.Decimal
	ChangeRatio decimal.Decimal // signed relative change
	Quote       marketdata.Quote
	Timestamp   time.Time
}

// Detector decides whether a newly observed price is a significant change
// from the previous observation. prev is nil on first sight.
type Detector interface {
	Detect(prev *decimal.Decimal, next decimal.Decimal) Significance
}

type DeliveryResult struct {
	Binding tracker.Binding
	Err     error
}

// DeliveryReport lists the per-destination outcome of one broadcast.
// Partial failure is data here, never an error.
type DeliveryReport struct {
	Results []DeliveryResult
}

func (r DeliveryReport) Delivered() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

func (r DeliveryReport) Failed() int {
	return len(r.Results) - r.Delivered()
}

// Dispatcher fans a price update out to every destination bound to its
// symbol.
type Dispatcher interface {
	Broadcast(ctx context.Context, update PriceUpdate) DeliveryReport
}

// Registry is the slice of the tracker the poll cycle needs.
type Registry interface {
	List(ctx context.Context) []tracker.TrackedAsset
	ApplyObservations(ctx context.Context, obs []tracker.PriceObservation) error
}
