package tracker

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotTracked = errors.New("tracker: symbol not tracked")
	ErrLimit      = errors.New("tracker: tracking limit reached")
)

// persisted document names
const (
	docTrackedAssets = "tracked_assets"
	docBindings      = "destination_bindings"
	docSettings      = "settings"
)

// TrackedAsset 被追踪的资产及其最后一次观测
// Symbol is the sole identity; price fields stay nil until the first
// completed poll cycle observes the asset.
type TrackedAsset struct {
	Symbol     string           `json:"symbol"`
	LastPrice  *decimal.Decimal `json:"last_price"`
	LastUpdate *time.Time       `json:"last_update"`
	AddedBy    string           `json:"added_by"`
	GroupID    string           `json:"group_id,omitempty"`
	AddedAt    time.Time        `json:"added_at"`
}

// Binding maps a (group, symbol) pair to an opaque destination handle owned
// by the chat gateway.
type Binding struct {
	GroupID     string
	Symbol      string
	Destination string
}

// PriceObservation is one symbol's result of a poll cycle.
type PriceObservation struct {
	Symbol string
	Price  decimal.Decimal
	At     time.Time
}

type Settings struct {
	PollIntervalMinutes int             `json:"poll_interval_minutes"`
	ChangeThreshold     decimal.Decimal `json:"change_threshold"`
	MaxTrackedAssets    int             `json:"max_tracked_assets"`
	AutoUpdates         bool            `json:"auto_updates"`
}

func DefaultSettings() Settings {
	return Settings{
		PollIntervalMinutes: 5,
		ChangeThreshold:     decimal.NewFromFloat(0.01),
		MaxTrackedAssets:    50,
		AutoUpdates:         true,
	}
}

type registryDoc struct {
	Assets map[string]TrackedAsset `json:"assets"`
}

// bindingsDoc nests group id -> symbol -> destination handle.
type bindingsDoc struct {
	Groups map[string]map[string]string `json:"groups"`
}
