package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coinsentry/tracker-agent/internal/service/marketdata"
	"github.com/coinsentry/tracker-agent/internal/service/resolver"
)

// Store is the document persistence the service sits on, satisfied by
// *store.Store.
type Store interface {
	Load(name string, v any)
	Save(name string, v any) error
}

// Service owns the tracking registry and the destination directory. All
// mutation goes through its mutex, so there is exactly one writer for the
// persisted documents: command handlers and the poll cycle both come through
// here.
type Service struct {
	store    Store
	resolver resolver.Service
	provider marketdata.Provider

	mu       sync.Mutex
	assets   map[string]TrackedAsset
	bindings map[string]map[string]string
	settings Settings
}

func NewService(st Store, res resolver.Service, provider marketdata.Provider) *Service {
	s := &Service{
		store:    st,
		resolver: res,
		provider: provider,
		settings: DefaultSettings(),
	}

	var reg registryDoc
	st.Load(docTrackedAssets, &reg)
	if reg.Assets == nil {
		reg.Assets = make(map[string]TrackedAsset)
	}
	s.assets = reg.Assets

	var binds bindingsDoc
	st.Load(docBindings, &binds)
	if binds.Groups == nil {
		binds.Groups = make(map[string]map[string]string)
	}
	s.bindings = binds.Groups

	st.Load(docSettings, &s.settings)
	return s
}

// Track registers a symbol and binds the group's destination. The symbol is
// resolved and quoted first so an unknown ticker fails before any state
// changes; the observed price becomes the baseline for change detection.
// Re-tracking an already tracked symbol refreshes the baseline and returns
// the existing binding untouched.
func (s *Service) Track(ctx context.Context, symbol, userID, groupID, destination string) (TrackedAsset, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))

	id, err := s.resolver.Resolve(ctx, sym)
	if err != nil {
		return TrackedAsset{}, err
	}
	quotes, err := s.provider.SimplePrices(ctx, []string{id})
	if err != nil {
		return TrackedAsset{}, err
	}
	quote, ok := quotes[id]
	if !ok {
		return TrackedAsset{}, marketdata.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	asset, exists := s.assets[sym]
	if !exists {
		if len(s.assets) >= s.settings.MaxTrackedAssets {
			return TrackedAsset{}, fmt.Errorf("%w: max %d assets", ErrLimit, s.settings.MaxTrackedAssets)
		}
		asset = TrackedAsset{
			Symbol:  sym,
			AddedBy: userID,
			GroupID: groupID,
			AddedAt: time.Now(),
		}
	}
	price := quote.Price
	now := time.Now()
	asset.LastPrice = &price
	asset.LastUpdate = &now
	s.assets[sym] = asset

	if err = s.saveRegistry(); err != nil {
		return TrackedAsset{}, err
	}
	if groupID != "" && destination != "" {
		if err = s.bind(groupID, sym, destination); err != nil {
			return TrackedAsset{}, err
		}
	}
	return asset, nil
}

// bind creates the (group, symbol) binding if absent. Creation is
// idempotent: an existing binding wins over the supplied destination.
// Caller holds the mutex.
func (s *Service) bind(groupID, symbol, destination string) error {
	group, ok := s.bindings[groupID]
	if !ok {
		group = make(map[string]string)
		s.bindings[groupID] = group
	}
	if _, ok = group[symbol]; ok {
		return nil
	}
	group[symbol] = destination
	return s.store.Save(docBindings, bindingsDoc{Groups: s.bindings})
}

// Untrack removes the symbol from the registry. Its destination bindings
// are deliberately left in place; the dispatcher tolerates orphans and the
// gateway may want to reuse the destination on a later re-track.
func (s *Service) Untrack(ctx context.Context, symbol string) error {
	sym := strings.ToUpper(strings.TrimSpace(symbol))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[sym]; !ok {
		return ErrNotTracked
	}
	delete(s.assets, sym)
	return s.saveRegistry()
}

// List returns the tracked assets sorted by symbol.
func (s *Service) List(ctx context.Context) []TrackedAsset {
	s.mu.Lock()
	defer s.mu.Unlock()

	assets := make([]TrackedAsset, 0, len(s.assets))
	for _, asset := range s.assets {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Symbol < assets[j].Symbol
	})
	return assets
}

// ApplyObservations updates the last observed price for every symbol still
// present in the registry, then persists the registry exactly once. Symbols
// missing from obs keep their previous state for this cycle.
func (s *Service) ApplyObservations(ctx context.Context, obs []PriceObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range obs {
		asset, ok := s.assets[o.Symbol]
		if !ok {
			// untracked between fetch and apply
			continue
		}
		price := o.Price
		at := o.At
		asset.LastPrice = &price
		asset.LastUpdate = &at
		s.assets[o.Symbol] = asset
	}
	return s.saveRegistry()
}

// BindingsFor returns every binding whose symbol matches, across all groups.
func (s *Service) BindingsFor(ctx context.Context, symbol string) []Binding {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Binding
	for groupID, group := range s.bindings {
		if dest, ok := group[symbol]; ok {
			out = append(out, Binding{GroupID: groupID, Symbol: symbol, Destination: dest})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GroupID < out[j].GroupID
	})
	return out
}

// Quote resolves and quotes a single symbol for price requests.
func (s *Service) Quote(ctx context.Context, symbol string) (marketdata.Quote, error) {
	id, err := s.resolver.Resolve(ctx, symbol)
	if err != nil {
		return marketdata.Quote{}, err
	}
	quotes, err := s.provider.SimplePrices(ctx, []string{id})
	if err != nil {
		return marketdata.Quote{}, err
	}
	quote, ok := quotes[id]
	if !ok {
		return marketdata.Quote{}, marketdata.ErrNotFound
	}
	return quote, nil
}

// Detail resolves and fetches the heavy metadata used by advisory requests.
func (s *Service) Detail(ctx context.Context, symbol string) (marketdata.Detail, error) {
	id, err := s.resolver.Resolve(ctx, symbol)
	if err != nil {
		return marketdata.Detail{}, err
	}
	return s.provider.CoinDetail(ctx, id)
}

func (s *Service) Trending(ctx context.Context) ([]marketdata.TrendingCoin, error) {
	return s.provider.Trending(ctx)
}

func (s *Service) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Service) UpdateSettings(ctx context.Context, settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return s.store.Save(docSettings, settings)
}

// caller holds the mutex
func (s *Service) saveRegistry() error {
	if err := s.store.Save(docTrackedAssets, registryDoc{Assets: s.assets}); err != nil {
		slog.Error("failed to persist tracking registry", "error", err)
		return err
	}
	return nil
}
