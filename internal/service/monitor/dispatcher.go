package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/coinsentry/tracker-agent/internal/service/notification"
	"github.com/coinsentry/tracker-agent/internal/service/tracker"
	"github.com/shopspring/decimal"
)

// BindingSource lists the destinations bound to a symbol, orphans included.
type BindingSource interface {
	BindingsFor(ctx context.Context, symbol string) []tracker.Binding
}

type broadcastDispatcher struct {
	bindings BindingSource
	sender   notification.Sender
}

func NewBroadcastDispatcher(bindings BindingSource, sender notification.Sender) Dispatcher {
	return &broadcastDispatcher{
		bindings: bindings,
		sender:   sender,
	}
}

// Broadcast delivers concurrently to every bound destination. One
// destination's failure is logged and isolated; the report carries the
// per-destination outcome and all deliveries are joined before returning.
func (d *broadcastDispatcher) Broadcast(ctx context.Context, update PriceUpdate) DeliveryReport {
	bindings := d.bindings.BindingsFor(ctx, update.Symbol)
	if len(bindings) == 0 {
		return DeliveryReport{}
	}

	msg := renderUpdate(update)
	results := make([]DeliveryResult, len(bindings))

	var wg sync.WaitGroup
	for i, binding := range bindings {
		wg.Add(1)
		go func(i int, binding tracker.Binding) {
			defer wg.Done()
			err := d.sender.Send(ctx, binding.Destination, msg)
			if err != nil {
				slog.Error("failed to deliver price update",
					"symbol", update.Symbol, "group", binding.GroupID, "error", err)
			}
			results[i] = DeliveryResult{Binding: binding, Err: err}
		}(i, binding)
	}
	wg.Wait()

	return DeliveryReport{Results: results}
}

func renderUpdate(update PriceUpdate) notification.Message {
	changePercent := update.ChangeRatio.Mul(decimal.NewFromInt(100))
	return notification.Message{
		Title: fmt.Sprintf("%s Price Update", update.Symbol),
		Fields: []notification.Field{
			{Name: "Current Price", Value: fmt.Sprintf("$%s", update.NewPrice.String())},
			{Name: "Previous Price", Value: fmt.Sprintf("$%s", update.PrevPrice.String())},
			{Name: "Change", Value: fmt.Sprintf("%+.2f%%", changePercent.InexactFloat64())},
		},
	}
}
