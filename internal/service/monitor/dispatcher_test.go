package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/coinsentry/tracker-agent/internal/service/notification"
	"github.com/coinsentry/tracker-agent/internal/service/tracker"
	"github.com/coinsentry/tracker-agent/pkg/decimalx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type staticBindings []tracker.Binding

func (b staticBindings) BindingsFor(ctx context.Context, symbol string) []tracker.Binding {
	var out []tracker.Binding
	for _, binding := range b {
		if binding.Symbol == symbol {
			out = append(out, binding)
		}
	}
	return out
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, destination string, msg notification.Message) error {
	args := m.Called(ctx, destination, msg)
	return args.Error(0)
}

func btcUpdate() PriceUpdate {
	return PriceUpdate{
		Symbol:      "BTC",
		PrevPrice:   decimalx.MustFromString("50000"),
		NewPrice:    decimalx.MustFromString("50600"),
		ChangeRatio: decimalx.MustFromString("0.012"),
	}
}

func TestBroadcastDispatcher_PartialFailureIsolated(t *testing.T) {
	bindings := staticBindings{
		{GroupID: "g1", Symbol: "BTC", Destination: "d1"},
		{GroupID: "g2", Symbol: "BTC", Destination: "d2"},
		{GroupID: "g3", Symbol: "BTC", Destination: "d3"},
	}

	sender := new(MockSender)
	sender.On("Send", mock.Anything, "d1", mock.Anything).Return(nil)
	sender.On("Send", mock.Anything, "d2", mock.Anything).Return(errors.New("destination gone"))
	sender.On("Send", mock.Anything, "d3", mock.Anything).Return(nil)

	d := NewBroadcastDispatcher(bindings, sender)
	report := d.Broadcast(context.Background(), btcUpdate())

	assert.Equal(t, 2, report.Delivered())
	assert.Equal(t, 1, report.Failed())
	sender.AssertNumberOfCalls(t, "Send", 3)
}

func TestBroadcastDispatcher_NoBindings(t *testing.T) {
	sender := new(MockSender)
	d := NewBroadcastDispatcher(staticBindings{}, sender)

	report := d.Broadcast(context.Background(), btcUpdate())
	assert.Zero(t, report.Delivered())
	assert.Zero(t, report.Failed())
	sender.AssertNotCalled(t, "Send")
}

func TestBroadcastDispatcher_OnlyMatchingSymbol(t *testing.T) {
	bindings := staticBindings{
		{GroupID: "g1", Symbol: "BTC", Destination: "d1"},
		{GroupID: "g1", Symbol: "ETH", Destination: "d2"},
	}

	sender := new(MockSender)
	sender.On("Send", mock.Anything, "d1", mock.Anything).Return(nil)

	d := NewBroadcastDispatcher(bindings, sender)
	report := d.Broadcast(context.Background(), btcUpdate())

	assert.Equal(t, 1, report.Delivered())
	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestRenderUpdate(t *testing.T) {
	msg := renderUpdate(btcUpdate())
	assert.Equal(t, "BTC Price Update", msg.Title)

	values := map[string]string{}
	for _, f := range msg.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "$50600", values["Current Price"])
	assert.Equal(t, "$50000", values["Previous Price"])
	assert.Equal(t, "+1.20%", values["Change"])
}
