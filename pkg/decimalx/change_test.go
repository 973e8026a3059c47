package decimalx

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestChangeRatio(t *testing.T) {
	testCases := []struct {
		name string
		prev string
		next string
		want string
	}{
		{
			name: "rise",
			prev: "50000",
			next: "50600",
			want: "0.012",
		},
		{
			name: "fall",
			prev: "100",
			next: "99",
			want: "-0.01",
		},
		{
			name: "flat",
			prev: "2500.5",
			next: "2500.5",
			want: "0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ChangeRatio(MustFromString(tc.prev), MustFromString(tc.next))
			assert.True(t, got.Equal(MustFromString(tc.want)), "got %s", got)
		})
	}
}

func TestChangePercent(t *testing.T) {
	got := ChangePercent(decimal.NewFromInt(200), decimal.NewFromInt(205))
	assert.True(t, got.Equal(MustFromString("2.5")), "got %s", got)
}
