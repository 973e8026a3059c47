package monitor

import (
	"github.com/coinsentry/tracker-agent/pkg/decimalx"
	"github.com/shopspring/decimal"
)

type thresholdDetector struct {
	threshold decimal.Decimal
}

// NewThresholdDetector reports Significant when the relative change since
// the previous observation reaches threshold (0.01 = 1%).
func NewThresholdDetector(threshold decimal.Decimal) Detector {
	return &thresholdDetector{threshold: threshold}
}

func (d *thresholdDetector) Detect(prev *decimal.Decimal, next decimal.Decimal) Significance {
	// first observation only records a baseline
	if prev == nil {
		return Insignificant
	}
	// a zero baseline has no meaningful relative change
	if prev.IsZero() {
		return Insignificant
	}
	if decimalx.ChangeRatio(*prev, next).Abs().GreaterThanOrEqual(d.threshold) {
		return Significant
	}
	return Insignificant
}
