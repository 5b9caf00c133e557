package mempoolengine

import (
	"testing"

	"github.com/RCasatta/fbbe/sharedstate"
)

func TestFeeRateWithinRangeIsNonzero(t *testing.T) {
	rate := sharedstate.FeeRate(1000, 250)
	if rate == 0 {
		t.Fatalf("expected nonzero fee rate for fee=1000 weight=250")
	}
}
