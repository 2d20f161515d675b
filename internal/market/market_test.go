package market

import (
	"context"
	"math"
	"testing"
)

func TestStatic(t *testing.T) {
	v, ok, err := Static{}.ETHVolatility(context.Background())
	if err != nil || ok || v != 0 {
		t.Fatalf("unset signal mismatch: %v %v %v", v, ok, err)
	}

	v, ok, err = Static{Volatility: 35, Set: true}.ETHVolatility(context.Background())
	if err != nil || !ok || v != 35 {
		t.Fatalf("set signal mismatch: %v %v %v", v, ok, err)
	}

	if _, _, err := (Static{Volatility: math.NaN(), Set: true}).ETHVolatility(context.Background()); err == nil {
		t.Fatalf("expected error for NaN volatility")
	}
}
