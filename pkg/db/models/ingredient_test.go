package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFitsQuantityColumn(t *testing.T) {
	cases := map[string]bool{
		"0.001":           true,
		"120.5":           true,
		"99999999999.999": true,
		"-3.250":          true,
		"0.0004":          false,
		"1.2345":          false,
		"100000000000":    false,
	}
	for raw, want := range cases {
		assert.Equal(t, want, FitsQuantityColumn(decimal.RequireFromString(raw)), raw)
	}
}
