package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
)

func TestNewPairKey(t *testing.T) {
	tests := []struct {
		name           string
		from, to       string
		want           model.PairKey
		wantReciprocal model.PairKey
	}{
		{name: "plain codes", from: "USD", to: "EUR", want: "USD_EUR", wantReciprocal: "EUR_USD"},
		{name: "underscore in source", from: "A_B", to: "C", want: "A%5FB_C", wantReciprocal: "C_A%5FB"},
		{name: "underscore in destination", from: "C", to: "A_B", want: "C_A%5FB", wantReciprocal: "A%5FB_C"},
		{name: "path characters", from: "a/b", to: "x y", want: "a%2Fb_x%20y", wantReciprocal: "x%20y_a%2Fb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := model.NewPairKey(tt.from, tt.to)

			assert.Equal(t, tt.want, key)
			assert.Equal(t, tt.wantReciprocal, key.Reciprocal())
			assert.Equal(t, model.NewPairKey(tt.to, tt.from), key.Reciprocal())
			assert.Equal(t, key, key.Reciprocal().Reciprocal())
		})
	}
}

func TestPairKey_Codes(t *testing.T) {
	from, to := model.NewPairKey("A_B", "C").Codes()

	assert.Equal(t, "A%5FB", from)
	assert.Equal(t, "C", to)
}
