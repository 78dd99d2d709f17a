package stacks

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "simple", in: "1000000"},
		{name: "larger than uint64", in: "340282366920938463463374607431768211455"},
		{name: "zero", in: "0", wantErr: true},
		{name: "negative", in: "-5", wantErr: true},
		{name: "fractional", in: "1.5", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "not a number", in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.in, amount.String())
		})
	}
}

func TestEncodeAmount(t *testing.T) {
	out, err := EncodeAmount(big.NewInt(0x0102))
	require.NoError(t, err)
	assert.Len(t, out, 16)
	assert.Equal(t, byte(0x01), out[14])
	assert.Equal(t, byte(0x02), out[15])

	// 2^128 does not fit the fixed-width field.
	tooBig := new(big.Int).Lsh(big.NewInt(1), 128)
	_, err = EncodeAmount(tooBig)
	assert.Error(t, err)

	_, err = EncodeAmount(big.NewInt(-1))
	assert.Error(t, err)
}
