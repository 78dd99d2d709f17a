package stacks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known checksum-valid base-chain addresses.
const (
	testP2PKHAddress = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	testP2PKHOther   = "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"
)

func TestAddressRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		btc  string
	}{
		{name: "p2pkh", btc: testP2PKHAddress},
		{name: "p2pkh other", btc: testP2PKHOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stx, err := FromBitcoin(tt.btc)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(stx, "SP"), "mainnet p2pkh should encode with SP prefix, got %s", stx)

			back, err := ToBitcoin(stx)
			require.NoError(t, err)
			assert.Equal(t, tt.btc, back)
		})
	}
}

func TestToBitcoinNormalizesHomoglyphs(t *testing.T) {
	stx, err := FromBitcoin(testP2PKHAddress)
	require.NoError(t, err)

	// Lowercase input and O-for-0 substitutions decode to the same address.
	lowered := strings.ToLower(stx)
	back, err := ToBitcoin("S" + lowered[1:])
	require.NoError(t, err)
	assert.Equal(t, testP2PKHAddress, back)

	substituted := strings.ReplaceAll(stx, "0", "O")
	back, err = ToBitcoin(substituted)
	require.NoError(t, err)
	assert.Equal(t, testP2PKHAddress, back)
}

func TestToBitcoinRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		addr string
	}{
		{name: "empty", addr: ""},
		{name: "missing prefix", addr: "P2J6ZY48GV1EZ5V2V5RB9MP66SM86963"},
		{name: "invalid character", addr: "SP2J6ZY48GV1EZ5V2V5RB9MP66SM8696u3"},
		{name: "truncated", addr: "SP2J6Z"},
		{name: "corrupted checksum", addr: "SP2J6ZY48GV1EZ5V2V5RB9MP66SM869634"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToBitcoin(tt.addr)
			assert.Error(t, err)
		})
	}
}

func TestToBitcoinRejectsWrongHashLength(t *testing.T) {
	tests := []struct {
		name string
		hash []byte
	}{
		{name: "short hash", hash: make([]byte, 19)},
		{name: "long hash", hash: make([]byte, 21)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Checksum-valid but not a 20-byte hash; translation must fail
			// here, not later at transaction construction.
			addr := c32checkEncode(22, tt.hash)
			_, err := ToBitcoin(addr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "want 20")
		})
	}
}

func TestAddressChecksumDetectsCorruption(t *testing.T) {
	stx, err := FromBitcoin(testP2PKHAddress)
	require.NoError(t, err)

	// Flip one payload character; the checksum must catch it.
	body := []byte(stx)
	i := len(body) - 10
	if body[i] == 'A' {
		body[i] = 'B'
	} else {
		body[i] = 'A'
	}

	_, err = ToBitcoin(string(body))
	assert.Error(t, err)
}
