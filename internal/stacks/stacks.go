package stacks

import (
	"fmt"
	"math/big"
)

// TokenType tags the single token the ledger currently carries.
const TokenType = "STACKS"

// MemoMaxLen bounds the memo embedded in a transfer, in bytes.
const MemoMaxLen = 34

// amountLen is the fixed width of the big-endian amount field in the
// on-chain transfer payload.
const amountLen = 16

// ParseAmount parses a decimal microstacks amount. Amounts are exact
// integers; fractional or negative values are rejected.
func ParseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid token amount %q", s)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("token amount must be positive, got %q", s)
	}
	return amount, nil
}

// EncodeAmount serializes a token amount as a fixed-width big-endian field.
func EncodeAmount(amount *big.Int) ([]byte, error) {
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("negative token amount")
	}
	if amount.BitLen() > amountLen*8 {
		return nil, fmt.Errorf("token amount exceeds %d bytes", amountLen)
	}
	out := make([]byte, amountLen)
	return amount.FillBytes(out), nil
}
