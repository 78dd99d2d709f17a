package transfer

import (
	"fmt"
	"math/big"

	"github.com/5thdimension/stacks-wallet/internal/chain"
	"github.com/5thdimension/stacks-wallet/internal/stacks"
)

// WalletType selects which hardware-signer family signs the transfer.
type WalletType string

const (
	WalletTypeLedger WalletType = "ledger"
	WalletTypeTrezor WalletType = "trezor"
)

// Request is one user-initiated send. It is immutable and lives for exactly
// one pipeline run. Addresses are in the ledger's native encoding; the
// amount is exact integer microstacks.
type Request struct {
	Sender     string
	Recipient  string
	Amount     *big.Int
	WalletType WalletType
	Memo       string
}

// Check rejects structurally invalid requests before any network read.
func (r *Request) Check() error {
	if r.Sender == "" || r.Recipient == "" {
		return fmt.Errorf("sender and recipient are required")
	}
	if r.Amount == nil || r.Amount.Sign() <= 0 {
		return fmt.Errorf("amount must be a positive integer")
	}
	if len(r.Memo) > stacks.MemoMaxLen {
		return fmt.Errorf("memo exceeds %d bytes", stacks.MemoMaxLen)
	}
	switch r.WalletType {
	case WalletTypeLedger, WalletTypeTrezor:
	default:
		return fmt.Errorf("unknown wallet type %q", r.WalletType)
	}
	return nil
}

// Prepared is a transfer that has passed every admission gate. Its existence
// is a proof of admission: it is only ever constructed by the validator.
type Prepared struct {
	SenderBTC    string
	RecipientBTC string
	TokenType    string
	Amount       *big.Int
	Memo         string
	WalletType   WalletType
	Snapshot     *chain.Snapshot
	EstimatedFee uint64
}

// Signed is a fully signed, serialized transaction ready for broadcast.
// FeeCharged is the fee the transaction actually pays: the estimate, plus any
// sub-dust change folded into it rather than burned on an unrelayable output.
type Signed struct {
	RawTx      []byte
	FeeCharged uint64
}
