package signer

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/txscript"

	"github.com/5thdimension/stacks-wallet/internal/assembler"
	"github.com/5thdimension/stacks-wallet/internal/transfer"
)

// DerivationPath is the fixed path both device families sign from.
// 5757 is the ledger's registered SLIP-44 coin type.
const DerivationPath = "m/44'/5757'/0'/0/0"

// Registry holds one backend per wallet type.
type Registry struct {
	Ledger assembler.Signer
	Trezor assembler.Signer
}

// ForWalletType selects the backend for a wallet type. Selection is a pure
// function of the request's wallet type; callers only ever see the
// capability interface.
func (r Registry) ForWalletType(t transfer.WalletType) (assembler.Signer, error) {
	switch t {
	case transfer.WalletTypeLedger:
		return r.Ledger, nil
	case transfer.WalletTypeTrezor:
		return r.Trezor, nil
	default:
		return nil, fmt.Errorf("no signer backend for wallet type %q", t)
	}
}

// finalize applies one DER signature per input and serializes the signed
// transaction. Signatures arrive without the hash-type byte; it is appended
// here.
func finalize(utx *assembler.UnsignedTx, signatures [][]byte, pubKey []byte) (*transfer.Signed, error) {
	if len(signatures) != len(utx.Tx.TxIn) {
		return nil, fmt.Errorf("got %d signatures for %d inputs", len(signatures), len(utx.Tx.TxIn))
	}

	for i, sig := range signatures {
		sigScript, err := txscript.NewScriptBuilder().
			AddData(append(sig, byte(txscript.SigHashAll))).
			AddData(pubKey).
			Script()
		if err != nil {
			return nil, fmt.Errorf("failed to build signature script for input %d: %w", i, err)
		}
		utx.Tx.TxIn[i].SignatureScript = sigScript
	}

	var buf bytes.Buffer
	if err := utx.Tx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize signed transaction: %w", err)
	}

	return &transfer.Signed{RawTx: buf.Bytes()}, nil
}
