package assembler

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/5thdimension/stacks-wallet/internal/explorer"
	"github.com/5thdimension/stacks-wallet/internal/transfer"
)

// DustMinimum is the value of the recipient marker output, in satoshis.
// Outputs below the relay dust threshold would be rejected, so the change
// output is folded into the fee when it falls under dustThreshold.
const (
	DustMinimum   = 5500
	dustThreshold = 546
)

// Signer turns an unsigned transaction into a signed, serialized one. The
// concrete device behind it never leaks past this boundary.
type Signer interface {
	Sign(ctx context.Context, utx *UnsignedTx) (*transfer.Signed, error)
}

// UnsignedTx is a fully constructed transaction awaiting signatures: the
// wire transaction, the per-input signature hashes the device must sign,
// and the previous output scripts needed to finalize the input scripts.
type UnsignedTx struct {
	Tx          *wire.MsgTx
	SigHashes   [][]byte
	PrevScripts [][]byte
	Inputs      []explorer.UTXO
	Fee         uint64
	Prepared    *transfer.Prepared
}

// Assembler builds token-transfer transactions and delegates signing.
type Assembler struct {
	params *chaincfg.Params
}

// NewAssembler creates an Assembler for the given base-chain parameters.
func NewAssembler(params *chaincfg.Params) *Assembler {
	return &Assembler{params: params}
}

// Assemble constructs the transfer transaction for a prepared transfer and
// has the signer produce the signed payload. Every construction or signing
// failure is converted to a transaction-kind Failure; nothing lower-level
// escapes raw.
func (a *Assembler) Assemble(ctx context.Context, prepared *transfer.Prepared, signer Signer) (*transfer.Signed, error) {
	utx, err := a.BuildUnsigned(prepared)
	if err != nil {
		return nil, transfer.NewTransactionError(err)
	}

	signed, err := signer.Sign(ctx, utx)
	if err != nil {
		return nil, transfer.NewTransactionError(err)
	}
	signed.FeeCharged = utx.Fee

	return signed, nil
}

// BuildUnsigned selects inputs from the prepared snapshot and lays out the
// transfer outputs: the OP_RETURN payload, the recipient marker, and change
// back to the sender.
func (a *Assembler) BuildUnsigned(prepared *transfer.Prepared) (*UnsignedTx, error) {
	fee := prepared.EstimatedFee
	target := uint64(DustMinimum) + fee

	inputs, total, err := selectInputs(prepared.Snapshot.Utxos, target)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(wire.TxVersion)

	prevScripts := make([][]byte, len(inputs))
	for i, u := range inputs {
		prevHash, err := chainhash.NewHashFromStr(u.TxID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse utxo txid %q: %w", u.TxID, err)
		}
		script, err := hex.DecodeString(u.ScriptHex)
		if err != nil {
			return nil, fmt.Errorf("failed to decode utxo script: %w", err)
		}
		prevScripts[i] = script
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(prevHash, u.Vout), nil, nil))
	}

	payloadScript, err := buildPayloadScript(prepared)
	if err != nil {
		return nil, err
	}
	tx.AddTxOut(wire.NewTxOut(0, payloadScript))

	recipientScript, err := a.payToAddrScript(prepared.RecipientBTC)
	if err != nil {
		return nil, fmt.Errorf("failed to build recipient script: %w", err)
	}
	tx.AddTxOut(wire.NewTxOut(DustMinimum, recipientScript))

	if change := total - target; change >= dustThreshold {
		changeScript, err := a.payToAddrScript(prepared.SenderBTC)
		if err != nil {
			return nil, fmt.Errorf("failed to build change script: %w", err)
		}
		tx.AddTxOut(wire.NewTxOut(int64(change), changeScript))
	} else {
		fee += total - target
	}

	sigHashes := make([][]byte, len(inputs))
	for i := range inputs {
		h, err := txscript.CalcSignatureHash(prevScripts[i], txscript.SigHashAll, tx, i)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate signature hash for input %d: %w", i, err)
		}
		sigHashes[i] = h
	}

	return &UnsignedTx{
		Tx:          tx,
		SigHashes:   sigHashes,
		PrevScripts: prevScripts,
		Inputs:      inputs,
		Fee:         fee,
		Prepared:    prepared,
	}, nil
}

// selectInputs consumes UTXOs in snapshot order until the target value is
// covered.
func selectInputs(utxos []explorer.UTXO, target uint64) ([]explorer.UTXO, uint64, error) {
	var (
		selected []explorer.UTXO
		total    uint64
	)
	for _, u := range utxos {
		selected = append(selected, u)
		total += u.Satoshis
		if total >= target {
			return selected, total, nil
		}
	}
	return nil, 0, fmt.Errorf("utxo set (%d satoshis) cannot cover %d satoshis", total, target)
}
