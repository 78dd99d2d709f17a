package assembler

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"

	"github.com/5thdimension/stacks-wallet/internal/stacks"
	"github.com/5thdimension/stacks-wallet/internal/transfer"
)

// Token transfer payload framing: a two-byte ledger magic, the transfer
// opcode, a fixed-width big-endian amount, then the memo.
var payloadMagic = []byte("id")

const transferOpcode = '$'

// buildPayloadScript serializes the token transfer into an OP_RETURN script.
func buildPayloadScript(prepared *transfer.Prepared) ([]byte, error) {
	amount, err := stacks.EncodeAmount(prepared.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token amount: %w", err)
	}
	if len(prepared.Memo) > stacks.MemoMaxLen {
		return nil, fmt.Errorf("memo exceeds %d bytes", stacks.MemoMaxLen)
	}

	var payload bytes.Buffer
	payload.Write(payloadMagic)
	payload.WriteByte(transferOpcode)
	payload.Write(amount)
	payload.WriteString(prepared.Memo)

	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(payload.Bytes()).
		Script()
	if err != nil {
		return nil, fmt.Errorf("failed to build payload script: %w", err)
	}
	return script, nil
}

// payToAddrScript builds the pubkey script paying to a base-chain address.
func (a *Assembler) payToAddrScript(address string) ([]byte, error) {
	addr, err := btcutil.DecodeAddress(address, a.params)
	if err != nil {
		return nil, fmt.Errorf("failed to decode address %q: %w", address, err)
	}
	return txscript.PayToAddrScript(addr)
}
