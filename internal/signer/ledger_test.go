package signer

import (
	"bytes"
	"context"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5thdimension/stacks-wallet/internal/assembler"
	"github.com/5thdimension/stacks-wallet/internal/chain"
	"github.com/5thdimension/stacks-wallet/internal/explorer"
	"github.com/5thdimension/stacks-wallet/internal/transfer"
)

// secp256k1 generator point, compressed: a valid public key for tests.
const testPubKeyHex = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"

var testSignature = []byte{
	0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0x01,
}

type scriptedTransport struct {
	apdus     [][]byte
	responses map[byte][]byte // keyed by INS
}

func (s *scriptedTransport) Exchange(ctx context.Context, payload []byte) ([]byte, error) {
	s.apdus = append(s.apdus, payload)
	resp, ok := s.responses[payload[1]]
	if !ok {
		return []byte{0x6d, 0x00}, nil
	}
	return resp, nil
}

func (s *scriptedTransport) Close() error { return nil }

func withStatus(data []byte, sw uint16) []byte {
	return append(append([]byte{}, data...), byte(sw>>8), byte(sw))
}

func testUnsignedTx(t *testing.T, inputs int) *assembler.UnsignedTx {
	t.Helper()
	tx := wire.NewMsgTx(wire.TxVersion)
	utx := &assembler.UnsignedTx{
		Tx: tx,
		Prepared: &transfer.Prepared{
			SenderBTC: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
			Snapshot:  &chain.Snapshot{},
		},
	}
	prev, err := chainhash.NewHashFromStr("9b1a2f3e4d5c6b7a8f9e1f0b4b4d5b2b4b8d3e0c8050b5b0e3f7650145cdabcd")
	require.NoError(t, err)
	for i := 0; i < inputs; i++ {
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(prev, uint32(i)), nil, nil))
		sigHash := bytes.Repeat([]byte{byte(i + 1)}, 32)
		utx.SigHashes = append(utx.SigHashes, sigHash)
		utx.Inputs = append(utx.Inputs, explorer.UTXO{TxID: prev.String(), Vout: uint32(i), Satoshis: 1000})
	}
	tx.AddTxOut(wire.NewTxOut(0, []byte{0x6a, 0x01, 0xaa}))
	return utx
}

func TestLedgerSign(t *testing.T) {
	pubKey, err := hex.DecodeString(testPubKeyHex)
	require.NoError(t, err)

	transport := &scriptedTransport{responses: map[byte][]byte{
		ledgerInsGetPubKey: withStatus(pubKey, swOK),
		ledgerInsSignHash:  withStatus(testSignature, swOK),
	}}

	utx := testUnsignedTx(t, 2)
	signed, err := NewLedger(transport).Sign(context.Background(), utx)
	require.NoError(t, err)

	// One pubkey request plus one signature request per input.
	require.Len(t, transport.apdus, 3)
	assert.Equal(t, byte(ledgerInsGetPubKey), transport.apdus[0][1])
	assert.Equal(t, byte(ledgerInsSignHash), transport.apdus[1][1])

	// The signature request carries the path then the signature hash.
	pathBytes, err := serializePath(DerivationPath)
	require.NoError(t, err)
	assert.Equal(t, utx.SigHashes[0], transport.apdus[1][5+len(pathBytes):])

	// The signed transaction parses and every input carries a script.
	parsed := wire.NewMsgTx(wire.TxVersion)
	require.NoError(t, parsed.Deserialize(bytes.NewReader(signed.RawTx)))
	require.Len(t, parsed.TxIn, 2)
	for _, in := range parsed.TxIn {
		assert.NotEmpty(t, in.SignatureScript)
	}
}

func TestLedgerSignUserRejected(t *testing.T) {
	pubKey, err := hex.DecodeString(testPubKeyHex)
	require.NoError(t, err)

	transport := &scriptedTransport{responses: map[byte][]byte{
		ledgerInsGetPubKey: withStatus(pubKey, swOK),
		ledgerInsSignHash:  withStatus(nil, swUserRejected),
	}}

	_, err = NewLedger(transport).Sign(context.Background(), testUnsignedTx(t, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected on device")
}

func TestLedgerSignBadPublicKey(t *testing.T) {
	transport := &scriptedTransport{responses: map[byte][]byte{
		ledgerInsGetPubKey: withStatus([]byte{0x01, 0x02}, swOK),
	}}

	_, err := NewLedger(transport).Sign(context.Background(), testUnsignedTx(t, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed public key")
}
