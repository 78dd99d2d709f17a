package broadcast

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5thdimension/stacks-wallet/internal/transfer"
)

func testRawTx(t *testing.T) []byte {
	t.Helper()
	tx := wire.NewMsgTx(wire.TxVersion)
	prev, err := chainhash.NewHashFromStr("9b1a2f3e4d5c6b7a8f9e1f0b4b4d5b2b4b8d3e0c8050b5b0e3f7650145cdabcd")
	require.NoError(t, err)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(prev, 0), []byte{0x51}, nil))
	tx.AddTxOut(wire.NewTxOut(1000, []byte{0x6a, 0x01, 0xaa}))

	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))
	return buf.Bytes()
}

// expectedTxID computes the big-endian reference form of the transaction
// hash by hand: sha256d over the raw bytes, byte order reversed.
func expectedTxID(raw []byte) string {
	first := sha256.Sum256(raw)
	second := sha256.Sum256(first[:])
	for i, j := 0, len(second)-1; i < j; i, j = i+1, j-1 {
		second[i], second[j] = second[j], second[i]
	}
	return hex.EncodeToString(second[:])
}

func TestBroadcastSuccess(t *testing.T) {
	raw := testRawTx(t)

	var gotTx string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotTx = r.FormValue("tx")
		w.Write([]byte("Transaction Submitted. ID: abc"))
	}))
	defer srv.Close()

	b := NewBroadcaster(srv.URL, DefaultSuccessPhrase)
	txID, err := b.Broadcast(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, hex.EncodeToString(raw), gotTx, "relay receives the hex transaction in the tx form field")
	assert.Equal(t, expectedTxID(raw), txID, "txid is the byte-reversed hash of the raw transaction")
}

func TestBroadcastSuccessCaseInsensitive(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "lowercase", body: "transaction submitted"},
		{name: "uppercase", body: "TRANSACTION SUBMITTED"},
		{name: "mixed with surrounding text", body: "OK: Transaction submitted to 4 peers"},
	}

	raw := testRawTx(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			b := NewBroadcaster(srv.URL, DefaultSuccessPhrase)
			txID, err := b.Broadcast(context.Background(), raw)
			require.NoError(t, err)
			assert.Equal(t, expectedTxID(raw), txID)
		})
	}
}

func TestBroadcastRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Invalid transaction format"))
	}))
	defer srv.Close()

	b := NewBroadcaster(srv.URL, DefaultSuccessPhrase)
	_, err := b.Broadcast(context.Background(), testRawTx(t))

	var failure *transfer.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, transfer.KindBroadcastRejected, failure.Kind)
	assert.Equal(t, "Invalid transaction format", failure.ResponseBody)
}

func TestBroadcastTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	b := NewBroadcaster(srv.URL, DefaultSuccessPhrase)
	_, err := b.Broadcast(context.Background(), testRawTx(t))

	var failure *transfer.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, transfer.KindBroadcast, failure.Kind)
}

func TestParseResponse(t *testing.T) {
	assert.True(t, parseResponse("Transaction submitted. ID: abc", DefaultSuccessPhrase))
	assert.True(t, parseResponse("TRANSACTION SUBMITTED", DefaultSuccessPhrase))
	assert.False(t, parseResponse("Invalid transaction format", DefaultSuccessPhrase))
	assert.False(t, parseResponse("", DefaultSuccessPhrase))
}
