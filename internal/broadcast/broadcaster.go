package broadcast

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/btcsuite/btcd/wire"

	"github.com/5thdimension/stacks-wallet/internal/transfer"
)

// DefaultSuccessPhrase is the relay's acceptance wording. The relay has no
// structured status protocol; acceptance is detected by substring match, so
// the phrase is configuration rather than a baked constant.
const DefaultSuccessPhrase = "transaction submitted"

// Broadcaster submits raw transactions to the relay's push endpoint.
type Broadcaster struct {
	pushURL       string
	successPhrase string
	http          *http.Client
}

// NewBroadcaster creates a broadcaster for the relay push endpoint.
func NewBroadcaster(pushURL, successPhrase string) *Broadcaster {
	return &Broadcaster{
		pushURL:       pushURL,
		successPhrase: successPhrase,
		http:          &http.Client{Timeout: 30 * time.Second},
	}
}

// Broadcast submits the hex-encoded transaction as the relay's tx form
// field and interprets the plain-text response. On acceptance it returns
// the big-endian transaction id derived from the raw bytes; every failure
// is a broadcast-kind Failure, never a raw transport error.
func (b *Broadcaster) Broadcast(ctx context.Context, rawTx []byte) (string, error) {
	form := url.Values{"tx": {hex.EncodeToString(rawTx)}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.pushURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", transfer.NewBroadcastError(fmt.Errorf("failed to create push request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := b.http.Do(req)
	if err != nil {
		return "", transfer.NewBroadcastError(fmt.Errorf("failed to reach relay: %w", err))
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", transfer.NewBroadcastError(fmt.Errorf("failed to read relay response: %w", err))
	}

	if !parseResponse(string(body), b.successPhrase) {
		return "", transfer.NewBroadcastRejected(string(body))
	}

	txID, err := deriveTxID(rawTx)
	if err != nil {
		return "", transfer.NewBroadcastError(fmt.Errorf("relay accepted but txid derivation failed: %w", err))
	}
	return txID, nil
}

// parseResponse decides acceptance by case-insensitive substring match.
// Isolated here so the matching rule can be swapped for a structured
// protocol without touching the rest of the pipeline.
func parseResponse(body, successPhrase string) bool {
	return strings.Contains(strings.ToLower(body), strings.ToLower(successPhrase))
}

// deriveTxID parses the raw transaction and returns its hash with the byte
// order reversed: the chain stores the hash little-endian internally but
// references it big-endian.
func deriveTxID(rawTx []byte) (string, error) {
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(rawTx)); err != nil {
		return "", fmt.Errorf("failed to deserialize transaction: %w", err)
	}
	return tx.TxID(), nil
}
