package signer

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/5thdimension/stacks-wallet/internal/assembler"
	"github.com/5thdimension/stacks-wallet/internal/httpjson"
	"github.com/5thdimension/stacks-wallet/internal/transfer"
)

// Trezor signs through the device bridge daemon. Before asking the device
// for signatures it re-derives the expected signing address on the host
// from the account xpub and cross-checks it against the sender's resolved
// base-chain address, catching a wrong device or seed up front.
type Trezor struct {
	bridgeURL   string
	accountXpub string
	path        string
	params      *chaincfg.Params
	http        *http.Client
}

// NewTrezor creates the Trezor backend. accountXpub is the account-level
// extended public key the device reported at setup.
func NewTrezor(bridgeURL, accountXpub string, params *chaincfg.Params) *Trezor {
	return &Trezor{
		bridgeURL:   bridgeURL,
		accountXpub: accountXpub,
		path:        DerivationPath,
		params:      params,
		http:        &http.Client{Timeout: 5 * time.Minute},
	}
}

type trezorSignRequest struct {
	Path      string        `json:"path"`
	Inputs    []trezorInput `json:"inputs"`
	SigHashes []string      `json:"sig_hashes"`
}

type trezorInput struct {
	TxID  string `json:"txid"`
	Vout  uint32 `json:"vout"`
	Value uint64 `json:"value"`
}

type trezorSignResponse struct {
	Signatures []string `json:"signatures"`
	PublicKey  string   `json:"public_key"`
	Error      string   `json:"error"`
}

// Sign cross-checks the derivation, then requests one signature per input
// from the device and assembles the final transaction.
func (t *Trezor) Sign(ctx context.Context, utx *assembler.UnsignedTx) (*transfer.Signed, error) {
	expected, err := t.deriveAddress()
	if err != nil {
		return nil, fmt.Errorf("failed to derive expected address: %w", err)
	}
	if expected != utx.Prepared.SenderBTC {
		return nil, fmt.Errorf("device derivation mismatch: expected %s at %s, sender is %s",
			expected, t.path, utx.Prepared.SenderBTC)
	}

	req := trezorSignRequest{
		Path:      t.path,
		Inputs:    make([]trezorInput, len(utx.Inputs)),
		SigHashes: make([]string, len(utx.SigHashes)),
	}
	for i, in := range utx.Inputs {
		req.Inputs[i] = trezorInput{TxID: in.TxID, Vout: in.Vout, Value: in.Satoshis}
	}
	for i, h := range utx.SigHashes {
		req.SigHashes[i] = hex.EncodeToString(h)
	}

	res, err := httpjson.Call[trezorSignResponse](
		ctx, t.http, http.MethodPost, t.bridgeURL+"/sign", req, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to call device bridge: %w", err)
	}
	if res.Error != "" {
		return nil, fmt.Errorf("device refused to sign: %s", res.Error)
	}

	pubKey, err := hex.DecodeString(res.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("device returned malformed public key: %w", err)
	}

	signatures := make([][]byte, len(res.Signatures))
	for i, s := range res.Signatures {
		sig, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("device returned malformed signature for input %d: %w", i, err)
		}
		signatures[i] = sig
	}

	return finalize(utx, signatures, pubKey)
}

// deriveAddress derives the receiving address at the fixed path from the
// account xpub. The xpub covers the hardened account prefix; only the
// non-hardened change/index steps derive on the host.
func (t *Trezor) deriveAddress() (string, error) {
	key, err := hdkeychain.NewKeyFromString(t.accountXpub)
	if err != nil {
		return "", fmt.Errorf("failed to parse account xpub: %w", err)
	}

	indexes, err := parsePath(t.path)
	if err != nil {
		return "", err
	}
	// Skip the hardened purpose/coin/account components baked into the xpub.
	for _, idx := range indexes {
		if idx >= hardenedOffset {
			continue
		}
		key, err = key.Derive(idx)
		if err != nil {
			return "", fmt.Errorf("failed to derive child %d: %w", idx, err)
		}
	}

	pubKey, err := key.ECPubKey()
	if err != nil {
		return "", fmt.Errorf("failed to extract public key: %w", err)
	}

	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pubKey.SerializeCompressed()), t.params)
	if err != nil {
		return "", fmt.Errorf("failed to build address: %w", err)
	}
	return addr.EncodeAddress(), nil
}
