package signer

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/5thdimension/stacks-wallet/internal/assembler"
	"github.com/5thdimension/stacks-wallet/internal/transfer"
)

// APDU layout for the device's signing app.
const (
	ledgerCLA          = 0xe0
	ledgerInsGetPubKey = 0x40
	ledgerInsSignHash  = 0x04

	swOK            = 0x9000
	swUserRejected  = 0x6985
	swAppNotStarted = 0x6e00
)

// Ledger signs through the active USB/HID transport of a connected device.
// Only public keys, the derivation path, and signature bytes cross the
// transport; key material never leaves the device.
type Ledger struct {
	transport Transport
	path      string
}

// NewLedger creates the Ledger backend over an open device transport.
func NewLedger(transport Transport) *Ledger {
	return &Ledger{transport: transport, path: DerivationPath}
}

// Sign asks the device for the signing public key, then for one signature
// per input signature hash, and assembles the final transaction.
func (l *Ledger) Sign(ctx context.Context, utx *assembler.UnsignedTx) (*transfer.Signed, error) {
	pathBytes, err := serializePath(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize derivation path: %w", err)
	}

	pubKeyBytes, err := l.exchange(ctx, ledgerInsGetPubKey, pathBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to get public key from device: %w", err)
	}
	pubKey, err := btcec.ParsePubKey(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("device returned malformed public key: %w", err)
	}

	signatures := make([][]byte, len(utx.SigHashes))
	for i, sigHash := range utx.SigHashes {
		data := make([]byte, 0, len(pathBytes)+len(sigHash))
		data = append(data, pathBytes...)
		data = append(data, sigHash...)

		sig, err := l.exchange(ctx, ledgerInsSignHash, data)
		if err != nil {
			return nil, fmt.Errorf("failed to sign input %d: %w", i, err)
		}
		signatures[i] = sig
	}

	return finalize(utx, signatures, pubKey.SerializeCompressed())
}

// exchange sends one APDU and strips the trailing status word from the
// response, mapping device status codes to errors.
func (l *Ledger) exchange(ctx context.Context, ins byte, data []byte) ([]byte, error) {
	if len(data) > 0xff {
		return nil, fmt.Errorf("apdu payload too large: %d bytes", len(data))
	}

	apdu := make([]byte, 0, 5+len(data))
	apdu = append(apdu, ledgerCLA, ins, 0x00, 0x00, byte(len(data)))
	apdu = append(apdu, data...)

	resp, err := l.transport.Exchange(ctx, apdu)
	if err != nil {
		return nil, err
	}
	if len(resp) < 2 {
		return nil, fmt.Errorf("device response too short: %d bytes", len(resp))
	}

	sw := binary.BigEndian.Uint16(resp[len(resp)-2:])
	switch sw {
	case swOK:
		return resp[:len(resp)-2], nil
	case swUserRejected:
		return nil, fmt.Errorf("transaction rejected on device")
	case swAppNotStarted:
		return nil, fmt.Errorf("signing app is not open on device")
	default:
		return nil, fmt.Errorf("device returned status 0x%04x", sw)
	}
}
