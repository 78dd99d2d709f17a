package fee

import (
	"context"
	"fmt"
)

// DefaultSurcharge is the fixed safety margin added on top of every raw
// estimate, in satoshis. It absorbs fee-rate drift between estimation and
// broadcast and is tunable via configuration.
const DefaultSurcharge = 5500

// Transaction size model, in bytes. One p2pkh input with its signature
// script, one output with its pubkey script, the fixed envelope around
// them, and the OP_RETURN framing in front of the transfer payload.
const (
	inputSize          = 148
	outputSize         = 34
	txOverhead         = 10
	opReturnOverhead   = 13
	transferPayloadLen = 3 + 16 // magic+opcode, fixed-width amount
)

// RateProvider reports the relay's current fee-rate policy.
type RateProvider interface {
	SatsPerByte(ctx context.Context) (uint64, error)
}

// Estimator computes fee estimates from transaction size and the current
// fee rate, with the configured surcharge already included.
type Estimator struct {
	rate      RateProvider
	surcharge uint64
}

// NewEstimator creates an estimator. A zero surcharge is valid; callers
// that want the stock safety margin pass DefaultSurcharge.
func NewEstimator(rate RateProvider, surcharge uint64) *Estimator {
	return &Estimator{rate: rate, surcharge: surcharge}
}

// Estimate returns the estimated fee in satoshis for a transfer consuming
// utxoCount inputs and embedding a memo of memoLen bytes. The estimate
// scales with the input count since every input enlarges the signed payload.
// Zero inputs is a valid size: an empty wallet still gets a concrete figure
// so the funding gate can report an exact shortfall.
func (e *Estimator) Estimate(ctx context.Context, utxoCount, memoLen int) (uint64, error) {
	if utxoCount < 0 {
		return 0, fmt.Errorf("negative utxo count %d", utxoCount)
	}

	rate, err := e.rate.SatsPerByte(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get fee rate: %w", err)
	}

	// OP_RETURN output, recipient output, change output.
	size := txOverhead +
		utxoCount*inputSize +
		2*outputSize +
		opReturnOverhead + transferPayloadLen + memoLen

	return uint64(size)*rate + e.surcharge, nil
}

// Surcharge reports the configured safety margin.
func (e *Estimator) Surcharge() uint64 {
	return e.surcharge
}
