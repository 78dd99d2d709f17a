package transfer

import (
	"context"
	"fmt"

	"github.com/5thdimension/stacks-wallet/internal/chain"
	"github.com/5thdimension/stacks-wallet/internal/stacks"
)

// snapshotReader assembles a decision-time observation of chain and account
// state for one sender.
type snapshotReader interface {
	ReadSnapshot(ctx context.Context, btcAddress, stacksAddress string) (*chain.Snapshot, error)
}

// feeEstimator estimates the fee for a transfer spending utxoCount inputs,
// safety margin included.
type feeEstimator interface {
	Estimate(ctx context.Context, utxoCount, memoLen int) (uint64, error)
}

// Validator is the admission-control gate in front of assembly and signing.
type Validator struct {
	reader    snapshotReader
	estimator feeEstimator
}

// NewValidator creates a validator over the given snapshot reader and fee
// estimator.
func NewValidator(reader snapshotReader, estimator feeEstimator) *Validator {
	return &Validator{reader: reader, estimator: estimator}
}

// Validate admits or rejects a transfer request. Gates run strictly in
// order and short-circuit on the first failure: funding, then token
// sufficiency, then lock status. Funding is checked first so that when
// several conditions hold at once the user sees the cheapest one to fix.
// Malformed addresses fail fast before any network read.
func (v *Validator) Validate(ctx context.Context, req *Request) (*Prepared, error) {
	if err := req.Check(); err != nil {
		return nil, fmt.Errorf("invalid transfer request: %w", err)
	}

	senderBTC, err := stacks.ToBitcoin(req.Sender)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	recipientBTC, err := stacks.ToBitcoin(req.Recipient)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}

	snapshot, err := v.reader.ReadSnapshot(ctx, senderBTC, req.Sender)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain state: %w", err)
	}

	estimate, err := v.estimator.Estimate(ctx, len(snapshot.Utxos), len(req.Memo))
	if err != nil {
		return nil, fmt.Errorf("failed to estimate fee: %w", err)
	}

	// Gate 1: funding. The total balance decides between a hard shortfall
	// and funds that merely await confirmation.
	if snapshot.BTCBalance < estimate {
		return nil, NewInsufficientFunding(estimate, snapshot.BTCBalance)
	}
	if snapshot.ConfirmedBalance < estimate {
		return nil, NewPendingConfirmations(estimate, snapshot.ConfirmedBalance)
	}

	// Gate 2: token sufficiency.
	if snapshot.TokenBalance.Cmp(req.Amount) < 0 {
		return nil, &Failure{
			Kind: KindInsufficientTokenBalance,
			Message: fmt.Sprintf("insufficient token balance: need %s, have %s",
				req.Amount.String(), snapshot.TokenBalance.String()),
		}
	}

	// Gate 3: lock status. Tokens below their unlock height never leave the
	// account.
	if snapshot.LockTransferBlockID > snapshot.BlockHeight {
		return nil, &Failure{
			Kind: KindTokensLocked,
			Message: fmt.Sprintf("tokens locked until block %d, chain is at %d",
				snapshot.LockTransferBlockID, snapshot.BlockHeight),
		}
	}

	return &Prepared{
		SenderBTC:    senderBTC,
		RecipientBTC: recipientBTC,
		TokenType:    stacks.TokenType,
		Amount:       req.Amount,
		Memo:         req.Memo,
		WalletType:   req.WalletType,
		Snapshot:     snapshot,
		EstimatedFee: estimate,
	}, nil
}
