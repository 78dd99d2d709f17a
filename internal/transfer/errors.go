package transfer

import "fmt"

// FailureKind tags every domain failure the pipeline can surface. The set is
// closed: no raw transport or parsing error crosses a component boundary
// without being converted to one of these.
type FailureKind string

const (
	// KindInsufficientFunding: the BTC balance cannot cover the estimated
	// fee. Recoverable by funding the wallet; carries the exact shortfall.
	KindInsufficientFunding FailureKind = "insufficient_funding_balance"

	// KindPendingConfirmations: funding exists but is not yet confirmed.
	// Recoverable by waiting.
	KindPendingConfirmations FailureKind = "pending_confirmations"

	// KindInsufficientTokenBalance: the token balance cannot cover the
	// transfer amount.
	KindInsufficientTokenBalance FailureKind = "insufficient_token_balance"

	// KindTokensLocked: the account's tokens have not reached their unlock
	// height yet.
	KindTokensLocked FailureKind = "tokens_locked"

	// KindTransaction: assembly or signing failed.
	KindTransaction FailureKind = "transaction_error"

	// KindBroadcastRejected: the relay answered but did not accept the
	// transaction; carries the raw response body.
	KindBroadcastRejected FailureKind = "broadcast_rejected"

	// KindBroadcast: the relay could not be reached.
	KindBroadcast FailureKind = "broadcast_error"
)

// Failure is a structured domain failure. Estimate, Balance and Shortfall
// are set for funding failures; ResponseBody for relay rejections.
type Failure struct {
	Kind         FailureKind
	Message      string
	Estimate     uint64
	Balance      uint64
	Shortfall    uint64
	ResponseBody string
}

func (f *Failure) Error() string {
	return f.Message
}

// NewInsufficientFunding reports a funding gap of estimate - balance.
func NewInsufficientFunding(estimate, balance uint64) *Failure {
	return &Failure{
		Kind:      KindInsufficientFunding,
		Message:   fmt.Sprintf("insufficient BTC balance: need %d satoshis, have %d", estimate, balance),
		Estimate:  estimate,
		Balance:   balance,
		Shortfall: estimate - balance,
	}
}

// NewPendingConfirmations reports funding that exists but is unconfirmed.
func NewPendingConfirmations(estimate, confirmed uint64) *Failure {
	return &Failure{
		Kind:     KindPendingConfirmations,
		Message:  fmt.Sprintf("waiting on confirmations: need %d satoshis confirmed, have %d", estimate, confirmed),
		Estimate: estimate,
		Balance:  confirmed,
	}
}

// NewTransactionError wraps an assembly or signing failure, always carrying
// the underlying cause's message.
func NewTransactionError(err error) *Failure {
	return &Failure{
		Kind:    KindTransaction,
		Message: err.Error(),
	}
}

// NewBroadcastRejected reports a relay that answered without accepting.
func NewBroadcastRejected(responseBody string) *Failure {
	return &Failure{
		Kind:         KindBroadcastRejected,
		Message:      "relay rejected transaction: " + responseBody,
		ResponseBody: responseBody,
	}
}

// NewBroadcastError wraps a relay transport failure.
func NewBroadcastError(err error) *Failure {
	return &Failure{
		Kind:    KindBroadcast,
		Message: err.Error(),
	}
}
