package chain

import (
	"context"
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/5thdimension/stacks-wallet/internal/explorer"
)

// Snapshot is one observation of everything the admission gates need: the
// sender's UTXO set, BTC balances, token account state, and chain height.
// The four underlying reads are independent; the snapshot treats them as a
// single decision-time observation even though true atomicity across the
// reads is not guaranteed.
type Snapshot struct {
	Utxos               []explorer.UTXO
	BTCBalance          uint64
	ConfirmedBalance    uint64
	TokenBalance        *big.Int
	LockTransferBlockID uint64
	BlockHeight         uint64
}

// Reader assembles snapshots from the explorer backend.
type Reader struct {
	client *explorer.Client
}

// NewReader creates a snapshot reader over the given explorer client.
func NewReader(client *explorer.Client) *Reader {
	return &Reader{client: client}
}

// ReadSnapshot issues the four sub-reads concurrently and joins them into
// one Snapshot. Any failed sub-read fails the whole snapshot; no retries.
func (r *Reader) ReadSnapshot(ctx context.Context, btcAddress, stacksAddress string) (*Snapshot, error) {
	var (
		utxos   []explorer.UTXO
		balance uint64
		account *explorer.Account
		height  uint64
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		utxos, err = r.client.Utxos(ctx, btcAddress)
		return err
	})
	g.Go(func() error {
		var err error
		balance, err = r.client.Balance(ctx, btcAddress)
		return err
	})
	g.Go(func() error {
		var err error
		account, err = r.client.Account(ctx, stacksAddress)
		return err
	})
	g.Go(func() error {
		var err error
		height, err = r.client.BlockHeight(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read chain snapshot: %w", err)
	}

	var confirmed uint64
	for _, u := range utxos {
		if u.Confirmations > 0 {
			confirmed += u.Satoshis
		}
	}

	return &Snapshot{
		Utxos:               utxos,
		BTCBalance:          balance,
		ConfirmedBalance:    confirmed,
		TokenBalance:        account.Balance,
		LockTransferBlockID: account.LockTransferBlockID,
		BlockHeight:         height,
	}, nil
}
