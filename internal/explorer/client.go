package explorer

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/5thdimension/stacks-wallet/internal/httpjson"
)

const defaultTimeout = 30 * time.Second

// Client queries the explorer backend for chain and account state.
// All methods are pure reads; retries are the caller's responsibility.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates an explorer client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		url:  baseURL,
		http: &http.Client{Timeout: defaultTimeout},
	}
}

// UTXO is one spendable output of a base-chain address.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Satoshis      uint64 `json:"satoshis"`
	Confirmations uint64 `json:"confirmations"`
	ScriptHex     string `json:"scriptPubKey"`
}

// Account is the token-ledger view of an address: the token balance in
// microstacks and the block height at which the tokens unlock for transfer.
type Account struct {
	Balance             *big.Int
	LockTransferBlockID uint64
}

type accountResponse struct {
	Balance             string `json:"balance"`
	LockTransferBlockID uint64 `json:"lock_transfer_block_id"`
}

// Utxos fetches all unspent outputs for a base-chain address.
func (c *Client) Utxos(ctx context.Context, address string) ([]UTXO, error) {
	utxos, err := httpjson.Call[[]UTXO](
		ctx, c.http, http.MethodGet,
		c.url+"/addr/"+url.PathEscape(address)+"/utxo",
		nil, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch utxos: %w", err)
	}
	return utxos, nil
}

// Balance fetches the total BTC balance (confirmed plus unconfirmed) of a
// base-chain address, in satoshis.
func (c *Client) Balance(ctx context.Context, address string) (uint64, error) {
	type balanceResponse struct {
		Balance uint64 `json:"balance"`
	}
	res, err := httpjson.Call[balanceResponse](
		ctx, c.http, http.MethodGet,
		c.url+"/addr/"+url.PathEscape(address)+"/balance",
		nil, nil,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch balance: %w", err)
	}
	return res.Balance, nil
}

// Account fetches the token-ledger account state for a ledger-native address.
func (c *Client) Account(ctx context.Context, stacksAddress string) (*Account, error) {
	res, err := httpjson.Call[accountResponse](
		ctx, c.http, http.MethodGet,
		c.url+"/v1/accounts/"+url.PathEscape(stacksAddress),
		nil, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}

	balance, ok := new(big.Int).SetString(res.Balance, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse account balance %q", res.Balance)
	}

	return &Account{
		Balance:             balance,
		LockTransferBlockID: res.LockTransferBlockID,
	}, nil
}

// BlockHeight fetches the current chain height.
func (c *Client) BlockHeight(ctx context.Context) (uint64, error) {
	type statusResponse struct {
		Blocks uint64 `json:"blocks"`
	}
	res, err := httpjson.Call[statusResponse](
		ctx, c.http, http.MethodGet,
		c.url+"/status",
		nil, nil,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch block height: %w", err)
	}
	return res.Blocks, nil
}

// SatsPerByte fetches the current relay fee-rate policy.
func (c *Client) SatsPerByte(ctx context.Context) (uint64, error) {
	type feeResponse struct {
		FeeRate uint64 `json:"feerate"`
	}
	res, err := httpjson.Call[feeResponse](
		ctx, c.http, http.MethodGet,
		c.url+"/utils/estimatefee",
		nil, nil,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch fee rate: %w", err)
	}
	return res.FeeRate, nil
}
