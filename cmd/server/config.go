package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type config struct {
	Listen      string `default:":8080"`
	MetricsPort string `default:"9090"`
	LogFormat   string `default:"text"`
	Network     string `default:"mainnet"`
	Explorer    explorerConfig
	Relay       relayConfig
	Fee         feeConfig
	Signer      signerConfig
}

type explorerConfig struct {
	URL string `required:"true"`
}

type relayConfig struct {
	PushURL string `required:"true"`
	// The relay reports acceptance as free text; this is the phrase that
	// counts as success.
	SuccessPhrase string `default:"transaction submitted"`
}

type feeConfig struct {
	// Safety margin in satoshis added on every estimate.
	Surcharge uint64 `default:"5500"`
}

type signerConfig struct {
	LedgerBridgeAddr  string `default:"127.0.0.1:9999"`
	TrezorBridgeURL   string `default:"http://127.0.0.1:21325"`
	TrezorAccountXpub string
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}
