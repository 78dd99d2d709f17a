package main

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/sirupsen/logrus"

	"github.com/5thdimension/stacks-wallet/internal/api"
	"github.com/5thdimension/stacks-wallet/internal/assembler"
	"github.com/5thdimension/stacks-wallet/internal/broadcast"
	"github.com/5thdimension/stacks-wallet/internal/chain"
	"github.com/5thdimension/stacks-wallet/internal/explorer"
	"github.com/5thdimension/stacks-wallet/internal/fee"
	"github.com/5thdimension/stacks-wallet/internal/graceful"
	"github.com/5thdimension/stacks-wallet/internal/logging"
	"github.com/5thdimension/stacks-wallet/internal/metrics"
	"github.com/5thdimension/stacks-wallet/internal/pipeline"
	"github.com/5thdimension/stacks-wallet/internal/signer"
	"github.com/5thdimension/stacks-wallet/internal/transfer"
)

func main() {
	cfg, err := newConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger := logging.NewLogger(cfg.LogFormat)

	metricsServer := metrics.StartMetricsServer(
		cfg.MetricsPort,
		[]string{metrics.ServiceHTTP, metrics.ServicePipeline},
		logger,
	)

	var params *chaincfg.Params
	switch cfg.Network {
	case "mainnet":
		params = &chaincfg.MainNetParams
	case "testnet":
		params = &chaincfg.TestNet3Params
	default:
		logger.Fatalf("invalid NETWORK: %s (must be 'mainnet' or 'testnet')", cfg.Network)
	}

	explorerClient := explorer.NewClient(cfg.Explorer.URL)
	reader := chain.NewReader(explorerClient)
	estimator := fee.NewEstimator(explorerClient, cfg.Fee.Surcharge)
	validator := transfer.NewValidator(reader, estimator)

	ledgerTransport := signer.NewTCPTransport(cfg.Signer.LedgerBridgeAddr)
	defer ledgerTransport.Close()

	signers := signer.Registry{
		Ledger: signer.NewLedger(ledgerTransport),
		Trezor: signer.NewTrezor(cfg.Signer.TrezorBridgeURL, cfg.Signer.TrezorAccountXpub, params),
	}

	pipe := pipeline.New(
		validator,
		assembler.NewAssembler(params),
		broadcast.NewBroadcaster(cfg.Relay.PushURL, cfg.Relay.SuccessPhrase),
		signers,
		logger,
	)

	srv := api.NewServer(pipe, logger, metrics.HTTPMiddleware())

	go func() {
		if err := srv.Start(cfg.Listen); err != nil {
			logger.Infof("http server stopped: %v", err)
		}
	}()
	logger.Infof("listening on %s, network=%s", cfg.Listen, cfg.Network)

	<-graceful.MakeSigintChan()
	logger.Info("shutting down")

	ctx, cancel := graceful.ShutdownContext(10 * time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Errorf("failed to stop http server: %v", err)
	}
	if err := metricsServer.Stop(ctx); err != nil {
		logger.Errorf("failed to stop metrics server: %v", err)
	}
}
