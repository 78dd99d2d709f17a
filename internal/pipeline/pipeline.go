package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/5thdimension/stacks-wallet/internal/assembler"
	"github.com/5thdimension/stacks-wallet/internal/metrics"
	"github.com/5thdimension/stacks-wallet/internal/signer"
	"github.com/5thdimension/stacks-wallet/internal/transfer"
)

// validator admits a transfer request or rejects it with a typed failure.
type validator interface {
	Validate(ctx context.Context, req *transfer.Request) (*transfer.Prepared, error)
}

// txAssembler builds and signs an admitted transfer.
type txAssembler interface {
	Assemble(ctx context.Context, prepared *transfer.Prepared, s assembler.Signer) (*transfer.Signed, error)
}

// broadcaster submits a signed transaction and returns its id.
type broadcaster interface {
	Broadcast(ctx context.Context, rawTx []byte) (string, error)
}

// Pipeline runs validate, assemble, broadcast for one transfer request.
// A per-sender mutex serializes concurrent sends from the same address so
// two invocations never race the same snapshot into a double spend.
type Pipeline struct {
	validator   validator
	assembler   txAssembler
	broadcaster broadcaster
	signers     signer.Registry
	logger      *logrus.Logger

	mu      sync.Mutex
	senders map[string]*sync.Mutex
}

// New wires a pipeline from its components.
func New(
	v validator,
	a txAssembler,
	b broadcaster,
	signers signer.Registry,
	logger *logrus.Logger,
) *Pipeline {
	return &Pipeline{
		validator:   v,
		assembler:   a,
		broadcaster: b,
		signers:     signers,
		logger:      logger,
		senders:     make(map[string]*sync.Mutex),
	}
}

// Run executes one pipeline invocation and returns the broadcast
// transaction id. Every failure is terminal for the invocation; nothing is
// retried.
func (p *Pipeline) Run(ctx context.Context, req *transfer.Request) (string, error) {
	lock := p.senderLock(req.Sender)
	lock.Lock()
	defer lock.Unlock()

	metrics.TransferStarted()

	log := p.logger.WithFields(logrus.Fields{
		"sender":      req.Sender,
		"recipient":   req.Recipient,
		"wallet_type": req.WalletType,
	})

	prepared, err := p.validator.Validate(ctx, req)
	if err != nil {
		p.countFailure(err)
		log.WithError(err).Warn("transfer rejected by validation")
		return "", err
	}
	log.WithField("estimated_fee", prepared.EstimatedFee).Info("transfer admitted")

	backend, err := p.signers.ForWalletType(prepared.WalletType)
	if err != nil {
		failure := transfer.NewTransactionError(err)
		p.countFailure(failure)
		return "", failure
	}

	signed, err := p.assembler.Assemble(ctx, prepared, backend)
	if err != nil {
		p.countFailure(err)
		log.WithError(err).Error("transfer assembly failed")
		return "", err
	}
	log.WithField("fee_charged", signed.FeeCharged).Info("transaction signed")

	txID, err := p.broadcaster.Broadcast(ctx, signed.RawTx)
	if err != nil {
		p.countFailure(err)
		// The device already produced a valid signature; the payload is
		// unsent and has no chain effect, but the caller must be told.
		log.WithError(err).Error("broadcast failed, signed payload discarded")
		return "", err
	}

	metrics.TransferBroadcast()
	log.WithField("txid", txID).Info("transfer broadcast")
	return txID, nil
}

func (p *Pipeline) senderLock(sender string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.senders[sender]
	if !ok {
		lock = &sync.Mutex{}
		p.senders[sender] = lock
	}
	return lock
}

func (p *Pipeline) countFailure(err error) {
	metrics.TransferFailed(failureLabel(err))
}

// failureLabel maps an error to its metric label: the failure kind for domain
// failures, internal_error for everything else (malformed requests, snapshot
// read faults) so unclassified errors never masquerade as a domain kind.
func failureLabel(err error) string {
	var failure *transfer.Failure
	if errors.As(err, &failure) {
		return string(failure.Kind)
	}
	return "internal_error"
}
