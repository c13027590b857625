// Package deployer deploys a single compiled contract and reports its address.
package deployer

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/Bidon15/nftst-deployer/internal/artifacts"
	"github.com/Bidon15/nftst-deployer/internal/network"
	"github.com/Bidon15/nftst-deployer/internal/signer"
)

// ArtifactSource resolves a compiled contract by name.
type ArtifactSource interface {
	Load(name string) (*artifacts.Artifact, error)
}

// Deployer runs the resolve, submit, wait, read-address sequence against one network.
type Deployer struct {
	artifacts ArtifactSource
	network   *network.Network
	dialer    Dialer
	solidity  string
	logger    *slog.Logger
}

// Config contains configuration for a Deployer.
type Config struct {
	Artifacts ArtifactSource
	Network   *network.Network
	// Dialer defaults to an EthDialer.
	Dialer Dialer
	// Solidity is the compiler version the project expects; a different
	// version recorded in the artifact is logged as a warning.
	Solidity string
	Logger   *slog.Logger
}

// Result contains the outcome of a successful deployment.
type Result struct {
	RunID        uuid.UUID
	ContractName string
	Address      common.Address
	TxHash       common.Hash
	BlockNumber  *big.Int
	GasUsed      uint64
	Deployer     common.Address
	Network      string
}

// New creates a Deployer.
func New(cfg Config) *Deployer {
	d := &Deployer{
		artifacts: cfg.Artifacts,
		network:   cfg.Network,
		dialer:    cfg.Dialer,
		solidity:  cfg.Solidity,
		logger:    cfg.Logger,
	}
	if d.dialer == nil {
		d.dialer = NewEthDialer()
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Run deploys contractName once. Nothing is cached between runs: each call
// resolves the artifact, dials the network and sends a new transaction.
// Errors are returned with the endpoint URL and secrets masked.
func (d *Deployer) Run(ctx context.Context, contractName string) (*Result, error) {
	runID := uuid.New()
	logger := d.logger.With(slog.String("run_id", runID.String()))

	result, err := d.run(ctx, logger, contractName)
	if err != nil {
		return nil, d.redact(err)
	}
	result.RunID = runID
	return result, nil
}

func (d *Deployer) run(ctx context.Context, logger *slog.Logger, contractName string) (*Result, error) {
	// 1. Resolve the compiled artifact
	artifact, err := d.artifacts.Load(contractName)
	if err != nil {
		return nil, fmt.Errorf("resolve artifact %s: %w", contractName, err)
	}
	logger.Info("artifact resolved",
		slog.String("contract", artifact.FullyQualifiedName()),
		slog.String("path", artifact.Path),
		slog.Int("bytecode_size", len(artifact.Bytecode)),
	)
	if err := artifact.CheckCompiler(d.solidity); err != nil {
		logger.Warn("artifact compiler version differs from project setting",
			slog.String("error", err.Error()),
		)
	}

	if len(d.network.Accounts) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one account, got %d", ErrNoAccount, len(d.network.Accounts))
	}
	txSigner, err := signer.NewLocalSigner(d.network.Accounts[0], d.network.ChainID)
	if err != nil {
		return nil, fmt.Errorf("load deployer account: %w", err)
	}

	client, err := d.dialer.Dial(ctx, d.network.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", d.network.Name, err)
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain ID: %w", err)
	}
	if chainID.Int64() != d.network.ChainID {
		return nil, fmt.Errorf("%w: network %s expects %d, node reports %s",
			ErrChainIDMismatch, d.network.Name, d.network.ChainID, chainID)
	}

	balance, err := client.BalanceAt(ctx, txSigner.Address(), nil)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	logger.Info("deploying contract",
		slog.String("contract", artifact.ContractName),
		slog.Any("network", d.network),
		slog.String("deployer", txSigner.Address().Hex()),
		slog.String("balance_wei", balance.String()),
	)

	// 2. Submit the creation transaction
	factory := NewFactory(artifact, client, txSigner, logger)
	deployment, err := factory.Deploy(ctx)
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", artifact.ContractName, err)
	}

	// 3. Wait until mined
	if err := deployment.WaitForDeployment(ctx); err != nil {
		return nil, fmt.Errorf("wait for %s deployment: %w", artifact.ContractName, err)
	}

	// 4. Read the address from the receipt
	address, err := deployment.Address()
	if err != nil {
		return nil, fmt.Errorf("get %s address: %w", artifact.ContractName, err)
	}

	receipt := deployment.Receipt()
	return &Result{
		ContractName: artifact.ContractName,
		Address:      address,
		TxHash:       deployment.Transaction().Hash(),
		BlockNumber:  receipt.BlockNumber,
		GasUsed:      receipt.GasUsed,
		Deployer:     txSigner.Address(),
		Network:      d.network.Name,
	}, nil
}

func (d *Deployer) redact(err error) error {
	msg := d.network.Redact(err.Error())
	if msg == err.Error() {
		return err
	}
	return &redactedError{msg: msg, err: err}
}
