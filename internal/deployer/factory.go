package deployer

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Bidon15/nftst-deployer/internal/artifacts"
	"github.com/Bidon15/nftst-deployer/internal/signer"
)

// Factory creates contract-creation transactions for a single artifact.
type Factory struct {
	artifact *artifacts.Artifact
	backend  Backend
	signer   signer.TransactionSigner
	logger   *slog.Logger
}

// NewFactory binds an artifact to a backend and signer.
func NewFactory(
	artifact *artifacts.Artifact,
	backend Backend,
	txSigner signer.TransactionSigner,
	logger *slog.Logger,
) *Factory {
	return &Factory{
		artifact: artifact,
		backend:  backend,
		signer:   txSigner,
		logger:   logger,
	}
}

// Deploy signs and submits a contract-creation transaction with the given
// constructor arguments. It returns once the node has accepted the transaction.
// Every call sends a new transaction.
func (f *Factory) Deploy(ctx context.Context, args ...any) (*Deployment, error) {
	ctorArgs, err := f.artifact.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("pack constructor arguments: %w", err)
	}
	data := make([]byte, 0, len(f.artifact.Bytecode)+len(ctorArgs))
	data = append(data, f.artifact.Bytecode...)
	data = append(data, ctorArgs...)

	from := f.signer.Address()

	nonce, err := f.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}

	fees, err := f.suggestFees(ctx)
	if err != nil {
		return nil, err
	}

	gasLimit, err := f.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:      from,
		To:        nil, // Contract creation
		GasPrice:  fees.gasPrice,
		GasFeeCap: fees.feeCap,
		GasTipCap: fees.tipCap,
		Value:     big.NewInt(0),
		Data:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	tx := fees.newContractCreation(f.signer.ChainID(), nonce, gasLimit, data)

	signedTx, err := f.signer.SignTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	if err := f.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	f.logger.Info("deployment transaction sent",
		slog.String("contract", f.artifact.ContractName),
		slog.String("tx_hash", signedTx.Hash().Hex()),
		slog.Uint64("nonce", nonce),
		slog.Uint64("gas_limit", gasLimit),
	)

	return &Deployment{
		contractName: f.artifact.ContractName,
		tx:           signedTx,
		expected:     crypto.CreateAddress(from, nonce),
		backend:      f.backend,
		logger:       f.logger,
	}, nil
}

// txFees is either a legacy gas price or an EIP-1559 fee cap/tip pair.
type txFees struct {
	gasPrice *big.Int
	feeCap   *big.Int
	tipCap   *big.Int
}

// suggestFees uses the node's suggestions as-is: EIP-1559 when the latest
// header carries a base fee, legacy gas price otherwise.
func (f *Factory) suggestFees(ctx context.Context) (*txFees, error) {
	head, err := f.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("get latest header: %w", err)
	}

	if head.BaseFee == nil {
		gasPrice, err := f.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("get gas price: %w", err)
		}
		return &txFees{gasPrice: gasPrice}, nil
	}

	tip, err := f.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("get gas tip cap: %w", err)
	}
	// maxFee = 2*baseFee + tip
	feeCap := new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)
	return &txFees{feeCap: feeCap, tipCap: tip}, nil
}

func (fees *txFees) newContractCreation(chainID *big.Int, nonce, gasLimit uint64, data []byte) *types.Transaction {
	if fees.gasPrice != nil {
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: fees.gasPrice,
			Gas:      gasLimit,
			Value:    big.NewInt(0),
			Data:     data,
		})
	}
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: fees.tipCap,
		GasFeeCap: fees.feeCap,
		Gas:       gasLimit,
		Value:     big.NewInt(0),
		Data:      data,
	})
}

// Deployment is the handle for one submitted contract-creation transaction.
type Deployment struct {
	contractName string
	tx           *types.Transaction
	expected     common.Address
	backend      Backend
	logger       *slog.Logger

	receipt *types.Receipt
}

// Transaction returns the signed creation transaction.
func (d *Deployment) Transaction() *types.Transaction {
	return d.tx
}

// ExpectedAddress returns the address derived from sender and nonce, known before mining.
func (d *Deployment) ExpectedAddress() common.Address {
	return d.expected
}

// WaitForDeployment blocks until the transaction is mined, then checks that it
// succeeded and left code at the contract address. Confirmation polling is
// delegated to bind.WaitMined.
func (d *Deployment) WaitForDeployment(ctx context.Context) error {
	if d.receipt != nil {
		return nil
	}

	receipt, err := bind.WaitMined(ctx, d.backend, d.tx)
	if err != nil {
		return fmt.Errorf("wait for receipt: %w", err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: %s (tx %s)", ErrDeploymentReverted, d.contractName, d.tx.Hash().Hex())
	}
	if receipt.ContractAddress == (common.Address{}) {
		return fmt.Errorf("%w: tx %s", ErrNoContractAddress, d.tx.Hash().Hex())
	}

	code, err := d.backend.CodeAt(ctx, receipt.ContractAddress, nil)
	if err != nil {
		return fmt.Errorf("get code at %s: %w", receipt.ContractAddress.Hex(), err)
	}
	if len(code) == 0 {
		return fmt.Errorf("%w: %s", ErrNoCodeAtAddress, receipt.ContractAddress.Hex())
	}

	d.receipt = receipt
	d.logger.Info("deployment confirmed",
		slog.String("contract", d.contractName),
		slog.String("address", receipt.ContractAddress.Hex()),
		slog.Uint64("gas_used", receipt.GasUsed),
	)
	return nil
}

// Address returns the contract address recorded in the confirmed receipt.
func (d *Deployment) Address() (common.Address, error) {
	if d.receipt == nil {
		return common.Address{}, ErrNotConfirmed
	}
	return d.receipt.ContractAddress, nil
}

// Receipt returns the confirmed receipt, or nil before WaitForDeployment succeeds.
func (d *Deployment) Receipt() *types.Receipt {
	return d.receipt
}
