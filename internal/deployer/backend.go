package deployer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend is the subset of *ethclient.Client a deployment uses.
// It also satisfies bind.DeployBackend.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	Close()
}

// Dialer opens a Backend for an RPC endpoint.
type Dialer interface {
	Dial(ctx context.Context, rpcURL string) (Backend, error)
}

// DialFunc adapts an ordinary function to the Dialer interface.
type DialFunc func(ctx context.Context, rpcURL string) (Backend, error)

// Dial calls f(ctx, rpcURL).
func (f DialFunc) Dial(ctx context.Context, rpcURL string) (Backend, error) {
	return f(ctx, rpcURL)
}

// EthDialer dials JSON-RPC endpoints with go-ethereum's ethclient.
type EthDialer struct{}

// NewEthDialer creates a new EthDialer.
func NewEthDialer() *EthDialer {
	return &EthDialer{}
}

// Dial connects to an Ethereum RPC endpoint.
func (d *EthDialer) Dial(ctx context.Context, rpcURL string) (Backend, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

var (
	_ Backend = (*ethclient.Client)(nil)
	_ Dialer  = (*EthDialer)(nil)
	_ Dialer  = DialFunc(nil)
)
