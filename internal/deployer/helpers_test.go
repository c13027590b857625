package deployer

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Bidon15/nftst-deployer/internal/artifacts"
	"github.com/Bidon15/nftst-deployer/internal/config"
	"github.com/Bidon15/nftst-deployer/internal/network"
)

const (
	// Anvil account 0. Publicly known, test use only.
	testPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testDeployer   = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testAPIKey     = "alchemy-secret-api-key"
	sepoliaChainID = 11155111

	testABI      = `[{"inputs":[],"stateMutability":"nonpayable","type":"constructor"},{"inputs":[],"name":"name","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"}]`
	testCtorABI  = `[{"inputs":[{"internalType":"string","name":"name_","type":"string"},{"internalType":"string","name":"symbol_","type":"string"}],"stateMutability":"nonpayable","type":"constructor"}]`
	testBytecode = "0x6080604052348015600f57600080fd5b50603f80601d6000396000f3fe"
)

var fixedAddress = common.HexToAddress("0xABCDEF0123456789abcdef0123456789ABCDEF01")

// MockBackend is a mock implementation of Backend for testing.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ChainID(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	args := m.Called(ctx, account, blockNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Header), args.Error(1)
}

func (m *MockBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	args := m.Called(ctx, call)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Receipt), args.Error(1)
}

func (m *MockBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	args := m.Called(ctx, account, blockNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBackend) Close() {
	m.Called()
}

// expectSubmission sets up a node on Sepolia that accepts any creation transaction.
func (m *MockBackend) expectSubmission() {
	m.On("ChainID", mock.Anything).Return(big.NewInt(sepoliaChainID), nil)
	m.On("BalanceAt", mock.Anything, mock.Anything, mock.Anything).Return(big.NewInt(1e18), nil)
	m.On("HeaderByNumber", mock.Anything, mock.Anything).Return(&types.Header{BaseFee: big.NewInt(7e9)}, nil)
	m.On("SuggestGasTipCap", mock.Anything).Return(big.NewInt(1e9), nil)
	m.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(1_200_000), nil)
	m.On("Close").Return()
}

// expectConfirmation makes every receipt lookup return a successful receipt for addr.
func (m *MockBackend) expectConfirmation(addr common.Address) {
	m.On("TransactionReceipt", mock.Anything, mock.Anything).Return(successReceipt(addr), nil)
	m.On("CodeAt", mock.Anything, addr, mock.Anything).Return([]byte{0x60, 0x80}, nil)
}

func successReceipt(addr common.Address) *types.Receipt {
	return &types.Receipt{
		Status:          types.ReceiptStatusSuccessful,
		ContractAddress: addr,
		BlockNumber:     big.NewInt(6_000_000),
		GasUsed:         1_100_000,
	}
}

// staticArtifacts is an ArtifactSource backed by a map.
type staticArtifacts map[string]*artifacts.Artifact

func (s staticArtifacts) Load(name string) (*artifacts.Artifact, error) {
	a, ok := s[name]
	if !ok {
		return nil, artifacts.ErrArtifactNotFound
	}
	return a, nil
}

func testArtifact(t *testing.T, abiJSON string) *artifacts.Artifact {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	require.NoError(t, err)
	return &artifacts.Artifact{
		ContractName: "NFTst",
		SourceName:   "contracts/NFTst.sol",
		ABI:          parsed,
		Bytecode:     common.FromHex(testBytecode),
		SolcVersion:  "0.8.28",
		Path:         "artifacts/contracts/NFTst.sol/NFTst.json",
	}
}

func testNetwork(t *testing.T, privateKey string) *network.Network {
	t.Helper()
	n, err := network.New("sepolia", &config.Secrets{AlchemyAPIKey: testAPIKey, PrivateKey: privateKey})
	require.NoError(t, err)
	return n
}

// dialerFor returns a dialer that always hands out backend and counts dials.
func dialerFor(backend Backend, dials *int) Dialer {
	return DialFunc(func(ctx context.Context, rpcURL string) (Backend, error) {
		*dials++
		return backend, nil
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}
