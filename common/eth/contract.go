package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ceramicnetwork/go-mint"
	"github.com/ceramicnetwork/go-mint/models"
)

const PhotoNftAbi = `[
	{"type":"function","name":"safeMint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"uri","type":"string"}],"outputs":[]},
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

const (
	method_SafeMint    = "safeMint"
	method_Name        = "name"
	method_Symbol      = "symbol"
	method_TokenURI    = "tokenURI"
	method_TotalSupply = "totalSupply"
)

const op_Confirm = "confirm"

var errNotMined = errors.New("transaction not mined yet")

// ChainBackend is what the contract needs from a node. An *ethclient.Client satisfies it.
type ChainBackend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

var _ models.Minter = &PhotoNft{}
var _ models.ContractReader = &PhotoNft{}

// PhotoNft wraps an already-deployed photo NFT contract.
type PhotoNft struct {
	address       common.Address
	abi           abi.ABI
	contract      *bind.BoundContract
	backend       ChainBackend
	signer        Signer
	pollInterval  time.Duration
	logger        models.Logger
	metricService models.MetricService
}

func Dial(ctx context.Context, rpcUrl string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcUrl)
	if err != nil {
		return nil, &models.ConfigurationError{Setting: mint.Env_EthRpcUrl, Err: err}
	}
	return client, nil
}

// NewPhotoNft binds to the contract at contractAddress. The signer may be nil, in which case only the read methods
// can be used.
func NewPhotoNft(logger models.Logger, backend ChainBackend, contractAddress string, signer Signer, pollInterval time.Duration, metricService models.MetricService) (*PhotoNft, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, &models.ConfigurationError{Setting: mint.Env_ContractAddress, Err: fmt.Errorf("invalid address %q", contractAddress)}
	}
	parsed, err := abi.JSON(strings.NewReader(PhotoNftAbi))
	if err != nil {
		return nil, err
	}
	if pollInterval <= 0 {
		pollInterval = models.DefaultConfirmPollInterval
	}
	address := common.HexToAddress(contractAddress)
	return &PhotoNft{
		address:       address,
		abi:           parsed,
		contract:      bind.NewBoundContract(address, parsed, backend, backend, backend),
		backend:       backend,
		signer:        signer,
		pollInterval:  pollInterval,
		logger:        logger,
		metricService: metricService,
	}, nil
}

func (p *PhotoNft) Mint(ctx context.Context, call models.TokenMint) (string, error) {
	if p.signer == nil {
		return "", &models.ConfigurationError{Setting: mint.Env_WalletPrivateKey}
	}
	if !common.IsHexAddress(call.RecipientAddress) {
		return "", &models.ContractError{Op: method_SafeMint, Err: fmt.Errorf("invalid recipient address %q", call.RecipientAddress)}
	}
	opts, err := p.signer.TransactOpts(ctx)
	if err != nil {
		return "", &models.ContractError{Op: method_SafeMint, Err: err}
	}
	tx, err := p.contract.Transact(opts, method_SafeMint, common.HexToAddress(call.RecipientAddress), call.MetadataUri)
	if err != nil {
		return "", &models.ContractError{Op: method_SafeMint, Err: err}
	}
	p.logger.Infof("eth: submitted %s for %s from %s: tx=%s", method_SafeMint, call.RecipientAddress, p.signer.Address(), tx.Hash().Hex())
	return tx.Hash().Hex(), nil
}

// WaitConfirmed polls for the transaction receipt until it is mined or ctx is done. A mined transaction that reverted
// is reported as a contract error.
func (p *PhotoNft) WaitConfirmed(ctx context.Context, txHash string) error {
	start := time.Now()
	hash := common.HexToHash(txHash)
	var receipt *types.Receipt
	err := backoff.RetryNotify(
		func() error {
			var err error
			receipt, err = p.backend.TransactionReceipt(ctx, hash)
			if errors.Is(err, ethereum.NotFound) {
				return errNotMined
			} else if err != nil {
				return err
			}
			return nil
		},
		backoff.WithContext(backoff.NewConstantBackOff(p.pollInterval), ctx),
		func(err error, duration time.Duration) {
			if !errors.Is(err, errNotMined) {
				p.logger.Warnf("eth: error fetching receipt for %s: %v", txHash, err)
			}
		},
	)
	if err != nil {
		return err
	}
	p.metricService.Distribution(ctx, models.MetricName_ConfirmDurationMs, int(time.Since(start).Milliseconds()))
	if receipt.Status == types.ReceiptStatusFailed {
		p.metricService.Count(ctx, models.MetricName_TxReverted, 1)
		return &models.ContractError{Op: op_Confirm, Err: fmt.Errorf("transaction %s reverted in block %s", txHash, receipt.BlockNumber)}
	}
	p.logger.Infof("eth: %s confirmed in block %s", txHash, receipt.BlockNumber)
	return nil
}

func (p *PhotoNft) Name(ctx context.Context) (string, error) {
	return p.callString(ctx, method_Name)
}

func (p *PhotoNft) Symbol(ctx context.Context) (string, error) {
	return p.callString(ctx, method_Symbol)
}

func (p *PhotoNft) TokenURI(ctx context.Context, tokenId *big.Int) (string, error) {
	return p.callString(ctx, method_TokenURI, tokenId)
}

func (p *PhotoNft) TotalSupply(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	if err := p.contract.Call(&bind.CallOpts{Context: ctx}, &out, method_TotalSupply); err != nil {
		return nil, &models.ContractError{Op: method_TotalSupply, Err: err}
	}
	return out[0].(*big.Int), nil
}

func (p *PhotoNft) callString(ctx context.Context, method string, params ...interface{}) (string, error) {
	var out []interface{}
	if err := p.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return "", &models.ContractError{Op: method, Err: err}
	}
	return out[0].(string), nil
}
