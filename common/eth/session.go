package eth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ceramicnetwork/go-mint"
	"github.com/ceramicnetwork/go-mint/common/config"
	"github.com/ceramicnetwork/go-mint/models"
)

// Signer is a wallet session that can also authorize transactions.
type Signer interface {
	models.WalletSession
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
}

var _ Signer = &KeyedSession{}

// KeyedSession signs with a private key held in server-side configuration.
type KeyedSession struct {
	key     *ecdsa.PrivateKey
	chainId *big.Int
	address common.Address
}

func NewKeyedSession(hexKey config.Secret, chainId int64) (*KeyedSession, error) {
	if !hexKey.IsSet() {
		return nil, &models.ConfigurationError{Setting: mint.Env_WalletPrivateKey}
	}
	if chainId <= 0 {
		return nil, &models.ConfigurationError{Setting: mint.Env_ChainId, Err: errors.New("chain id must be positive")}
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey.Reveal(), "0x"))
	if err != nil {
		// The decoder error can echo key material
		return nil, &models.ConfigurationError{Setting: mint.Env_WalletPrivateKey, Err: errors.New("invalid private key")}
	}
	return &KeyedSession{
		key:     key,
		chainId: big.NewInt(chainId),
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (s *KeyedSession) Address() string {
	return s.address.Hex()
}

func (s *KeyedSession) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, s.chainId)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}
