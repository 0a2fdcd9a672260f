package models

import (
	"context"
	"math/big"
)

type ContentPinner interface {
	PinBinary(ctx context.Context, upload UploadRequest) (*PinResult, error)
	PinJson(ctx context.Context, document any) (*PinResult, error)
}

// WalletSession is owned by the caller. The core only reads the account address from it.
type WalletSession interface {
	Address() string
}

type Minter interface {
	Mint(ctx context.Context, call TokenMint) (string, error)
	WaitConfirmed(ctx context.Context, txHash string) error
}

type ContractReader interface {
	Name(ctx context.Context) (string, error)
	Symbol(ctx context.Context) (string, error)
	TokenURI(ctx context.Context, tokenId *big.Int) (string, error)
	TotalSupply(ctx context.Context) (*big.Int, error)
}

type AttemptRepository interface {
	StoreAttempt(ctx context.Context, attempt *MintAttempt) error
}

type KeyValueRepository interface {
	Store(ctx context.Context, key string, value interface{}) error
}

type Notifier interface {
	SendAlert(title, desc string) error
}

type MetricService interface {
	Count(ctx context.Context, name MetricName, val int) error
	Distribution(ctx context.Context, name MetricName, val int) error
	Shutdown(ctx context.Context)
}

type Logger interface {
	Debugf(template string, args ...interface{})
	Debugw(msg string, args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Infoln(args ...interface{})
	Warnf(template string, args ...interface{})
	Sync() error
}
