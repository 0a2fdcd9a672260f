package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"github.com/ceramicnetwork/go-mint"
	"github.com/ceramicnetwork/go-mint/models"
)

const redacted = "[REDACTED]"

const defaultPinataApiUrl = "https://api.pinata.cloud"
const defaultIpfsAddress = "/ip4/127.0.0.1/tcp/5001"
const defaultPinServerAddr = ":8080"

// Secret holds a server-side credential. It never renders its value through fmt, JSON or zap, so a Config can be
// logged or returned to a client without leaking it. Use Reveal only when building the outbound request.
type Secret string

func (s Secret) String() string {
	if len(s) == 0 {
		return ""
	}
	return redacted
}

func (s Secret) GoString() string {
	return s.String()
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s Secret) Reveal() string {
	return string(s)
}

func (s Secret) IsSet() bool {
	return len(s) > 0
}

type Config struct {
	Env                 string        `json:"env"`
	PinBackend          string        `json:"pinBackend" validate:"oneof=pinata kubo"`
	PinataJwt           Secret        `json:"pinataJwt"`
	PinataApiUrl        string        `json:"pinataApiUrl" validate:"required,url"`
	IpfsAddress         string        `json:"ipfsAddress" validate:"required"`
	EthRpcUrl           string        `json:"ethRpcUrl"`
	ChainId             int64         `json:"chainId" validate:"gte=0"`
	ContractAddress     string        `json:"contractAddress"`
	WalletPrivateKey    Secret        `json:"walletPrivateKey"`
	ConfirmTimeout      time.Duration `json:"confirmTimeout" validate:"gt=0"`
	ConfirmPollInterval time.Duration `json:"confirmPollInterval" validate:"gt=0"`
	AttemptStore        string        `json:"attemptStore" validate:"oneof=none postgres dynamodb"`
	ArchiveBucket       string        `json:"archiveBucket"`
	PinServerAddr       string        `json:"pinServerAddr" validate:"required"`
	// PublicPinataJwtSet records that a client-visible credential variable exists. It is reported, never used.
	PublicPinataJwtSet bool `json:"-"`
}

// Load reads the configuration from the environment. The pinning credential is only ever read from the server-side
// variable; the client-exposed variant is detected so that callers can warn about it.
func Load() (*Config, error) {
	cfg := &Config{
		Env:                 os.Getenv(mint.Env_Env),
		PinBackend:          mint.PinBackend_Pinata,
		PinataJwt:           Secret(os.Getenv(mint.Env_PinataJwt)),
		PinataApiUrl:        defaultPinataApiUrl,
		IpfsAddress:         defaultIpfsAddress,
		EthRpcUrl:           os.Getenv(mint.Env_EthRpcUrl),
		ContractAddress:     os.Getenv(mint.Env_ContractAddress),
		WalletPrivateKey:    Secret(strings.TrimPrefix(os.Getenv(mint.Env_WalletPrivateKey), "0x")),
		ConfirmTimeout:      models.DefaultConfirmTimeout,
		ConfirmPollInterval: models.DefaultConfirmPollInterval,
		AttemptStore:        mint.AttemptStore_None,
		ArchiveBucket:       os.Getenv(mint.Env_MetadataArchiveBucket),
		PinServerAddr:       defaultPinServerAddr,
	}
	if _, found := os.LookupEnv(mint.Env_PinataPublicJwt); found {
		cfg.PublicPinataJwtSet = true
	}
	if configPinBackend, found := os.LookupEnv(mint.Env_PinBackend); found {
		cfg.PinBackend = strings.ToLower(configPinBackend)
	}
	if configPinataApiUrl, found := os.LookupEnv(mint.Env_PinataApiUrl); found {
		cfg.PinataApiUrl = strings.TrimSuffix(configPinataApiUrl, "/")
	}
	if configIpfsAddress, found := os.LookupEnv(mint.Env_IpfsAddress); found {
		cfg.IpfsAddress = configIpfsAddress
	}
	if configChainId, found := os.LookupEnv(mint.Env_ChainId); found {
		if parsedChainId, err := strconv.ParseInt(configChainId, 10, 64); err != nil {
			return nil, &models.ConfigurationError{Setting: mint.Env_ChainId, Err: err}
		} else {
			cfg.ChainId = parsedChainId
		}
	}
	if configConfirmTimeout, found := os.LookupEnv(mint.Env_MintConfirmTimeout); found {
		if parsedConfirmTimeout, err := time.ParseDuration(configConfirmTimeout); err != nil {
			return nil, &models.ConfigurationError{Setting: mint.Env_MintConfirmTimeout, Err: err}
		} else {
			cfg.ConfirmTimeout = parsedConfirmTimeout
		}
	}
	if configPollInterval, found := os.LookupEnv(mint.Env_MintConfirmPollInterval); found {
		if parsedPollInterval, err := time.ParseDuration(configPollInterval); err != nil {
			return nil, &models.ConfigurationError{Setting: mint.Env_MintConfirmPollInterval, Err: err}
		} else {
			cfg.ConfirmPollInterval = parsedPollInterval
		}
	}
	if configAttemptStore, found := os.LookupEnv(mint.Env_AttemptStore); found {
		cfg.AttemptStore = strings.ToLower(configAttemptStore)
	}
	if configPinServerAddr, found := os.LookupEnv(mint.Env_PinServerAddr); found {
		cfg.PinServerAddr = configPinServerAddr
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, &models.ConfigurationError{Setting: "config", Err: err}
	}
	return cfg, nil
}

// RequirePinning checks the settings needed before any pin call is made.
func (c *Config) RequirePinning() error {
	if c.PinBackend == mint.PinBackend_Pinata && !c.PinataJwt.IsSet() {
		return &models.ConfigurationError{Setting: mint.Env_PinataJwt}
	}
	return nil
}

// RequireChain checks the settings needed to reach the contract.
func (c *Config) RequireChain() error {
	if len(c.EthRpcUrl) == 0 {
		return &models.ConfigurationError{Setting: mint.Env_EthRpcUrl}
	} else if len(c.ContractAddress) == 0 {
		return &models.ConfigurationError{Setting: mint.Env_ContractAddress}
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"env=%s pinBackend=%s pinataJwt=%s pinataApiUrl=%s ipfs=%s rpc=%s chainId=%d contract=%s confirmTimeout=%s attemptStore=%s",
		c.Env,
		c.PinBackend,
		c.PinataJwt,
		c.PinataApiUrl,
		c.IpfsAddress,
		c.EthRpcUrl,
		c.ChainId,
		c.ContractAddress,
		c.ConfirmTimeout,
		c.AttemptStore,
	)
}
