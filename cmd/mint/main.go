package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ceramicnetwork/go-mint"
	awsConfig "github.com/ceramicnetwork/go-mint/common/aws/config"
	"github.com/ceramicnetwork/go-mint/common/aws/ddb"
	"github.com/ceramicnetwork/go-mint/common/aws/storage"
	"github.com/ceramicnetwork/go-mint/common/config"
	"github.com/ceramicnetwork/go-mint/common/db"
	"github.com/ceramicnetwork/go-mint/common/eth"
	"github.com/ceramicnetwork/go-mint/common/loggers"
	"github.com/ceramicnetwork/go-mint/common/metrics"
	"github.com/ceramicnetwork/go-mint/common/notifs"
	"github.com/ceramicnetwork/go-mint/models"
	"github.com/ceramicnetwork/go-mint/services"
)

type MintCmd struct {
	Image       string `arg:"--image,required" help:"path to the photo to mint"`
	To          string `arg:"--to" help:"recipient address, defaults to the wallet address"`
	Name        string `arg:"--name" help:"photo name"`
	Description string `arg:"--description" help:"photo description"`
	Writer      string `arg:"--writer"`
	Repro       string `arg:"--repro"`
	Kategori    string `arg:"--kategori"`
	Tahun       string `arg:"--tahun"`
	Lokasi      string `arg:"--lokasi"`
	Periode     string `arg:"--periode"`
	Tokoh       string `arg:"--tokoh"`
	Tag         string `arg:"--tag"`
}

type InfoCmd struct {
	TokenId *int64 `arg:"--token-id" help:"also print the metadata uri of this token"`
}

type args struct {
	Mint    *MintCmd `arg:"subcommand:mint" help:"pin a photo and its metadata, then mint it"`
	Info    *InfoCmd `arg:"subcommand:info" help:"print the contract's name, symbol and supply"`
	EnvFile string   `arg:"--env-file" default:".env" help:"dotenv file to load"`
}

func (args) Description() string {
	return "Mints historical photos as NFTs backed by IPFS metadata."
}

func main() {
	os.Exit(run())
}

func run() int {
	var cliArgs args
	p := arg.MustParse(&cliArgs)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}
	if err := godotenv.Load(cliArgs.EnvFile); err != nil && !os.IsNotExist(err) {
		log.Fatalf("mint: error loading %s: %v", cliArgs.EnvFile, err)
	}

	logger := loggers.NewLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("mint: error loading config: %v", err)
	}
	if cfg.PublicPinataJwtSet {
		logger.Warnf("mint: %s is set but ignored, the pinning credential is only read from %s", mint.Env_PinataPublicJwt, mint.Env_PinataJwt)
	}
	if err = cfg.RequireChain(); err != nil {
		logger.Fatalf("mint: %v", err)
	}
	if cliArgs.Mint != nil {
		if err = cfg.RequirePinning(); err != nil {
			logger.Fatalf("mint: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ethClient, err := eth.Dial(ctx, cfg.EthRpcUrl)
	if err != nil {
		logger.Fatalf("mint: %v", err)
	}
	defer ethClient.Close()

	metricService, err := metrics.NewOtelMetricService(ctx, logger)
	if err != nil {
		logger.Fatalf("mint: error creating metric service: %v", err)
	}
	defer metricService.Shutdown(context.Background())

	if cliArgs.Mint != nil {
		return runMint(ctx, logger, cfg, cliArgs.Mint, ethClient, metricService)
	}
	return runInfo(ctx, logger, cfg, cliArgs.Info, ethClient, metricService)
}

func runMint(ctx context.Context, logger models.Logger, cfg *config.Config, cmd *MintCmd, backend eth.ChainBackend, metricService models.MetricService) int {
	session, err := eth.NewKeyedSession(cfg.WalletPrivateKey, cfg.ChainId)
	if err != nil {
		logger.Errorf("mint: %v", err)
		return 1
	}
	nft, err := eth.NewPhotoNft(logger, backend, cfg.ContractAddress, session, cfg.ConfirmPollInterval, metricService)
	if err != nil {
		logger.Errorf("mint: %v", err)
		return 1
	}
	pinner, err := services.NewContentPinner(logger, cfg, metricService)
	if err != nil {
		logger.Errorf("mint: %v", err)
		return 1
	}
	imageBytes, err := os.ReadFile(cmd.Image)
	if err != nil {
		logger.Errorf("mint: error reading image: %v", err)
		return 1
	}

	opts := services.MintServiceOpts{
		ConfirmTimeout: cfg.ConfirmTimeout,
		OnTransition: func(attemptId uuid.UUID, state models.MintState) {
			fmt.Printf("%s: %s\n", attemptId, state)
		},
	}
	if opts.AttemptDb, err = newAttemptDb(ctx, logger, cfg); err != nil {
		logger.Errorf("mint: error creating attempt store: %v", err)
		return 1
	}
	if len(cfg.ArchiveBucket) > 0 {
		awsCfg, err := awsConfig.AwsConfig(ctx, logger)
		if err != nil {
			logger.Errorf("mint: error creating aws config: %v", err)
			return 1
		}
		opts.Archive = storage.NewS3Store(logger, s3.NewFromConfig(awsCfg), cfg.ArchiveBucket)
	}
	if opts.Notifier, err = notifs.NewDiscordHandler(logger); err != nil {
		logger.Errorf("mint: error creating notifier: %v", err)
		return 1
	}

	recipient := cmd.To
	if len(recipient) == 0 {
		recipient = session.Address()
	}
	req := models.MintRequest{
		Form: models.MintForm{
			Name:        cmd.Name,
			Description: cmd.Description,
			Writer:      cmd.Writer,
			Repro:       cmd.Repro,
			Kategori:    cmd.Kategori,
			Tahun:       cmd.Tahun,
			Lokasi:      cmd.Lokasi,
			Periode:     cmd.Periode,
			Tokoh:       cmd.Tokoh,
			Tag:         cmd.Tag,
		},
		Image:            models.UploadRequest{Payload: imageBytes, Filename: filepath.Base(cmd.Image)},
		RecipientAddress: recipient,
	}
	outcome := services.NewMintService(logger, pinner, nft, metricService, opts).Mint(ctx, req)

	outcomeJson, _ := json.MarshalIndent(outcome, "", "  ")
	fmt.Println(string(outcomeJson))
	if !outcome.Succeeded() {
		fmt.Fprintln(os.Stderr, outcome.FailureMessage())
		return 1
	}
	return 0
}

// newAttemptDb returns nil when attempts are not recorded.
func newAttemptDb(ctx context.Context, logger models.Logger, cfg *config.Config) (models.AttemptRepository, error) {
	switch cfg.AttemptStore {
	case mint.AttemptStore_Postgres:
		return db.NewAttemptDb(ctx, logger, db.AttemptDbOpts{
			Host:     os.Getenv(mint.Env_DbHost),
			Port:     os.Getenv(mint.Env_DbPort),
			User:     os.Getenv(mint.Env_DbUsername),
			Password: os.Getenv(mint.Env_DbPassword),
			Name:     os.Getenv(mint.Env_DbName),
		})
	case mint.AttemptStore_DynamoDb:
		awsCfg, err := awsConfig.AwsConfig(ctx, logger)
		if err != nil {
			return nil, err
		}
		return ddb.NewAttemptDb(ctx, logger, dynamodb.NewFromConfig(awsCfg))
	default:
		return nil, nil
	}
}

func runInfo(ctx context.Context, logger models.Logger, cfg *config.Config, cmd *InfoCmd, backend eth.ChainBackend, metricService models.MetricService) int {
	nft, err := eth.NewPhotoNft(logger, backend, cfg.ContractAddress, nil, cfg.ConfirmPollInterval, metricService)
	if err != nil {
		logger.Errorf("info: %v", err)
		return 1
	}
	name, err := nft.Name(ctx)
	if err != nil {
		logger.Errorf("info: %v", err)
		return 1
	}
	symbol, err := nft.Symbol(ctx)
	if err != nil {
		logger.Errorf("info: %v", err)
		return 1
	}
	totalSupply, err := nft.TotalSupply(ctx)
	if err != nil {
		logger.Errorf("info: %v", err)
		return 1
	}
	fmt.Printf("contract: %s\nname: %s\nsymbol: %s\ntotal supply: %s\n", cfg.ContractAddress, name, symbol, totalSupply)
	if cmd.TokenId != nil {
		tokenUri, err := nft.TokenURI(ctx, big.NewInt(*cmd.TokenId))
		if err != nil {
			logger.Errorf("info: %v", err)
			return 1
		}
		fmt.Printf("token %d: %s\n", *cmd.TokenId, tokenUri)
	}
	return 0
}
