package mint

const (
	Env_AwsEndpoint             = "AWS_ENDPOINT"
	Env_AwsRegion               = "AWS_REGION"
	Env_Env                     = "ENV"
	Env_LogLevel                = "LOG_LEVEL"
	Env_PinBackend              = "PIN_BACKEND"
	Env_PinataJwt               = "PINATA_JWT"
	Env_PinataPublicJwt         = "NEXT_PUBLIC_PINATA_JWT"
	Env_PinataApiUrl            = "PINATA_API_URL"
	Env_IpfsAddress             = "IPFS_ADDRESS"
	Env_EthRpcUrl               = "ETH_RPC_URL"
	Env_ChainId                 = "CHAIN_ID"
	Env_ContractAddress         = "CONTRACT_ADDRESS"
	Env_WalletPrivateKey        = "WALLET_PRIVATE_KEY"
	Env_MintConfirmTimeout      = "MINT_CONFIRM_TIMEOUT"
	Env_MintConfirmPollInterval = "MINT_CONFIRM_POLL_INTERVAL"
	Env_AttemptStore            = "ATTEMPT_STORE"
	Env_MetadataArchiveBucket   = "METADATA_ARCHIVE_BUCKET"
	Env_PinServerAddr           = "PIN_SERVER_ADDR"
	Env_DiscordAlertWebhook     = "DISCORD_ALERT_WEBHOOK"
	Env_DiscordTestWebhook      = "DISCORD_TEST_WEBHOOK"
	Env_MetricsEndpoint         = "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"
	Env_DbHost                  = "DB_HOST"
	Env_DbName                  = "DB_NAME"
	Env_DbPassword              = "DB_PASSWORD"
	Env_DbPort                  = "DB_PORT"
	Env_DbUsername              = "DB_USERNAME"
)

const (
	PinBackend_Pinata = "pinata"
	PinBackend_Kubo   = "kubo"
)

const (
	AttemptStore_None     = "none"
	AttemptStore_Postgres = "postgres"
	AttemptStore_DynamoDb = "dynamodb"
)
