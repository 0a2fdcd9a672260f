package models

type MetricName string

// Counts
const (
	MetricName_MintAttempt   MetricName = "mint_attempt"
	MetricName_MintSucceeded MetricName = "mint_succeeded"
	MetricName_MintFailed    MetricName = "mint_failed"
	MetricName_PinError      MetricName = "pin_error"
	MetricName_PinLimited    MetricName = "pin_limited"
	MetricName_TxReverted    MetricName = "tx_reverted"
)

// Distributions
const (
	MetricName_MintDurationMs    MetricName = "mint_duration_ms"
	MetricName_PinDurationMs     MetricName = "pin_duration_ms"
	MetricName_ConfirmDurationMs MetricName = "confirm_duration_ms"
)

const MetricsCallerName = "go-mint"
