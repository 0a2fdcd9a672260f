package models

import (
	"fmt"
	"time"
)

// ConfigurationError is raised before any remote call is attempted, e.g. when the pinning credential is missing.
type ConfigurationError struct {
	Setting string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error for %s: %v", e.Setting, e.Err)
	}
	return fmt.Sprintf("%s is not set", e.Setting)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RemoteServiceError carries a short diagnostic from a pinning service. Message never includes request headers.
type RemoteServiceError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s returned %d: %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

type ContractError struct {
	Op  string
	Err error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("contract %s failed: %v", e.Op, e.Err)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

type ConfirmationTimeoutError struct {
	TxHash  string
	Timeout time.Duration
	Err     error
}

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("transaction %s not confirmed within %s", e.TxHash, e.Timeout)
}

func (e *ConfirmationTimeoutError) Unwrap() error {
	return e.Err
}
