package services

import (
	"context"
	"errors"
	"sync"

	"github.com/ceramicnetwork/go-mint/models"
)

type MockPinner struct {
	lock          sync.Mutex
	binaryCids    []string
	jsonCids      []string
	binaryErr     error
	jsonErr       error
	binaryCalls   int
	jsonCalls     int
	pinnedUploads []models.UploadRequest
	pinnedDocs    []any
}

func (m *MockPinner) PinBinary(ctx context.Context, upload models.UploadRequest) (*models.PinResult, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.binaryCalls++
	if m.binaryErr != nil {
		return nil, m.binaryErr
	}
	m.pinnedUploads = append(m.pinnedUploads, upload)
	return &models.PinResult{Cid: m.binaryCids[(m.binaryCalls-1)%len(m.binaryCids)]}, nil
}

func (m *MockPinner) PinJson(ctx context.Context, document any) (*models.PinResult, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.jsonCalls++
	if m.jsonErr != nil {
		return nil, m.jsonErr
	}
	m.pinnedDocs = append(m.pinnedDocs, document)
	return &models.PinResult{Cid: m.jsonCids[(m.jsonCalls-1)%len(m.jsonCids)]}, nil
}

type MockMinter struct {
	lock         sync.Mutex
	txHash       string
	mintErr      error
	confirmErr   error
	blockConfirm bool
	mintCalls    []models.TokenMint
	confirmCalls []string
}

func (m *MockMinter) Mint(ctx context.Context, call models.TokenMint) (string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.mintCalls = append(m.mintCalls, call)
	if m.mintErr != nil {
		return "", m.mintErr
	}
	return m.txHash, nil
}

func (m *MockMinter) WaitConfirmed(ctx context.Context, txHash string) error {
	m.lock.Lock()
	m.confirmCalls = append(m.confirmCalls, txHash)
	m.lock.Unlock()
	if m.blockConfirm {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.confirmErr
}

func (m *MockMinter) numMints() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.mintCalls)
}

type MockAttemptRepository struct {
	lock       sync.Mutex
	states     []string
	latest     map[string]models.MintAttempt
	shouldFail bool
}

func (m *MockAttemptRepository) StoreAttempt(ctx context.Context, attempt *models.MintAttempt) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.shouldFail {
		return errors.New("db unavailable")
	}
	if m.latest == nil {
		m.latest = make(map[string]models.MintAttempt)
	}
	m.states = append(m.states, attempt.State)
	m.latest[attempt.Id.String()] = *attempt
	return nil
}

type MockKeyValueRepository struct {
	lock   sync.Mutex
	values map[string]interface{}
}

func (m *MockKeyValueRepository) Store(ctx context.Context, key string, value interface{}) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.values == nil {
		m.values = make(map[string]interface{})
	}
	m.values[key] = value
	return nil
}

type MockNotifier struct {
	lock   sync.Mutex
	alerts []string
}

func (m *MockNotifier) SendAlert(title, desc string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.alerts = append(m.alerts, desc)
	return nil
}

type MockMetricService struct {
	models.MetricService
	lock   sync.Mutex
	counts map[models.MetricName]int
}

func (m *MockMetricService) Count(ctx context.Context, name models.MetricName, val int) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.counts == nil {
		m.counts = make(map[models.MetricName]int)
	}
	m.counts[name] += val
	return nil
}

func (m *MockMetricService) Distribution(ctx context.Context, name models.MetricName, val int) error {
	return nil
}

func (m *MockMetricService) count(name models.MetricName) int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.counts[name]
}
